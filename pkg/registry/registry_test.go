package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

const playBase = "corpora/ger/plays/gerhauptm"

// upstream answers canned DraCor responses and counts every request.
type upstream struct {
	routes map[string]string

	mu   sync.Mutex
	hits map[string]int
}

func (u *upstream) total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.hits {
		n += c
	}
	return n
}

func newTestRegistry(t *testing.T, routes map[string]string) (*Registry, *upstream) {
	t.Helper()
	u := &upstream{routes: routes, hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		u.mu.Lock()
		u.hits[path]++
		u.mu.Unlock()

		body, ok := u.routes[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := dracor.NewClient(dracor.NewClientParams{
		BaseURL: srv.URL + "/api/v1",
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return New(analysis.NewAnalyzer(analysis.NewAnalyzerParams{Client: client})), u
}

func defaultRoutes() map[string]string {
	return map[string]string{
		"info":                         `{"name":"DraCor API","version":"1.0.0"}`,
		"corpora":                      `[{"name":"ger","title":"German Drama Corpus"}]`,
		"corpora/ger":                  `{"name":"ger","title":"German Drama Corpus","plays":[{"name":"gerhauptm","title":"Die Weber","authors":[{"name":"Hauptmann, Gerhart"}]}]}`,
		playBase:                       `{"name":"gerhauptm","title":"Die Weber","authors":[{"name":"Hauptmann, Gerhart"}],"yearNormalized":1892}`,
		playBase + "/characters":       `[{"id":"A","name":"Anna","gender":"FEMALE"},{"id":"B","name":"Bernd","gender":"MALE"},{"id":"C","name":"Clara"}]`,
		playBase + "/networkdata/csv":  "Source,Type,Target,Weight\nA,Undirected,B,5\nB,Undirected,C,2\n",
		playBase + "/metrics":          `{"density":0.67,"numEdges":2}`,
		playBase + "/spoken-text":      "Guten Tag.",
		playBase + "/stage-directions": "Ein Zimmer.",
		"character/Q42":                `[{"name":"gerhauptm"}]`,
	}
}

func TestReadResource_RejectsInvalidIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "parent directory", uri: "play://ger/.."},
		{name: "encoded slash", uri: "play://ger/a%2Fb"},
		{name: "encoded query", uri: "characters://ger/a%3Fb"},
		{name: "empty play", uri: "play://ger/"},
		{name: "dot in corpus", uri: "corpus://ger.x"},
		{name: "wikidata without Q", uri: "character_by_wikidata://42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, u := newTestRegistry(t, defaultRoutes())

			_, err := r.ReadResource(context.Background(), tt.uri)
			var vErr *dracor.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if u.total() != 0 {
				t.Fatalf("expected no upstream request, got %d", u.total())
			}
		})
	}
}

func TestReadResource_UnknownURI(t *testing.T) {
	r, u := newTestRegistry(t, defaultRoutes())

	for _, uri := range []string{"nope://ger", "play://ger/a/b", "play://ger/a b"} {
		_, err := r.ReadResource(context.Background(), uri)
		if !errors.Is(err, ErrUnknownResource) {
			t.Fatalf("%s: expected ErrUnknownResource, got %v", uri, err)
		}
	}
	if u.total() != 0 {
		t.Fatalf("expected no upstream request, got %d", u.total())
	}
}

func TestReadResource_Dispatch(t *testing.T) {
	tests := []struct {
		uri  string
		key  string
		want string
	}{
		{uri: "info://", key: "version", want: `"1.0.0"`},
		{uri: "corpora://", key: "corpora", want: `[{"name":"ger","title":"German Drama Corpus"`},
		{uri: "plays://ger", key: "plays", want: `[{"name":"gerhauptm"`},
		{uri: "play://ger/gerhauptm", key: "title", want: `"Die Weber"`},
		{uri: "play_metrics://ger/gerhauptm", key: "numEdges", want: `2`},
		{uri: "characters://ger/gerhauptm", key: "characters", want: `[{"gender":"FEMALE","id":"A"`},
		{uri: "spoken_text://ger/gerhauptm", key: "text", want: `"Guten Tag."`},
		{uri: "full_text://ger/gerhauptm", key: "text", want: `"DIALOGUE:\n\nGuten Tag.\n\nSTAGE DIRECTIONS:\n\nEin Zimmer."`},
		{uri: "network_data://ger/gerhauptm", key: "edges", want: `[{"source":"A"`},
		{uri: "character_by_wikidata://Q42", key: "plays", want: `[{"name":"gerhauptm"}]`},
	}

	r, _ := newTestRegistry(t, defaultRoutes())
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			content, err := r.ReadResource(context.Background(), tt.uri)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if content.URI != tt.uri || content.MIMEType != "application/json" {
				t.Fatalf("unexpected content header %q %q", content.URI, content.MIMEType)
			}

			var body map[string]json.RawMessage
			if err := json.Unmarshal([]byte(content.Text), &body); err != nil {
				t.Fatalf("expected a JSON object, got %v", err)
			}
			if !strings.HasPrefix(string(body[tt.key]), tt.want) {
				t.Fatalf("expected %s to start with %s, got %s", tt.key, tt.want, body[tt.key])
			}
		})
	}
}

func TestReadResource_UpstreamFailure(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	_, err := r.ReadResource(context.Background(), "tei_text://ger/gerhauptm")
	var uErr *dracor.UpstreamError
	if !errors.As(err, &uErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uErr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", uErr.Status)
	}
}

func TestCallTool_CharacterRelations(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	res, err := r.CallTool(context.Background(), "analyze_character_relations", `{"corpus_name":"ger","play_name":"gerhauptm"}`)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.IsError {
		t.Fatalf("expected a result, got error payload %+v", res.Value)
	}
	relations, ok := res.Value.(*analysis.RelationsAnalysis)
	if !ok {
		t.Fatalf("expected *analysis.RelationsAnalysis, got %T", res.Value)
	}
	if relations.Characters[0].ID != "B" {
		t.Fatalf("expected B to rank first, got %s", relations.Characters[0].ID)
	}
}

func TestCallTool_ValidationPayload(t *testing.T) {
	r, u := newTestRegistry(t, defaultRoutes())

	res, err := r.CallTool(context.Background(), "analyze_play_structure", `{"corpus_name":"ger","play_name":"../etc"}`)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error payload, got %+v", res.Value)
	}
	payload, ok := res.Value.(ErrorPayload)
	if !ok {
		t.Fatalf("expected ErrorPayload, got %T", res.Value)
	}
	if payload.Error.Kind != dracor.KindValidation {
		t.Fatalf("expected kind %s, got %s", dracor.KindValidation, payload.Error.Kind)
	}
	if !strings.Contains(payload.Error.Message, "play_name") {
		t.Fatalf("expected message to name play_name, got %q", payload.Error.Message)
	}
	if u.total() != 0 {
		t.Fatalf("expected no upstream request, got %d", u.total())
	}

	text, err := res.Text()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(text, `"kind": "validation"`) {
		t.Fatalf("unexpected payload text %s", text)
	}
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
	}{
		{name: "plain", arguments: `{"corpus_name":"ger","play_name":"gerhauptm"}`},
		{name: "double encoded", arguments: `"{\"corpus_name\":\"ger\",\"play_name\":\"gerhauptm\"}"`},
		{name: "single quotes", arguments: `{'corpus_name': 'ger', 'play_name': 'gerhauptm'}`},
		{name: "trailing comma", arguments: `{"corpus_name":"ger","play_name":"gerhauptm",}`},
		{name: "duplicate brace", arguments: `{{"corpus_name":"ger","play_name":"gerhauptm"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args playArgs
			if err := DecodeArguments(tt.arguments, &args); err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if args.CorpusName != "ger" || args.PlayName != "gerhauptm" {
				t.Fatalf("unexpected arguments %+v", args)
			}
		})
	}
}

func TestDecodeArguments_Empty(t *testing.T) {
	var args findCharacterArgs
	if err := DecodeArguments("", &args); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if args.CharacterName != "" {
		t.Fatalf("expected zero arguments, got %+v", args)
	}
}

func TestDecodeArguments_WrongType(t *testing.T) {
	var filters analysis.SearchFilters
	err := DecodeArguments(`{"year_from":{"from":1800}}`, &filters)
	var vErr *dracor.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Param != "arguments" {
		t.Fatalf("expected param arguments, got %s", vErr.Param)
	}
}

func TestCallTool_UnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	_, err := r.CallTool(context.Background(), "drop_tables", `{}`)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestCallTool_Canceled(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.CallTool(ctx, "find_character_across_plays", `{"character_name":"anna"}`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCallTool_FindCharacter(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	res, err := r.CallTool(context.Background(), "find_character_across_plays", `{"character_name":"ANNA","corpus_name":"ger"}`)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	found, ok := res.Value.(*analysis.FinderResult)
	if !ok {
		t.Fatalf("expected *analysis.FinderResult, got %T", res.Value)
	}
	if len(found.Matches) != 1 || found.Matches[0].CharacterID != "A" {
		t.Fatalf("expected one match for A, got %+v", found.Matches)
	}
}

func TestTools_Schemas(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	want := []string{
		"search_plays",
		"compare_plays",
		"analyze_character_relations",
		"analyze_play_structure",
		"find_character_across_plays",
		"analyze_full_text",
	}
	tools := r.Tools()
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, tool := range tools {
		if tool.Name != want[i] {
			t.Fatalf("expected tool %s at %d, got %s", want[i], i, tool.Name)
		}
		if tool.Parameters["type"] != "object" {
			t.Fatalf("%s: expected object schema, got %v", tool.Name, tool.Parameters["type"])
		}
		if _, ok := tool.Parameters["properties"].(map[string]any); !ok {
			t.Fatalf("%s: expected properties, got %v", tool.Name, tool.Parameters["properties"])
		}
	}

	required, _ := tools[2].Parameters["required"].([]any)
	if len(required) != 2 {
		t.Fatalf("expected corpus_name and play_name to be required, got %v", required)
	}
}

func TestResources_Catalog(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	static, templates := 0, 0
	for _, res := range r.Resources() {
		if res.IsTemplate() {
			templates++
		} else {
			static++
		}
	}
	if static != 2 || templates != 14 {
		t.Fatalf("expected 2 static resources and 14 templates, got %d and %d", static, templates)
	}
}
