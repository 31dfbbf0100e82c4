package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dracor-mcp/internal/util"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/registry"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const playBase = "corpora/ger/plays/gerhauptm"

var fakeRoutes = map[string]string{
	"info":                        `{"name":"DraCor API","version":"1.1.0"}`,
	playBase:                      `{"name":"gerhauptm","title":"Die Weber","authors":[{"name":"Hauptmann, Gerhart"}],"yearNormalized":1892}`,
	playBase + "/characters":      `[{"id":"A","name":"Anna"},{"id":"B","name":"Bernd"},{"id":"C","name":"Clara"}]`,
	playBase + "/networkdata/csv": "A,B,5\nB,C,2\n",
	playBase + "/metrics":         `{"density":0.67}`,
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fakeRoutes[strings.TrimPrefix(r.URL.Path, "/api/v1/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := dracor.NewClient(dracor.NewClientParams{BaseURL: srv.URL + "/api/v1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return registry.New(analysis.NewAnalyzer(analysis.NewAnalyzerParams{Client: client}))
}

func connect(t *testing.T, reg *registry.Registry) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := NewMCPServer(reg, nil).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestMCP_CallTool(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "analyze_character_relations",
		Arguments: map[string]any{"corpus_name": "ger", "play_name": "gerhauptm"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got %+v", res.Content)
	}

	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	var out analysis.RelationsAnalysis
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("expected JSON result, got %v", err)
	}
	if out.Characters[0].ID != "B" {
		t.Fatalf("expected B to rank first, got %s", out.Characters[0].ID)
	}
}

func TestMCP_CallToolValidation(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "analyze_full_text",
		Arguments: map[string]any{"corpus_name": "ger", "play_name": "a/b"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result")
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, `"kind": "validation"`) {
		t.Fatalf("expected validation payload, got %s", text)
	}
}

func TestMCP_ReadResource(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "play://ger/gerhauptm"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, "Die Weber") {
		t.Fatalf("unexpected contents %+v", res.Contents)
	}
	if res.Contents[0].MIMEType != "application/json" {
		t.Fatalf("expected application/json, got %s", res.Contents[0].MIMEType)
	}

	if _, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "play://ger/.."}); err == nil {
		t.Fatalf("expected error for invalid play name")
	}
}

func TestMCP_GetPrompt(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "network_analysis",
		Arguments: map[string]string{"corpus_name": "ger", "play_name": "gerhauptm"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Corpus: ger") || !strings.Contains(text, "Play: gerhauptm") {
		t.Fatalf("unexpected prompt %q", text)
	}
}

func TestMCP_ListTools(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(res.Tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(res.Tools))
	}
}

func TestHealth(t *testing.T) {
	reg := newTestRegistry(t)
	cfg := util.Config{Transport: util.TransportHTTP, BaseURL: "http://upstream/api/v1"}
	e := NewEcho(cfg, reg, NewMCPServer(reg, nil), nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %v", err)
	}
	if body["status"] != "healthy" || body["transport"] != util.TransportHTTP {
		t.Fatalf("unexpected health body %v", body)
	}
	if body["tools"] != float64(6) {
		t.Fatalf("expected 6 tools, got %v", body["tools"])
	}
}

func TestHealth_Check(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusBadGateway)
	}))
	defer down.Close()
	client, err := dracor.NewClient(dracor.NewClientParams{BaseURL: down.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	downReg := registry.New(analysis.NewAnalyzer(analysis.NewAnalyzerParams{Client: client}))

	tests := []struct {
		name     string
		reg      *registry.Registry
		target   string
		code     int
		upstream string
	}{
		{name: "reachable", reg: newTestRegistry(t), target: "/health?check=upstream", code: http.StatusOK, upstream: "reachable"},
		{name: "unreachable", reg: downReg, target: "/health?check=upstream", code: http.StatusServiceUnavailable, upstream: "unreachable"},
		{name: "liveness only", reg: downReg, target: "/health", code: http.StatusOK},
		{name: "unknown check", reg: downReg, target: "/health?check=everything", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := util.Config{Transport: util.TransportHTTP, BaseURL: "http://upstream/api/v1"}
			e := NewEcho(cfg, tt.reg, NewMCPServer(tt.reg, nil), nil)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code == http.StatusBadRequest {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected JSON body, got %v", err)
			}
			if tt.upstream == "" {
				if _, ok := body["upstream_status"]; ok {
					t.Fatalf("expected no upstream_status, got %v", body["upstream_status"])
				}
				return
			}
			if body["upstream_status"] != tt.upstream {
				t.Fatalf("expected upstream_status %s, got %v", tt.upstream, body["upstream_status"])
			}
		})
	}
}
