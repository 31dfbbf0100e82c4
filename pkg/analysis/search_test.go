package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

func searchRoutes() map[string]string {
	return map[string]string{
		"corpora": `[{"name":"ger"},{"name":"shake"}]`,
		"corpora/ger": `{"name":"ger","plays":[` +
			`{"name":"gerhauptm-die-weber","title":"Die Weber","authors":[{"name":"Hauptmann, Gerhart","country":"Germany"}],"yearNormalized":1892,"originalLanguage":"ger"},` +
			`{"name":"anonym-unknown","title":"Ohne Jahr","authors":[]},` +
			`{"name":"schiller-die-raeuber","title":"Die Räuber","authors":[{"name":"Schiller, Friedrich"}],"yearWritten":1781,"originalLanguage":"ger"}]}`,
		"corpora/shake": `{"name":"shake","plays":[{"name":"hamlet","title":"Hamlet","authors":[{"name":"Shakespeare, William"}],"yearNormalized":1603,"originalLanguage":"eng"}]}`,
		"corpora/ger/plays/gerhauptm-die-weber/characters":  `[{"id":"a","name":"Luise","gender":"FEMALE"},{"id":"b","name":"Mutter Baumert","gender":"FEMALE"},{"id":"c","name":"Dreißiger","gender":"MALE"}]`,
		"corpora/ger/plays/schiller-die-raeuber/characters": `[{"id":"k","name":"Karl Moor","gender":"MALE"},{"id":"a","name":"Amalia","gender":"FEMALE"},{"id":"f","name":"Franz","gender":"MALE"}]`,
		"corpora/ger/plays/anonym-unknown/characters":       `[]`,
		"corpora/shake/plays/hamlet/characters":             `[{"id":"h","name":"Hamlet","gender":"MALE"},{"id":"o","name":"Ophelia","gender":"FEMALE"}]`,
	}
}

func intPtr(v int) *int {
	return &v
}

func TestSearchPlays_YearFilterExcludesUnknownYear(t *testing.T) {
	_, srv := newUpstream(t, searchRoutes())
	a := newTestAnalyzer(t, srv, time.Second, nil)

	res, err := a.SearchPlays(context.Background(), SearchFilters{CorpusName: "GER", YearFrom: intPtr(1700)})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 results, got %+v", res.Results)
	}
	for _, hit := range res.Results {
		if hit.Play.Name == "anonym-unknown" {
			t.Fatal("expected play without year to be excluded")
		}
		if hit.Corpus != "ger" {
			t.Fatalf("expected only ger plays, got %s", hit.Corpus)
		}
	}
	if res.FiltersApplied.CorpusName == nil || *res.FiltersApplied.CorpusName != "GER" {
		t.Fatalf("expected caller's corpus filter echoed, got %v", res.FiltersApplied.CorpusName)
	}
	if res.FiltersApplied.YearRange == nil || *res.FiltersApplied.YearRange != "1700-" {
		t.Fatalf("unexpected year range %v", res.FiltersApplied.YearRange)
	}
	if res.FiltersApplied.Query != nil {
		t.Fatalf("expected unset filters to be null, got %v", *res.FiltersApplied.Query)
	}
}

func TestSearchPlays_TopResults(t *testing.T) {
	_, srv := newUpstream(t, searchRoutes())
	a := newTestAnalyzer(t, srv, time.Second, nil)

	res, err := a.SearchPlays(context.Background(), SearchFilters{Query: "weber"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Count != 1 || len(res.TopResults) != 1 {
		t.Fatalf("expected one result with detail, got %d and %d", res.Count, len(res.TopResults))
	}
	top := res.TopResults[0]
	if top.Link != "https://dracor.org/ger/gerhauptm-die-weber" {
		t.Fatalf("unexpected link %q", top.Link)
	}
	if top.Characters == nil || *top.Characters != 3 {
		t.Fatalf("expected 3 characters in detail, got %v", top.Characters)
	}
	if top.Author != "Hauptmann, Gerhart" {
		t.Fatalf("unexpected author %q", top.Author)
	}
}

func TestSearchPlays_CastFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters SearchFilters
		want    []string
	}{
		{
			name:    "female dominated",
			filters: SearchFilters{GenderFilter: GenderFemaleDominated},
			want:    []string{"gerhauptm-die-weber", "anonym-unknown"},
		},
		{
			name:    "male dominated",
			filters: SearchFilters{GenderFilter: GenderMaleDominated},
			want:    []string{"anonym-unknown", "schiller-die-raeuber"},
		},
		{
			name:    "balanced",
			filters: SearchFilters{GenderFilter: GenderBalanced},
			want:    []string{"anonym-unknown", "hamlet"},
		},
		{
			name:    "character name",
			filters: SearchFilters{CharacterName: "ophelia"},
			want:    []string{"hamlet"},
		},
		{
			name:    "character and author",
			filters: SearchFilters{CharacterName: "amalia", Author: "schiller"},
			want:    []string{"schiller-die-raeuber"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newUpstream(t, searchRoutes())
			a := newTestAnalyzer(t, srv, time.Second, nil)

			res, err := a.SearchPlays(context.Background(), tt.filters)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if len(res.Results) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, res.Results)
			}
			for i, name := range tt.want {
				if res.Results[i].Play.Name != name {
					t.Fatalf("expected %s at %d, got %s", name, i, res.Results[i].Play.Name)
				}
			}
		})
	}
}

func TestSearchPlays_FetchesEachCastOnce(t *testing.T) {
	u, srv := newUpstream(t, searchRoutes())
	a := newTestAnalyzer(t, srv, time.Second, nil)

	_, err := a.SearchPlays(context.Background(), SearchFilters{CharacterName: "a", GenderFilter: GenderMaleDominated})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, path := range []string{
		"corpora/ger/plays/gerhauptm-die-weber/characters",
		"corpora/ger/plays/schiller-die-raeuber/characters",
		"corpora/shake/plays/hamlet/characters",
	} {
		if n := u.count(path); n != 1 {
			t.Fatalf("expected one fetch of %s, got %d", path, n)
		}
	}
}

func TestSearchPlays_InvalidGenderFilter(t *testing.T) {
	_, srv := newUpstream(t, searchRoutes())
	a := newTestAnalyzer(t, srv, time.Second, nil)

	_, err := a.SearchPlays(context.Background(), SearchFilters{GenderFilter: "mostly_cats"})
	if dracor.KindOf(err) != dracor.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	var vErr *dracor.ValidationError
	if !errors.As(err, &vErr) || vErr.Param != "gender_filter" || vErr.Value != "mostly_cats" {
		t.Fatalf("expected gender_filter to be reported, got %v", err)
	}
}

func TestSearchPlays_FailingCorpusIsWarning(t *testing.T) {
	routes := searchRoutes()
	delete(routes, "corpora/shake")
	_, srv := newUpstream(t, routes)
	a := newTestAnalyzer(t, srv, time.Second, nil)

	res, err := a.SearchPlays(context.Background(), SearchFilters{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("expected the 3 ger plays, got %d", res.Count)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Corpus != "shake" {
		t.Fatalf("expected one warning for shake, got %+v", res.Warnings)
	}
}
