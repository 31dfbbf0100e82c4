package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	GenderFemaleDominated = "female_dominated"
	GenderMaleDominated   = "male_dominated"
	GenderBalanced        = "balanced"

	topResultsSize = 5
	playLinkBase   = "https://dracor.org"
)

// SearchFilters narrows a play search. Empty fields do not filter.
type SearchFilters struct {
	Query         string `json:"query,omitempty" jsonschema_description:"Text searched in title, subtitle, original title and author names"`
	CorpusName    string `json:"corpus_name,omitempty" jsonschema_description:"Restrict the search to corpora whose name contains this value, e.g. ger or shake"`
	CharacterName string `json:"character_name,omitempty" jsonschema_description:"Name of a character that must appear in the play"`
	Country       string `json:"country,omitempty" jsonschema_description:"Country where the play was written or printed, or of its author"`
	Language      string `json:"language,omitempty" jsonschema_description:"Original language of the play"`
	Author        string `json:"author,omitempty" jsonschema_description:"Name of the playwright"`
	YearFrom      *int   `json:"year_from,omitempty" jsonschema_description:"Earliest year (inclusive)"`
	YearTo        *int   `json:"year_to,omitempty" jsonschema_description:"Latest year (inclusive)"`
	GenderFilter  string `json:"gender_filter,omitempty" jsonschema:"enum=female_dominated,enum=male_dominated,enum=balanced" jsonschema_description:"Gender ratio of the cast" validate:"omitempty,oneof=female_dominated male_dominated balanced"`
}

type SearchHit struct {
	Corpus string             `json:"corpus"`
	Play   common.PlaySummary `json:"play"`
}

type SearchDetail struct {
	Corpus     string `json:"corpus"`
	PlayName   string `json:"play_name"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Year       *int   `json:"year"`
	Language   string `json:"language,omitempty"`
	Characters *int   `json:"characters"`
	Link       string `json:"link"`
}

// AppliedFilters echoes the caller's filters; unset filters are null.
type AppliedFilters struct {
	Query         *string `json:"query"`
	CorpusName    *string `json:"corpus_name"`
	CharacterName *string `json:"character_name"`
	Country       *string `json:"country"`
	Language      *string `json:"language"`
	Author        *string `json:"author"`
	YearRange     *string `json:"year_range"`
	GenderFilter  *string `json:"gender_filter"`
}

type SearchResult struct {
	Count          int              `json:"count"`
	Results        []SearchHit      `json:"results"`
	TopResults     []SearchDetail   `json:"top_results"`
	FiltersApplied AppliedFilters   `json:"filters_applied"`
	Warnings       []common.Warning `json:"warnings,omitempty"`
}

// SearchPlays filters the plays of all (or the matching) corpora. Plays
// without a known year never match a year filter. Character lists are
// fetched at most once per play.
func (a *Analyzer) SearchPlays(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	if err := dracor.ValidateStruct(filters); err != nil {
		return nil, err
	}

	res := &SearchResult{
		Results:        []SearchHit{},
		TopResults:     []SearchDetail{},
		FiltersApplied: appliedFilters(filters),
	}

	corpora, warnings, err := a.allCorpora(ctx)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	if filters.CorpusName != "" {
		targets := corpora[:0:0]
		for _, c := range corpora {
			if containsFold(c.String(), filters.CorpusName) {
				targets = append(targets, c)
			}
		}
		corpora = targets
	}

	plays, warnings, err := a.listPlays(ctx, corpora, false)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	candidates := make([]playRef, 0, len(plays))
	for _, p := range plays {
		if matchesMetadata(p.play, filters) {
			candidates = append(candidates, p)
		}
	}

	memo := newCharacterMemo(a.client)
	if filters.CharacterName != "" || filters.GenderFilter != "" {
		keep := make([]bool, len(candidates))
		failures := make([]*common.Warning, len(candidates))

		err := forEach(ctx, len(candidates), a.maxParallel, func(ctx context.Context, i int) error {
			ref := candidates[i]
			chars, err := memo.get(ctx, ref.corpus, ref.name)
			if err != nil {
				if dracor.IsTerminal(err) {
					return err
				}
				w := warningFor(ref.corpus.String(), ref.name.String(), string(dracor.PlayCharacters), err)
				failures[i] = &w
				// without a cast only a character filter can exclude the play
				keep[i] = filters.CharacterName == ""
				return nil
			}
			keep[i] = matchesCast(chars, filters)
			return nil
		})
		if err != nil {
			return nil, err
		}

		filtered := candidates[:0]
		for i, ref := range candidates {
			if failures[i] != nil {
				res.Warnings = append(res.Warnings, *failures[i])
			}
			if keep[i] {
				filtered = append(filtered, ref)
			}
		}
		candidates = filtered
	}

	for _, ref := range candidates {
		res.Results = append(res.Results, SearchHit{Corpus: ref.corpus.String(), Play: ref.play})
	}
	res.Count = len(res.Results)

	top := candidates[:min(topResultsSize, len(candidates))]
	details := make([]SearchDetail, len(top))
	err = forEach(ctx, len(top), a.maxParallel, func(ctx context.Context, i int) error {
		ref := top[i]
		details[i] = SearchDetail{
			Corpus:   ref.corpus.String(),
			PlayName: ref.name.String(),
			Title:    ref.play.Title,
			Author:   ref.play.FirstAuthor(),
			Year:     ref.play.YearNormalized,
			Language: ref.play.OriginalLanguage,
			Link:     fmt.Sprintf("%s/%s/%s", playLinkBase, ref.corpus, ref.name),
		}
		if details[i].Author == "" {
			details[i].Author = "Unknown"
		}
		chars, err := memo.get(ctx, ref.corpus, ref.name)
		if err != nil {
			if dracor.IsTerminal(err) {
				return err
			}
			logger.Debug("[Search] no cast for top result", "corpus", ref.corpus, "play", ref.name, "err", err)
			return nil
		}
		n := len(chars)
		details[i].Characters = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.TopResults = append(res.TopResults, details...)

	logger.Debug("[Search] done", "plays", len(plays), "results", res.Count, "fetches", memo.fetches())
	return res, nil
}

func matchesMetadata(p common.PlaySummary, f SearchFilters) bool {
	if f.Query != "" {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
		}
		searchable := strings.Join([]string{p.Title, strings.Join(authors, " "), p.Subtitle, p.OriginalTitle}, " ")
		if !containsFold(searchable, f.Query) {
			return false
		}
	}

	if f.Country != "" {
		places := []string{p.WrittenIn, p.PrintedIn}
		for _, a := range p.Authors {
			places = append(places, a.Country)
		}
		if !containsFold(strings.Join(places, " "), f.Country) {
			return false
		}
	}

	if f.Language != "" && !containsFold(p.OriginalLanguage, f.Language) {
		return false
	}

	if f.Author != "" {
		found := false
		for _, a := range p.Authors {
			if containsFold(a.Name, f.Author) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.YearFrom != nil || f.YearTo != nil {
		year := p.Year()
		if year == nil {
			return false
		}
		if f.YearFrom != nil && *year < *f.YearFrom {
			return false
		}
		if f.YearTo != nil && *year > *f.YearTo {
			return false
		}
	}

	return true
}

func matchesCast(chars []common.Character, f SearchFilters) bool {
	if f.CharacterName != "" {
		needle := fold(f.CharacterName)
		found := false
		for _, c := range chars {
			if strings.Contains(fold(c.Name), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.GenderFilter != "" {
		male, female := 0, 0
		for _, c := range chars {
			switch c.GenderOrUnknown() {
			case "MALE":
				male++
			case "FEMALE":
				female++
			}
		}
		if male+female == 0 {
			return true
		}
		ratio := float64(female) / float64(male+female)
		switch f.GenderFilter {
		case GenderFemaleDominated:
			return ratio > 0.5
		case GenderMaleDominated:
			return ratio < 0.5
		case GenderBalanced:
			return ratio >= 0.4 && ratio <= 0.6
		}
	}

	return true
}

func appliedFilters(f SearchFilters) AppliedFilters {
	applied := AppliedFilters{
		Query:         optional(f.Query),
		CorpusName:    optional(f.CorpusName),
		CharacterName: optional(f.CharacterName),
		Country:       optional(f.Country),
		Language:      optional(f.Language),
		Author:        optional(f.Author),
		GenderFilter:  optional(f.GenderFilter),
	}
	if f.YearFrom != nil || f.YearTo != nil {
		applied.YearRange = optional(fmt.Sprintf("%s-%s", yearString(f.YearFrom), yearString(f.YearTo)))
	}
	return applied
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func yearString(y *int) string {
	if y == nil {
		return ""
	}
	return fmt.Sprint(*y)
}

// characterMemo fetches each play's character list at most once per
// request, also when several goroutines ask for it at the same time.
type characterMemo struct {
	client *dracor.Client
	group  singleflight.Group

	mu    sync.Mutex
	cache map[string][]common.Character
	count int
}

func newCharacterMemo(client *dracor.Client) *characterMemo {
	return &characterMemo{
		client: client,
		cache:  make(map[string][]common.Character),
	}
}

func (m *characterMemo) get(ctx context.Context, corpus, play dracor.Name) ([]common.Character, error) {
	key := corpus.String() + "/" + play.String()

	m.mu.Lock()
	chars, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return chars, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		m.count++
		m.mu.Unlock()

		chars, err := m.client.Characters(ctx, corpus, play)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[key] = chars
		m.mu.Unlock()
		return chars, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]common.Character), nil
}

func (m *characterMemo) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
