package analysis

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/parser"

	"golang.org/x/sync/errgroup"
)

const relationListSize = 10

// CharacterDegree is a character ranked by its position in the
// co-occurrence network.
type CharacterDegree struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Gender string  `json:"gender"`
	Degree int     `json:"degree"`
	Weight float64 `json:"weight"`
}

// Relation is a network edge with resolved character names.
type Relation struct {
	Source   string  `json:"source"`
	SourceID string  `json:"source_id"`
	Target   string  `json:"target"`
	TargetID string  `json:"target_id"`
	Type     string  `json:"type,omitempty"`
	Weight   float64 `json:"weight"`
}

// NamedRelation is a formal relation with resolved character names.
type NamedRelation struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	Target   string `json:"target"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
	Relation string `json:"relation"`
}

type RelationsAnalysis struct {
	Play               PlayInfo          `json:"play"`
	TotalCharacters    int               `json:"totalCharacters"`
	TotalRelations     int               `json:"totalRelations"`
	Characters         []CharacterDegree `json:"characters"`
	StrongestRelations []Relation        `json:"strongestRelations"`
	WeakestRelations   []Relation        `json:"weakestRelations"`
	FormalRelations    []NamedRelation   `json:"formalRelations"`
	Metrics            dracor.Metrics    `json:"metrics"`
	Warnings           []common.Warning  `json:"warnings,omitempty"`
}

// AnalyzeCharacterRelations builds the character network of a play.
// Characters are ranked by distinct neighbours, then total edge weight,
// then id. A missing formal relations table only adds a warning.
func (a *Analyzer) AnalyzeCharacterRelations(ctx context.Context, corpus, play dracor.Name) (*RelationsAnalysis, error) {
	var (
		meta    common.Play
		chars   []common.Character
		network parser.NetworkResult
		metrics dracor.Metrics
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meta, err = a.client.Play(gCtx, corpus, play)
		return err
	})
	g.Go(func() (err error) {
		chars, err = a.client.Characters(gCtx, corpus, play)
		return err
	})
	g.Go(func() error {
		raw, err := a.client.NetworkCSV(gCtx, corpus, play)
		if err != nil {
			return err
		}
		network, err = parser.ParseNetworkCSV(raw.Body)
		return err
	})
	g.Go(func() (err error) {
		metrics, err = a.client.Metrics(gCtx, corpus, play)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load network of %s/%s: %w", corpus, play, err)
	}

	res := &RelationsAnalysis{
		Play:            playInfo(meta),
		TotalCharacters: len(chars),
		TotalRelations:  len(network.Edges),
		Metrics:         metrics,
		FormalRelations: []NamedRelation{},
	}
	for _, w := range network.Warnings {
		res.Warnings = append(res.Warnings, common.Warning{
			Corpus:  corpus.String(),
			Play:    play.String(),
			Source:  string(dracor.PlayNetworkCSV),
			Kind:    dracor.KindParse,
			Message: w,
		})
	}

	names := make(map[string]string, len(chars))
	for _, c := range chars {
		names[c.ID] = c.Name
	}
	nameOf := func(id string) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return id
	}

	res.Characters = rankCharacters(chars, network.Edges, nameOf)

	relations := make([]Relation, 0, len(network.Edges))
	for _, e := range network.Edges {
		relations = append(relations, Relation{
			Source:   nameOf(e.Source),
			SourceID: e.Source,
			Target:   nameOf(e.Target),
			TargetID: e.Target,
			Type:     e.Type,
			Weight:   e.Weight,
		})
	}
	slices.SortStableFunc(relations, func(x, y Relation) int {
		if c := cmp.Compare(y.Weight, x.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(x.SourceID, y.SourceID); c != 0 {
			return c
		}
		return cmp.Compare(x.TargetID, y.TargetID)
	})
	res.StrongestRelations = relations[:min(relationListSize, len(relations))]
	res.WeakestRelations = relations[max(0, len(relations)-relationListSize):]

	formal, err := a.formalRelations(ctx, corpus, play, nameOf)
	switch {
	case err == nil:
		res.FormalRelations = formal
	case dracor.IsTerminal(err):
		return nil, err
	default:
		logger.Debug("[Relations] no formal relations", "corpus", corpus, "play", play, "err", err)
		res.Warnings = append(res.Warnings, warningFor(corpus.String(), play.String(), string(dracor.PlayRelationsCSV), err))
	}

	return res, nil
}

func (a *Analyzer) formalRelations(ctx context.Context, corpus, play dracor.Name, nameOf func(string) string) ([]NamedRelation, error) {
	raw, err := a.client.RelationsCSV(ctx, corpus, play)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.ParseRelationsCSV(raw.Body)
	if err != nil {
		return nil, err
	}

	out := make([]NamedRelation, 0, len(parsed.Relations))
	for _, r := range parsed.Relations {
		out = append(out, NamedRelation{
			Source:   nameOf(r.Source),
			SourceID: r.Source,
			Target:   nameOf(r.Target),
			TargetID: r.Target,
			Type:     r.Type,
			Relation: r.Relation,
		})
	}
	return out, nil
}

// rankCharacters computes degree and weight for every character in chars
// and every id that only appears in edges.
func rankCharacters(chars []common.Character, edges []common.NetworkEdge, nameOf func(string) string) []CharacterDegree {
	type stats struct {
		neighbours map[string]struct{}
		weight     float64
	}

	genders := make(map[string]string, len(chars))
	order := make([]string, 0, len(chars))
	byID := make(map[string]*stats, len(chars))
	track := func(id string) *stats {
		s, ok := byID[id]
		if !ok {
			s = &stats{neighbours: make(map[string]struct{})}
			byID[id] = s
			order = append(order, id)
		}
		return s
	}

	for _, c := range chars {
		track(c.ID)
		genders[c.ID] = c.GenderOrUnknown()
	}
	for _, e := range edges {
		src, dst := track(e.Source), track(e.Target)
		src.weight += e.Weight
		if e.Source == e.Target {
			continue
		}
		dst.weight += e.Weight
		src.neighbours[e.Target] = struct{}{}
		dst.neighbours[e.Source] = struct{}{}
	}

	ranked := make([]CharacterDegree, 0, len(order))
	for _, id := range order {
		gender, ok := genders[id]
		if !ok {
			gender = "UNKNOWN"
		}
		s := byID[id]
		ranked = append(ranked, CharacterDegree{
			ID:     id,
			Name:   nameOf(id),
			Gender: gender,
			Degree: len(s.neighbours),
			Weight: s.weight,
		})
	}

	slices.SortFunc(ranked, func(x, y CharacterDegree) int {
		if c := cmp.Compare(y.Degree, x.Degree); c != 0 {
			return c
		}
		if c := cmp.Compare(y.Weight, x.Weight); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return ranked
}
