package analysis

import (
	"context"
	"fmt"
	"reflect"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"

	"golang.org/x/sync/errgroup"
)

// PlayOverview is one side of a comparison.
type PlayOverview struct {
	Corpus  string         `json:"corpus"`
	Name    string         `json:"name"`
	Title   string         `json:"title"`
	Author  string         `json:"author,omitempty"`
	Year    *int           `json:"year"`
	Metrics dracor.Metrics `json:"metrics"`
}

// FieldDiff compares a descriptive field of both plays.
type FieldDiff struct {
	A     any  `json:"a"`
	B     any  `json:"b"`
	Equal bool `json:"equal"`
}

// NumericDiff compares a metrics value. A side is null when the play has
// no such metric; Delta (B - A) is set only when both are present.
type NumericDiff struct {
	A     *float64 `json:"a"`
	B     *float64 `json:"b"`
	Delta *float64 `json:"delta,omitempty"`
}

type Comparison struct {
	Plays   []PlayOverview         `json:"plays"`
	Fields  map[string]FieldDiff   `json:"fields"`
	Metrics map[string]NumericDiff `json:"metrics"`
}

// ComparePlays loads metadata and metrics of two plays and diffs them
// field by field.
func (a *Analyzer) ComparePlays(ctx context.Context, corpus1, play1, corpus2, play2 dracor.Name) (*Comparison, error) {
	var (
		meta    [2]common.Play
		metrics [2]dracor.Metrics
	)
	refs := [2][2]dracor.Name{{corpus1, play1}, {corpus2, play2}}

	g, gCtx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() (err error) {
			meta[i], err = a.client.Play(gCtx, ref[0], ref[1])
			if err != nil {
				return fmt.Errorf("failed to load %s/%s: %w", ref[0], ref[1], err)
			}
			return nil
		})
		g.Go(func() (err error) {
			metrics[i], err = a.client.Metrics(gCtx, ref[0], ref[1])
			if err != nil {
				return fmt.Errorf("failed to load metrics of %s/%s: %w", ref[0], ref[1], err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Comparison{
		Plays:   make([]PlayOverview, 0, 2),
		Fields:  make(map[string]FieldDiff),
		Metrics: make(map[string]NumericDiff),
	}
	for i, ref := range refs {
		res.Plays = append(res.Plays, PlayOverview{
			Corpus:  ref[0].String(),
			Name:    ref[1].String(),
			Title:   meta[i].Title,
			Author:  meta[i].FirstAuthor(),
			Year:    meta[i].YearNormalized,
			Metrics: metrics[i],
		})
	}

	res.Fields["title"] = diffField(meta[0].Title, meta[1].Title)
	res.Fields["author"] = diffField(meta[0].FirstAuthor(), meta[1].FirstAuthor())
	res.Fields["year"] = diffField(intValue(meta[0].YearNormalized), intValue(meta[1].YearNormalized))
	res.Fields["corpus"] = diffField(corpus1.String(), corpus2.String())

	for key, value := range metrics[0] {
		if _, ok := value.(float64); ok {
			res.Metrics[key] = diffNumber(metrics[0][key], metrics[1][key])
		}
	}
	for key, value := range metrics[1] {
		if _, done := res.Metrics[key]; done {
			continue
		}
		if _, ok := value.(float64); ok {
			res.Metrics[key] = diffNumber(metrics[0][key], metrics[1][key])
		}
	}

	return res, nil
}

func diffField(a, b any) FieldDiff {
	return FieldDiff{A: a, B: b, Equal: reflect.DeepEqual(a, b)}
}

func intValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func diffNumber(a, b any) NumericDiff {
	var diff NumericDiff
	if v, ok := a.(float64); ok {
		diff.A = &v
	}
	if v, ok := b.(float64); ok {
		diff.B = &v
	}
	if diff.A != nil && diff.B != nil {
		delta := *diff.B - *diff.A
		diff.Delta = &delta
	}
	return diff
}
