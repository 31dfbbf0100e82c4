package analysis

import (
	"context"
	"math"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const DefaultMaxParallel = 8

// Analyzer derives analyses from DraCor API data. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	client      *dracor.Client
	maxParallel int
	tokens      TokenCounter
}

type NewAnalyzerParams struct {
	Client      *dracor.Client
	MaxParallel int
	// Tokens is optional; without it full text analyses carry no token
	// estimate.
	Tokens TokenCounter
}

func NewAnalyzer(params NewAnalyzerParams) *Analyzer {
	maxParallel := params.MaxParallel
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Analyzer{
		client:      params.Client,
		maxParallel: maxParallel,
		tokens:      params.Tokens,
	}
}

// Client returns the underlying API client.
func (a *Analyzer) Client() *dracor.Client {
	return a.client
}

// PlayInfo is the short play header used in analysis results.
type PlayInfo struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Year   *int   `json:"year"`
}

func playInfo(p common.Play) PlayInfo {
	return PlayInfo{
		Title:  p.Title,
		Author: p.FirstAuthor(),
		Year:   p.YearNormalized,
	}
}

func warningFor(corpus, play, source string, err error) common.Warning {
	return common.Warning{
		Corpus:  corpus,
		Play:    play,
		Source:  source,
		Kind:    dracor.KindOf(err),
		Message: err.Error(),
	}
}

// forEach runs fn for every index in [0, n) with at most limit calls in
// flight. The first error cancels the remaining calls.
func forEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
				return fn(gCtx, i)
			}
		})
	}
	return g.Wait()
}

// fold maps s to its case-folded NFC form for caseless comparison.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// containsFold reports whether needle occurs in haystack ignoring case.
func containsFold(haystack, needle string) bool {
	return strings.Contains(fold(haystack), fold(needle))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
