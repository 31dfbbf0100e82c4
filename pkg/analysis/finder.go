package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
)

type CharacterMatch struct {
	Corpus          string  `json:"corpus"`
	Play            string  `json:"play"`
	PlayName        string  `json:"playName"`
	Character       string  `json:"character"`
	CharacterID     string  `json:"characterId"`
	Gender          *string `json:"gender"`
	NumOfSpeechActs int     `json:"numOfSpeechActs"`
	NumOfWords      int     `json:"numOfWords"`
}

type FinderResult struct {
	Query        string           `json:"query"`
	Matches      []CharacterMatch `json:"matches"`
	PlaysScanned int              `json:"playsScanned"`
	Warnings     []common.Warning `json:"warnings,omitempty"`
}

// playRef is a play of a corpus play list whose identifiers passed
// validation.
type playRef struct {
	corpus dracor.Name
	name   dracor.Name
	play   common.PlaySummary
}

// FindCharacterAcrossPlays searches the character lists of every play for
// names containing name, ignoring case. An empty corpus scans all
// corpora. Plays that fail to load are reported as warnings; cancellation
// of ctx aborts the scan.
func (a *Analyzer) FindCharacterAcrossPlays(ctx context.Context, name string, corpus dracor.Name) (*FinderResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &dracor.ValidationError{Param: "character_name", Value: name, Reason: "cannot be empty"}
	}

	res := &FinderResult{Query: name, Matches: []CharacterMatch{}}

	corpora := []dracor.Name{corpus}
	if corpus == "" {
		var warnings []common.Warning
		var err error
		corpora, warnings, err = a.allCorpora(ctx)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
	}

	plays, warnings, err := a.listPlays(ctx, corpora, corpus != "")
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	res.PlaysScanned = len(plays)

	needle := fold(name)
	matches := make([][]CharacterMatch, len(plays))
	failures := make([]*common.Warning, len(plays))

	err = forEach(ctx, len(plays), a.maxParallel, func(ctx context.Context, i int) error {
		ref := plays[i]
		chars, err := a.client.Characters(ctx, ref.corpus, ref.name)
		if err != nil {
			if dracor.IsTerminal(err) {
				return err
			}
			w := warningFor(ref.corpus.String(), ref.name.String(), string(dracor.PlayCharacters), err)
			failures[i] = &w
			return nil
		}
		for _, c := range chars {
			if !strings.Contains(fold(c.Name), needle) {
				continue
			}
			matches[i] = append(matches[i], CharacterMatch{
				Corpus:          ref.corpus.String(),
				Play:            ref.play.Title,
				PlayName:        ref.name.String(),
				Character:       c.Name,
				CharacterID:     c.ID,
				Gender:          c.Gender,
				NumOfSpeechActs: c.NumOfSpeechActs,
				NumOfWords:      c.NumOfWords,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range plays {
		res.Matches = append(res.Matches, matches[i]...)
		if failures[i] != nil {
			res.Warnings = append(res.Warnings, *failures[i])
		}
	}

	logger.Debug("[Finder] scan done", "query", name, "plays", len(plays), "matches", len(res.Matches), "warnings", len(res.Warnings))
	return res, nil
}

// allCorpora lists every corpus whose name is a valid identifier.
func (a *Analyzer) allCorpora(ctx context.Context) ([]dracor.Name, []common.Warning, error) {
	list, err := a.client.Corpora(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list corpora: %w", err)
	}

	var warnings []common.Warning
	names := make([]dracor.Name, 0, len(list))
	for _, c := range list {
		n, err := dracor.ValidateName(c.Name, "corpus_name")
		if err != nil {
			warnings = append(warnings, warningFor(c.Name, "", "corpora", err))
			continue
		}
		names = append(names, n)
	}
	return names, warnings, nil
}

// listPlays loads the play lists of corpora in parallel and flattens them
// in corpus order. With strict set a failing corpus fails the call,
// otherwise it becomes a warning.
func (a *Analyzer) listPlays(ctx context.Context, corpora []dracor.Name, strict bool) ([]playRef, []common.Warning, error) {
	lists := make([][]playRef, len(corpora))
	perCorpus := make([][]common.Warning, len(corpora))

	err := forEach(ctx, len(corpora), a.maxParallel, func(ctx context.Context, i int) error {
		corpus := corpora[i]
		detail, err := a.client.Corpus(ctx, corpus)
		if err != nil {
			if strict || dracor.IsTerminal(err) {
				return fmt.Errorf("failed to list plays of %s: %w", corpus, err)
			}
			perCorpus[i] = append(perCorpus[i], warningFor(corpus.String(), "", "corpus", err))
			return nil
		}
		for _, p := range detail.Plays {
			name, err := dracor.ValidateName(p.Name, "play_name")
			if err != nil {
				perCorpus[i] = append(perCorpus[i], warningFor(corpus.String(), p.Name, "corpus", err))
				continue
			}
			lists[i] = append(lists[i], playRef{corpus: corpus, name: name, play: p})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var plays []playRef
	var warnings []common.Warning
	for i := range corpora {
		plays = append(plays, lists[i]...)
		warnings = append(warnings, perCorpus[i]...)
	}
	return plays, warnings, nil
}
