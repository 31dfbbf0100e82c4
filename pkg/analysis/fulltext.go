package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/parser"

	"golang.org/x/sync/errgroup"
)

const (
	SourceTEI  = "tei"
	SourceText = "text"
)

type TEIStructure struct {
	Acts            int `json:"acts"`
	Scenes          int `json:"scenes"`
	Speeches        int `json:"speeches"`
	StageDirections int `json:"stage_directions"`
}

type TextSample struct {
	FirstSpeech         string `json:"first_speech"`
	FirstStageDirection string `json:"first_stage_direction"`
}

type TEIAnalysis struct {
	Title      string       `json:"title"`
	Authors    []string     `json:"authors"`
	Structure  TEIStructure `json:"structure"`
	TextSample TextSample   `json:"text_sample"`
}

// TextStatistics are computed from whichever text source was available.
// DialogueToDirectionRatio is null when no stage direction words exist.
type TextStatistics struct {
	TextLength               int      `json:"text_length"`
	WordCount                int      `json:"word_count"`
	CharacterCount           int      `json:"character_count"`
	SpeakerCount             int      `json:"speaker_count"`
	SpokenWords              int      `json:"spoken_words"`
	StageWords               int      `json:"stage_words"`
	DialogueToDirectionRatio *float64 `json:"dialogue_to_direction_ratio"`
	EstimatedTokens          *int     `json:"estimated_tokens,omitempty"`
}

type FullTextAnalysis struct {
	Play       *common.Play       `json:"play"`
	Characters []common.Character `json:"characters"`
	Source     string             `json:"source"`
	Degraded   bool               `json:"degraded"`
	Text       string             `json:"text"`
	TEI        *TEIAnalysis       `json:"tei_analysis,omitempty"`
	Analysis   TextStatistics     `json:"analysis"`
	Warnings   []common.Warning   `json:"warnings,omitempty"`
}

// PlainText returns spoken text followed by stage directions.
func (a *Analyzer) PlainText(ctx context.Context, corpus, play dracor.Name) (spoken, stage string, err error) {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := a.client.SpokenText(gCtx, corpus, play)
		spoken = raw.Text()
		return err
	})
	g.Go(func() error {
		raw, err := a.client.StageDirections(gCtx, corpus, play)
		stage = raw.Text()
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return spoken, stage, nil
}

// CombineText joins spoken text and stage directions into one document.
func CombineText(spoken, stage string) string {
	return fmt.Sprintf("DIALOGUE:\n\n%s\n\nSTAGE DIRECTIONS:\n\n%s", spoken, stage)
}

// AnalyzeFullText analyses the TEI text of a play. When the TEI cannot be
// fetched the plain text endpoints are used instead; when it cannot be
// parsed the raw document is returned. Both cases set Degraded.
func (a *Analyzer) AnalyzeFullText(ctx context.Context, corpus, play dracor.Name) (*FullTextAnalysis, error) {
	var (
		tei      dracor.RawResponse
		teiErr   error
		meta     common.Play
		chars    []common.Character
		warnings []common.Warning
		mu       sync.Mutex
	)
	warn := func(source string, err error) {
		mu.Lock()
		warnings = append(warnings, warningFor(corpus.String(), play.String(), source, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		tei, teiErr = a.client.TEI(ctx, corpus, play)
		if dracor.IsTerminal(teiErr) {
			return teiErr
		}
		return nil
	})
	g.Go(func() error {
		var err error
		meta, err = a.client.Play(ctx, corpus, play)
		if err != nil {
			if dracor.IsTerminal(err) {
				return err
			}
			warn("play", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		chars, err = a.client.Characters(ctx, corpus, play)
		if err != nil {
			if dracor.IsTerminal(err) {
				return err
			}
			warn(string(dracor.PlayCharacters), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &FullTextAnalysis{
		Characters: chars,
		Warnings:   warnings,
	}
	if meta.Name != "" || meta.Title != "" {
		res.Play = &meta
	}
	if res.Characters == nil {
		res.Characters = []common.Character{}
	}
	res.Analysis.CharacterCount = len(res.Characters)

	switch {
	case teiErr != nil:
		logger.Warn("[FullText] TEI unavailable, falling back to plain text", "corpus", corpus, "play", play, "err", teiErr)
		res.Warnings = append(res.Warnings, warningFor(corpus.String(), play.String(), string(dracor.PlayTEI), teiErr))

		spoken, stage, err := a.PlainText(ctx, corpus, play)
		if err != nil {
			return nil, fmt.Errorf("failed to load text of %s/%s: %w", corpus, play, err)
		}
		res.Source = SourceText
		res.Degraded = true
		res.Text = CombineText(spoken, stage)
		res.Analysis.SpokenWords = parser.WordCount(spoken)
		res.Analysis.StageWords = parser.WordCount(stage)

	default:
		res.Source = SourceTEI
		doc, err := parser.ParseTEI(tei.Body)
		if err != nil {
			logger.Warn("[FullText] TEI not parseable, returning raw document", "corpus", corpus, "play", play, "err", err)
			res.Warnings = append(res.Warnings, warningFor(corpus.String(), play.String(), string(dracor.PlayTEI), err))
			res.Degraded = true
			res.Text = tei.Text()
			break
		}

		res.Text = doc.Text
		res.TEI = &TEIAnalysis{
			Title:   doc.Title,
			Authors: doc.Authors,
			Structure: TEIStructure{
				Acts:            doc.Acts,
				Scenes:          doc.Scenes,
				Speeches:        doc.SpeechCount,
				StageDirections: doc.StageCount,
			},
			TextSample: TextSample{
				FirstSpeech:         doc.FirstSpeech,
				FirstStageDirection: doc.FirstStage,
			},
		}
		if res.TEI.Authors == nil {
			res.TEI.Authors = []string{}
		}
		res.Analysis.SpeakerCount = len(doc.Speakers)
		res.Analysis.SpokenWords = parser.WordCount(doc.SpokenText)
		res.Analysis.StageWords = parser.WordCount(doc.StageText)
	}

	res.Analysis.TextLength = len([]rune(res.Text))
	res.Analysis.WordCount = parser.WordCount(res.Text)
	if res.Analysis.StageWords > 0 {
		ratio := round2(float64(res.Analysis.SpokenWords) / float64(res.Analysis.StageWords))
		res.Analysis.DialogueToDirectionRatio = &ratio
	}

	if a.tokens != nil {
		n, err := a.tokens.CountTokens(res.Text)
		if err != nil {
			logger.Warn("[FullText] token estimate failed", "err", err)
			res.Warnings = append(res.Warnings, warningFor(corpus.String(), play.String(), "tokens", err))
		} else {
			res.Analysis.EstimatedTokens = &n
		}
	}

	return res, nil
}
