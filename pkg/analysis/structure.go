package analysis

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/parser"

	"golang.org/x/sync/errgroup"
)

const speakingDistributionSize = 10

type SegmentRef struct {
	Number   int      `json:"number"`
	Title    string   `json:"title,omitempty"`
	Speakers []string `json:"speakers,omitempty"`
}

type CharacterCounts struct {
	Total    int            `json:"total"`
	ByGender map[string]int `json:"byGender"`
}

type SpeakingShare struct {
	Character  string  `json:"character"`
	Words      int     `json:"words"`
	Percentage float64 `json:"percentage"`
}

// SegmentSummary identifies a segment without its turn list.
type SegmentSummary struct {
	Label  string `json:"label"`
	Type   string `json:"type"`
	Number int    `json:"number"`
	Turns  int    `json:"turns"`
}

// Segmentation is the act/scene breakdown derived from the TEI document.
type Segmentation struct {
	NumOfSegments          int                  `json:"numOfSegments"`
	NumOfActs              int                  `json:"numOfActs"`
	NumOfScenes            int                  `json:"numOfScenes"`
	AverageTurnsPerSegment float64              `json:"averageTurnsPerSegment"`
	LongestSegment         *SegmentSummary      `json:"longestSegment"`
	Segments               []common.PlaySegment `json:"segments"`
}

type StructureAnalysis struct {
	Title                string          `json:"title"`
	Authors              []string        `json:"authors"`
	Year                 *int            `json:"year"`
	YearWritten          *int            `json:"yearWritten"`
	YearPrinted          *int            `json:"yearPrinted"`
	YearPremiered        *int            `json:"yearPremiered"`
	Acts                 []SegmentRef    `json:"acts"`
	Scenes               []SegmentRef    `json:"scenes"`
	NumOfActs            int             `json:"numOfActs"`
	NumOfScenes          int             `json:"numOfScenes"`
	Segments             any             `json:"segments"`
	Dialogues            any             `json:"dialogues"`
	WordCount            int             `json:"wordCount"`
	Characters           CharacterCounts `json:"characters"`
	SpeakingDistribution []SpeakingShare `json:"speakingDistribution"`
	Segmentation         Segmentation    `json:"segmentation"`
}

// AnalyzePlayStructure combines play metadata, network metrics, the
// character list and the TEI segmentation of a play.
func (a *Analyzer) AnalyzePlayStructure(ctx context.Context, corpus, play dracor.Name) (*StructureAnalysis, error) {
	var (
		meta    common.Play
		metrics dracor.Metrics
		chars   []common.Character
		doc     *parser.TEIDocument
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meta, err = a.client.Play(gCtx, corpus, play)
		return err
	})
	g.Go(func() (err error) {
		metrics, err = a.client.Metrics(gCtx, corpus, play)
		return err
	})
	g.Go(func() (err error) {
		chars, err = a.client.Characters(gCtx, corpus, play)
		return err
	})
	g.Go(func() error {
		raw, err := a.client.TEI(gCtx, corpus, play)
		if err != nil {
			return err
		}
		doc, err = parser.ParseTEI(raw.Body)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load structure of %s/%s: %w", corpus, play, err)
	}

	res := &StructureAnalysis{
		Title:         meta.Title,
		Authors:       make([]string, 0, len(meta.Authors)),
		Year:          meta.YearNormalized,
		YearWritten:   meta.YearWritten,
		YearPrinted:   meta.YearPrinted,
		YearPremiered: meta.YearPremiered,
		Acts:          []SegmentRef{},
		Scenes:        []SegmentRef{},
		Segments:      metrics["segments"],
		Dialogues:     metrics["dialogues"],
		Segmentation:  segmentation(doc),
	}
	for _, author := range meta.Authors {
		res.Authors = append(res.Authors, author.Name)
	}
	for _, seg := range meta.Segments {
		switch seg.Type {
		case "act":
			res.Acts = append(res.Acts, SegmentRef{Number: seg.Number, Title: seg.Title})
		case "scene":
			res.Scenes = append(res.Scenes, SegmentRef{Number: seg.Number, Title: seg.Title, Speakers: seg.Speakers})
		}
	}
	res.NumOfActs = len(res.Acts)
	res.NumOfScenes = len(res.Scenes)

	res.Characters = CharacterCounts{
		Total:    len(chars),
		ByGender: map[string]int{"MALE": 0, "FEMALE": 0, "UNKNOWN": 0},
	}
	for _, c := range chars {
		switch gender := c.GenderOrUnknown(); gender {
		case "MALE", "FEMALE":
			res.Characters.ByGender[gender]++
		default:
			res.Characters.ByGender["UNKNOWN"]++
		}
		res.WordCount += c.NumOfWords
	}
	res.SpeakingDistribution = speakingDistribution(chars, res.WordCount)

	return res, nil
}

func speakingDistribution(chars []common.Character, total int) []SpeakingShare {
	shares := make([]SpeakingShare, 0, len(chars))
	if total <= 0 {
		return shares
	}
	for _, c := range chars {
		shares = append(shares, SpeakingShare{
			Character:  c.Name,
			Words:      c.NumOfWords,
			Percentage: round2(float64(c.NumOfWords) / float64(total) * 100),
		})
	}
	slices.SortStableFunc(shares, func(x, y SpeakingShare) int {
		return cmp.Compare(y.Words, x.Words)
	})
	return shares[:min(speakingDistributionSize, len(shares))]
}

func segmentation(doc *parser.TEIDocument) Segmentation {
	seg := Segmentation{
		NumOfSegments: len(doc.Segments),
		NumOfActs:     doc.Acts,
		NumOfScenes:   doc.Scenes,
		Segments:      doc.Segments,
	}
	if seg.Segments == nil {
		seg.Segments = []common.PlaySegment{}
	}
	if len(doc.Segments) == 0 {
		return seg
	}

	turns := 0
	longest := 0
	for i, s := range doc.Segments {
		turns += len(s.Turns)
		if len(s.Turns) > len(doc.Segments[longest].Turns) {
			longest = i
		}
	}
	seg.AverageTurnsPerSegment = round2(float64(turns) / float64(len(doc.Segments)))

	l := doc.Segments[longest]
	seg.LongestSegment = &SegmentSummary{
		Label:  l.Label,
		Type:   l.Type,
		Number: l.Number,
		Turns:  len(l.Turns),
	}
	return seg
}
