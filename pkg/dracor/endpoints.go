package dracor

import (
	"context"
	"net/url"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
)

// Metrics is the network metrics object of a play. Values are kept as
// decoded so every numeric field can be compared.
type Metrics map[string]any

// GetJSON fetches path as JSON and decodes it into out.
func (c *Client) GetJSON(ctx context.Context, path Path, params url.Values, out any) error {
	resp, err := c.Fetch(ctx, path, FormatJSON, params)
	if err != nil {
		return err
	}
	return DecodeJSON(resp.Body, out)
}

func (c *Client) Info(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if err := c.GetJSON(ctx, InfoPath(), nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) Corpora(ctx context.Context) ([]common.Corpus, error) {
	var corpora []common.Corpus
	if err := c.GetJSON(ctx, CorporaPath(), nil, &corpora); err != nil {
		return nil, err
	}
	return corpora, nil
}

func (c *Client) Corpus(ctx context.Context, corpus Name) (common.CorpusDetail, error) {
	var detail common.CorpusDetail
	if err := c.GetJSON(ctx, CorpusPath(corpus), nil, &detail); err != nil {
		return common.CorpusDetail{}, err
	}
	return detail, nil
}

func (c *Client) Play(ctx context.Context, corpus, play Name) (common.Play, error) {
	var p common.Play
	if err := c.GetJSON(ctx, PlayPath(corpus, play, PlayDetails), nil, &p); err != nil {
		return common.Play{}, err
	}
	return p, nil
}

func (c *Client) Metrics(ctx context.Context, corpus, play Name) (Metrics, error) {
	var m Metrics
	if err := c.GetJSON(ctx, PlayPath(corpus, play, PlayMetrics), nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) Characters(ctx context.Context, corpus, play Name) ([]common.Character, error) {
	var chars []common.Character
	if err := c.GetJSON(ctx, PlayPath(corpus, play, PlayCharacters), nil, &chars); err != nil {
		return nil, err
	}
	return chars, nil
}

// NetworkCSV returns the raw co-occurrence network of a play.
func (c *Client) NetworkCSV(ctx context.Context, corpus, play Name) (RawResponse, error) {
	return c.Fetch(ctx, PlayPath(corpus, play, PlayNetworkCSV), FormatCSV, nil)
}

// RelationsCSV returns the raw formal relations of a play.
func (c *Client) RelationsCSV(ctx context.Context, corpus, play Name) (RawResponse, error) {
	return c.Fetch(ctx, PlayPath(corpus, play, PlayRelationsCSV), FormatCSV, nil)
}

// TEI returns the full TEI document of a play.
func (c *Client) TEI(ctx context.Context, corpus, play Name) (RawResponse, error) {
	return c.Fetch(ctx, PlayPath(corpus, play, PlayTEI), FormatXML, nil)
}

func (c *Client) SpokenText(ctx context.Context, corpus, play Name) (RawResponse, error) {
	return c.Fetch(ctx, PlayPath(corpus, play, PlaySpokenText), FormatText, nil)
}

func (c *Client) StageDirections(ctx context.Context, corpus, play Name) (RawResponse, error) {
	return c.Fetch(ctx, PlayPath(corpus, play, PlayStageDirections), FormatText, nil)
}
