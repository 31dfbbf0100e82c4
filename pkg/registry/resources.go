package registry

import (
	"context"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/parser"
)

func (r *Registry) registerResources() {
	r.addResource(Resource{
		URI:         "info://",
		Name:        "info",
		Description: "API information and version details.",
		Handler: func(ctx context.Context, _ Params) (any, error) {
			return r.client.Info(ctx)
		},
	})
	r.addResource(Resource{
		URI:         "corpora://",
		Name:        "corpora",
		Description: "List of all available corpora (collections of plays).",
		Handler: func(ctx context.Context, _ Params) (any, error) {
			corpora, err := r.client.Corpora(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"corpora": corpora}, nil
		},
	})
	r.addResource(Resource{
		URI:         "corpus://{corpus}",
		Name:        "corpus",
		Description: "Information about a specific corpus.",
		Handler:     r.passThrough(func(p Params) dracor.Path { return dracor.CorpusPath(p["corpus"]) }, ""),
	})
	r.addResource(Resource{
		URI:         "corpus_metadata://{corpus}",
		Name:        "corpus_metadata",
		Description: "Metadata for all plays in a corpus.",
		Handler:     r.passThrough(func(p Params) dracor.Path { return dracor.CorpusMetadataPath(p["corpus"]) }, "metadata"),
	})
	r.addResource(Resource{
		URI:         "plays://{corpus}",
		Name:        "plays",
		Description: "List of plays in a specific corpus.",
		Handler: func(ctx context.Context, p Params) (any, error) {
			detail, err := r.client.Corpus(ctx, p["corpus"])
			if err != nil {
				return nil, err
			}
			plays := detail.Plays
			if plays == nil {
				plays = []common.PlaySummary{}
			}
			return map[string]any{"plays": plays}, nil
		},
	})
	r.addResource(Resource{
		URI:         "play://{corpus}/{play}",
		Name:        "play",
		Description: "Information about a specific play.",
		Handler:     r.passThrough(playPath(dracor.PlayDetails), ""),
	})
	r.addResource(Resource{
		URI:         "play_metrics://{corpus}/{play}",
		Name:        "play_metrics",
		Description: "Network metrics of a specific play.",
		Handler:     r.passThrough(playPath(dracor.PlayMetrics), ""),
	})
	r.addResource(Resource{
		URI:         "characters://{corpus}/{play}",
		Name:        "characters",
		Description: "List of characters in a specific play.",
		Handler:     r.passThrough(playPath(dracor.PlayCharacters), "characters"),
	})
	r.addResource(Resource{
		URI:         "spoken_text://{corpus}/{play}",
		Name:        "spoken_text",
		Description: "Spoken text of a play.",
		Handler: func(ctx context.Context, p Params) (any, error) {
			raw, err := r.client.SpokenText(ctx, p["corpus"], p["play"])
			if err != nil {
				return nil, err
			}
			return map[string]any{"text": raw.Text()}, nil
		},
	})
	r.addResource(Resource{
		URI:         "spoken_text_by_character://{corpus}/{play}",
		Name:        "spoken_text_by_character",
		Description: "Spoken text of each character in a play.",
		Handler:     r.passThrough(playPath(dracor.PlaySpokenTextByCharacter), "text_by_character"),
	})
	r.addResource(Resource{
		URI:         "stage_directions://{corpus}/{play}",
		Name:        "stage_directions",
		Description: "All stage directions of a play.",
		Handler: func(ctx context.Context, p Params) (any, error) {
			raw, err := r.client.StageDirections(ctx, p["corpus"], p["play"])
			if err != nil {
				return nil, err
			}
			return map[string]any{"text": raw.Text()}, nil
		},
	})
	r.addResource(Resource{
		URI:         "network_data://{corpus}/{play}",
		Name:        "network_data",
		Description: "Co-occurrence network of a play as CSV together with the parsed edges.",
		Handler:     r.networkData,
	})
	r.addResource(Resource{
		URI:         "relations://{corpus}/{play}",
		Name:        "relations",
		Description: "Formal character relations of a play.",
		Handler:     r.passThrough(playPath(dracor.PlayRelations), "relations"),
	})
	r.addResource(Resource{
		URI:         "full_text://{corpus}/{play}",
		Name:        "full_text",
		Description: "Full text of a play as plain text: dialogue followed by stage directions.",
		Handler: func(ctx context.Context, p Params) (any, error) {
			spoken, stage, err := r.analyzer.PlainText(ctx, p["corpus"], p["play"])
			if err != nil {
				return nil, err
			}
			return map[string]any{"text": analysis.CombineText(spoken, stage)}, nil
		},
	})
	r.addResource(Resource{
		URI:         "tei_text://{corpus}/{play}",
		Name:        "tei_text",
		Description: "Full TEI XML document of a play.",
		Handler: func(ctx context.Context, p Params) (any, error) {
			raw, err := r.client.TEI(ctx, p["corpus"], p["play"])
			if err != nil {
				return nil, err
			}
			return map[string]any{"tei_text": raw.Text()}, nil
		},
	})
	r.addResource(Resource{
		URI:         "character_by_wikidata://{wikidata_id}",
		Name:        "character_by_wikidata",
		Description: "Plays having a character identified by a Wikidata id.",
		Handler:     r.passThrough(func(p Params) dracor.Path { return dracor.CharacterPath(p["wikidata_id"]) }, "plays"),
	})
}

func playPath(resource dracor.PlayResource) func(Params) dracor.Path {
	return func(p Params) dracor.Path {
		return dracor.PlayPath(p["corpus"], p["play"], resource)
	}
}

// passThrough returns the upstream JSON unchanged, wrapped in an object
// under key when key is set.
func (r *Registry) passThrough(path func(Params) dracor.Path, key string) ResourceHandler {
	return func(ctx context.Context, p Params) (any, error) {
		var out any
		if err := r.client.GetJSON(ctx, path(p), nil, &out); err != nil {
			return nil, err
		}
		if key == "" {
			return out, nil
		}
		return map[string]any{key: out}, nil
	}
}

func (r *Registry) networkData(ctx context.Context, p Params) (any, error) {
	raw, err := r.client.NetworkCSV(ctx, p["corpus"], p["play"])
	if err != nil {
		return nil, err
	}
	network, err := parser.ParseNetworkCSV(raw.Body)
	if err != nil {
		return nil, err
	}

	edges := network.Edges
	if edges == nil {
		edges = []common.NetworkEdge{}
	}
	out := map[string]any{
		"csv_data": raw.Text(),
		"edges":    edges,
	}
	if len(network.Warnings) > 0 {
		out["warnings"] = network.Warnings
	}
	return out, nil
}
