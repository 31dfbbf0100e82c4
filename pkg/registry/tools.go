package registry

import (
	"context"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"
)

func (r *Registry) registerTools() {
	r.addTool(Tool{
		Name: "search_plays",
		Description: "Search plays across all corpora. Filters match case-insensitively and can be combined: " +
			"query (title, subtitle, author), corpus_name, character_name, country, language, author, " +
			"year_from/year_to and gender_filter. Returns all matches and details for the first five.",
		Parameters: GenerateSchema(analysis.SearchFilters{}),
		Handler: func(ctx context.Context, arguments string) (any, error) {
			var filters analysis.SearchFilters
			if err := DecodeArguments(arguments, &filters); err != nil {
				return nil, err
			}
			logger.Debug("[Tool] search_plays", "filters", filters)
			return r.analyzer.SearchPlays(ctx, filters)
		},
	})

	r.addTool(Tool{
		Name:        "compare_plays",
		Description: "Compare two plays by title, author, year and every numeric network metric.",
		Parameters:  GenerateSchema(comparePlaysArgs{}),
		Handler: func(ctx context.Context, arguments string) (any, error) {
			var args comparePlaysArgs
			if err := DecodeArguments(arguments, &args); err != nil {
				return nil, err
			}
			c1, p1, err := playArgs{CorpusName: args.CorpusName1, PlayName: args.PlayName1}.names()
			if err != nil {
				return nil, err
			}
			c2, p2, err := playArgs{CorpusName: args.CorpusName2, PlayName: args.PlayName2}.names()
			if err != nil {
				return nil, err
			}
			return r.analyzer.ComparePlays(ctx, c1, p1, c2, p2)
		},
	})

	r.addTool(Tool{
		Name: "analyze_character_relations",
		Description: "Analyze the character network of a play: characters ranked by degree and edge weight, " +
			"strongest and weakest co-occurrence relations, formal relations and network metrics.",
		Parameters: GenerateSchema(playArgs{}),
		Handler: r.playTool(func(ctx context.Context, corpus, play dracor.Name) (any, error) {
			return r.analyzer.AnalyzeCharacterRelations(ctx, corpus, play)
		}),
	})

	r.addTool(Tool{
		Name: "analyze_play_structure",
		Description: "Analyze the structure of a play: acts and scenes, segment statistics from the TEI text, " +
			"gender distribution and the share of words spoken by each character.",
		Parameters: GenerateSchema(playArgs{}),
		Handler: r.playTool(func(ctx context.Context, corpus, play dracor.Name) (any, error) {
			return r.analyzer.AnalyzePlayStructure(ctx, corpus, play)
		}),
	})

	r.addTool(Tool{
		Name: "find_character_across_plays",
		Description: "Find characters whose name contains the given text in every play of a corpus, " +
			"or of all corpora. Plays that cannot be loaded are listed as warnings.",
		Parameters: GenerateSchema(findCharacterArgs{}),
		Handler: func(ctx context.Context, arguments string) (any, error) {
			var args findCharacterArgs
			if err := DecodeArguments(arguments, &args); err != nil {
				return nil, err
			}
			var corpus dracor.Name
			if args.CorpusName != "" {
				var err error
				if corpus, err = dracor.ValidateName(args.CorpusName, "corpus_name"); err != nil {
					return nil, err
				}
			}
			return r.analyzer.FindCharacterAcrossPlays(ctx, args.CharacterName, corpus)
		},
	})

	r.addTool(Tool{
		Name: "analyze_full_text",
		Description: "Analyze the full text of a play from its TEI document: clean text, structure, speakers " +
			"and word statistics. Falls back to the plain text endpoints and marks the result as degraded " +
			"when the TEI document is unavailable or malformed.",
		Parameters: GenerateSchema(playArgs{}),
		Handler: r.playTool(func(ctx context.Context, corpus, play dracor.Name) (any, error) {
			return r.analyzer.AnalyzeFullText(ctx, corpus, play)
		}),
	})
}

// playTool decodes and validates corpus_name and play_name before fn runs.
func (r *Registry) playTool(fn func(ctx context.Context, corpus, play dracor.Name) (any, error)) ToolHandler {
	return func(ctx context.Context, arguments string) (any, error) {
		var args playArgs
		if err := DecodeArguments(arguments, &args); err != nil {
			return nil, err
		}
		corpus, play, err := args.names()
		if err != nil {
			return nil, err
		}
		return fn(ctx, corpus, play)
	}
}
