package registry

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// Prompt is a text template parameterised by its arguments.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
	render      func(args map[string]string) string
}

// GetPrompt renders the named prompt. Missing required arguments are a
// validation failure.
func (r *Registry) GetPrompt(name string, args map[string]string) (string, error) {
	idx, ok := r.promptIndex[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	p := r.prompts[idx]
	for _, arg := range p.Arguments {
		if arg.Required && strings.TrimSpace(args[arg.Name]) == "" {
			return "", &dracor.ValidationError{Param: arg.Name, Value: args[arg.Name], Reason: "cannot be empty"}
		}
	}
	return strings.TrimSpace(p.render(args)), nil
}

var (
	corpusArg    = PromptArgument{Name: "corpus_name", Description: "Corpus identifier", Required: true}
	playArg      = PromptArgument{Name: "play_name", Description: "Play identifier", Required: true}
	characterArg = PromptArgument{Name: "character_id", Description: "Character identifier within the play", Required: true}
)

func (r *Registry) registerPrompts() {
	r.addPrompt(Prompt{
		Name:        "analyze_play",
		Description: "Analyze a specific play.",
		Arguments:   []PromptArgument{corpusArg, playArg},
		render: func(a map[string]string) string {
			return fmt.Sprintf(AnalyzePlayPrompt, a["corpus_name"], a["play_name"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "character_analysis",
		Description: "Analyze a specific character of a play.",
		Arguments:   []PromptArgument{corpusArg, playArg, characterArg},
		render: func(a map[string]string) string {
			return fmt.Sprintf(CharacterAnalysisPrompt, a["corpus_name"], a["play_name"], a["character_id"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "network_analysis",
		Description: "Analyze the character network of a play.",
		Arguments:   []PromptArgument{corpusArg, playArg},
		render: func(a map[string]string) string {
			return fmt.Sprintf(NetworkAnalysisPrompt, a["corpus_name"], a["play_name"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "comparative_analysis",
		Description: "Compare two plays.",
		Arguments: []PromptArgument{
			{Name: "corpus_name1", Description: "Corpus of the first play", Required: true},
			{Name: "play_name1", Description: "First play", Required: true},
			{Name: "corpus_name2", Description: "Corpus of the second play", Required: true},
			{Name: "play_name2", Description: "Second play", Required: true},
		},
		render: func(a map[string]string) string {
			return fmt.Sprintf(ComparativeAnalysisPrompt, a["corpus_name1"], a["play_name1"], a["corpus_name2"], a["play_name2"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "gender_analysis",
		Description: "Analyze gender representation in a play.",
		Arguments:   []PromptArgument{corpusArg, playArg},
		render: func(a map[string]string) string {
			return fmt.Sprintf(GenderAnalysisPrompt, a["corpus_name"], a["play_name"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "historical_context",
		Description: "Analyze the historical context of a play.",
		Arguments:   []PromptArgument{corpusArg, playArg},
		render: func(a map[string]string) string {
			return fmt.Sprintf(HistoricalContextPrompt, a["corpus_name"], a["play_name"])
		},
	})
	r.addPrompt(Prompt{
		Name:        "full_text_analysis",
		Description: "Report template for the analysis of the full text of a play.",
		render: func(map[string]string) string {
			return FullTextAnalysisPrompt
		},
	})
	r.addPrompt(Prompt{
		Name:        "character_tagging_analysis",
		Description: "Find character id tagging issues in a play. Without a play, one is selected from the corpus first.",
		Arguments: []PromptArgument{
			{Name: "corpus_name", Description: "Corpus to analyze (default: dutch)"},
			{Name: "play_name", Description: "Play to analyze"},
		},
		render: func(a map[string]string) string {
			corpus := a["corpus_name"]
			if corpus == "" {
				corpus = "dutch"
			}
			if a["play_name"] == "" {
				return fmt.Sprintf(CharacterTaggingCorpusPrompt, corpus, corpus)
			}
			return fmt.Sprintf(CharacterTaggingPrompt, a["play_name"], corpus, corpus, a["play_name"])
		},
	})
}

const AnalyzePlayPrompt = `
You are a drama analysis expert who can help analyze plays from the DraCor (Drama Corpora Project) database.

You have access to the following play:

Corpus: %s
Play: %s

Analyze this play in terms of:
1. Basic information (title, author, year)
2. Structure (acts, scenes)
3. Character relationships
4. Key metrics and statistics

Please provide a comprehensive analysis including:
- Historical context of the play
- Structural analysis
- Character analysis
- Network analysis (how characters relate to each other)
- Notable aspects of this play compared to others from the same period
`

const CharacterAnalysisPrompt = `
You are a drama character analysis expert who can help analyze characters from plays in the DraCor database.

You have access to the following character:

Corpus: %s
Play: %s
Character: %s

Analyze this character in terms of:
1. Basic information (name, gender)
2. Importance in the play (based on speech counts, words spoken)
3. Relationships with other characters
4. Character development throughout the play

Please provide a comprehensive character analysis that could help researchers or students understand this character better.
`

const NetworkAnalysisPrompt = `
You are a network analysis expert who can help analyze character networks from plays in the DraCor database.

You have access to the following play network:

Corpus: %s
Play: %s

Analyze this play's character network in terms of:
1. Overall network structure and density
2. Central characters (highest degree, betweenness)
3. Character communities or groups
4. Strongest and weakest relationships
5. How the network structure relates to the themes of the play

Please provide a comprehensive network analysis that could help researchers understand the social dynamics in this play.
`

const ComparativeAnalysisPrompt = `
You are a drama analysis expert who can help compare plays from the DraCor database.

You have access to the following two plays:

Play 1:
Corpus: %s
Play: %s

Play 2:
Corpus: %s
Play: %s

Compare these plays in terms of:
1. Basic information (title, author, year)
2. Structure (acts, scenes, length)
3. Character count and dynamics
4. Network complexity and density
5. Historical context and significance

Please provide a comprehensive comparative analysis that highlights similarities and differences between these plays.
`

const GenderAnalysisPrompt = `
You are a scholar specializing in gender studies and dramatic literature. You've been asked to analyze gender representation in a drama.

Corpus: %s
Play: %s

Please analyze the play in terms of:
1. Gender distribution of characters
2. Speaking time and importance of male vs. female characters
3. Relationships between characters of different genders
4. Historical context of gender representation in this period
5. Notable aspects of gender portrayal in this play

Your analysis should consider both quantitative data (number of characters, speaking lines) and qualitative aspects (power dynamics, character development).
`

const HistoricalContextPrompt = `
You are a theater historian who specializes in putting dramatic works in their historical context.

Corpus: %s
Play: %s

Please provide a detailed analysis of the historical context of this play, including:
1. Political and social climate when the play was written
2. Theatrical conventions of the period
3. How contemporary events might have influenced the play
4. Reception of the play when it was first performed
5. The play's significance in the author's body of work
6. How the play reflects or challenges the values of its time

Your analysis should help modern readers and scholars understand the play within its original historical framework.
`

// FullTextAnalysisPrompt is a report skeleton; the placeholders are filled
// in by the model, not by the server.
const FullTextAnalysisPrompt = `
I'll analyze the full text of {play_title} by {author} from the {corpus_name} corpus.

## Basic Information
- Title: {play_title}
- Author: {author}
- Written: {written_year}
- Premiere: {premiere_date}

## Full Text Analysis

{analysis}

## Key Themes and Motifs

{themes}

## Language and Style

{style}

## Historical and Cultural Context

{context}
`

const CharacterTaggingPrompt = `
Your task is to analyze '%s' from the %s corpus in the DraCor database to identify character ID tagging issues. Specifically:

1. Perform a comprehensive analysis of:
   * Character relations
   * Full text (especially TEI format)
   * Play structure

2. Identify all possible inconsistencies in character ID tagging, including:
   * Spelling variations of character names
   * Character name confusion or conflation
   * Historical spelling variants
   * Discrepancies between character IDs and stage directions

3. Create a detailed report of potential character ID tagging errors in a structured table format with the following columns:
   * Text ID: %s/%s
   * Current character ID used in the database
   * Problematic variant(s) found in the text
   * Type of error (spelling, variation, confusion, etc.)
   * Explanation of the issue
`

const CharacterTaggingCorpusPrompt = `
Your task is to analyze a play from the %s corpus in the DraCor database to identify character ID tagging issues.

First, use the search_plays tool to find available plays in the %s corpus, then select one for analysis.

Once you've selected a play, perform a comprehensive analysis of:
1. Character relations
2. Full text (especially TEI format)
3. Play structure

Identify all possible inconsistencies in character ID tagging, including:
* Spelling variations of character names
* Character name confusion or conflation
* Historical spelling variants
* Discrepancies between character IDs and stage directions

Create a detailed report of potential character ID tagging errors in a structured table format with the following columns:
* Text ID (unique identifier for the play)
* Current character ID used in the database
* Problematic variant(s) found in the text
* Type of error (spelling, variation, confusion, etc.)
* Explanation of the issue
`
