package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

func TestGetPrompt(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		want []string
	}{
		{
			name: "analyze_play",
			args: map[string]string{"corpus_name": "ger", "play_name": "gerhauptm-die-weber"},
			want: []string{"Corpus: ger", "Play: gerhauptm-die-weber"},
		},
		{
			name: "comparative_analysis",
			args: map[string]string{"corpus_name1": "ger", "play_name1": "a", "corpus_name2": "shake", "play_name2": "b"},
			want: []string{"Play 1:\nCorpus: ger\nPlay: a", "Play 2:\nCorpus: shake\nPlay: b"},
		},
		{
			name: "character_analysis",
			args: map[string]string{"corpus_name": "ger", "play_name": "a", "character_id": "weber"},
			want: []string{"Character: weber"},
		},
		{
			name: "full_text_analysis",
			want: []string{"{play_title}", "## Key Themes and Motifs"},
		},
		{
			name: "character_tagging_analysis",
			args: map[string]string{"play_name": "vondel-lucifer"},
			want: []string{"'vondel-lucifer' from the dutch corpus", "Text ID: dutch/vondel-lucifer"},
		},
		{
			name: "character_tagging_analysis",
			args: map[string]string{"corpus_name": "ger"},
			want: []string{"a play from the ger corpus", "search_plays tool"},
		},
	}

	r, _ := newTestRegistry(t, defaultRoutes())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := r.GetPrompt(tt.name, tt.args)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Fatalf("expected prompt to contain %q, got %q", want, text)
				}
			}
			if strings.Contains(text, "%!") {
				t.Fatalf("prompt has formatting errors: %q", text)
			}
		})
	}
}

func TestGetPrompt_Errors(t *testing.T) {
	r, _ := newTestRegistry(t, defaultRoutes())

	_, err := r.GetPrompt("gender_analysis", map[string]string{"corpus_name": "ger"})
	var vErr *dracor.ValidationError
	if !errors.As(err, &vErr) || vErr.Param != "play_name" {
		t.Fatalf("expected ValidationError for play_name, got %v", err)
	}

	if _, err := r.GetPrompt("write_a_play", nil); !errors.Is(err, ErrUnknownPrompt) {
		t.Fatalf("expected ErrUnknownPrompt, got %v", err)
	}

	if got := len(r.Prompts()); got != 8 {
		t.Fatalf("expected 8 prompts, got %d", got)
	}
}
