package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema reflects the JSON schema of an argument struct. Nested
// types are inlined and unknown properties are rejected.
func GenerateSchema(value any) map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	schema := reflector.Reflect(reflect.New(t).Interface())
	// the MCP input schema is a plain JSON object
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema of %s: %v", t, err))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("failed to unmarshal schema of %s: %v", t, err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// DecodeArguments parses tool arguments into out. Empty input is an empty
// object; double encoded and slightly malformed JSON is repaired before it
// is rejected.
func DecodeArguments(input string, out any) error {
	input = strings.TrimSpace(input)
	if input == "" || input == "null" {
		input = "{}"
	}

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return &dracor.ValidationError{Param: "arguments", Value: input, Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return &dracor.ValidationError{Param: "arguments", Value: input, Reason: fmt.Sprintf("does not match the tool schema: %v", err)}
	}
	return nil
}

func stripDuplicateLeadingBrace(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, "{") {
		return s
	}
	rest := strings.TrimLeft(trimmed[1:], " \t\r\n")
	if strings.HasPrefix(rest, "{") {
		return rest
	}
	return s
}

// playArgs is embedded by every tool that addresses a single play.
type playArgs struct {
	CorpusName string `json:"corpus_name" jsonschema:"required" jsonschema_description:"Corpus identifier, e.g. ger or shake"`
	PlayName   string `json:"play_name" jsonschema:"required" jsonschema_description:"Play identifier within the corpus, e.g. gerhauptm-die-weber"`
}

func (a playArgs) names() (corpus, play dracor.Name, err error) {
	if corpus, err = dracor.ValidateName(a.CorpusName, "corpus_name"); err != nil {
		return "", "", err
	}
	if play, err = dracor.ValidateName(a.PlayName, "play_name"); err != nil {
		return "", "", err
	}
	return corpus, play, nil
}

type comparePlaysArgs struct {
	CorpusName1 string `json:"corpus_name1" jsonschema:"required" jsonschema_description:"Corpus of the first play"`
	PlayName1   string `json:"play_name1" jsonschema:"required" jsonschema_description:"Identifier of the first play"`
	CorpusName2 string `json:"corpus_name2" jsonschema:"required" jsonschema_description:"Corpus of the second play"`
	PlayName2   string `json:"play_name2" jsonschema:"required" jsonschema_description:"Identifier of the second play"`
}

type findCharacterArgs struct {
	CharacterName string `json:"character_name" jsonschema:"required" jsonschema_description:"Part of the character name, matched case-insensitively"`
	CorpusName    string `json:"corpus_name,omitempty" jsonschema_description:"Only scan this corpus; all corpora when empty"`
}
