package dracor

import (
	"bytes"
	"encoding/json"
	"errors"
)

// DecodeJSON decodes a JSON body into out. Empty or malformed bodies fail
// with *ParseError.
func DecodeJSON(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return &ParseError{Format: FormatJSON, Err: errors.New("empty body")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Format: FormatJSON, Err: err}
	}
	return nil
}
