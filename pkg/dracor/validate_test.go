package dracor

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName_Accepts(t *testing.T) {
	for _, value := range []string{"ger", "gerhauptm-die-weber", "rus_001", "A", strings.Repeat("a", MaxNameLength)} {
		got, err := ValidateName(value, "corpus_name")
		if err != nil {
			t.Fatalf("expected %q to be valid, got %v", value, err)
		}
		if got.String() != value {
			t.Fatalf("expected %q unchanged, got %q", value, got)
		}
	}
}

func TestValidateName_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		reason string
	}{
		{name: "empty", value: "", reason: "cannot be empty"},
		{name: "too long", value: strings.Repeat("a", MaxNameLength+1), reason: "exceeds 200 characters"},
		{name: "slash", value: "ger/plays", reason: "only alphanumeric, hyphens, underscores allowed"},
		{name: "dot dot", value: "..", reason: "only alphanumeric, hyphens, underscores allowed"},
		{name: "space", value: "die weber", reason: "only alphanumeric, hyphens, underscores allowed"},
		{name: "query", value: "ger?x=1", reason: "only alphanumeric, hyphens, underscores allowed"},
		{name: "percent", value: "ger%2F", reason: "only alphanumeric, hyphens, underscores allowed"},
		{name: "umlaut", value: "mädchen", reason: "only alphanumeric, hyphens, underscores allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateName(tt.value, "play_name")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if vErr.Param != "play_name" {
				t.Fatalf("expected param play_name, got %q", vErr.Param)
			}
			if vErr.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, vErr.Reason)
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected kind %s, got %s", KindValidation, KindOf(err))
			}
		})
	}
}

func TestValidateWikidataID(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{value: "Q42", ok: true},
		{value: "Q1", ok: true},
		{value: "", ok: false},
		{value: "Q", ok: false},
		{value: "q42", ok: false},
		{value: "P31", ok: false},
		{value: "Q42/../x", ok: false},
	}

	for _, tt := range tests {
		_, err := ValidateWikidataID(tt.value)
		if tt.ok && err != nil {
			t.Fatalf("expected %q to be valid, got %v", tt.value, err)
		}
		if !tt.ok && err == nil {
			t.Fatalf("expected %q to be rejected", tt.value)
		}
	}
}

func TestValidateStruct_ReportsFailingField(t *testing.T) {
	type filters struct {
		Mode  string `json:"mode,omitempty" validate:"omitempty,oneof=a b"`
		Limit int    `json:"limit" validate:"gte=0"`
	}

	tests := []struct {
		name  string
		value filters
		param string
		val   string
	}{
		{name: "oneof", value: filters{Mode: "c"}, param: "mode", val: "c"},
		{name: "gte", value: filters{Mode: "a", Limit: -1}, param: "limit", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.value)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Param != tt.param || vErr.Value != tt.val {
				t.Fatalf("expected %s=%s, got %s=%s", tt.param, tt.val, vErr.Param, vErr.Value)
			}
		})
	}

	if err := ValidateStruct(filters{Mode: "b", Limit: 3}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
