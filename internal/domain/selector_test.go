package domain

import (
	"errors"
	"testing"
)

func TestParseSelector_ImplicitID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue string
	}{
		{"twelve char mixed", "A3F7c9Qx7Lm2", "A3F7c9Qx7Lm2"},
		{"eight char minimum", "abcdefgh", "abcdefgh"},
		{"all digits twelve", "123456789012", "123456789012"},
		{"all uppercase eight", "ABCDEFGH", "ABCDEFGH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelector(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.Kind() != SelectorID {
				t.Errorf("Kind() = %v, want SelectorID", sel.Kind())
			}
			if sel.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", sel.Value(), tt.wantValue)
			}
		})
	}
}

func TestParseSelector_ImplicitSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short word", "intro"},
		{"dashed", "chapter-one"},
		{"digits", "part-2"},
		{"longer than an ID", "a-rather-long-page-title"},
		{"unicode letters", "über-café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelector(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.Kind() != SelectorSlug {
				t.Errorf("Kind() = %v, want SelectorSlug", sel.Kind())
			}
			if sel.Value() != tt.input {
				t.Errorf("Value() = %q, want %q", sel.Value(), tt.input)
			}
		})
	}
}

func TestParseSelector_ExplicitPrefixes(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  SelectorKind
		wantValue string
	}{
		{"id prefix", "id:A3F7c9Qx7Lm2", SelectorID, "A3F7c9Qx7Lm2"},
		{"slug prefix", "slug:intro", SelectorSlug, "intro"},
		{"slug prefix on ID-shaped value", "slug:abcdefgh", SelectorSlug, "abcdefgh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelector(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", sel.Kind(), tt.wantKind)
			}
			if sel.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", sel.Value(), tt.wantValue)
			}
		})
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unknown prefix", "foo:bar"},
		{"id prefix too short", "id:abc"},
		{"id prefix bad chars", "id:abc-defgh"},
		{"slug prefix uppercase", "slug:Intro"},
		{"slug with spaces", "two words"},
		{"leading dash", "-intro"},
		{"double dash", "a--b"},
		{"special chars", "abc!@#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelector(tt.input)
			if !errors.Is(err, ErrInvalidSelector) {
				t.Errorf("ParseSelector(%q) error = %v, want ErrInvalidSelector", tt.input, err)
			}
		})
	}
}
