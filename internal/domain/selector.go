package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSelector is returned when a selector string cannot be parsed.
var ErrInvalidSelector = errors.New("invalid selector")

// SelectorKind distinguishes between item ID and slug selectors.
type SelectorKind int

const (
	// SelectorID indicates a stable item ID selector.
	SelectorID SelectorKind = iota
	// SelectorSlug indicates a title slug selector.
	SelectorSlug
)

var (
	idPattern   = regexp.MustCompile(`^[A-Za-z0-9]{8,12}$`)
	slugPattern = regexp.MustCompile(`^[\p{Ll}\p{Lo}\p{Nd}]+(?:-[\p{Ll}\p{Lo}\p{Nd}]+)*$`)
)

// Selector is a value object representing a parsed page reference.
type Selector struct {
	kind     SelectorKind
	value    string
	explicit bool
}

// ParseSelector parses "id:<id>", "slug:<slug>", or a bare value. A bare
// value that looks like an ID is an ID selector; anything else must be a
// valid slug.
func ParseSelector(input string) (Selector, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Selector{}, fmt.Errorf("%w: empty input", ErrInvalidSelector)
	}

	if value, ok := strings.CutPrefix(input, "id:"); ok {
		if !IsValidID(value) {
			return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, input)
		}
		return Selector{kind: SelectorID, value: value, explicit: true}, nil
	}
	if value, ok := strings.CutPrefix(input, "slug:"); ok {
		if !slugPattern.MatchString(value) {
			return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, input)
		}
		return Selector{kind: SelectorSlug, value: value, explicit: true}, nil
	}

	if strings.Contains(input, ":") {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, input)
	}

	if IsValidID(input) {
		return Selector{kind: SelectorID, value: input}, nil
	}
	if slugPattern.MatchString(input) {
		return Selector{kind: SelectorSlug, value: input}, nil
	}

	return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, input)
}

// IsValidID reports whether s has the shape of an item ID.
func IsValidID(s string) bool {
	return idPattern.MatchString(s)
}

// Kind returns the selector kind.
func (s Selector) Kind() SelectorKind {
	return s.kind
}

// Value returns the selector value without any prefix.
func (s Selector) Value() string {
	return s.value
}

// Explicit reports whether the input carried an "id:" or "slug:" prefix.
// Bare ID-shaped selectors may fall back to a slug lookup; explicit ones may
// not.
func (s Selector) Explicit() bool {
	return s.explicit
}

// String returns the string representation, including prefix if explicitly provided.
func (s Selector) String() string {
	if s.explicit {
		switch s.kind {
		case SelectorID:
			return "id:" + s.value
		case SelectorSlug:
			return "slug:" + s.value
		}
	}
	return s.value
}
