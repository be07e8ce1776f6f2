// Package frontmatter reads and writes the YAML front matter of page files.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnclosed is returned when an opening --- has no closing line.
	ErrUnclosed = errors.New("unclosed front matter")
	// ErrInvalidTitle is returned when the title field is not a string.
	ErrInvalidTitle = errors.New("title is not a string")
)

// Meta is the front matter of a page.
type Meta struct {
	Title string `yaml:"title"`
	// Format names the markup of the body; empty means html.
	Format string `yaml:"format,omitempty"`
}

// Split separates a document into front matter and body. Front matter is
// delimited by --- on its own line.
func Split(input string) (string, string, error) {
	if !strings.HasPrefix(input, "---\n") {
		return "", input, nil
	}

	rest := input[4:]
	for pos := 0; pos < len(rest); {
		line, next := rest[pos:], len(rest)
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line, next = line[:nl], pos+nl+1
		}
		if line == "---" {
			return rest[:pos], rest[next:], nil
		}
		pos = next
	}
	return "", "", ErrUnclosed
}

// Parse splits input and decodes its front matter. A document without front
// matter has a zero Meta and is all body.
func Parse(input string) (Meta, string, error) {
	fm, body, err := Split(input)
	if err != nil {
		return Meta{}, "", err
	}
	var m Meta
	if strings.TrimSpace(fm) == "" {
		return m, body, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
		return Meta{}, "", fmt.Errorf("parsing front matter: %w", err)
	}
	if len(doc.Content) == 0 {
		return m, body, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return Meta{}, "", fmt.Errorf("parsing front matter: not a mapping")
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "title" && mapping.Content[i+1].Tag != "!!str" {
			return Meta{}, "", ErrInvalidTitle
		}
	}
	if err := mapping.Decode(&m); err != nil {
		return Meta{}, "", fmt.Errorf("decoding front matter: %w", err)
	}
	return m, body, nil
}

// Render serializes m as front matter followed by body.
func Render(m Meta, body string) (string, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	return "---\n" + string(out) + "---\n" + body, nil
}
