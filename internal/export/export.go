// Package export renders a book, or any part of one, as a single
// printer-friendly document.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/outline"
)

// ErrUnsupportedFormat is returned for export formats other than those
// listed by Formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Export formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Formats lists the supported export formats.
func Formats() []string {
	return []string{FormatHTML, FormatMarkdown}
}

// maxHeading is the deepest heading level HTML offers.
const maxHeading = 6

// Tree resolves outline subtrees and titles.
type Tree interface {
	Subtree(itemID string) (*domain.TreeNode, error)
	LinkTo(ctx context.Context, itemID string) (outline.Link, error)
}

// BodySource returns the stored body of a page and the format it is written
// in. Pages it does not know yield an error wrapping domain.ErrUnknownItem.
type BodySource interface {
	Body(ctx context.Context, itemID string) (body, format string, err error)
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithWorkers bounds how many bodies are fetched at once. Values below one
// are ignored.
func WithWorkers(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// Exporter renders outline subtrees with their page bodies.
type Exporter struct {
	tree    Tree
	bodies  BodySource
	workers int
	logger  *zap.Logger
}

// New creates an Exporter.
func New(tree Tree, bodies BodySource, opts ...Option) *Exporter {
	e := &Exporter{tree: tree, bodies: bodies, workers: 4, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type section struct {
	ID    string
	Title string
	Level int
	Body  template.HTML
}

type document struct {
	Title    string
	Sections []section
}

// Export renders the subtree rooted at itemID in document order. Each page
// contributes a heading, one level deeper per outline level below itemID,
// followed by its body.
func (e *Exporter) Export(ctx context.Context, format, itemID string) ([]byte, error) {
	if format != FormatHTML && format != FormatMarkdown {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	root, err := e.tree.Subtree(itemID)
	if err != nil {
		return nil, err
	}

	doc, err := e.collect(ctx, root)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", itemID, err)
	}

	e.logger.Debug("exported",
		zap.String("item", itemID),
		zap.String("format", format),
		zap.Int("pages", len(doc.Sections)))

	if format == FormatMarkdown {
		return toMarkdown(buf.Bytes())
	}
	return buf.Bytes(), nil
}

// collect fetches titles and bodies concurrently and returns them in
// document order.
func (e *Exporter) collect(ctx context.Context, root *domain.TreeNode) (document, error) {
	var nodes []domain.Entry
	root.Walk(func(n *domain.TreeNode) bool {
		nodes = append(nodes, n.Entry)
		return true
	})

	sections := make([]section, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, n := range nodes {
		g.Go(func() error {
			s, err := e.section(gctx, n, root.Entry.Depth)
			if err != nil {
				return err
			}
			sections[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return document{}, err
	}
	return document{Title: sections[0].Title, Sections: sections}, nil
}

func (e *Exporter) section(ctx context.Context, n domain.Entry, rootDepth int) (section, error) {
	link, err := e.tree.LinkTo(ctx, n.ItemID)
	if err != nil {
		return section{}, fmt.Errorf("title of %s: %w", n.ItemID, err)
	}
	s := section{
		ID:    n.ItemID,
		Title: link.Title,
		Level: min(n.Depth-rootDepth+1, maxHeading),
	}

	body, format, err := e.bodies.Body(ctx, n.ItemID)
	switch {
	case errors.Is(err, domain.ErrUnknownItem):
		e.logger.Warn("exporting page without content", zap.String("item", n.ItemID))
		return s, nil
	case err != nil:
		return section{}, fmt.Errorf("body of %s: %w", n.ItemID, err)
	}
	s.Body = renderBody(body, format)
	return s, nil
}

// renderBody trusts HTML bodies as written and escapes any other format as
// preformatted text.
func renderBody(body, format string) template.HTML {
	if body == "" {
		return ""
	}
	if format == "" || format == FormatHTML {
		return template.HTML(body)
	}
	return template.HTML("<pre>" + template.HTMLEscapeString(body) + "</pre>")
}

// toMarkdown converts the body of a rendered HTML document.
func toMarkdown(doc []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	md, err := htmltomarkdown.ConvertNode(body)
	if err != nil {
		return nil, fmt.Errorf("converting export to markdown: %w", err)
	}
	return md, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
