// Package block builds the book navigation block: a list of books that
// unfolds into the outline of the book being viewed.
package block

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/outline"
)

// ErrInvalidMode is returned by New for an unknown display mode.
var ErrInvalidMode = errors.New("invalid block mode")

// Display modes.
const (
	// ModeAllPages shows the block everywhere, listing every book.
	ModeAllPages = "all pages"
	// ModeBookPages shows the block only on pages that belong to a book.
	ModeBookPages = "book pages"
)

// Config selects the block's title and display mode.
type Config struct {
	Title string
	Mode  string
}

// Source is the outline the block is built from.
type Source interface {
	Books() []domain.Entry
	Entry(itemID string) (domain.Entry, error)
	OutlineSubtree(bookID string) (*domain.TreeNode, error)
	LinkTo(ctx context.Context, itemID string) (outline.Link, error)
}

// Node is a link in the block, with its children when expanded.
type Node struct {
	outline.Link
	Active   bool    `json:"active,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Block is a rendered navigation block.
type Block struct {
	Title string  `json:"title"`
	Books []*Node `json:"books"`
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// Renderer builds navigation blocks.
type Renderer struct {
	src    Source
	cfg    Config
	logger *zap.Logger
}

// New creates a Renderer for cfg.
func New(src Source, cfg Config, opts ...Option) (*Renderer, error) {
	if cfg.Mode != ModeAllPages && cfg.Mode != ModeBookPages {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	r := &Renderer{src: src, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render builds the block as seen from the page current, which may be empty
// or name a page outside every book. It reports false when the block is not
// shown there.
//
// Only the book holding current is expanded. Other books appear as their
// root link alone.
func (r *Renderer) Render(ctx context.Context, current string) (*Block, bool, error) {
	var bookID string
	if current != "" {
		if e, err := r.src.Entry(current); err == nil {
			bookID = e.BookID
		} else if !errors.Is(err, domain.ErrUnknownItem) {
			return nil, false, err
		}
	}

	var roots []domain.Entry
	switch {
	case r.cfg.Mode == ModeAllPages:
		roots = r.src.Books()
	case bookID != "":
		root, err := r.src.Entry(bookID)
		if err != nil {
			return nil, false, err
		}
		roots = []domain.Entry{root}
	default:
		r.logger.Debug("navigation block hidden", zap.String("current", current))
		return nil, false, nil
	}

	b := &Block{Title: r.cfg.Title, Books: make([]*Node, 0, len(roots))}
	for _, root := range roots {
		var (
			n   *Node
			err error
		)
		if root.ItemID == bookID {
			n, err = r.expand(ctx, current)
		} else {
			n, err = r.node(ctx, root.ItemID, current)
		}
		if err != nil {
			return nil, false, err
		}
		b.Books = append(b.Books, n)
	}
	return b, true, nil
}

// expand returns the full outline of the book holding current.
func (r *Renderer) expand(ctx context.Context, current string) (*Node, error) {
	e, err := r.src.Entry(current)
	if err != nil {
		return nil, err
	}
	tree, err := r.src.OutlineSubtree(e.BookID)
	if err != nil {
		return nil, err
	}
	return r.convert(ctx, tree, current)
}

func (r *Renderer) convert(ctx context.Context, t *domain.TreeNode, current string) (*Node, error) {
	n, err := r.node(ctx, t.Entry.ItemID, current)
	if err != nil {
		return nil, err
	}
	for _, c := range t.Children {
		child, err := r.convert(ctx, c, current)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (r *Renderer) node(ctx context.Context, itemID, current string) (*Node, error) {
	l, err := r.src.LinkTo(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Node{Link: l, Active: itemID == current}, nil
}
