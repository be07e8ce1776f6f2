package cmd

import (
	"context"
	"io"

	"github.com/eykd/booktree-go/internal/block"
	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/outline"
)

// Placement holds the destination flags shared by add and move. Every
// field except First is a page selector.
type Placement struct {
	Book   string
	Parent string
	Before string
	After  string
	First  bool
}

// PageResult describes a page that was created and placed in a book.
type PageResult struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	File  string       `json:"file"`
	Entry domain.Entry `json:"entry"`
}

// TreeNode is one page of a displayed outline.
type TreeNode struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

// BookInfo summarizes one book.
type BookInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Pages int    `json:"pages"`
}

// RepairResult reports what a repair rewrote and what it could not fix.
type RepairResult struct {
	Rewritten  int              `json:"rewritten"`
	Dropped    []string         `json:"dropped"`
	Unrepaired []domain.Finding `json:"unrepaired"`
}

// NewBookRunner creates a page as the root of a new book.
type NewBookRunner interface {
	NewBook(ctx context.Context, title, body string) (*PageResult, error)
}

// AddRunner creates a page and places it in a book.
type AddRunner interface {
	Add(ctx context.Context, title, body string, p Placement) (*PageResult, error)
}

// MoveRunner moves a page, with everything below it.
type MoveRunner interface {
	Move(ctx context.Context, selector string, p Placement) (domain.Entry, error)
}

// RemoveRunner takes a page out of its book. It returns the removed item ID.
type RemoveRunner interface {
	Remove(ctx context.Context, selector string, mode domain.RemoveMode) (string, error)
}

// NavRunner returns the book navigation of a page.
type NavRunner interface {
	Navigation(ctx context.Context, selector string) (*outline.Navigation, error)
}

// ListRunner returns the outline of one book, or of all books when the
// selector is empty.
type ListRunner interface {
	Outline(ctx context.Context, bookSelector string) ([]*TreeNode, error)
}

// BooksRunner lists books in creation order.
type BooksRunner interface {
	Books(ctx context.Context) ([]BookInfo, error)
}

// ExportRunner renders a page and its descendants as one document.
type ExportRunner interface {
	Export(ctx context.Context, format, selector string) ([]byte, error)
}

// BlockRunner renders the navigation block as seen from a page.
type BlockRunner interface {
	Block(ctx context.Context, currentSelector string) (*block.Block, bool, error)
}

// CheckRunner reports outline integrity findings.
type CheckRunner interface {
	Check(ctx context.Context) ([]domain.Finding, error)
}

// RepairRunner rewrites the stored outline from its valid state.
type RepairRunner interface {
	Repair(ctx context.Context) (*RepairResult, error)
}

// MCPRunner serves the MCP tools over a byte stream.
type MCPRunner interface {
	ServeMCP(ctx context.Context, in io.Reader, out io.Writer) error
}

// Service is everything the commands need from an open project.
type Service interface {
	NewBookRunner
	AddRunner
	MoveRunner
	RemoveRunner
	NavRunner
	ListRunner
	BooksRunner
	ExportRunner
	BlockRunner
	CheckRunner
	RepairRunner
	MCPRunner
}
