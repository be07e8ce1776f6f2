// Package mcpserver exposes book navigation, outlines and export as Model
// Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/outline"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Navigator answers outline queries.
type Navigator interface {
	Navigation(ctx context.Context, itemID string) (*outline.Navigation, error)
	OutlineSubtree(bookID string) (*domain.TreeNode, error)
	LinkTo(ctx context.Context, itemID string) (outline.Link, error)
}

// Exporter renders printer-friendly documents.
type Exporter interface {
	Export(ctx context.Context, format, itemID string) ([]byte, error)
}

// Resolver turns a user-supplied page reference into an item ID.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

type identity struct{}

func (identity) Resolve(_ context.Context, ref string) (string, error) { return ref, nil }

// Option configures the server.
type Option func(*handlers)

// WithResolver resolves page references before every query. Without one,
// references are used as item IDs.
func WithResolver(r Resolver) Option {
	return func(h *handlers) { h.resolve = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *handlers) { h.logger = l }
}

// NavigationRequest names the page to navigate from.
type NavigationRequest struct {
	Item string `json:"item"`
}

// OutlineRequest names the book to outline.
type OutlineRequest struct {
	Book string `json:"book"`
}

// ExportRequest names the subtree and format to export.
type ExportRequest struct {
	Item   string `json:"item"`
	Format string `json:"format"`
}

// OutlineNode is one page of an outline tool result.
type OutlineNode struct {
	outline.Link
	Children []*OutlineNode `json:"children,omitempty"`
}

type handlers struct {
	nav     Navigator
	export  Exporter
	resolve Resolver
	logger  *zap.Logger
}

// NewServer creates an MCP server with the navigation and outline tools, and
// the export tool when exp is not nil.
func NewServer(nav Navigator, exp Exporter, opts ...Option) *server.MCPServer {
	h := &handlers{nav: nav, export: exp, resolve: identity{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	s := server.NewMCPServer("booktree", Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("navigation",
		mcp.WithDescription("Get the book navigation of a page: breadcrumb, previous, up, next and child pages"),
		mcp.WithString("item",
			mcp.Required(),
			mcp.Description("Page ID or slug"),
		),
	), mcp.NewTypedToolHandler(h.navigation))

	s.AddTool(mcp.NewTool("outline",
		mcp.WithDescription("Get the full nested outline of a book"),
		mcp.WithString("book",
			mcp.Required(),
			mcp.Description("ID or slug of the book's root page"),
		),
	), mcp.NewTypedToolHandler(h.outline))

	if exp != nil {
		s.AddTool(mcp.NewTool("export",
			mcp.WithDescription("Export a page and all pages below it as one document"),
			mcp.WithString("item",
				mcp.Required(),
				mcp.Description("ID or slug of the first page to export"),
			),
			mcp.WithString("format",
				mcp.Description("Document format"),
				mcp.Enum("html", "markdown"),
				mcp.DefaultString("markdown"),
			),
		), mcp.NewTypedToolHandler(h.exportDoc))
	}
	return s
}

func (h *handlers) navigation(ctx context.Context, _ mcp.CallToolRequest, args NavigationRequest) (*mcp.CallToolResult, error) {
	if args.Item == "" {
		return mcp.NewToolResultError("item is required"), nil
	}
	id, err := h.resolve.Resolve(ctx, args.Item)
	if err != nil {
		return h.fail("navigation", err), nil
	}
	nav, err := h.nav.Navigation(ctx, id)
	if err != nil {
		return h.fail("navigation", err), nil
	}
	return jsonResult(nav)
}

func (h *handlers) outline(ctx context.Context, _ mcp.CallToolRequest, args OutlineRequest) (*mcp.CallToolResult, error) {
	if args.Book == "" {
		return mcp.NewToolResultError("book is required"), nil
	}
	id, err := h.resolve.Resolve(ctx, args.Book)
	if err != nil {
		return h.fail("outline", err), nil
	}
	tree, err := h.nav.OutlineSubtree(id)
	if err != nil {
		return h.fail("outline", err), nil
	}
	root, err := h.convert(ctx, tree)
	if err != nil {
		return h.fail("outline", err), nil
	}
	return jsonResult(root)
}

func (h *handlers) exportDoc(ctx context.Context, _ mcp.CallToolRequest, args ExportRequest) (*mcp.CallToolResult, error) {
	if args.Item == "" {
		return mcp.NewToolResultError("item is required"), nil
	}
	format := args.Format
	if format == "" {
		format = "markdown"
	}
	id, err := h.resolve.Resolve(ctx, args.Item)
	if err != nil {
		return h.fail("export", err), nil
	}
	doc, err := h.export.Export(ctx, format, id)
	if err != nil {
		return h.fail("export", err), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func (h *handlers) convert(ctx context.Context, t *domain.TreeNode) (*OutlineNode, error) {
	l, err := h.nav.LinkTo(ctx, t.Entry.ItemID)
	if err != nil {
		return nil, err
	}
	n := &OutlineNode{Link: l}
	for _, c := range t.Children {
		child, err := h.convert(ctx, c)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (h *handlers) fail(tool string, err error) *mcp.CallToolResult {
	h.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", tool, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
