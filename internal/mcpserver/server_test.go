package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap/zaptest"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/outline"
)

type titles map[string]string

func (t titles) Lookup(_ context.Context, id string) (domain.Item, error) {
	title, ok := t[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrUnknownItem, id)
	}
	return domain.Item{ID: id, Title: title}, nil
}

type fakeExporter struct {
	format, item string
}

func (e *fakeExporter) Export(_ context.Context, format, itemID string) ([]byte, error) {
	if itemID == "missing" {
		return nil, domain.ErrUnknownItem
	}
	e.format, e.item = format, itemID
	return []byte("# exported " + itemID), nil
}

// slugs resolves "slug-<id>" to <id>.
type slugs struct{}

func (slugs) Resolve(_ context.Context, ref string) (string, error) {
	if id, ok := strings.CutPrefix(ref, "slug-"); ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownItem, ref)
}

func newHandlers(t *testing.T, opts ...Option) (*handlers, *fakeExporter) {
	t.Helper()
	m := outline.NewManager(titles{"R": "Root", "A": "Apple", "B": "Banana"})
	ctx := context.Background()
	if _, err := m.CreateBook(ctx, "R"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"A", "B"} {
		if _, err := m.AddEntry(ctx, id, "R", ""); err != nil {
			t.Fatal(err)
		}
	}
	exp := &fakeExporter{}
	h := &handlers{nav: m, export: exp, resolve: identity{}, logger: zaptest.NewLogger(t)}
	for _, opt := range opts {
		opt(h)
	}
	return h, exp
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func TestNewServer(t *testing.T) {
	m := outline.NewManager(nil)
	if s := NewServer(m, nil); s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s := NewServer(m, &fakeExporter{}, WithResolver(slugs{})); s == nil {
		t.Fatal("NewServer() returned nil")
	}
}

func TestNavigationTool(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.navigation(context.Background(), mcp.CallToolRequest{}, NavigationRequest{Item: "A"})
	if err != nil {
		t.Fatalf("navigation: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}

	var got outline.Navigation
	if err := json.Unmarshal([]byte(text(t, res)), &got); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	want := outline.Navigation{
		Item:       outline.Link{ID: "A", Title: "Apple"},
		Book:       outline.Link{ID: "R", Title: "Root"},
		Breadcrumb: []outline.Link{{ID: "R", Title: "Root"}},
		Previous:   &outline.Link{ID: "R", Title: "Root"},
		Up:         &outline.Link{ID: "R", Title: "Root"},
		Next:       &outline.Link{ID: "B", Title: "Banana"},
		Children:   []outline.Link{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestOutlineTool(t *testing.T) {
	h, _ := newHandlers(t, WithResolver(slugs{}))

	res, err := h.outline(context.Background(), mcp.CallToolRequest{}, OutlineRequest{Book: "slug-R"})
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}

	var got OutlineNode
	if err := json.Unmarshal([]byte(text(t, res)), &got); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	want := OutlineNode{
		Link: outline.Link{ID: "R", Title: "Root"},
		Children: []*OutlineNode{
			{Link: outline.Link{ID: "A", Title: "Apple"}},
			{Link: outline.Link{ID: "B", Title: "Banana"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestExportTool(t *testing.T) {
	h, exp := newHandlers(t)

	res, err := h.exportDoc(context.Background(), mcp.CallToolRequest{}, ExportRequest{Item: "R"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := text(t, res); got != "# exported R" {
		t.Errorf("text = %q", got)
	}
	if exp.format != "markdown" {
		t.Errorf("format = %q, want markdown by default", exp.format)
	}
}

func TestTools_ReportErrorsAsResults(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	tests := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
		want string
	}{
		{"navigation without item", func() (*mcp.CallToolResult, error) {
			return h.navigation(ctx, req, NavigationRequest{})
		}, "item is required"},
		{"navigation of unknown item", func() (*mcp.CallToolResult, error) {
			return h.navigation(ctx, req, NavigationRequest{Item: "X"})
		}, "unknown item"},
		{"outline without book", func() (*mcp.CallToolResult, error) {
			return h.outline(ctx, req, OutlineRequest{})
		}, "book is required"},
		{"outline of a non-root", func() (*mcp.CallToolResult, error) {
			return h.outline(ctx, req, OutlineRequest{Book: "A"})
		}, "unknown book"},
		{"export of unknown item", func() (*mcp.CallToolResult, error) {
			return h.exportDoc(ctx, req, ExportRequest{Item: "missing"})
		}, "unknown item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !res.IsError {
				t.Fatalf("IsError = false, want true")
			}
			if got := text(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("text = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
