package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/fs"
)

// initProject runs bk init in a fresh directory and returns a workspace
// rooted there.
func initProject(t *testing.T) (*Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	getwd := func() (string, error) { return dir, nil }

	c := NewInitCmd(getwd)
	c.SetOut(new(bytes.Buffer))
	c.SetArgs([]string{})
	if err := c.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}

	ws := NewWorkspace(getwd)
	ws.SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { _ = ws.Close() })
	return ws, dir
}

// titles flattens trees into "title@depth" in document order.
func titles(roots []*TreeNode) []string {
	var out []string
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		out = append(out, n.Title+"@"+string(rune('0'+n.Depth)))
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

func mustOutline(t *testing.T, ws *Workspace, sel string) []string {
	t.Helper()
	roots, err := ws.Outline(context.Background(), sel)
	if err != nil {
		t.Fatalf("Outline(%q): %v", sel, err)
	}
	return titles(roots)
}

// buildGuide creates
//
//	Guide
//	├── Preface
//	├── Intro
//	│   └── Setup
//	└── Reference
func buildGuide(t *testing.T, ws *Workspace) {
	t.Helper()
	ctx := context.Background()
	if _, err := ws.NewBook(ctx, "Guide", "<p>Welcome.</p>"); err != nil {
		t.Fatalf("NewBook: %v", err)
	}
	steps := []struct {
		title string
		p     Placement
	}{
		{"Intro", Placement{Book: "guide"}},
		{"Setup", Placement{Parent: "intro"}},
		{"Reference", Placement{Book: "guide"}},
		{"Preface", Placement{Before: "intro"}},
	}
	for _, s := range steps {
		if _, err := ws.Add(ctx, s.title, "<p>"+s.title+" body</p>", s.p); err != nil {
			t.Fatalf("Add(%s): %v", s.title, err)
		}
	}
}

func TestWorkspace_BuildAndQuery(t *testing.T) {
	ws, _ := initProject(t)
	buildGuide(t, ws)
	ctx := context.Background()

	want := []string{"Guide@0", "Preface@1", "Intro@1", "Setup@2", "Reference@1"}
	if diff := cmp.Diff(want, mustOutline(t, ws, "guide")); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}

	nav, err := ws.Navigation(ctx, "setup")
	if err != nil {
		t.Fatalf("Navigation: %v", err)
	}
	if nav.Up == nil || nav.Up.Title != "Intro" || nav.Next == nil || nav.Next.Title != "Reference" {
		t.Errorf("navigation = %+v", nav)
	}
	if len(nav.Breadcrumb) != 2 || nav.Breadcrumb[0].Title != "Guide" {
		t.Errorf("breadcrumb = %+v", nav.Breadcrumb)
	}

	books, err := ws.Books(ctx)
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Guide" || books[0].Pages != 5 {
		t.Errorf("books = %+v", books)
	}
}

func TestWorkspace_MoveAndRemove(t *testing.T) {
	ws, _ := initProject(t)
	buildGuide(t, ws)
	ctx := context.Background()

	if _, err := ws.Move(ctx, "reference", Placement{Parent: "intro", First: true}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{"Guide@0", "Preface@1", "Intro@1", "Reference@2", "Setup@2"}
	if diff := cmp.Diff(want, mustOutline(t, ws, "")); diff != "" {
		t.Errorf("after move (-want +got):\n%s", diff)
	}

	if _, err := ws.Move(ctx, "setup", Placement{First: true}); err != nil {
		t.Fatalf("Move --first: %v", err)
	}
	if _, err := ws.Remove(ctx, "intro", domain.RemoveLeaf); !errors.Is(err, domain.ErrHasDescendants) {
		t.Fatalf("Remove leaf error = %v, want ErrHasDescendants", err)
	}
	if _, err := ws.Remove(ctx, "intro", domain.RemovePromote); err != nil {
		t.Fatalf("Remove promote: %v", err)
	}
	want = []string{"Guide@0", "Preface@1", "Setup@1", "Reference@1"}
	if diff := cmp.Diff(want, mustOutline(t, ws, "guide")); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}

	if _, err := ws.Move(ctx, "guide", Placement{Book: "guide"}); !errors.Is(err, domain.ErrRootImmovable) {
		t.Errorf("moving a root: error = %v, want ErrRootImmovable", err)
	}
}

func TestWorkspace_PersistsAcrossOpens(t *testing.T) {
	ws, dir := initProject(t)
	buildGuide(t, ws)
	before := mustOutline(t, ws, "guide")
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := NewWorkspace(func() (string, error) { return filepath.Join(dir, "pages"), nil })
	t.Cleanup(func() { _ = reopened.Close() })

	if diff := cmp.Diff(before, mustOutline(t, reopened, "guide")); diff != "" {
		t.Errorf("reopened outline mismatch (-want +got):\n%s", diff)
	}
	findings, err := reopened.Check(context.Background())
	if err != nil || len(findings) != 0 {
		t.Errorf("Check = %v, %v; want no findings", findings, err)
	}
}

func TestWorkspace_Placement(t *testing.T) {
	ws, _ := initProject(t)
	buildGuide(t, ws)
	ctx := context.Background()
	if _, err := ws.NewBook(ctx, "Handbook", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Add(ctx, "Appendix", "", Placement{Book: "handbook"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		p    Placement
		want error
	}{
		{"no destination", Placement{}, ErrNoDestination},
		{"unknown book", Placement{Book: "nowhere"}, domain.ErrUnknownItem},
		{"book that is not a root", Placement{Book: "intro"}, domain.ErrUnknownBook},
		{"parent in another book", Placement{Book: "handbook", Parent: "intro"}, domain.ErrCrossBookParent},
		{"beside a root", Placement{After: "guide"}, domain.ErrUnknownSibling},
		{"parent and sibling in different books", Placement{Parent: "intro", After: "appendix"}, domain.ErrCrossBookParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ws.Add(ctx, "Stray", "", tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	// Failed adds leave no page behind.
	p, err := ws.open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Resolve(ctx, "stray"); !errors.Is(err, domain.ErrUnknownItem) {
		t.Errorf("Resolve(stray) error = %v, want ErrUnknownItem", err)
	}
}

func TestWorkspace_ExportAndBlock(t *testing.T) {
	ws, _ := initProject(t)
	buildGuide(t, ws)
	ctx := context.Background()

	doc, err := ws.Export(ctx, "markdown", "intro")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(doc)
	if !strings.Contains(md, "# Intro") || !strings.Contains(md, "## Setup") || strings.Contains(md, "Reference") {
		t.Errorf("markdown export = %q", md)
	}

	b, shown, err := ws.Block(ctx, "setup")
	if err != nil || !shown {
		t.Fatalf("Block = %v, %v", shown, err)
	}
	if len(b.Books) != 1 || len(b.Books[0].Children) != 3 {
		t.Errorf("block = %+v", b)
	}
}

func TestWorkspace_CheckAndRepair(t *testing.T) {
	ws, dir := initProject(t)
	buildGuide(t, ws)
	ctx := context.Background()

	matches, err := filepath.Glob(filepath.Join(dir, "pages", "*_setup.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("setup page: %v, %v", matches, err)
	}
	if err := os.Remove(matches[0]); err != nil {
		t.Fatal(err)
	}

	findings, err := ws.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 1 || findings[0].Type != domain.FindingMissingContent {
		t.Fatalf("findings = %+v", findings)
	}

	res, err := ws.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Rewritten != 5 || len(res.Unrepaired) != 1 {
		t.Errorf("repair = %+v", res)
	}
}

func TestWorkspace_NotInProject(t *testing.T) {
	dir := t.TempDir()
	ws := NewWorkspace(func() (string, error) { return dir, nil })

	if _, err := ws.Books(context.Background()); !errors.Is(err, ErrNotInProject) {
		t.Errorf("error = %v, want ErrNotInProject", err)
	}
	if _, err := os.Stat(filepath.Join(dir, fs.MarkerDir)); !os.IsNotExist(err) {
		t.Errorf("workspace should not create %s", fs.MarkerDir)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	dir := t.TempDir()
	getwd := func() (string, error) { return dir, nil }

	for i, want := range []string{"Initialized booktree project\n", "Booktree project already initialized\n"} {
		c := NewInitCmd(getwd)
		out := new(bytes.Buffer)
		c.SetOut(out)
		c.SetArgs([]string{})
		if err := c.Execute(); err != nil {
			t.Fatalf("init #%d: %v", i+1, err)
		}
		if out.String() != want {
			t.Errorf("init #%d output = %q, want %q", i+1, out.String(), want)
		}
	}
	for _, p := range []string{".booktree/config.yaml", ".booktree/outline.db", "pages"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}
