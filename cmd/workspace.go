package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/eykd/booktree-go/internal/block"
	"github.com/eykd/booktree-go/internal/config"
	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/export"
	"github.com/eykd/booktree-go/internal/fs"
	"github.com/eykd/booktree-go/internal/lock"
	"github.com/eykd/booktree-go/internal/mcpserver"
	"github.com/eykd/booktree-go/internal/outline"
	"github.com/eykd/booktree-go/internal/store"
)

// LockFile is the advisory lock held by mutating commands, inside the
// project marker directory.
const LockFile = "lock"

// Workspace implements Service for the project enclosing the working
// directory. The project is opened on first use.
type Workspace struct {
	getwd func() (string, error)

	mu     sync.Mutex
	logger *zap.Logger
	p      *project
}

// NewWorkspace creates a Workspace rooted at the directory getwd returns.
func NewWorkspace(getwd func() (string, error)) *Workspace {
	return &Workspace{getwd: getwd, logger: zap.NewNop()}
}

// SetLogger sets the logger handed to the project when it is opened.
func (w *Workspace) SetLogger(l *zap.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = l
}

// Close releases the project database, if one was opened.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.p == nil {
		return nil
	}
	err := w.p.store.Close()
	w.p = nil
	return err
}

// project is the wired stack of an open project.
type project struct {
	root   string
	cfg    config.Config
	pages  *fs.PageStore
	store  *store.Store
	mgr    *outline.Manager
	export *export.Exporter
	block  *block.Renderer
	logger *zap.Logger
}

func (w *Workspace) open(ctx context.Context) (*project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.p != nil {
		return w.p, nil
	}

	cwd, err := w.getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	root, err := fs.FindProjectRoot(cwd)
	if errors.Is(err, fs.ErrNoProject) {
		return nil, ErrNotInProject
	}
	if err != nil {
		return nil, err
	}
	p, err := openProject(ctx, root, w.logger)
	if err != nil {
		return nil, err
	}
	w.p = p
	return p, nil
}

func openProject(ctx context.Context, root string, logger *zap.Logger) (*project, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	pages := fs.NewPageStore(cfg.PagesDir)
	lk := lock.NewFromPath(filepath.Join(root, fs.MarkerDir, LockFile), lock.WithWait(cfg.LockWait))
	mgr := outline.NewManager(pages,
		outline.WithPersister(st),
		outline.WithLocker(lk),
		outline.WithLogger(logger.Named("outline")))

	findings, err := mgr.Load(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if len(findings) > 0 {
		logger.Warn("outline has integrity findings; run 'bk check'", zap.Int("findings", len(findings)))
	}

	blk, err := block.New(mgr, block.Config{Title: cfg.Block.Title, Mode: cfg.Block.Mode},
		block.WithLogger(logger.Named("block")))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	logger.Debug("opened project", zap.String("root", root), zap.String("database", cfg.Database))
	return &project{
		root:  root,
		cfg:   cfg,
		pages: pages,
		store: st,
		mgr:   mgr,
		export: export.New(mgr, pages,
			export.WithWorkers(cfg.Export.Workers),
			export.WithLogger(logger.Named("export"))),
		block:  blk,
		logger: logger,
	}, nil
}

// Resolve turns a selector into an item ID. A bare ID-shaped selector that
// names neither a page nor an outline entry is retried as a slug.
func (p *project) Resolve(ctx context.Context, input string) (string, error) {
	sel, err := domain.ParseSelector(input)
	if err != nil {
		return "", err
	}
	if sel.Kind() == domain.SelectorID {
		id := sel.Value()
		if sel.Explicit() {
			return id, nil
		}
		if _, err := p.mgr.Entry(id); err == nil {
			return id, nil
		}
		_, err := p.pages.Get(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrUnknownItem) {
			return "", err
		}
	}
	pg, err := p.pages.FindBySlug(ctx, sel.Value())
	if err != nil {
		return "", err
	}
	return pg.ID, nil
}

// destination resolves placement flags into a book, a parent and placement
// options. cur is the entry being moved, or nil when adding.
func (p *project) destination(ctx context.Context, pl Placement, cur *domain.Entry) (bookID, parentID string, opts []domain.PlaceOption, err error) {
	if sibling := pl.Before + pl.After; sibling != "" {
		id, err := p.Resolve(ctx, sibling)
		if err != nil {
			return "", "", nil, err
		}
		se, err := p.mgr.Entry(id)
		if err != nil {
			return "", "", nil, err
		}
		if se.IsRoot() {
			return "", "", nil, fmt.Errorf("%w: %s is a book root", domain.ErrUnknownSibling, id)
		}
		bookID, parentID = se.BookID, se.ParentID
		if pl.Before != "" {
			opts = append(opts, domain.Before(id))
		} else {
			opts = append(opts, domain.After(id))
		}
	}
	if pl.Parent != "" {
		id, err := p.Resolve(ctx, pl.Parent)
		if err != nil {
			return "", "", nil, err
		}
		pe, err := p.mgr.Entry(id)
		if err != nil {
			return "", "", nil, fmt.Errorf("%w: %s", domain.ErrUnknownParent, id)
		}
		if bookID != "" && pe.BookID != bookID {
			return "", "", nil, fmt.Errorf("%w: parent is in book %s, sibling in book %s", domain.ErrCrossBookParent, pe.BookID, bookID)
		}
		bookID, parentID = pe.BookID, id
	}
	if pl.Book != "" {
		id, err := p.Resolve(ctx, pl.Book)
		if err != nil {
			return "", "", nil, err
		}
		switch {
		case bookID == "":
			bookID = id
		case bookID != id:
			return "", "", nil, fmt.Errorf("%w: destination is in book %s, not %s", domain.ErrCrossBookParent, bookID, id)
		}
	}
	if pl.First {
		opts = append(opts, domain.First())
		if bookID == "" && cur != nil {
			bookID, parentID = cur.BookID, cur.ParentID
		}
	}
	if bookID == "" {
		return "", "", nil, ErrNoDestination
	}
	return bookID, parentID, opts, nil
}

// NewBook creates a page and makes it the root of a new book.
func (w *Workspace) NewBook(ctx context.Context, title, body string) (*PageResult, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	pg, err := p.pages.Create(ctx, title, body, "")
	if err != nil {
		return nil, err
	}
	e, err := p.mgr.CreateBook(ctx, pg.ID)
	if err != nil {
		p.discard(ctx, pg)
		return nil, err
	}
	return &PageResult{ID: pg.ID, Title: pg.Title, File: p.pages.Path(pg), Entry: e}, nil
}

// Add creates a page and places it in a book. The page file is removed
// again if the entry cannot be placed.
func (w *Workspace) Add(ctx context.Context, title, body string, pl Placement) (*PageResult, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	bookID, parentID, opts, err := p.destination(ctx, pl, nil)
	if err != nil {
		return nil, err
	}
	pg, err := p.pages.Create(ctx, title, body, "")
	if err != nil {
		return nil, err
	}
	e, err := p.mgr.AddEntry(ctx, pg.ID, bookID, parentID, opts...)
	if err != nil {
		p.discard(ctx, pg)
		return nil, err
	}
	return &PageResult{ID: pg.ID, Title: pg.Title, File: p.pages.Path(pg), Entry: e}, nil
}

// discard deletes a page created for an entry that could not be placed.
func (p *project) discard(ctx context.Context, pg fs.Page) {
	if err := p.pages.Delete(ctx, pg.ID); err != nil {
		p.logger.Warn("removing unplaced page", zap.String("item", pg.ID), zap.Error(err))
	}
}

// Move relocates a page and everything below it.
func (w *Workspace) Move(ctx context.Context, selector string, pl Placement) (domain.Entry, error) {
	p, err := w.open(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	id, err := p.Resolve(ctx, selector)
	if err != nil {
		return domain.Entry{}, err
	}
	cur, err := p.mgr.Entry(id)
	if err != nil {
		return domain.Entry{}, err
	}
	bookID, parentID, opts, err := p.destination(ctx, pl, &cur)
	if err != nil {
		return domain.Entry{}, err
	}
	return p.mgr.MoveEntry(ctx, id, bookID, parentID, opts...)
}

// Remove takes a page out of its book. The page file is kept.
func (w *Workspace) Remove(ctx context.Context, selector string, mode domain.RemoveMode) (string, error) {
	p, err := w.open(ctx)
	if err != nil {
		return "", err
	}
	id, err := p.Resolve(ctx, selector)
	if err != nil {
		return "", err
	}
	if err := p.mgr.RemoveEntry(ctx, id, mode); err != nil {
		return "", err
	}
	return id, nil
}

// Navigation returns the breadcrumb and neighbours of the selected page.
func (w *Workspace) Navigation(ctx context.Context, selector string) (*outline.Navigation, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	id, err := p.Resolve(ctx, selector)
	if err != nil {
		return nil, err
	}
	return p.mgr.Navigation(ctx, id)
}

// Outline returns every book, or only the selected one, as titled trees.
func (w *Workspace) Outline(ctx context.Context, bookSelector string) ([]*TreeNode, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	if bookSelector == "" {
		for _, root := range p.mgr.Books() {
			ids = append(ids, root.ItemID)
		}
	} else {
		id, err := p.Resolve(ctx, bookSelector)
		if err != nil {
			return nil, err
		}
		ids = []string{id}
	}

	roots := make([]*TreeNode, 0, len(ids))
	for _, id := range ids {
		tree, err := p.mgr.OutlineSubtree(id)
		if err != nil {
			return nil, err
		}
		n, err := p.convert(ctx, tree)
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	return roots, nil
}

func (p *project) convert(ctx context.Context, t *domain.TreeNode) (*TreeNode, error) {
	l, err := p.mgr.LinkTo(ctx, t.Entry.ItemID)
	if err != nil {
		return nil, err
	}
	n := &TreeNode{ID: l.ID, Title: l.Title, Depth: t.Entry.Depth, Children: []*TreeNode{}}
	for _, c := range t.Children {
		child, err := p.convert(ctx, c)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// Books lists every book root with its page count.
func (w *Workspace) Books(ctx context.Context) ([]BookInfo, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	roots := p.mgr.Books()
	books := make([]BookInfo, 0, len(roots))
	for _, root := range roots {
		l, err := p.mgr.LinkTo(ctx, root.ItemID)
		if err != nil {
			return nil, err
		}
		tree, err := p.mgr.OutlineSubtree(root.ItemID)
		if err != nil {
			// Removed since Books returned.
			continue
		}
		count := 0
		tree.Walk(func(*domain.TreeNode) bool {
			count++
			return true
		})
		books = append(books, BookInfo{ID: l.ID, Title: l.Title, Pages: count})
	}
	return books, nil
}

// Export renders the selected page and everything below it.
func (w *Workspace) Export(ctx context.Context, format, selector string) ([]byte, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	id, err := p.Resolve(ctx, selector)
	if err != nil {
		return nil, err
	}
	return p.export.Export(ctx, format, id)
}

// Block renders the navigation block for the page being viewed.
func (w *Workspace) Block(ctx context.Context, currentSelector string) (*block.Block, bool, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, false, err
	}
	var id string
	if currentSelector != "" {
		if id, err = p.Resolve(ctx, currentSelector); err != nil {
			return nil, false, err
		}
	}
	return p.block.Render(ctx, id)
}

// Check reports integrity findings for every book.
func (w *Workspace) Check(ctx context.Context) ([]domain.Finding, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	return p.mgr.Check(ctx)
}

// Repair rewrites the outline from its loaded state and reports the
// findings that remain.
func (w *Workspace) Repair(ctx context.Context) (*RepairResult, error) {
	p, err := w.open(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := p.mgr.Repair(ctx)
	if err != nil {
		return nil, err
	}
	remaining, err := p.mgr.Check(ctx)
	if err != nil {
		return nil, err
	}
	return &RepairResult{Rewritten: len(ch.Upserts), Dropped: ch.Deletes, Unrepaired: remaining}, nil
}

// ServeMCP serves the outline tools over in and out until ctx is done.
func (w *Workspace) ServeMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	p, err := w.open(ctx)
	if err != nil {
		return err
	}
	s := mcpserver.NewServer(p.mgr, p.export,
		mcpserver.WithResolver(p),
		mcpserver.WithLogger(p.logger.Named("mcp")))
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(p.logger.Named("mcp")))
	p.logger.Debug("serving MCP on stdio")
	return stdio.Listen(ctx, in, out)
}
