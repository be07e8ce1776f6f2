package fs

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/eykd/booktree-go/internal/domain"
	"github.com/eykd/booktree-go/internal/frontmatter"
	"github.com/eykd/booktree-go/internal/sid"
	"github.com/eykd/booktree-go/internal/slug"
)

// ErrAmbiguousSlug is returned when more than one page has the same slug.
var ErrAmbiguousSlug = errors.New("ambiguous slug")

// FormatHTML is the default page body format.
const FormatHTML = "html"

// Page is one content item stored as pages/<id>_<slug>.md.
type Page struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Format string `json:"format"`
	Body   string `json:"body,omitempty"`
}

// Item returns the page as an outline content item.
func (p Page) Item() domain.Item {
	return domain.Item{ID: p.ID, Title: p.Title, Slug: p.Slug}
}

// PageStore keeps pages as Markdown files with front matter in one
// directory.
type PageStore struct {
	dir  string
	rand io.Reader
	mu   sync.Mutex
}

// PageOption configures a PageStore.
type PageOption func(*PageStore)

// WithRand sets the random source for new page IDs.
func WithRand(r io.Reader) PageOption {
	return func(s *PageStore) { s.rand = r }
}

// NewPageStore returns a store over dir. The directory is created on the
// first write.
func NewPageStore(dir string, opts ...PageOption) *PageStore {
	s := &PageStore{dir: dir, rand: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the page directory.
func (s *PageStore) Dir() string {
	return s.dir
}

// Path returns the file that holds p.
func (s *PageStore) Path(p Page) string {
	return filepath.Join(s.dir, filename(p))
}

// maxIDAttempts bounds retries when a fresh ID collides with an existing page.
const maxIDAttempts = 5

// Create writes a new page and returns it with its generated ID.
func (s *PageStore) Create(ctx context.Context, title, body, format string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if format == "" {
		format = FormatHTML
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Page{}, fmt.Errorf("creating page directory: %w", err)
	}
	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return Page{}, fmt.Errorf("no free page ID after %d attempts", maxIDAttempts)
		}
		candidate, err := sid.New(s.rand)
		if err != nil {
			return Page{}, err
		}
		if _, err := s.find(candidate); errors.Is(err, domain.ErrUnknownItem) {
			id = candidate
			break
		}
	}

	sl := slug.Make(title)
	if sl == "" {
		sl = "untitled"
	}
	p := Page{ID: id, Title: title, Slug: sl, Format: format, Body: body}
	doc, err := frontmatter.Render(frontmatter.Meta{Title: title, Format: format}, body)
	if err != nil {
		return Page{}, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename(p)), []byte(doc), 0o644); err != nil {
		return Page{}, fmt.Errorf("writing page %s: %w", id, err)
	}
	return p, nil
}

// Get reads the page with the given ID, body included.
func (s *PageStore) Get(ctx context.Context, id string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	name, err := s.find(id)
	if err != nil {
		return Page{}, err
	}
	return s.read(name)
}

// Lookup resolves id to a content item for the outline manager.
func (s *PageStore) Lookup(ctx context.Context, id string) (domain.Item, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return p.Item(), nil
}

// Body returns the body of page id and its format.
func (s *PageStore) Body(ctx context.Context, id string) (string, string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return p.Body, p.Format, nil
}

// List returns every page without bodies, ordered by title then ID.
func (s *PageStore) List(ctx context.Context) ([]Page, error) {
	names, err := s.names()
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.read(name)
		if err != nil {
			return nil, err
		}
		p.Body = ""
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Title != pages[j].Title {
			return pages[i].Title < pages[j].Title
		}
		return pages[i].ID < pages[j].ID
	})
	return pages, nil
}

// FindBySlug returns the single page whose filename slug is s.
func (s *PageStore) FindBySlug(ctx context.Context, want string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	names, err := s.names()
	if err != nil {
		return Page{}, err
	}
	var matches []string
	for _, name := range names {
		if _, sl, ok := parseFilename(name); ok && sl == want {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return Page{}, fmt.Errorf("%w: slug %s", domain.ErrUnknownItem, want)
	case 1:
		return s.read(matches[0])
	default:
		return Page{}, fmt.Errorf("%w: %s matches %d pages", ErrAmbiguousSlug, want, len(matches))
	}
}

// Delete removes the page file.
func (s *PageStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("deleting page %s: %w", id, err)
	}
	return nil
}

func filename(p Page) string {
	return p.ID + "_" + p.Slug + ".md"
}

// parseFilename splits <id>_<slug>.md.
func parseFilename(name string) (string, string, bool) {
	base, ok := strings.CutSuffix(name, ".md")
	if !ok {
		return "", "", false
	}
	id, sl, ok := strings.Cut(base, "_")
	if !ok || !sid.Valid(id) {
		return "", "", false
	}
	return id, sl, true
}

func (s *PageStore) names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, _, ok := parseFilename(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *PageStore) find(id string) (string, error) {
	if sid.Valid(id) {
		names, err := s.names()
		if err != nil {
			return "", err
		}
		for _, name := range names {
			if got, _, _ := parseFilename(name); got == id {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownItem, id)
}

func (s *PageStore) read(name string) (Page, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Page{}, fmt.Errorf("reading page %s: %w", name, err)
	}
	meta, body, err := frontmatter.Parse(string(data))
	if err != nil {
		return Page{}, fmt.Errorf("page %s: %w", name, err)
	}
	id, sl, _ := parseFilename(name)
	if meta.Format == "" {
		meta.Format = FormatHTML
	}
	return Page{ID: id, Title: meta.Title, Slug: sl, Format: meta.Format, Body: body}, nil
}
