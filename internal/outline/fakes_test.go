package outline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eykd/booktree-go/internal/domain"
)

// fakeContent is an in-memory ContentStore.
type fakeContent struct {
	mu    sync.Mutex
	items map[string]domain.Item
	err   error
}

func newFakeContent(ids ...string) *fakeContent {
	c := &fakeContent{items: make(map[string]domain.Item)}
	for _, id := range ids {
		c.items[id] = domain.Item{ID: id, Title: "Page " + id}
	}
	return c
}

func (c *fakeContent) Lookup(_ context.Context, itemID string) (domain.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.Item{}, c.err
	}
	it, ok := c.items[itemID]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
	}
	return it, nil
}

func (c *fakeContent) forget(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, itemID)
}

// fakePersister records applied changes and can be told to fail.
type fakePersister struct {
	mu      sync.Mutex
	applied []domain.Change
	err     error
}

func (p *fakePersister) Apply(_ context.Context, ch domain.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.applied = append(p.applied, ch)
	return nil
}

func (p *fakePersister) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePersister) last() domain.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.applied) == 0 {
		return domain.Change{}
	}
	return p.applied[len(p.applied)-1]
}

// fakeLoader returns fixed entries.
type fakeLoader struct {
	entries []domain.Entry
	err     error
}

func (l *fakeLoader) LoadEntries(context.Context) ([]domain.Entry, error) {
	return l.entries, l.err
}

// mockLocker is a test double for the Locker interface.
type mockLocker struct {
	mu           sync.Mutex
	tryLockErr   error
	unlockErr    error
	tryLockCalls int
	unlockCalls  int
}

func (m *mockLocker) TryLock(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tryLockCalls++
	return m.tryLockErr
}

func (m *mockLocker) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlockCalls++
	return m.unlockErr
}

// newTestManager returns a manager whose content store knows ids.
func newTestManager(t *testing.T, ids ...string) (*Manager, *fakeContent, *fakePersister) {
	t.Helper()
	content := newFakeContent(ids...)
	p := &fakePersister{}
	m := NewManager(content, WithPersister(p), WithLogger(zaptest.NewLogger(t)))
	return m, content, p
}

// sampleManager builds book R holding A{B, C}, D, E and an empty book S.
func sampleManager(t *testing.T) (*Manager, *fakeContent, *fakePersister) {
	t.Helper()
	m, content, p := newTestManager(t, "R", "A", "B", "C", "D", "E", "F", "S", "T")
	mustCreate(t, m, "R")
	mustCreate(t, m, "S")
	mustAdd(t, m, "A", "R", "")
	mustAdd(t, m, "B", "R", "A")
	mustAdd(t, m, "C", "R", "A")
	mustAdd(t, m, "D", "R", "")
	mustAdd(t, m, "E", "R", "")
	return m, content, p
}

func mustCreate(t *testing.T, m *Manager, id string) {
	t.Helper()
	if _, err := m.CreateBook(context.Background(), id); err != nil {
		t.Fatalf("CreateBook(%s): %v", id, err)
	}
}

func mustAdd(t *testing.T, m *Manager, id, bookID, parentID string, opts ...domain.PlaceOption) {
	t.Helper()
	if _, err := m.AddEntry(context.Background(), id, bookID, parentID, opts...); err != nil {
		t.Fatalf("AddEntry(%s, %s, %s): %v", id, bookID, parentID, err)
	}
}

func itemIDs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ItemID
	}
	return out
}

func treeIDs(n *domain.TreeNode) []string {
	var out []string
	n.Walk(func(n *domain.TreeNode) bool {
		out = append(out, n.Entry.ItemID)
		return true
	})
	return out
}
