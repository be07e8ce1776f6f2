// Package outline provides the book outline manager: the application service
// that owns every book's tree and coordinates mutations with persistence and
// advisory locking.
package outline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eykd/booktree-go/internal/domain"
)

// ErrPersistence is returned when the persister rejects a change. The outline
// is left exactly as it was before the mutation.
var ErrPersistence = errors.New("persistence failure")

// ContentStore resolves content items. Lookup returns an error wrapping
// domain.ErrUnknownItem for items it does not know.
type ContentStore interface {
	Lookup(ctx context.Context, itemID string) (domain.Item, error)
}

// Persister durably applies one outline change, all or nothing.
type Persister interface {
	Apply(ctx context.Context, ch domain.Change) error
}

// Loader reads every stored outline entry.
type Loader interface {
	LoadEntries(ctx context.Context) ([]domain.Entry, error)
}

// Locker abstracts advisory lock acquisition for mutating commands.
type Locker interface {
	TryLock(ctx context.Context) error
	Unlock() error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker makes every mutation hold the given process lock.
func WithLocker(l Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithPersister sets the persister invoked inside every mutation.
func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

// book holds the published snapshot of one book. mu serializes mutations;
// readers only ever load snap.
type book struct {
	id   string
	mu   sync.Mutex
	snap atomic.Pointer[domain.Book]
}

// swap is a snapshot replacement staged by a mutation.
type swap struct {
	st   *book
	next *domain.Book
}

// Manager owns the outlines of all books.
//
// Each book is an immutable snapshot replaced wholesale by mutations, which
// clone the current snapshot, mutate the clone, persist the difference and
// only then publish it. Readers therefore observe a book either before or
// after a mutation, never in between.
type Manager struct {
	content   ContentStore
	persister Persister
	locker    Locker
	logger    *zap.Logger

	// mu guards books, index, claimed and loadFindings. It is held only to
	// resolve an item's book or to publish snapshots.
	mu           sync.RWMutex
	books        map[string]*book
	index        map[string]string
	claimed      map[string]bool
	loadFindings []domain.Finding

	seq atomic.Int64

	procMu   sync.Mutex
	procHeld int
}

// NewManager creates an empty Manager. content may be nil, in which case
// items are not checked for existence and titles fall back to item IDs.
func NewManager(content ContentStore, opts ...Option) *Manager {
	m := &Manager{
		content: content,
		logger:  zap.NewNop(),
		books:   make(map[string]*book),
		index:   make(map[string]string),
		claimed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the manager's state with the entries read from l. Entries
// that cannot be placed in a valid tree are left out and reported as
// findings; stale depths are recomputed and reported.
func (m *Manager) Load(ctx context.Context, l Loader) ([]domain.Finding, error) {
	entries, err := l.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading outline: %w", err)
	}
	books, findings := domain.BuildBooks(entries)

	var maxSeq int64
	for _, e := range entries {
		maxSeq = max(maxSeq, e.Seq)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = make(map[string]*book, len(books))
	m.index = make(map[string]string, len(entries))
	for id, b := range books {
		st := &book{id: id}
		st.snap.Store(b)
		m.books[id] = st
		for _, e := range b.DocumentOrder() {
			m.index[e.ItemID] = id
		}
	}
	m.loadFindings = findings
	m.seq.Store(maxSeq)

	m.logger.Debug("loaded outline",
		zap.Int("books", len(books)),
		zap.Int("entries", len(m.index)),
		zap.Int("findings", len(findings)))
	return findings, nil
}

// CreateBook makes itemID the root of a new book.
func (m *Manager) CreateBook(ctx context.Context, itemID string) (domain.Entry, error) {
	if itemID == "" {
		return domain.Entry{}, fmt.Errorf("%w: empty item id", domain.ErrUnknownItem)
	}
	release, err := m.acquire(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	defer release()

	if err := m.lookupItem(ctx, itemID); err != nil {
		return domain.Entry{}, err
	}
	unclaim, err := m.claim(itemID)
	if err != nil {
		return domain.Entry{}, err
	}
	defer unclaim()

	b := domain.NewBook(itemID, m.seq.Add(1))
	ch := domain.Diff(nil, b)
	if err := m.persist(ctx, ch); err != nil {
		return domain.Entry{}, err
	}

	m.commit(ch, swap{st: &book{id: itemID}, next: b})

	m.logger.Debug("created book", zap.String("book", itemID))
	return b.Root(), nil
}

// AddEntry places itemID in bookID under parentID, or at the top level of
// the book when parentID is empty. Without options the entry is appended
// after its siblings.
func (m *Manager) AddEntry(ctx context.Context, itemID, bookID, parentID string, opts ...domain.PlaceOption) (domain.Entry, error) {
	if itemID == "" {
		return domain.Entry{}, fmt.Errorf("%w: empty item id", domain.ErrUnknownItem)
	}
	if bookID == "" {
		return domain.Entry{}, fmt.Errorf("%w: empty book id", domain.ErrUnknownBook)
	}
	release, err := m.acquire(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	defer release()

	if err := m.lookupItem(ctx, itemID); err != nil {
		return domain.Entry{}, err
	}
	unclaim, err := m.claim(itemID)
	if err != nil {
		return domain.Entry{}, err
	}
	defer unclaim()

	st, cur, err := m.lockBook(bookID)
	if err != nil {
		return domain.Entry{}, err
	}
	defer st.mu.Unlock()

	if err := m.checkParent(cur, parentID); err != nil {
		return domain.Entry{}, err
	}
	next := cur.Clone()
	e, err := next.Attach(itemID, parentID, m.seq.Add(1), domain.NewPlacement(opts...))
	if err != nil {
		return domain.Entry{}, err
	}
	ch := domain.Diff(cur, next)
	if err := m.persist(ctx, ch); err != nil {
		return domain.Entry{}, err
	}
	m.commit(ch, swap{st: st, next: next})

	m.logger.Debug("added entry",
		zap.String("item", itemID),
		zap.String("book", bookID),
		zap.String("parent", e.ParentID),
		zap.Int("weight", e.Weight))
	return e, nil
}

// MoveEntry re-parents itemID, with its whole subtree, under parentID in
// bookID. An empty bookID keeps the item in its current book; an empty
// parentID means the top level of the destination book.
func (m *Manager) MoveEntry(ctx context.Context, itemID, bookID, parentID string, opts ...domain.PlaceOption) (domain.Entry, error) {
	if itemID == "" {
		return domain.Entry{}, fmt.Errorf("%w: empty item id", domain.ErrUnknownItem)
	}
	release, err := m.acquire(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	defer release()

	if parentID == itemID {
		return domain.Entry{}, fmt.Errorf("cannot move %s under itself: %w", itemID, domain.ErrCycleDetected)
	}
	p := domain.NewPlacement(opts...)
	for {
		src, ok := m.bookOf(itemID)
		if !ok {
			return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
		}
		dst := bookID
		if dst == "" {
			dst = src
		}
		e, retry, err := m.move(ctx, itemID, src, dst, parentID, p)
		if retry {
			continue
		}
		return e, err
	}
}

// move performs one attempt of MoveEntry. retry is true when the item left
// src before src could be locked.
func (m *Manager) move(ctx context.Context, itemID, src, dst, parentID string, p domain.Placement) (moved domain.Entry, retry bool, err error) {
	ids := []string{src}
	if dst != src {
		ids = append(ids, dst)
	}
	sort.Strings(ids)

	locked := make(map[string]*book, len(ids))
	snaps := make(map[string]*domain.Book, len(ids))
	defer func() {
		for _, st := range locked {
			st.mu.Unlock()
		}
	}()
	for _, id := range ids {
		st, cur, err := m.lockBook(id)
		if err != nil {
			return domain.Entry{}, id == src, err
		}
		locked[id], snaps[id] = st, cur
	}
	if _, ok := snaps[src].Entry(itemID); !ok {
		return domain.Entry{}, true, nil
	}
	if err := m.checkParent(snaps[dst], parentID); err != nil {
		return domain.Entry{}, false, err
	}

	var (
		ch    domain.Change
		swaps []swap
		to    *domain.Book
	)
	if src == dst {
		to = snaps[src].Clone()
		if err := to.Move(itemID, parentID, p); err != nil {
			return domain.Entry{}, false, err
		}
		ch = domain.Diff(snaps[src], to)
		swaps = []swap{{st: locked[src], next: to}}
	} else {
		from := snaps[src].Clone()
		to = snaps[dst].Clone()
		sub, err := from.Detach(itemID)
		if err != nil {
			return domain.Entry{}, false, err
		}
		if err := to.Graft(sub, parentID, p); err != nil {
			return domain.Entry{}, false, err
		}
		ch = domain.Diff(snaps[src], from).Merge(domain.Diff(snaps[dst], to))
		swaps = []swap{{st: locked[src], next: from}, {st: locked[dst], next: to}}
	}

	if err := m.persist(ctx, ch); err != nil {
		return domain.Entry{}, false, err
	}
	m.commit(ch, swaps...)

	moved, _ = to.Entry(itemID)
	m.logger.Debug("moved entry",
		zap.String("item", itemID),
		zap.String("from", src),
		zap.String("book", dst),
		zap.String("parent", moved.ParentID),
		zap.Int("entries", len(ch.Upserts)))
	return moved, false, nil
}

// RemoveEntry takes itemID out of its book according to mode. Removing a
// childless book root deletes the book.
func (m *Manager) RemoveEntry(ctx context.Context, itemID string, mode domain.RemoveMode) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	st, cur, err := m.lockItem(itemID)
	if err != nil {
		return err
	}
	defer st.mu.Unlock()

	next := cur.Clone()
	if err := next.Remove(itemID, mode); err != nil {
		return err
	}
	ch := domain.Diff(cur, next)
	if err := m.persist(ctx, ch); err != nil {
		return err
	}
	m.commit(ch, swap{st: st, next: next})

	m.logger.Debug("removed entry",
		zap.String("item", itemID),
		zap.String("book", st.id),
		zap.Stringer("mode", mode),
		zap.Int("removed", len(ch.Deletes)))
	return nil
}

// Entry returns the outline entry of itemID.
func (m *Manager) Entry(itemID string) (domain.Entry, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return domain.Entry{}, err
	}
	e, _ := b.Entry(itemID)
	return e, nil
}

// Parent returns the direct parent of itemID; false for a book root.
func (m *Manager) Parent(itemID string) (domain.Entry, bool, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return domain.Entry{}, false, err
	}
	return b.Parent(itemID)
}

// Ancestors returns the chain from the book root down to the direct parent
// of itemID. It is empty for a root.
func (m *Manager) Ancestors(itemID string) ([]domain.Entry, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return nil, err
	}
	return b.Ancestors(itemID)
}

// Previous returns the entry before itemID in document order.
func (m *Manager) Previous(itemID string) (domain.Entry, bool, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return domain.Entry{}, false, err
	}
	return b.Previous(itemID)
}

// Next returns the entry after itemID in document order.
func (m *Manager) Next(itemID string) (domain.Entry, bool, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return domain.Entry{}, false, err
	}
	return b.Next(itemID)
}

// SiblingsInOrder returns the children of parentID in bookID, or the top
// level of the book when parentID is empty.
func (m *Manager) SiblingsInOrder(bookID, parentID string) ([]domain.Entry, error) {
	b, err := m.bookSnapshot(bookID)
	if err != nil {
		return nil, err
	}
	if err := m.checkParent(b, parentID); err != nil {
		return nil, err
	}
	if parentID == "" {
		parentID = bookID
	}
	return b.Children(parentID), nil
}

// OutlineSubtree returns the full nested outline of bookID.
func (m *Manager) OutlineSubtree(bookID string) (*domain.TreeNode, error) {
	b, err := m.bookSnapshot(bookID)
	if err != nil {
		return nil, err
	}
	return b.Tree(bookID)
}

// Subtree returns the nested outline rooted at itemID, which may be any
// entry of any book.
func (m *Manager) Subtree(itemID string) (*domain.TreeNode, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return nil, err
	}
	return b.Tree(itemID)
}

// Books returns every book root in creation order.
func (m *Manager) Books() []domain.Entry {
	m.mu.RLock()
	roots := make([]domain.Entry, 0, len(m.books))
	for _, st := range m.books {
		roots = append(roots, st.snap.Load().Root())
	}
	m.mu.RUnlock()

	sort.Slice(roots, func(i, j int) bool { return roots[i].Seq < roots[j].Seq })
	return roots
}

// acquire takes the process lock for the duration of a mutation. The lock
// is shared by concurrent mutations in this process and released by the
// last one out.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.locker == nil {
		return func() {}, nil
	}

	m.procMu.Lock()
	defer m.procMu.Unlock()
	if m.procHeld == 0 {
		if err := m.locker.TryLock(ctx); err != nil {
			return nil, err
		}
	}
	m.procHeld++

	return func() {
		m.procMu.Lock()
		defer m.procMu.Unlock()
		m.procHeld--
		if m.procHeld == 0 {
			if err := m.locker.Unlock(); err != nil {
				m.logger.Warn("releasing lock", zap.Error(err))
			}
		}
	}, nil
}

func (m *Manager) lookupItem(ctx context.Context, itemID string) error {
	if m.content == nil {
		return nil
	}
	if _, err := m.content.Lookup(ctx, itemID); err != nil {
		if errors.Is(err, domain.ErrUnknownItem) {
			return err
		}
		return fmt.Errorf("looking up %s: %w", itemID, err)
	}
	return nil
}

// claim reserves itemID for a pending insertion so that two concurrent
// mutations cannot both place it.
func (m *Manager) claim(itemID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index[itemID]; ok || m.claimed[itemID] {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyInBook, itemID)
	}
	m.claimed[itemID] = true
	return func() {
		m.mu.Lock()
		delete(m.claimed, itemID)
		m.mu.Unlock()
	}, nil
}

// lockBook locks bookID for mutation and returns its current snapshot. The
// caller unlocks st.mu.
func (m *Manager) lockBook(bookID string) (*book, *domain.Book, error) {
	for {
		m.mu.RLock()
		st := m.books[bookID]
		m.mu.RUnlock()
		if st == nil {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownBook, bookID)
		}
		st.mu.Lock()
		if cur := st.snap.Load(); cur != nil {
			return st, cur, nil
		}
		// Removed while we waited.
		st.mu.Unlock()
	}
}

// lockItem locks the book currently holding itemID.
func (m *Manager) lockItem(itemID string) (*book, *domain.Book, error) {
	for {
		bookID, ok := m.bookOf(itemID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
		}
		st, cur, err := m.lockBook(bookID)
		if err != nil {
			continue
		}
		if _, ok := cur.Entry(itemID); ok {
			return st, cur, nil
		}
		st.mu.Unlock()
	}
}

func (m *Manager) bookOf(itemID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.index[itemID]
	return id, ok
}

// snapshotOf returns the published snapshot of the book holding itemID.
func (m *Manager) snapshotOf(itemID string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bookID, ok := m.index[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
	}
	return m.books[bookID].snap.Load(), nil
}

func (m *Manager) bookSnapshot(bookID string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.books[bookID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBook, bookID)
	}
	return st.snap.Load(), nil
}

// checkParent distinguishes a parent that exists nowhere from one that
// lives in another book.
func (m *Manager) checkParent(b *domain.Book, parentID string) error {
	if parentID == "" {
		return nil
	}
	if _, ok := b.Entry(parentID); ok {
		return nil
	}
	if other, ok := m.bookOf(parentID); ok {
		return fmt.Errorf("%w: %s is in book %s, not %s", domain.ErrCrossBookParent, parentID, other, b.ID())
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownParent, parentID)
}

func (m *Manager) persist(ctx context.Context, ch domain.Change) error {
	if m.persister == nil || ch.Empty() {
		return nil
	}
	if err := m.persister.Apply(ctx, ch); err != nil {
		m.logger.Warn("persisting outline change",
			zap.Int("upserts", len(ch.Upserts)),
			zap.Int("deletes", len(ch.Deletes)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// commit publishes staged snapshots and re-indexes the items ch touches.
// New books are registered and books left empty are dropped.
func (m *Manager) commit(ch domain.Change, swaps ...swap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range swaps {
		if s.next.Empty() {
			s.st.snap.Store(nil)
			delete(m.books, s.st.id)
			continue
		}
		s.st.snap.Store(s.next)
		m.books[s.st.id] = s.st
	}
	for _, id := range ch.Deletes {
		delete(m.index, id)
	}
	for _, e := range ch.Upserts {
		m.index[e.ItemID] = e.BookID
	}
}
