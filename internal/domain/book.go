package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

// Book is the outline of one book: an arena of entries keyed by item ID plus
// an index of ordered child IDs per parent. The zero value is not usable; see
// NewBook and BuildBooks.
type Book struct {
	id       string
	entries  map[string]Entry
	children map[string][]string
}

// NewBook creates a book whose root is itemID.
func NewBook(itemID string, seq int64) *Book {
	root := Entry{ItemID: itemID, BookID: itemID, Seq: seq}
	return &Book{
		id:       itemID,
		entries:  map[string]Entry{itemID: root},
		children: map[string][]string{},
	}
}

// ID returns the book ID, which is the root's item ID.
func (b *Book) ID() string {
	return b.id
}

// Root returns the book's root entry.
func (b *Book) Root() Entry {
	return b.entries[b.id]
}

// Len returns the number of entries, root included.
func (b *Book) Len() int {
	return len(b.entries)
}

// Empty reports whether the book has lost its root.
func (b *Book) Empty() bool {
	return len(b.entries) == 0
}

// Entry returns the entry for itemID.
func (b *Book) Entry(itemID string) (Entry, bool) {
	e, ok := b.entries[itemID]
	return e, ok
}

// Clone returns a deep copy that can be mutated independently.
func (b *Book) Clone() *Book {
	c := &Book{
		id:       b.id,
		entries:  make(map[string]Entry, len(b.entries)),
		children: make(map[string][]string, len(b.children)),
	}
	for k, v := range b.entries {
		c.entries[k] = v
	}
	for k, v := range b.children {
		c.children[k] = slices.Clone(v)
	}
	return c
}

func (b *Book) lookup(itemID string) (Entry, error) {
	e, ok := b.entries[itemID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return e, nil
}

// Children returns the direct children of parentID in sibling order.
func (b *Book) Children(parentID string) []Entry {
	ids := b.children[parentID]
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = b.entries[id]
	}
	return out
}

// HasChildren reports whether itemID has at least one child.
func (b *Book) HasChildren(itemID string) bool {
	return len(b.children[itemID]) > 0
}

// Parent returns the direct parent of itemID; false for the root.
func (b *Book) Parent(itemID string) (Entry, bool, error) {
	e, err := b.lookup(itemID)
	if err != nil {
		return Entry{}, false, err
	}
	if e.IsRoot() {
		return Entry{}, false, nil
	}
	return b.entries[e.ParentID], true, nil
}

// Ancestors returns the chain from the root down to the direct parent of
// itemID. It is empty for the root.
func (b *Book) Ancestors(itemID string) ([]Entry, error) {
	e, err := b.lookup(itemID)
	if err != nil {
		return nil, err
	}
	chain := []Entry{}
	for id := e.ParentID; id != ""; {
		p := b.entries[id]
		chain = append(chain, p)
		id = p.ParentID
	}
	slices.Reverse(chain)
	return chain, nil
}

// IsDescendant reports whether itemID sits somewhere below ancestorID.
func (b *Book) IsDescendant(ancestorID, itemID string) bool {
	e, ok := b.entries[itemID]
	for ok && !e.IsRoot() {
		if e.ParentID == ancestorID {
			return true
		}
		e, ok = b.entries[e.ParentID]
	}
	return false
}

// DocumentOrder returns every entry in pre-order: a page, then its
// children's subtrees in sibling order.
func (b *Book) DocumentOrder() []Entry {
	out := make([]Entry, 0, len(b.entries))
	if _, ok := b.entries[b.id]; ok {
		b.preorder(b.id, &out)
	}
	return out
}

// Subtree returns itemID and its descendants in document order.
func (b *Book) Subtree(itemID string) ([]Entry, error) {
	if _, err := b.lookup(itemID); err != nil {
		return nil, err
	}
	var out []Entry
	b.preorder(itemID, &out)
	return out, nil
}

func (b *Book) preorder(id string, out *[]Entry) {
	*out = append(*out, b.entries[id])
	for _, c := range b.children[id] {
		b.preorder(c, out)
	}
}

// Tree returns the nested outline rooted at itemID.
func (b *Book) Tree(itemID string) (*TreeNode, error) {
	if _, err := b.lookup(itemID); err != nil {
		return nil, err
	}
	return b.tree(itemID), nil
}

func (b *Book) tree(id string) *TreeNode {
	n := &TreeNode{Entry: b.entries[id], Children: []*TreeNode{}}
	for _, c := range b.children[id] {
		n.Children = append(n.Children, b.tree(c))
	}
	return n
}

func (b *Book) siblingIndex(e Entry) int {
	return slices.Index(b.children[e.ParentID], e.ItemID)
}

func (b *Book) lastDescendant(id string) string {
	for {
		kids := b.children[id]
		if len(kids) == 0 {
			return id
		}
		id = kids[len(kids)-1]
	}
}

// Previous returns the entry preceding itemID in document order: the last
// descendant of the previous sibling, or else the parent.
func (b *Book) Previous(itemID string) (Entry, bool, error) {
	e, err := b.lookup(itemID)
	if err != nil {
		return Entry{}, false, err
	}
	if e.IsRoot() {
		return Entry{}, false, nil
	}
	if i := b.siblingIndex(e); i > 0 {
		prev := b.children[e.ParentID][i-1]
		return b.entries[b.lastDescendant(prev)], true, nil
	}
	return b.entries[e.ParentID], true, nil
}

// Next returns the entry following itemID in document order: the first
// child, or else the next sibling of the nearest ancestor that has one.
func (b *Book) Next(itemID string) (Entry, bool, error) {
	e, err := b.lookup(itemID)
	if err != nil {
		return Entry{}, false, err
	}
	if kids := b.children[itemID]; len(kids) > 0 {
		return b.entries[kids[0]], true, nil
	}
	for cur := e; !cur.IsRoot(); cur = b.entries[cur.ParentID] {
		sibs := b.children[cur.ParentID]
		if i := b.siblingIndex(cur); i >= 0 && i+1 < len(sibs) {
			return b.entries[sibs[i+1]], true, nil
		}
	}
	return Entry{}, false, nil
}

// Attach adds itemID as a new leaf under parentID (the root when empty).
func (b *Book) Attach(itemID, parentID string, seq int64, p Placement) (Entry, error) {
	if _, ok := b.entries[itemID]; ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrAlreadyInBook, itemID)
	}
	sub := []Entry{{ItemID: itemID, Seq: seq}}
	if err := b.Graft(sub, parentID, p); err != nil {
		return Entry{}, err
	}
	return b.entries[itemID], nil
}

// Detach removes itemID and its subtree from the book and returns them in
// document order with their old fields. The root cannot be detached.
func (b *Book) Detach(itemID string) ([]Entry, error) {
	e, err := b.lookup(itemID)
	if err != nil {
		return nil, err
	}
	if e.IsRoot() {
		return nil, fmt.Errorf("%w: %s", ErrRootImmovable, itemID)
	}
	sub, _ := b.Subtree(itemID)
	b.unlink(e)
	for _, s := range sub {
		delete(b.entries, s.ItemID)
		delete(b.children, s.ItemID)
	}
	return sub, nil
}

// Graft inserts a detached subtree (in document order, head first) under
// parentID, placing the head per p and keeping the internal order of the
// rest. Book membership and depth are rewritten for every entry. Nothing is
// changed when an error is returned.
func (b *Book) Graft(sub []Entry, parentID string, p Placement) error {
	if len(sub) == 0 {
		return nil
	}
	if parentID == "" {
		parentID = b.id
	}
	parent, ok := b.entries[parentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parentID)
	}
	for _, s := range sub {
		if _, exists := b.entries[s.ItemID]; exists {
			return fmt.Errorf("%w: %s", ErrAlreadyInBook, s.ItemID)
		}
	}
	if err := b.checkSibling(parentID, p); err != nil {
		return err
	}

	head := sub[0]
	head.BookID = b.id
	head.ParentID = parentID
	head.Depth = parent.Depth + 1
	if err := b.place(head, p); err != nil {
		return err
	}
	for _, s := range sub[1:] {
		s.BookID = b.id
		s.Depth = b.entries[s.ParentID].Depth + 1
		b.insert(s)
	}
	return nil
}

// Move re-parents itemID, with its subtree, under parentID in the same book.
func (b *Book) Move(itemID, parentID string, p Placement) error {
	e, err := b.lookup(itemID)
	if err != nil {
		return err
	}
	if e.IsRoot() {
		return fmt.Errorf("%w: %s", ErrRootImmovable, itemID)
	}
	if parentID == "" {
		parentID = b.id
	}
	if parentID == itemID || b.IsDescendant(itemID, parentID) {
		return fmt.Errorf("cannot move %s under %s: %w", itemID, parentID, ErrCycleDetected)
	}
	if _, ok := b.entries[parentID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parentID)
	}
	if p.Sibling == itemID {
		return fmt.Errorf("%w: %s", ErrUnknownSibling, p.Sibling)
	}
	if err := b.checkSibling(parentID, p); err != nil {
		return err
	}
	sub, err := b.Detach(itemID)
	if err != nil {
		return err
	}
	return b.Graft(sub, parentID, p)
}

// Remove takes itemID out of the outline according to mode. A root may only
// be removed when it has no children, which empties the book.
func (b *Book) Remove(itemID string, mode RemoveMode) error {
	e, err := b.lookup(itemID)
	if err != nil {
		return err
	}
	if e.IsRoot() {
		if b.HasChildren(itemID) {
			return fmt.Errorf("book root %s: %w", itemID, ErrHasDescendants)
		}
		b.entries = map[string]Entry{}
		b.children = map[string][]string{}
		return nil
	}

	switch mode {
	case RemoveCascade:
		_, err := b.Detach(itemID)
		return err
	case RemovePromote:
		b.promote(e)
		return nil
	default:
		if b.HasChildren(itemID) {
			return fmt.Errorf("%s: %w", itemID, ErrHasDescendants)
		}
		b.unlink(e)
		delete(b.entries, itemID)
		return nil
	}
}

// promote removes e and splices its children into its sibling slot.
func (b *Book) promote(e Entry) {
	kids := b.children[e.ItemID]
	sibs := b.children[e.ParentID]
	i := b.siblingIndex(e)

	spliced := make([]string, 0, len(sibs)-1+len(kids))
	spliced = append(spliced, sibs[:i]...)
	spliced = append(spliced, kids...)
	spliced = append(spliced, sibs[i+1:]...)

	delete(b.entries, e.ItemID)
	delete(b.children, e.ItemID)
	b.children[e.ParentID] = spliced
	for _, k := range kids {
		ke := b.entries[k]
		ke.ParentID = e.ParentID
		b.entries[k] = ke
		b.redepth(k, e.Depth)
	}
	b.renumber(e.ParentID)
}

func (b *Book) redepth(id string, depth int) {
	e := b.entries[id]
	e.Depth = depth
	b.entries[id] = e
	for _, c := range b.children[id] {
		b.redepth(c, depth+1)
	}
}

func (b *Book) unlink(e Entry) {
	sibs := b.children[e.ParentID]
	if i := slices.Index(sibs, e.ItemID); i >= 0 {
		sibs = slices.Delete(sibs, i, i+1)
	}
	if len(sibs) == 0 {
		delete(b.children, e.ParentID)
		return
	}
	b.children[e.ParentID] = sibs
}

func (b *Book) insert(e Entry) {
	b.entries[e.ItemID] = e
	ids := append(b.children[e.ParentID], e.ItemID)
	sort.SliceStable(ids, func(i, j int) bool {
		return b.entries[ids[i]].before(b.entries[ids[j]])
	})
	b.children[e.ParentID] = ids
}

// place assigns e a weight per p among its future siblings and inserts it,
// renumbering the siblings once when no gap is left.
func (b *Book) place(e Entry, p Placement) error {
	w, err := b.weightFor(e.ParentID, p)
	if errors.Is(err, ErrNoGap) {
		b.renumber(e.ParentID)
		w, err = b.weightFor(e.ParentID, p)
	}
	if err != nil {
		return err
	}
	e.Weight = w
	b.insert(e)
	return nil
}

func (b *Book) checkSibling(parentID string, p Placement) error {
	if p.Position != PositionBefore && p.Position != PositionAfter {
		return nil
	}
	if !slices.Contains(b.children[parentID], p.Sibling) {
		return fmt.Errorf("%w: %s", ErrUnknownSibling, p.Sibling)
	}
	return nil
}

func (b *Book) weightFor(parentID string, p Placement) (int, error) {
	sibs := b.Children(parentID)
	if len(sibs) == 0 {
		return WeightSpacing, nil
	}
	switch p.Position {
	case PositionFirst:
		return WeightBefore(sibs[0].Weight)
	case PositionBefore, PositionAfter:
		i := slices.IndexFunc(sibs, func(s Entry) bool { return s.ItemID == p.Sibling })
		if i < 0 {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSibling, p.Sibling)
		}
		if p.Position == PositionBefore {
			if i == 0 {
				return WeightBefore(sibs[0].Weight)
			}
			return WeightAfter(sibs[i-1].Weight, sibs[i].Weight)
		}
		next := math.MaxInt
		if i+1 < len(sibs) {
			next = sibs[i+1].Weight
		}
		return WeightAfter(sibs[i].Weight, next)
	default:
		return WeightAfter(sibs[len(sibs)-1].Weight, math.MaxInt)
	}
}

// renumber spreads the children of parentID at WeightSpacing, keeping order.
func (b *Book) renumber(parentID string) {
	for i, id := range b.children[parentID] {
		e := b.entries[id]
		e.Weight = (i + 1) * WeightSpacing
		b.entries[id] = e
	}
}
