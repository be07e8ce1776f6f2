package domain

import "errors"

// Outline validation errors. Every one of them is returned before a book is
// modified.
var (
	// ErrAlreadyInBook is returned when an item already has an outline entry.
	ErrAlreadyInBook = errors.New("item is already in a book")
	// ErrUnknownBook is returned when a book ID names no book root.
	ErrUnknownBook = errors.New("unknown book")
	// ErrUnknownParent is returned when a parent ID names no entry in the book.
	ErrUnknownParent = errors.New("unknown parent")
	// ErrCrossBookParent is returned when the parent belongs to a different book.
	ErrCrossBookParent = errors.New("parent belongs to a different book")
	// ErrCycleDetected is returned when a move would place an entry under itself.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrHasDescendants is returned when removing an entry that still has children.
	ErrHasDescendants = errors.New("entry has descendants")
	// ErrUnknownItem is returned when an item has no outline entry or no content.
	ErrUnknownItem = errors.New("unknown item")
	// ErrRootImmovable is returned when trying to move a book root.
	ErrRootImmovable = errors.New("book root cannot be moved")
	// ErrUnknownSibling is returned when a before/after target is not a sibling
	// under the chosen parent.
	ErrUnknownSibling = errors.New("placement target is not a sibling")
)

// Entry is one node of a book outline. It references a content item and
// records only structure: parent, depth and sibling order.
type Entry struct {
	ItemID   string `json:"item_id"`
	BookID   string `json:"book_id"`
	ParentID string `json:"parent_id,omitempty"`
	Weight   int    `json:"weight"`
	Depth    int    `json:"depth"`
	// Seq is the creation sequence; it breaks weight ties.
	Seq int64 `json:"seq"`
}

// IsRoot reports whether the entry is the root of its book.
func (e Entry) IsRoot() bool {
	return e.ParentID == ""
}

// before reports whether e sorts ahead of other among siblings.
func (e Entry) before(other Entry) bool {
	if e.Weight != other.Weight {
		return e.Weight < other.Weight
	}
	return e.Seq < other.Seq
}

// Item is a content item as seen by the outline: an identifier and a title.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
}

// TreeNode is an entry with its ordered children, used for outline display.
type TreeNode struct {
	Entry    Entry       `json:"entry"`
	Children []*TreeNode `json:"children"`
}

// Walk visits the tree in document order, passing each node to fn. Walking
// stops at the first false return.
func (n *TreeNode) Walk(fn func(*TreeNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Change is the persistent effect of one outline mutation.
type Change struct {
	Upserts []Entry
	Deletes []string
}

// Empty reports whether the change has nothing to apply.
func (c Change) Empty() bool {
	return len(c.Upserts) == 0 && len(c.Deletes) == 0
}

// Diff computes the change turning before into after. Either book may be nil,
// for a book being created or removed.
func Diff(before, after *Book) Change {
	var ch Change
	if after != nil {
		for _, e := range after.DocumentOrder() {
			if before != nil {
				if old, ok := before.entries[e.ItemID]; ok && old == e {
					continue
				}
			}
			ch.Upserts = append(ch.Upserts, e)
		}
	}
	if before != nil {
		for _, e := range before.DocumentOrder() {
			if after != nil {
				if _, ok := after.entries[e.ItemID]; ok {
					continue
				}
			}
			ch.Deletes = append(ch.Deletes, e.ItemID)
		}
	}
	return ch
}

// Merge appends other's upserts and deletes to c. An item deleted by one
// side and upserted by the other (a cross-book move) ends up as an upsert.
func (c Change) Merge(other Change) Change {
	out := Change{
		Upserts: append(append([]Entry{}, c.Upserts...), other.Upserts...),
	}
	upserted := make(map[string]bool, len(out.Upserts))
	for _, e := range out.Upserts {
		upserted[e.ItemID] = true
	}
	for _, id := range append(append([]string{}, c.Deletes...), other.Deletes...) {
		if !upserted[id] {
			out.Deletes = append(out.Deletes, id)
		}
	}
	return out
}
