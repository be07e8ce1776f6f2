package domain

import (
	"fmt"
	"sort"
)

// BuildBooks reconstructs books from flat entries, such as rows loaded from
// storage. Entries that cannot be attached to a root are left out and
// reported as findings; stale depths are recomputed and reported.
func BuildBooks(entries []Entry) (map[string]*Book, []Finding) {
	var findings []Finding

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	type group struct {
		root    *Entry
		members []Entry
	}
	groups := make(map[string]*group)
	var order []string
	for _, e := range sorted {
		g, ok := groups[e.BookID]
		if !ok {
			g = &group{}
			groups[e.BookID] = g
			order = append(order, e.BookID)
		}
		if e.ItemID == e.BookID && e.ParentID == "" {
			root := e
			g.root = &root
			continue
		}
		g.members = append(g.members, e)
	}

	books := make(map[string]*Book, len(groups))
	for _, bookID := range order {
		g := groups[bookID]
		if g.root == nil {
			for _, e := range g.members {
				findings = append(findings, Finding{
					Type:     FindingMissingRoot,
					Severity: SeverityError,
					Message:  fmt.Sprintf("entry %s belongs to book %s which has no root", e.ItemID, bookID),
					Item:     e.ItemID,
				})
			}
			continue
		}

		b := NewBook(bookID, g.root.Seq)
		if g.root.Depth != 0 {
			findings = append(findings, depthFinding(*g.root, 0))
		}
		findings = append(findings, b.attachLoaded(g.members)...)
		findings = append(findings, b.duplicateWeights()...)
		books[bookID] = b
	}
	return books, findings
}

// attachLoaded inserts members breadth-first from the root so that every
// parent precedes its children. Unreachable members become findings.
func (b *Book) attachLoaded(members []Entry) []Finding {
	var findings []Finding
	byParent := make(map[string][]Entry)
	for _, e := range members {
		byParent[e.ParentID] = append(byParent[e.ParentID], e)
	}

	queue := []string{b.id}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		parent := b.entries[parentID]
		for _, e := range byParent[parentID] {
			if _, dup := b.entries[e.ItemID]; dup {
				continue
			}
			if want := parent.Depth + 1; e.Depth != want {
				findings = append(findings, depthFinding(e, want))
				e.Depth = want
			}
			b.insert(e)
			queue = append(queue, e.ItemID)
		}
		delete(byParent, parentID)
	}

	var stray []Entry
	for _, es := range byParent {
		stray = append(stray, es...)
	}
	sort.Slice(stray, func(i, j int) bool { return stray[i].Seq < stray[j].Seq })
	for _, e := range stray {
		findings = append(findings, Finding{
			Type:     FindingOrphanEntry,
			Severity: SeverityError,
			Message:  fmt.Sprintf("entry %s is not reachable from the root of book %s", e.ItemID, b.id),
			Item:     e.ItemID,
		})
	}
	return findings
}

func (b *Book) duplicateWeights() []Finding {
	var findings []Finding
	for _, e := range b.DocumentOrder() {
		sibs := b.Children(e.ItemID)
		for i := 1; i < len(sibs); i++ {
			if sibs[i].Weight == sibs[i-1].Weight {
				findings = append(findings, Finding{
					Type:     FindingDuplicateWeight,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("entries %s and %s share weight %d", sibs[i-1].ItemID, sibs[i].ItemID, sibs[i].Weight),
					Item:     sibs[i].ItemID,
				})
			}
		}
	}
	return findings
}

func depthFinding(e Entry, want int) Finding {
	return Finding{
		Type:     FindingDepthMismatch,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("entry %s has depth %d, want %d", e.ItemID, e.Depth, want),
		Item:     e.ItemID,
	}
}

// Validate re-derives the book from its own entries and returns any
// findings. A book only ever mutated through its methods has none.
func (b *Book) Validate() []Finding {
	all := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		all = append(all, e)
	}
	_, findings := BuildBooks(all)
	return findings
}
