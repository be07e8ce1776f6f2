package outline

import (
	"context"
	"errors"

	"github.com/eykd/booktree-go/internal/domain"
)

// Link names an outline entry by ID and title.
type Link struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Navigation is the book navigation shown alongside a page: where it sits in
// its book and the pages reachable from it.
type Navigation struct {
	Item       Link   `json:"item"`
	Book       Link   `json:"book"`
	Breadcrumb []Link `json:"breadcrumb"`
	Previous   *Link  `json:"previous,omitempty"`
	Up         *Link  `json:"up,omitempty"`
	Next       *Link  `json:"next,omitempty"`
	Children   []Link `json:"children"`
}

// Navigation returns the navigation of itemID, read from one consistent
// snapshot of its book.
func (m *Manager) Navigation(ctx context.Context, itemID string) (*Navigation, error) {
	b, err := m.snapshotOf(itemID)
	if err != nil {
		return nil, err
	}

	nav := &Navigation{Breadcrumb: []Link{}, Children: []Link{}}
	if nav.Item, err = m.LinkTo(ctx, itemID); err != nil {
		return nil, err
	}
	if nav.Book, err = m.LinkTo(ctx, b.ID()); err != nil {
		return nil, err
	}

	ancestors, err := b.Ancestors(itemID)
	if err != nil {
		return nil, err
	}
	for _, a := range ancestors {
		l, err := m.LinkTo(ctx, a.ItemID)
		if err != nil {
			return nil, err
		}
		nav.Breadcrumb = append(nav.Breadcrumb, l)
	}
	if len(ancestors) > 0 {
		up := nav.Breadcrumb[len(nav.Breadcrumb)-1]
		nav.Up = &up
	}

	if prev, ok, _ := b.Previous(itemID); ok {
		l, err := m.LinkTo(ctx, prev.ItemID)
		if err != nil {
			return nil, err
		}
		nav.Previous = &l
	}
	if next, ok, _ := b.Next(itemID); ok {
		l, err := m.LinkTo(ctx, next.ItemID)
		if err != nil {
			return nil, err
		}
		nav.Next = &l
	}

	for _, c := range b.Children(itemID) {
		l, err := m.LinkTo(ctx, c.ItemID)
		if err != nil {
			return nil, err
		}
		nav.Children = append(nav.Children, l)
	}
	return nav, nil
}

// LinkTo returns a link to itemID titled from the content store. Items the
// store no longer knows are titled by their ID.
func (m *Manager) LinkTo(ctx context.Context, itemID string) (Link, error) {
	if m.content == nil {
		return Link{ID: itemID, Title: itemID}, nil
	}
	it, err := m.content.Lookup(ctx, itemID)
	if errors.Is(err, domain.ErrUnknownItem) {
		return Link{ID: itemID, Title: itemID}, nil
	}
	if err != nil {
		return Link{}, err
	}
	return Link{ID: itemID, Title: it.Title}, nil
}
