package domain

// Position selects where among its new siblings an entry is placed.
type Position int

const (
	// PositionLast appends after every current sibling.
	PositionLast Position = iota
	// PositionFirst places the entry ahead of every current sibling.
	PositionFirst
	// PositionBefore places the entry directly before Placement.Sibling.
	PositionBefore
	// PositionAfter places the entry directly after Placement.Sibling.
	PositionAfter
)

// Placement is a resolved position request.
type Placement struct {
	Position Position
	Sibling  string
}

// PlaceOption configures a Placement.
type PlaceOption func(*Placement)

// First places the entry ahead of its siblings.
func First() PlaceOption {
	return func(p *Placement) { p.Position, p.Sibling = PositionFirst, "" }
}

// Last appends the entry after its siblings. This is the default.
func Last() PlaceOption {
	return func(p *Placement) { p.Position, p.Sibling = PositionLast, "" }
}

// Before places the entry directly before the given sibling.
func Before(itemID string) PlaceOption {
	return func(p *Placement) { p.Position, p.Sibling = PositionBefore, itemID }
}

// After places the entry directly after the given sibling.
func After(itemID string) PlaceOption {
	return func(p *Placement) { p.Position, p.Sibling = PositionAfter, itemID }
}

// NewPlacement applies opts over the default PositionLast.
func NewPlacement(opts ...PlaceOption) Placement {
	var p Placement
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
