package domain

// RemoveMode specifies what happens to an entry's descendants when it is
// removed from the outline.
type RemoveMode int

const (
	// RemoveLeaf removes only childless entries; errors if the entry has children.
	RemoveLeaf RemoveMode = iota
	// RemoveCascade removes the entry and its entire subtree.
	RemoveCascade
	// RemovePromote removes the entry and moves its children up into its place.
	RemovePromote
)

// String returns the flag-style name of the mode.
func (m RemoveMode) String() string {
	switch m {
	case RemoveCascade:
		return "cascade"
	case RemovePromote:
		return "promote"
	default:
		return "leaf"
	}
}
