package domain

// FindingSeverity indicates how severe a finding is.
type FindingSeverity string

const (
	// SeverityError indicates a finding that must be resolved.
	SeverityError FindingSeverity = "error"
	// SeverityWarning indicates a finding that should be reviewed.
	SeverityWarning FindingSeverity = "warning"
)

// Finding type constants identify the kind of outline issue found.
const (
	FindingMissingRoot     = "missing_root"
	FindingOrphanEntry     = "orphan_entry"
	FindingDepthMismatch   = "depth_mismatch"
	FindingDuplicateWeight = "duplicate_weight"
	FindingMissingContent  = "missing_content"
)

// Finding represents an integrity issue discovered while loading or checking
// an outline.
type Finding struct {
	Type     string          `json:"type"`
	Severity FindingSeverity `json:"severity"`
	Message  string          `json:"message"`
	Item     string          `json:"item,omitempty"`
}
