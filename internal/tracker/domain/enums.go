package domain

// ItemType discriminates the three work-item variants stored in one
// record.
type ItemType string

const (
	TypeRequirement ItemType = "requirement"
	TypeTask        ItemType = "task"
	TypeBug         ItemType = "bug"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case TypeRequirement, TypeTask, TypeBug:
		return true
	}
	return false
}

// Priority values. Stored as plain strings; the service only checks
// membership when a priority is supplied.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Severity values for bugs.
const (
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
	SeverityBlocker  = "blocker"
)

// KnownPriority reports whether p is a recognised priority value.
func KnownPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// KnownSeverity reports whether s is a recognised severity value.
func KnownSeverity(s string) bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker:
		return true
	}
	return false
}
