package models

import "fmt"

// Severity classifies how urgently an issue needs attention.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities; lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Issue is one detected inconsistency on one record.
type Issue struct {
	Severity   Severity   `json:"severity"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	GuildID    string     `json:"guild_id"`
	Field      string     `json:"field,omitempty"`
	Message    string     `json:"message"`
	// Rule names the rule that produced the issue.
	Rule          string        `json:"rule"`
	CanAutoRepair bool          `json:"can_auto_repair"`
	Repair        *RepairAction `json:"repair,omitempty"`
}

// Repairable reports whether the engine may apply the issue's repair
// without human review.
func (i Issue) Repairable() bool {
	return i.CanAutoRepair && i.Repair != nil
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("[%s] %s %s.%s: %s", i.Severity, i.EntityType, i.EntityID, i.Field, i.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.EntityType, i.EntityID, i.Message)
}

// NewIssue starts an issue for entity; callers fill in the rest.
func NewIssue(e Entity, severity Severity, field, message string) Issue {
	return Issue{
		Severity:   severity,
		EntityType: e.Type(),
		EntityID:   e.EntityID(),
		GuildID:    e.Guild(),
		Field:      field,
		Message:    message,
	}
}

// WithRepair marks the issue auto-repairable with action.
func (i Issue) WithRepair(action RepairAction) Issue {
	i.CanAutoRepair = true
	i.Repair = &action
	return i
}
