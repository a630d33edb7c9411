package models

import "fmt"

// OperationKind is the mutation a caller is about to perform.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// ParseOperationKind converts user input into an OperationKind.
func ParseOperationKind(s string) (OperationKind, error) {
	switch k := OperationKind(s); k {
	case OperationCreate, OperationUpdate, OperationDelete:
		return k, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// OperationCheck is the verdict of a pre-operation validation. Allowed is
// false when any issue is critical.
type OperationCheck struct {
	Operation  OperationKind `json:"operation"`
	EntityType EntityType    `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Allowed    bool          `json:"allowed"`
	Issues     []Issue       `json:"issues"`
}

// NewOperationCheck derives Allowed from issues.
func NewOperationCheck(op OperationKind, e Entity, issues []Issue) *OperationCheck {
	check := &OperationCheck{
		Operation:  op,
		EntityType: e.Type(),
		EntityID:   e.EntityID(),
		Allowed:    true,
		Issues:     issues,
	}
	if check.Issues == nil {
		check.Issues = []Issue{}
	}
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			check.Allowed = false
			break
		}
	}
	return check
}
