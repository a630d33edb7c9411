package models

import "errors"

// ErrAlreadyResolved reports that a repair found its field no longer holding
// the expected value, so nothing was written.
var ErrAlreadyResolved = errors.New("repair target no longer holds the expected value")

// RepairKind names a corrective mutation. Built-in kinds are listed below;
// custom rules may introduce their own and register a handler for them.
type RepairKind string

const (
	RepairSetStaffStatus        RepairKind = "set_staff_status"
	RepairClearCaseLeadAttorney RepairKind = "clear_case_lead_attorney"
	RepairSetApplicationStatus  RepairKind = "set_application_status"
	RepairClearRetainerLawyer   RepairKind = "clear_retainer_lawyer"
	RepairClearFeedbackTarget   RepairKind = "clear_feedback_target"
	RepairClearReminderCase     RepairKind = "clear_reminder_case"
)

// RepairAction is a serializable description of one single-record fix.
//
// The fix is applied only while the field still holds Expected, which makes
// every action idempotent: once applied (or once someone else changed the
// field) re-running it writes nothing and reports ErrAlreadyResolved.
type RepairAction struct {
	Kind       RepairKind `json:"kind"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Field      string     `json:"field"`
	Expected   string     `json:"expected,omitempty"`
	// Value is the replacement; empty clears the field.
	Value string `json:"value,omitempty"`
}

// SetStaffStatus resets an unknown staff status to status.
func SetStaffStatus(s *Staff, status StaffStatus) RepairAction {
	return RepairAction{
		Kind:       RepairSetStaffStatus,
		EntityType: EntityStaff,
		EntityID:   s.ID,
		Field:      "status",
		Expected:   string(s.Status),
		Value:      string(status),
	}
}

// ClearLeadAttorney removes a dangling lead attorney from a case.
func ClearLeadAttorney(c *Case) RepairAction {
	return RepairAction{
		Kind:       RepairClearCaseLeadAttorney,
		EntityType: EntityCase,
		EntityID:   c.ID,
		Field:      "leadAttorneyId",
		Expected:   c.LeadAttorneyID,
	}
}

// SetApplicationStatus moves an application from its current status to status.
func SetApplicationStatus(a *Application, status ApplicationStatus) RepairAction {
	return RepairAction{
		Kind:       RepairSetApplicationStatus,
		EntityType: EntityApplication,
		EntityID:   a.ID,
		Field:      "status",
		Expected:   string(a.Status),
		Value:      string(status),
	}
}

// ClearRetainerLawyer removes a dangling lawyer from a retainer.
func ClearRetainerLawyer(r *Retainer) RepairAction {
	return RepairAction{
		Kind:       RepairClearRetainerLawyer,
		EntityType: EntityRetainer,
		EntityID:   r.ID,
		Field:      "lawyerId",
		Expected:   r.LawyerID,
	}
}

// ClearFeedbackTarget turns staff feedback with a dangling target into
// firm-wide feedback.
func ClearFeedbackTarget(f *Feedback) RepairAction {
	return RepairAction{
		Kind:       RepairClearFeedbackTarget,
		EntityType: EntityFeedback,
		EntityID:   f.ID,
		Field:      "targetStaffId",
		Expected:   f.TargetStaffID,
	}
}

// ClearReminderCase detaches a reminder from a case that no longer exists.
func ClearReminderCase(r *Reminder) RepairAction {
	return RepairAction{
		Kind:       RepairClearReminderCase,
		EntityType: EntityReminder,
		EntityID:   r.ID,
		Field:      "caseId",
		Expected:   r.CaseID,
	}
}
