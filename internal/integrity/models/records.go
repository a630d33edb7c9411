package models

import (
	"slices"
	"time"
)

// StaffStatus is the employment state of a firm member.
type StaffStatus string

const (
	StaffActive     StaffStatus = "active"
	StaffInactive   StaffStatus = "inactive"
	StaffTerminated StaffStatus = "terminated"
)

// Staff is a firm member. Other records reference staff by UserID, the
// member's external (chat platform) identifier.
type Staff struct {
	Base
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     string      `json:"role"`
	Status   StaffStatus `json:"status"`
	HiredAt  time.Time   `json:"hired_at"`
}

func (*Staff) Type() EntityType { return EntityStaff }

// IsActive reports whether the member can carry case work.
func (s *Staff) IsActive() bool { return s.Status == StaffActive }

// CaseStatus tracks a case through its lifecycle.
type CaseStatus string

const (
	CasePending    CaseStatus = "pending"
	CaseInProgress CaseStatus = "in-progress"
	CaseClosed     CaseStatus = "closed"
)

// Case is a client matter. LeadAttorneyID and AssignedLawyerIDs hold staff
// user ids; an empty LeadAttorneyID means no lead is assigned.
type Case struct {
	Base
	CaseNumber        string     `json:"case_number"`
	ClientID          string     `json:"client_id"`
	Title             string     `json:"title"`
	Status            CaseStatus `json:"status"`
	LeadAttorneyID    string     `json:"lead_attorney_id,omitempty"`
	AssignedLawyerIDs []string   `json:"assigned_lawyer_ids"`
}

func (*Case) Type() EntityType { return EntityCase }

// HasAssignedLawyer reports whether userID is on the case team.
func (c *Case) HasAssignedLawyer(userID string) bool {
	return slices.Contains(c.AssignedLawyerIDs, userID)
}

// Job is an open or closed posting applicants apply to.
type Job struct {
	Base
	Title    string     `json:"title"`
	RoleID   string     `json:"role_id"`
	IsOpen   bool       `json:"is_open"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

func (*Job) Type() EntityType { return EntityJob }

// ApplicationStatus tracks an applicant through review.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Application is a candidate's submission for a Job.
type Application struct {
	Base
	JobID       string            `json:"job_id"`
	ApplicantID string            `json:"applicant_id"`
	Status      ApplicationStatus `json:"status"`
}

func (*Application) Type() EntityType { return EntityApplication }

// RetainerStatus tracks retainer agreements.
type RetainerStatus string

const (
	RetainerPending   RetainerStatus = "pending"
	RetainerSigned    RetainerStatus = "signed"
	RetainerCancelled RetainerStatus = "cancelled"
)

// Retainer binds a client to a lawyer. ClientID is external and never checked.
type Retainer struct {
	Base
	ClientID string         `json:"client_id"`
	LawyerID string         `json:"lawyer_id"`
	Status   RetainerStatus `json:"status"`
}

func (*Retainer) Type() EntityType { return EntityRetainer }

// Feedback is a client rating of one staff member, or of the firm as a whole
// when TargetStaffID is empty.
type Feedback struct {
	Base
	SubmitterID   string `json:"submitter_id"`
	TargetStaffID string `json:"target_staff_id,omitempty"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	IsForFirm     bool   `json:"is_for_firm"`
}

func (*Feedback) Type() EntityType { return EntityFeedback }

// Reminder is a scheduled nudge, optionally tied to a case.
type Reminder struct {
	Base
	UserID       string    `json:"user_id"`
	CaseID       string    `json:"case_id,omitempty"`
	Message      string    `json:"message"`
	ScheduledFor time.Time `json:"scheduled_for"`
	IsActive     bool      `json:"is_active"`
}

func (*Reminder) Type() EntityType { return EntityReminder }
