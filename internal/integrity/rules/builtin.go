package rules

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"counsel/internal/integrity/models"
	"counsel/pkg/platform/sentinel"
)

// Built-in rule names. Registering a custom rule under one of these names
// replaces the built-in.
const (
	RuleStaffValidStatus          = "staff.valid_status"
	RuleCaseLeadAttorneyExists    = "case.lead_attorney_exists"
	RuleCaseAssignedLawyersActive = "case.assigned_lawyers_active"
	RuleApplicationJobExists      = "application.job_exists"
	RuleApplicationJobOpen        = "application.pending_job_open"
	RuleRetainerLawyerExists      = "retainer.lawyer_exists"
	RuleFeedbackTargetExists      = "feedback.target_exists"
	RuleReminderCaseExists        = "reminder.case_exists"
)

// Priorities used by the built-ins. Existence checks run before state checks.
const (
	PriorityExistence = 10
	PriorityState     = 20
)

// BuiltinOptions tunes the staff status rule.
type BuiltinOptions struct {
	ValidStaffStatuses []models.StaffStatus
	DefaultStaffStatus models.StaffStatus
}

// DefaultBuiltinOptions returns the stock staff status set.
func DefaultBuiltinOptions() BuiltinOptions {
	return BuiltinOptions{
		ValidStaffStatuses: []models.StaffStatus{models.StaffActive, models.StaffInactive, models.StaffTerminated},
		DefaultStaffStatus: models.StaffActive,
	}
}

// Builtins returns the built-in rule set.
func Builtins(opts BuiltinOptions) []Rule {
	if len(opts.ValidStaffStatuses) == 0 {
		opts.ValidStaffStatuses = DefaultBuiltinOptions().ValidStaffStatuses
	}
	if opts.DefaultStaffStatus == "" {
		opts.DefaultStaffStatus = models.StaffActive
	}
	return []Rule{
		&staffStatusRule{valid: slices.Clone(opts.ValidStaffStatuses), fallback: opts.DefaultStaffStatus},
		caseLeadAttorneyRule{},
		caseAssignedLawyersRule{},
		applicationJobExistsRule{},
		applicationJobOpenRule{},
		retainerLawyerRule{},
		feedbackTargetRule{},
		reminderCaseRule{},
	}
}

// resolved reports whether err means the target exists (nil), is missing
// (sentinel.ErrNotFound), or could not be checked (any other error).
func resolved(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	return false, err
}

type staffStatusRule struct {
	valid    []models.StaffStatus
	fallback models.StaffStatus
}

func (*staffStatusRule) Name() string                  { return RuleStaffValidStatus }
func (*staffStatusRule) EntityType() models.EntityType { return models.EntityStaff }
func (*staffStatusRule) Priority() int                 { return PriorityExistence }
func (r *staffStatusRule) Description() string {
	return fmt.Sprintf("staff status must be one of %v", r.valid)
}

func (r *staffStatusRule) Validate(_ context.Context, entity models.Entity, _ Context) ([]models.Issue, error) {
	staff, err := as[*models.Staff](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if slices.Contains(r.valid, staff.Status) {
		return nil, nil
	}
	issue := models.NewIssue(staff, models.SeverityCritical, "status",
		fmt.Sprintf("Invalid staff status %q", staff.Status)).
		WithRepair(models.SetStaffStatus(staff, r.fallback))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type caseLeadAttorneyRule struct{}

func (caseLeadAttorneyRule) Name() string                  { return RuleCaseLeadAttorneyExists }
func (caseLeadAttorneyRule) EntityType() models.EntityType { return models.EntityCase }
func (caseLeadAttorneyRule) Priority() int                 { return PriorityExistence }
func (caseLeadAttorneyRule) Description() string {
	return "case lead attorney must be an existing staff member"
}

func (r caseLeadAttorneyRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	c, err := as[*models.Case](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if c.LeadAttorneyID == "" {
		return nil, nil
	}
	_, lookupErr := rc.Lookup.StaffByUserID(ctx, c.GuildID, c.LeadAttorneyID)
	found, err := resolved(lookupErr)
	if err != nil || found {
		return nil, err
	}
	issue := models.NewIssue(c, models.SeverityCritical, "leadAttorneyId",
		fmt.Sprintf("Lead attorney %s not found in staff", c.LeadAttorneyID)).
		WithRepair(models.ClearLeadAttorney(c))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type caseAssignedLawyersRule struct{}

func (caseAssignedLawyersRule) Name() string                  { return RuleCaseAssignedLawyersActive }
func (caseAssignedLawyersRule) EntityType() models.EntityType { return models.EntityCase }
func (caseAssignedLawyersRule) Priority() int                 { return PriorityState }
func (caseAssignedLawyersRule) Description() string {
	return "assigned lawyers must be active staff members"
}

// Validate reports one warning per assigned lawyer that is missing or not
// active. Reassignment is left to a human, so none are auto-repairable.
func (r caseAssignedLawyersRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	c, err := as[*models.Case](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	var issues []models.Issue
	for _, userID := range c.AssignedLawyerIDs {
		staff, lookupErr := rc.Lookup.StaffByUserID(ctx, c.GuildID, userID)
		found, err := resolved(lookupErr)
		if err != nil {
			return issues, err
		}
		var msg string
		switch {
		case !found:
			msg = fmt.Sprintf("Assigned lawyer %s not found in staff", userID)
		case !staff.IsActive():
			msg = fmt.Sprintf("Assigned lawyer %s is %s", userID, staff.Status)
		default:
			continue
		}
		issue := models.NewIssue(c, models.SeverityWarning, "assignedLawyerIds", msg)
		issue.Rule = r.Name()
		issues = append(issues, issue)
	}
	return issues, nil
}

type applicationJobExistsRule struct{}

func (applicationJobExistsRule) Name() string                  { return RuleApplicationJobExists }
func (applicationJobExistsRule) EntityType() models.EntityType { return models.EntityApplication }
func (applicationJobExistsRule) Priority() int                 { return PriorityExistence }
func (applicationJobExistsRule) Description() string {
	return "application must reference an existing job"
}

// Validate flags orphaned applications. There is no safe default job, so the
// issue is not auto-repairable.
func (r applicationJobExistsRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	app, err := as[*models.Application](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	_, lookupErr := rc.Lookup.Job(ctx, app.GuildID, app.JobID)
	found, err := resolved(lookupErr)
	if err != nil || found {
		return nil, err
	}
	issue := models.NewIssue(app, models.SeverityCritical, "jobId",
		fmt.Sprintf("Job %s not found", app.JobID))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type applicationJobOpenRule struct{}

func (applicationJobOpenRule) Name() string                  { return RuleApplicationJobOpen }
func (applicationJobOpenRule) EntityType() models.EntityType { return models.EntityApplication }
func (applicationJobOpenRule) Priority() int                 { return PriorityState }
func (applicationJobOpenRule) Description() string {
	return "pending applications must reference an open job"
}

func (r applicationJobOpenRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	app, err := as[*models.Application](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, nil
	}
	job, lookupErr := rc.Lookup.Job(ctx, app.GuildID, app.JobID)
	found, err := resolved(lookupErr)
	// a missing job is reported by the existence rule
	if err != nil || !found || job.IsOpen {
		return nil, err
	}
	issue := models.NewIssue(app, models.SeverityWarning, "status",
		fmt.Sprintf("Pending application references closed job %s", app.JobID)).
		WithRepair(models.SetApplicationStatus(app, models.ApplicationWithdrawn))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type retainerLawyerRule struct{}

func (retainerLawyerRule) Name() string                  { return RuleRetainerLawyerExists }
func (retainerLawyerRule) EntityType() models.EntityType { return models.EntityRetainer }
func (retainerLawyerRule) Priority() int                 { return PriorityExistence }
func (retainerLawyerRule) Description() string {
	return "retainer lawyer must be an existing staff member"
}

func (r retainerLawyerRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	retainer, err := as[*models.Retainer](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if retainer.LawyerID == "" {
		return nil, nil
	}
	_, lookupErr := rc.Lookup.StaffByUserID(ctx, retainer.GuildID, retainer.LawyerID)
	found, err := resolved(lookupErr)
	if err != nil || found {
		return nil, err
	}
	issue := models.NewIssue(retainer, models.SeverityCritical, "lawyerId",
		fmt.Sprintf("Lawyer %s not found in staff", retainer.LawyerID)).
		WithRepair(models.ClearRetainerLawyer(retainer))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type feedbackTargetRule struct{}

func (feedbackTargetRule) Name() string                  { return RuleFeedbackTargetExists }
func (feedbackTargetRule) EntityType() models.EntityType { return models.EntityFeedback }
func (feedbackTargetRule) Priority() int                 { return PriorityExistence }
func (feedbackTargetRule) Description() string {
	return "feedback target must be an existing staff member"
}

func (r feedbackTargetRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	fb, err := as[*models.Feedback](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if fb.TargetStaffID == "" {
		return nil, nil
	}
	_, lookupErr := rc.Lookup.StaffByUserID(ctx, fb.GuildID, fb.TargetStaffID)
	found, err := resolved(lookupErr)
	if err != nil || found {
		return nil, err
	}
	issue := models.NewIssue(fb, models.SeverityWarning, "targetStaffId",
		fmt.Sprintf("Target staff member %s not found", fb.TargetStaffID)).
		WithRepair(models.ClearFeedbackTarget(fb))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}

type reminderCaseRule struct{}

func (reminderCaseRule) Name() string                  { return RuleReminderCaseExists }
func (reminderCaseRule) EntityType() models.EntityType { return models.EntityReminder }
func (reminderCaseRule) Priority() int                 { return PriorityExistence }
func (reminderCaseRule) Description() string {
	return "reminder case must exist"
}

func (r reminderCaseRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	reminder, err := as[*models.Reminder](r.Name(), entity)
	if err != nil {
		return nil, err
	}
	if reminder.CaseID == "" {
		return nil, nil
	}
	_, lookupErr := rc.Lookup.Case(ctx, reminder.GuildID, reminder.CaseID)
	found, err := resolved(lookupErr)
	if err != nil || found {
		return nil, err
	}
	issue := models.NewIssue(reminder, models.SeverityWarning, "caseId",
		fmt.Sprintf("Case %s not found", reminder.CaseID)).
		WithRepair(models.ClearReminderCase(reminder))
	issue.Rule = r.Name()
	return []models.Issue{issue}, nil
}
