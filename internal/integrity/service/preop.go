package service

import (
	"context"
	"errors"
	"fmt"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	"counsel/pkg/platform/sentinel"
)

// Rule names reported by pre-operation checks.
const (
	RuleStaffUniqueUser  = "staff.unique_user"
	RuleInboundReference = "delete.inbound_reference"
)

// ValidateBeforeOperation checks a mutation before the caller commits it.
//
// For create and update the candidate entity is evaluated against the rule
// set, bypassing the cache because the candidate is not the stored state;
// creating staff also reports a user id that is already on staff. For delete
// it reports records that would be left with a dangling reference. The
// operation is allowed unless an issue is critical.
func (s *Service) ValidateBeforeOperation(ctx context.Context, entity models.Entity, t models.EntityType, op models.OperationKind, rc rules.Context) (*models.OperationCheck, error) {
	if err := checkEntity(entity, t); err != nil {
		return nil, err
	}
	rc = s.ruleContext(ctx, entity, rc)

	var issues []models.Issue
	switch op {
	case models.OperationCreate, models.OperationUpdate:
		issues = s.evaluate(ctx, entity, t, rc, false)
		if op == models.OperationCreate && t == models.EntityStaff {
			dup, err := s.duplicateStaff(ctx, entity, rc.GuildID)
			if err != nil {
				return nil, err
			}
			issues = append(issues, dup...)
		}
	case models.OperationDelete:
		inbound, err := s.inboundReferences(ctx, entity, t, rc.GuildID)
		if err != nil {
			return nil, err
		}
		issues = inbound
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown operation %q", op))
	}
	return models.NewOperationCheck(op, entity, issues), nil
}

func (s *Service) duplicateStaff(ctx context.Context, entity models.Entity, guildID string) ([]models.Issue, error) {
	staff, ok := entity.(*models.Staff)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("entity %T is not staff", entity))
	}
	existing, err := s.stores.Staff.FindByUserID(ctx, guildID, staff.UserID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff")
	}
	if existing.ID == staff.ID {
		return nil, nil
	}
	issue := models.NewIssue(staff, models.SeverityCritical, "userId",
		fmt.Sprintf("User %s is already staff member %s", staff.UserID, existing.ID))
	issue.Rule = RuleStaffUniqueUser
	return []models.Issue{issue}, nil
}

// inboundReferences lists records in the guild that point at entity.
func (s *Service) inboundReferences(ctx context.Context, entity models.Entity, t models.EntityType, guildID string) ([]models.Issue, error) {
	var issues []models.Issue
	ref := func(field, format string, args ...any) {
		issue := models.NewIssue(entity, models.SeverityWarning, field, fmt.Sprintf(format, args...))
		issue.Rule = RuleInboundReference
		issues = append(issues, issue)
	}

	switch t {
	case models.EntityStaff:
		staff, ok := entity.(*models.Staff)
		if !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("entity %T is not staff", entity))
		}
		cases, err := s.stores.Cases.FindByGuild(ctx, guildID)
		if err != nil {
			return nil, loadErr(err, "cases")
		}
		for _, c := range cases {
			if c.LeadAttorneyID == staff.UserID {
				ref("leadAttorneyId", "Case %s names this staff member as lead attorney", c.ID)
			}
			if c.HasAssignedLawyer(staff.UserID) {
				ref("assignedLawyerIds", "Case %s has this staff member assigned", c.ID)
			}
		}
		retainers, err := s.stores.Retainers.FindByGuild(ctx, guildID)
		if err != nil {
			return nil, loadErr(err, "retainers")
		}
		for _, r := range retainers {
			if r.LawyerID == staff.UserID {
				ref("lawyerId", "Retainer %s names this staff member as lawyer", r.ID)
			}
		}
		feedback, err := s.stores.Feedback.FindByGuild(ctx, guildID)
		if err != nil {
			return nil, loadErr(err, "feedback")
		}
		for _, f := range feedback {
			if f.TargetStaffID == staff.UserID {
				ref("targetStaffId", "Feedback %s targets this staff member", f.ID)
			}
		}
	case models.EntityJob:
		apps, err := s.stores.Applications.FindByGuild(ctx, guildID)
		if err != nil {
			return nil, loadErr(err, "applications")
		}
		for _, a := range apps {
			if a.JobID == entity.EntityID() {
				ref("jobId", "Application %s references this job", a.ID)
			}
		}
	case models.EntityCase:
		reminders, err := s.stores.Reminders.FindByGuild(ctx, guildID)
		if err != nil {
			return nil, loadErr(err, "reminders")
		}
		for _, r := range reminders {
			if r.CaseID == entity.EntityID() {
				ref("caseId", "Reminder %s references this case", r.ID)
			}
		}
	}
	return issues, nil
}
