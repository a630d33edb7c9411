package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"counsel/internal/integrity/models"
	audit "counsel/pkg/platform/audit"
	"counsel/pkg/requestcontext"
)

// ErrNoRepairAction is recorded for an issue flagged auto-repairable that
// carries no action.
var ErrNoRepairAction = errors.New("issue is marked auto-repairable but has no repair action")

// RepairIntegrityIssues applies the repair of every auto-repairable issue, in
// order. Issues that are not auto-repairable are counted and skipped. A failed
// repair is recorded with its error text and does not stop the batch. Each
// repair that wrote a record emits one audit entry; audit failures are logged
// only. A repair whose record was already fixed counts as repaired without
// an audit entry.
// The result cache is cleared afterwards, even for an empty batch.
func (s *Service) RepairIntegrityIssues(ctx context.Context, issues []models.Issue) *models.RepairResult {
	ctx, span := s.tracer.Start(ctx, "integrity.repair")
	defer span.End()
	defer s.clearCache(ctx)

	result := models.NewRepairResult()
	for _, issue := range issues {
		result.TotalIssuesFound++
		if !issue.CanAutoRepair {
			s.metrics.IncrementRepair("skipped")
			continue
		}
		err := s.applyRepair(ctx, issue)
		if errors.Is(err, models.ErrAlreadyResolved) {
			result.IssuesRepaired++
			result.AlreadyResolved++
			s.metrics.IncrementRepair("already_resolved")
			s.logger.DebugContext(ctx, "integrity repair already resolved",
				"entity_type", issue.EntityType,
				"entity_id", issue.EntityID,
				"rule", issue.Rule,
			)
			continue
		}
		if err != nil {
			result.IssuesFailed++
			result.FailedRepairs = append(result.FailedRepairs, models.FailedRepair{Issue: issue, Error: err.Error()})
			s.metrics.IncrementRepair("failed")
			s.logger.WarnContext(ctx, "integrity repair failed",
				"guild_id", issue.GuildID,
				"entity_type", issue.EntityType,
				"entity_id", issue.EntityID,
				"rule", issue.Rule,
				"error", err,
			)
			continue
		}
		result.IssuesRepaired++
		s.metrics.IncrementRepair("repaired")
		s.recordRepair(ctx, issue)
	}

	span.SetAttributes(
		attribute.Int("issues.total", result.TotalIssuesFound),
		attribute.Int("issues.repaired", result.IssuesRepaired),
		attribute.Int("issues.already_resolved", result.AlreadyResolved),
		attribute.Int("issues.failed", result.IssuesFailed),
	)
	s.logger.InfoContext(ctx, "integrity repair completed",
		"total", result.TotalIssuesFound,
		"repaired", result.IssuesRepaired,
		"failed", result.IssuesFailed,
		"skipped", result.Skipped(),
	)
	return result
}

// ScanAndRepair scans the guild and repairs every auto-repairable issue found.
func (s *Service) ScanAndRepair(ctx context.Context, guildID string) (*models.Report, *models.RepairResult, error) {
	report, err := s.ScanForIntegrityIssues(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	return report, s.RepairIntegrityIssues(ctx, report.Issues), nil
}

func (s *Service) applyRepair(ctx context.Context, issue models.Issue) (err error) {
	if issue.Repair == nil {
		return ErrNoRepairAction
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("repair panicked")
		}
	}()
	return s.repairer.Apply(ctx, *issue.Repair)
}

func (s *Service) recordRepair(ctx context.Context, issue models.Issue) {
	if s.auditPublisher == nil {
		return
	}
	entry := audit.Entry{
		Action:     audit.ActionIntegrityRepair,
		GuildID:    issue.GuildID,
		EntityType: string(issue.EntityType),
		EntityID:   issue.EntityID,
		Field:      issue.Field,
		Rule:       issue.Rule,
		Severity:   string(issue.Severity),
		Message:    issue.Message,
		RequestID:  requestcontext.RequestID(ctx),
		ActorID:    requestcontext.ActorID(ctx),
		Timestamp:  requestcontext.Now(ctx),
	}
	if issue.Repair != nil {
		entry.RepairKind = string(issue.Repair.Kind)
	}
	if err := s.auditPublisher.Emit(ctx, entry); err != nil {
		s.metrics.IncrementAuditFailure()
		s.logger.ErrorContext(ctx, "failed to record integrity repair",
			"guild_id", issue.GuildID,
			"entity_type", issue.EntityType,
			"entity_id", issue.EntityID,
			"error", err,
		)
	}
}
