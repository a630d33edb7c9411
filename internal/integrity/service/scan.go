package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	"counsel/pkg/requestcontext"
)

// ScanForIntegrityIssues evaluates every record in the guild. The seven
// repository reads run concurrently; if any fails the scan fails and no
// partial report is returned. Issues appear in scan type order and, within a
// type, in repository order.
func (s *Service) ScanForIntegrityIssues(ctx context.Context, guildID string) (*models.Report, error) {
	if guildID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "guild id is required")
	}
	ctx, span := s.tracer.Start(ctx, "integrity.scan")
	defer span.End()
	span.SetAttributes(attribute.String("guild_id", guildID))

	start := time.Now()
	snap, err := s.fetchGuild(ctx, guildID)
	if err != nil {
		s.metrics.IncrementScanFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, "guild fetch failed")
		s.logger.ErrorContext(ctx, "integrity scan aborted", "guild_id", guildID, "error", err)
		return nil, err
	}

	rc := rules.Context{
		GuildID: guildID,
		Lookup:  newSnapshotLookup(snap),
		Now:     requestcontext.Now(ctx),
	}
	report := &models.Report{
		GuildID:         guildID,
		Issues:          []models.Issue{},
		EntitiesScanned: make(map[models.EntityType]int, len(models.EntityTypes)),
		ScannedAt:       rc.Now,
	}
	byType := snap.entities()
	for _, t := range models.EntityTypes {
		entities := byType[t]
		report.EntitiesScanned[t] = len(entities)
		for _, entity := range entities {
			report.Issues = append(report.Issues, s.evaluate(ctx, entity, t, rc, true)...)
		}
	}
	report.Duration = time.Since(start)

	for sev, n := range report.CountBySeverity() {
		span.SetAttributes(attribute.Int("issues."+string(sev), n))
	}
	for _, issue := range report.Issues {
		s.metrics.AddIssues(string(issue.Severity), string(issue.EntityType), 1)
	}
	s.metrics.ObserveScan(report.Duration)
	s.logger.InfoContext(ctx, "integrity scan completed",
		"guild_id", guildID,
		"issues", len(report.Issues),
		"critical", report.CountBySeverity()[models.SeverityCritical],
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// fetchGuild loads all seven record types for the guild concurrently.
func (s *Service) fetchGuild(ctx context.Context, guildID string) (*snapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	snap := &snapshot{guildID: guildID}

	g.Go(func() error {
		rows, err := s.stores.Staff.FindByGuild(ctx, guildID)
		snap.staff = rows
		return loadErr(err, "staff")
	})
	g.Go(func() error {
		rows, err := s.stores.Cases.FindByGuild(ctx, guildID)
		snap.cases = rows
		return loadErr(err, "cases")
	})
	g.Go(func() error {
		rows, err := s.stores.Applications.FindByGuild(ctx, guildID)
		snap.applications = rows
		return loadErr(err, "applications")
	})
	g.Go(func() error {
		rows, err := s.stores.Jobs.FindByGuild(ctx, guildID)
		snap.jobs = rows
		return loadErr(err, "jobs")
	})
	g.Go(func() error {
		rows, err := s.stores.Retainers.FindByGuild(ctx, guildID)
		snap.retainers = rows
		return loadErr(err, "retainers")
	})
	g.Go(func() error {
		rows, err := s.stores.Feedback.FindByGuild(ctx, guildID)
		snap.feedback = rows
		return loadErr(err, "feedback")
	})
	g.Go(func() error {
		rows, err := s.stores.Reminders.FindByGuild(ctx, guildID)
		snap.reminders = rows
		return loadErr(err, "reminders")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func loadErr(err error, what string) error {
	if err == nil {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}
