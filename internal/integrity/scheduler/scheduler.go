// Package scheduler runs periodic maintenance scans over a fixed set of
// guilds, optionally repairing what it finds. A Redis lock keeps replicas
// from scanning the same guild at once.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"

	"counsel/internal/integrity/models"
	"counsel/pkg/requestcontext"
)

// Actor is recorded as the actor of scheduler-driven repairs.
const Actor = "scheduler"

const lockPrefix = "counsel:integrity:scan:"

// Service is the slice of the integrity service the scheduler drives.
type Service interface {
	ScanForIntegrityIssues(ctx context.Context, guildID string) (*models.Report, error)
	RepairIntegrityIssues(ctx context.Context, issues []models.Issue) *models.RepairResult
}

// Outcome is the result of one guild pass.
type Outcome struct {
	GuildID string
	Report  *models.Report
	Repair  *models.RepairResult
	// Skipped is set when another replica held the guild lock.
	Skipped bool
	Err     error
}

// Scheduler scans guilds on a fixed interval.
type Scheduler struct {
	svc        Service
	guilds     []string
	interval   time.Duration
	autoRepair bool
	locker     *redislock.Client
	lockTTL    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithAutoRepair repairs auto-repairable issues after each scan.
func WithAutoRepair(enabled bool) Option {
	return func(s *Scheduler) {
		s.autoRepair = enabled
	}
}

// WithLocker guards each guild pass with a lock held for at most ttl.
func WithLocker(locker *redislock.Client, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a Scheduler for guilds.
func New(svc Service, guilds []string, opts ...Option) *Scheduler {
	s := &Scheduler{
		svc:      svc,
		guilds:   guilds,
		interval: time.Hour,
		lockTTL:  5 * time.Minute,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs a pass immediately and then once per interval until ctx is
// done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	if len(s.guilds) == 0 {
		s.logger.InfoContext(ctx, "integrity scheduler has no guilds configured")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce scans every configured guild in turn. A failing guild does not
// stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(s.guilds))
	for _, guildID := range s.guilds {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, s.runGuild(ctx, guildID))
	}
	return outcomes
}

func (s *Scheduler) runGuild(ctx context.Context, guildID string) Outcome {
	out := Outcome{GuildID: guildID}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockPrefix+guildID, s.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			s.logger.InfoContext(ctx, "integrity scan already running elsewhere", "guild_id", guildID)
			out.Skipped = true
			return out
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to obtain integrity scan lock", "guild_id", guildID, "error", err)
			out.Err = err
			return out
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				s.logger.WarnContext(ctx, "failed to release integrity scan lock", "guild_id", guildID, "error", err)
			}
		}()
	}

	ctx = requestcontext.WithActorID(ctx, Actor)
	ctx = requestcontext.WithTime(ctx, s.now().UTC())

	report, err := s.svc.ScanForIntegrityIssues(ctx, guildID)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled integrity scan failed", "guild_id", guildID, "error", err)
		out.Err = err
		return out
	}
	out.Report = report

	if s.autoRepair {
		if repairable := report.Repairable(); len(repairable) > 0 {
			out.Repair = s.svc.RepairIntegrityIssues(ctx, repairable)
		}
	}
	return out
}
