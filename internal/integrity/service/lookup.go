package service

import (
	"context"
	"fmt"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
	"counsel/pkg/platform/sentinel"
)

func notFound(t models.EntityType, id string) error {
	return fmt.Errorf("%s %s: %w", t, id, sentinel.ErrNotFound)
}

// storeLookup resolves references through the repositories. Records found in
// another guild are reported as missing.
type storeLookup struct {
	stores ports.Stores
}

func newStoreLookup(stores ports.Stores) *storeLookup {
	return &storeLookup{stores: stores}
}

func (l *storeLookup) StaffByUserID(ctx context.Context, guildID, userID string) (*models.Staff, error) {
	return l.stores.Staff.FindByUserID(ctx, guildID, userID)
}

func (l *storeLookup) Job(ctx context.Context, guildID, id string) (*models.Job, error) {
	job, err := l.stores.Jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.GuildID != guildID {
		return nil, notFound(models.EntityJob, id)
	}
	return job, nil
}

func (l *storeLookup) Case(ctx context.Context, guildID, id string) (*models.Case, error) {
	c, err := l.stores.Cases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.GuildID != guildID {
		return nil, notFound(models.EntityCase, id)
	}
	return c, nil
}

// snapshot is one guild's records as fetched by a scan.
type snapshot struct {
	guildID      string
	staff        []*models.Staff
	cases        []*models.Case
	applications []*models.Application
	jobs         []*models.Job
	retainers    []*models.Retainer
	feedback     []*models.Feedback
	reminders    []*models.Reminder
}

// entities returns the snapshot's records grouped in scan order.
func (s *snapshot) entities() map[models.EntityType][]models.Entity {
	out := make(map[models.EntityType][]models.Entity, len(models.EntityTypes))
	out[models.EntityStaff] = toEntities(s.staff)
	out[models.EntityCase] = toEntities(s.cases)
	out[models.EntityApplication] = toEntities(s.applications)
	out[models.EntityJob] = toEntities(s.jobs)
	out[models.EntityRetainer] = toEntities(s.retainers)
	out[models.EntityFeedback] = toEntities(s.feedback)
	out[models.EntityReminder] = toEntities(s.reminders)
	return out
}

func toEntities[T models.Entity](rows []T) []models.Entity {
	out := make([]models.Entity, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// snapshotLookup resolves references against a scan snapshot so a scan sees
// one consistent view without per-reference reads.
type snapshotLookup struct {
	guildID     string
	staffByUser map[string]*models.Staff
	jobs        map[string]*models.Job
	cases       map[string]*models.Case
}

func newSnapshotLookup(s *snapshot) *snapshotLookup {
	l := &snapshotLookup{
		guildID:     s.guildID,
		staffByUser: make(map[string]*models.Staff, len(s.staff)),
		jobs:        make(map[string]*models.Job, len(s.jobs)),
		cases:       make(map[string]*models.Case, len(s.cases)),
	}
	for _, st := range s.staff {
		if _, dup := l.staffByUser[st.UserID]; !dup {
			l.staffByUser[st.UserID] = st
		}
	}
	for _, j := range s.jobs {
		l.jobs[j.ID] = j
	}
	for _, c := range s.cases {
		l.cases[c.ID] = c
	}
	return l
}

func (l *snapshotLookup) StaffByUserID(_ context.Context, guildID, userID string) (*models.Staff, error) {
	if st, ok := l.staffByUser[userID]; ok && guildID == l.guildID {
		return st, nil
	}
	return nil, notFound(models.EntityStaff, userID)
}

func (l *snapshotLookup) Job(_ context.Context, guildID, id string) (*models.Job, error) {
	if j, ok := l.jobs[id]; ok && guildID == l.guildID {
		return j, nil
	}
	return nil, notFound(models.EntityJob, id)
}

func (l *snapshotLookup) Case(_ context.Context, guildID, id string) (*models.Case, error) {
	if c, ok := l.cases[id]; ok && guildID == l.guildID {
		return c, nil
	}
	return nil, notFound(models.EntityCase, id)
}
