package storage

import (
	"context"
	"slices"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
)

// In-memory stores back dev mode and tests. They favour clarity over
// performance.

type InMemoryStaffStore struct{ t *table[*models.Staff] }

func NewInMemoryStaffStore() *InMemoryStaffStore {
	return &InMemoryStaffStore{t: newTable(models.EntityStaff, func(s *models.Staff) *models.Staff {
		c := *s
		return &c
	})}
}

func (s *InMemoryStaffStore) Save(_ context.Context, staff *models.Staff) error {
	s.t.save(staff)
	return nil
}

func (s *InMemoryStaffStore) Update(_ context.Context, staff *models.Staff) error {
	return s.t.update(staff)
}

func (s *InMemoryStaffStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryStaffStore) FindByID(_ context.Context, id string) (*models.Staff, error) {
	return s.t.byID(id)
}

func (s *InMemoryStaffStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Staff, error) {
	return s.t.byGuild(ctx, guildID)
}

// FindByUserID returns the guild's staff record for an external user id.
func (s *InMemoryStaffStore) FindByUserID(_ context.Context, guildID, userID string) (*models.Staff, error) {
	matches := s.t.where(func(st *models.Staff) bool {
		return st.GuildID == guildID && st.UserID == userID
	})
	if len(matches) == 0 {
		return nil, NotFound(models.EntityStaff, userID)
	}
	return matches[0], nil
}

type InMemoryCaseStore struct{ t *table[*models.Case] }

func NewInMemoryCaseStore() *InMemoryCaseStore {
	return &InMemoryCaseStore{t: newTable(models.EntityCase, func(c *models.Case) *models.Case {
		cp := *c
		cp.AssignedLawyerIDs = slices.Clone(c.AssignedLawyerIDs)
		return &cp
	})}
}

func (s *InMemoryCaseStore) Save(_ context.Context, c *models.Case) error {
	s.t.save(c)
	return nil
}

func (s *InMemoryCaseStore) Update(_ context.Context, c *models.Case) error {
	return s.t.update(c)
}

func (s *InMemoryCaseStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryCaseStore) FindByID(_ context.Context, id string) (*models.Case, error) {
	return s.t.byID(id)
}

func (s *InMemoryCaseStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Case, error) {
	return s.t.byGuild(ctx, guildID)
}

type InMemoryApplicationStore struct{ t *table[*models.Application] }

func NewInMemoryApplicationStore() *InMemoryApplicationStore {
	return &InMemoryApplicationStore{t: newTable(models.EntityApplication, func(a *models.Application) *models.Application {
		c := *a
		return &c
	})}
}

func (s *InMemoryApplicationStore) Save(_ context.Context, app *models.Application) error {
	s.t.save(app)
	return nil
}

func (s *InMemoryApplicationStore) Update(_ context.Context, app *models.Application) error {
	return s.t.update(app)
}

func (s *InMemoryApplicationStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryApplicationStore) FindByID(_ context.Context, id string) (*models.Application, error) {
	return s.t.byID(id)
}

func (s *InMemoryApplicationStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Application, error) {
	return s.t.byGuild(ctx, guildID)
}

type InMemoryJobStore struct{ t *table[*models.Job] }

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{t: newTable(models.EntityJob, func(j *models.Job) *models.Job {
		c := *j
		if j.ClosedAt != nil {
			closed := *j.ClosedAt
			c.ClosedAt = &closed
		}
		return &c
	})}
}

func (s *InMemoryJobStore) Save(_ context.Context, job *models.Job) error {
	s.t.save(job)
	return nil
}

func (s *InMemoryJobStore) Update(_ context.Context, job *models.Job) error {
	return s.t.update(job)
}

func (s *InMemoryJobStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryJobStore) FindByID(_ context.Context, id string) (*models.Job, error) {
	return s.t.byID(id)
}

func (s *InMemoryJobStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Job, error) {
	return s.t.byGuild(ctx, guildID)
}

type InMemoryRetainerStore struct{ t *table[*models.Retainer] }

func NewInMemoryRetainerStore() *InMemoryRetainerStore {
	return &InMemoryRetainerStore{t: newTable(models.EntityRetainer, func(r *models.Retainer) *models.Retainer {
		c := *r
		return &c
	})}
}

func (s *InMemoryRetainerStore) Save(_ context.Context, r *models.Retainer) error {
	s.t.save(r)
	return nil
}

func (s *InMemoryRetainerStore) Update(_ context.Context, r *models.Retainer) error {
	return s.t.update(r)
}

func (s *InMemoryRetainerStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryRetainerStore) FindByID(_ context.Context, id string) (*models.Retainer, error) {
	return s.t.byID(id)
}

func (s *InMemoryRetainerStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Retainer, error) {
	return s.t.byGuild(ctx, guildID)
}

type InMemoryFeedbackStore struct{ t *table[*models.Feedback] }

func NewInMemoryFeedbackStore() *InMemoryFeedbackStore {
	return &InMemoryFeedbackStore{t: newTable(models.EntityFeedback, func(f *models.Feedback) *models.Feedback {
		c := *f
		return &c
	})}
}

func (s *InMemoryFeedbackStore) Save(_ context.Context, f *models.Feedback) error {
	s.t.save(f)
	return nil
}

func (s *InMemoryFeedbackStore) Update(_ context.Context, f *models.Feedback) error {
	return s.t.update(f)
}

func (s *InMemoryFeedbackStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryFeedbackStore) FindByID(_ context.Context, id string) (*models.Feedback, error) {
	return s.t.byID(id)
}

func (s *InMemoryFeedbackStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Feedback, error) {
	return s.t.byGuild(ctx, guildID)
}

type InMemoryReminderStore struct{ t *table[*models.Reminder] }

func NewInMemoryReminderStore() *InMemoryReminderStore {
	return &InMemoryReminderStore{t: newTable(models.EntityReminder, func(r *models.Reminder) *models.Reminder {
		c := *r
		return &c
	})}
}

func (s *InMemoryReminderStore) Save(_ context.Context, r *models.Reminder) error {
	s.t.save(r)
	return nil
}

func (s *InMemoryReminderStore) Update(_ context.Context, r *models.Reminder) error {
	return s.t.update(r)
}

func (s *InMemoryReminderStore) Delete(_ context.Context, id string) error {
	return s.t.remove(id)
}

func (s *InMemoryReminderStore) FindByID(_ context.Context, id string) (*models.Reminder, error) {
	return s.t.byID(id)
}

func (s *InMemoryReminderStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Reminder, error) {
	return s.t.byGuild(ctx, guildID)
}

// InMemory groups one store per entity type.
type InMemory struct {
	Staff        *InMemoryStaffStore
	Cases        *InMemoryCaseStore
	Applications *InMemoryApplicationStore
	Jobs         *InMemoryJobStore
	Retainers    *InMemoryRetainerStore
	Feedback     *InMemoryFeedbackStore
	Reminders    *InMemoryReminderStore
}

func NewInMemory() *InMemory {
	return &InMemory{
		Staff:        NewInMemoryStaffStore(),
		Cases:        NewInMemoryCaseStore(),
		Applications: NewInMemoryApplicationStore(),
		Jobs:         NewInMemoryJobStore(),
		Retainers:    NewInMemoryRetainerStore(),
		Feedback:     NewInMemoryFeedbackStore(),
		Reminders:    NewInMemoryReminderStore(),
	}
}

// Ports exposes the stores through the integrity engine's contracts.
func (m *InMemory) Ports() ports.Stores {
	return ports.Stores{
		Staff:        m.Staff,
		Cases:        m.Cases,
		Applications: m.Applications,
		Jobs:         m.Jobs,
		Retainers:    m.Retainers,
		Feedback:     m.Feedback,
		Reminders:    m.Reminders,
	}
}

// RunInTx runs fn directly; in-memory writes are applied one row at a time.
func (m *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
