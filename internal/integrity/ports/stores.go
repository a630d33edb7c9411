// Package ports declares the repository contracts the integrity engine reads
// from and repairs through. Implementations live in internal/storage.
//
// FindByID and FindByUserID return an error wrapping sentinel.ErrNotFound when
// no record matches; any other error is a read failure.
package ports

import (
	"context"
	"errors"

	"counsel/internal/integrity/models"
)

type StaffStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	FindByUserID(ctx context.Context, guildID, userID string) (*models.Staff, error)
	Update(ctx context.Context, staff *models.Staff) error
}

type CaseStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Case, error)
	FindByID(ctx context.Context, id string) (*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
}

type ApplicationStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
}

type JobStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Job, error)
	FindByID(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
}

type RetainerStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Retainer, error)
	FindByID(ctx context.Context, id string) (*models.Retainer, error)
	Update(ctx context.Context, retainer *models.Retainer) error
}

type FeedbackStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Feedback, error)
	FindByID(ctx context.Context, id string) (*models.Feedback, error)
	Update(ctx context.Context, feedback *models.Feedback) error
}

type ReminderStore interface {
	FindByGuild(ctx context.Context, guildID string) ([]*models.Reminder, error)
	FindByID(ctx context.Context, id string) (*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
}

// Stores bundles the seven repositories.
type Stores struct {
	Staff        StaffStore
	Cases        CaseStore
	Applications ApplicationStore
	Jobs         JobStore
	Retainers    RetainerStore
	Feedback     FeedbackStore
	Reminders    ReminderStore
}

// Validate ensures every repository is wired.
func (s Stores) Validate() error {
	var errs []error
	if s.Staff == nil {
		errs = append(errs, errors.New("staff store is required"))
	}
	if s.Cases == nil {
		errs = append(errs, errors.New("case store is required"))
	}
	if s.Applications == nil {
		errs = append(errs, errors.New("application store is required"))
	}
	if s.Jobs == nil {
		errs = append(errs, errors.New("job store is required"))
	}
	if s.Retainers == nil {
		errs = append(errs, errors.New("retainer store is required"))
	}
	if s.Feedback == nil {
		errs = append(errs, errors.New("feedback store is required"))
	}
	if s.Reminders == nil {
		errs = append(errs, errors.New("reminder store is required"))
	}
	return errors.Join(errs...)
}
