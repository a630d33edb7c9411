// Package repair applies RepairActions through the repository Update
// contracts. Every built-in handler re-reads the record and only writes when
// the offending value is still present; otherwise it returns
// models.ErrAlreadyResolved.
package repair

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
	"counsel/pkg/requestcontext"
)

var ErrUnknownKind = errors.New("no handler for repair kind")

// Handler performs one kind of repair.
type Handler func(ctx context.Context, action models.RepairAction) error

// Transactor runs fn inside a store transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor dispatches actions to handlers by kind.
type Executor struct {
	stores   ports.Stores
	tx       Transactor
	mu       sync.RWMutex
	handlers map[models.RepairKind]Handler
}

type Option func(*Executor)

// WithTransactor wraps every repair in a transaction. Stores lock the row
// they read inside it, so the check against Expected and the write agree.
func WithTransactor(tx Transactor) Option {
	return func(e *Executor) {
		e.tx = tx
	}
}

// New builds an executor with the built-in handlers registered.
func New(stores ports.Stores, opts ...Option) (*Executor, error) {
	if err := stores.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{stores: stores, handlers: make(map[models.RepairKind]Handler)}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers[models.RepairSetStaffStatus] = e.setStaffStatus
	e.handlers[models.RepairClearCaseLeadAttorney] = e.clearLeadAttorney
	e.handlers[models.RepairSetApplicationStatus] = e.setApplicationStatus
	e.handlers[models.RepairClearRetainerLawyer] = e.clearRetainerLawyer
	e.handlers[models.RepairClearFeedbackTarget] = e.clearFeedbackTarget
	e.handlers[models.RepairClearReminderCase] = e.clearReminderCase
	return e, nil
}

// Register installs h for kind, replacing any existing handler.
func (e *Executor) Register(kind models.RepairKind, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[kind] = h
}

// Apply performs action.
func (e *Executor) Apply(ctx context.Context, action models.RepairAction) error {
	e.mu.RLock()
	h, ok := e.handlers[action.Kind]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKind, action.Kind)
	}
	if e.tx == nil {
		return h(ctx, action)
	}
	return e.tx.RunInTx(ctx, func(ctx context.Context) error {
		return h(ctx, action)
	})
}

func (e *Executor) setStaffStatus(ctx context.Context, a models.RepairAction) error {
	staff, err := e.stores.Staff.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load staff %s: %w", a.EntityID, err)
	}
	if string(staff.Status) != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	staff.Status = models.StaffStatus(a.Value)
	staff.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Staff.Update(ctx, staff); err != nil {
		return fmt.Errorf("update staff %s: %w", a.EntityID, err)
	}
	return nil
}

func (e *Executor) clearLeadAttorney(ctx context.Context, a models.RepairAction) error {
	c, err := e.stores.Cases.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load case %s: %w", a.EntityID, err)
	}
	if c.LeadAttorneyID == "" || c.LeadAttorneyID != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	c.LeadAttorneyID = a.Value
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Cases.Update(ctx, c); err != nil {
		return fmt.Errorf("update case %s: %w", a.EntityID, err)
	}
	return nil
}

func (e *Executor) setApplicationStatus(ctx context.Context, a models.RepairAction) error {
	app, err := e.stores.Applications.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load application %s: %w", a.EntityID, err)
	}
	if string(app.Status) != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	app.Status = models.ApplicationStatus(a.Value)
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Applications.Update(ctx, app); err != nil {
		return fmt.Errorf("update application %s: %w", a.EntityID, err)
	}
	return nil
}

func (e *Executor) clearRetainerLawyer(ctx context.Context, a models.RepairAction) error {
	retainer, err := e.stores.Retainers.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load retainer %s: %w", a.EntityID, err)
	}
	if retainer.LawyerID == "" || retainer.LawyerID != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	retainer.LawyerID = a.Value
	retainer.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Retainers.Update(ctx, retainer); err != nil {
		return fmt.Errorf("update retainer %s: %w", a.EntityID, err)
	}
	return nil
}

func (e *Executor) clearFeedbackTarget(ctx context.Context, a models.RepairAction) error {
	fb, err := e.stores.Feedback.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load feedback %s: %w", a.EntityID, err)
	}
	if fb.TargetStaffID == "" || fb.TargetStaffID != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	fb.TargetStaffID = a.Value
	fb.IsForFirm = a.Value == ""
	fb.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Feedback.Update(ctx, fb); err != nil {
		return fmt.Errorf("update feedback %s: %w", a.EntityID, err)
	}
	return nil
}

func (e *Executor) clearReminderCase(ctx context.Context, a models.RepairAction) error {
	reminder, err := e.stores.Reminders.FindByID(ctx, a.EntityID)
	if err != nil {
		return fmt.Errorf("load reminder %s: %w", a.EntityID, err)
	}
	if reminder.CaseID == "" || reminder.CaseID != a.Expected {
		return fmt.Errorf("%s %s: %w", a.EntityType, a.EntityID, models.ErrAlreadyResolved)
	}
	reminder.CaseID = a.Value
	reminder.UpdatedAt = requestcontext.Now(ctx)
	if err := e.stores.Reminders.Update(ctx, reminder); err != nil {
		return fmt.Errorf("update reminder %s: %w", a.EntityID, err)
	}
	return nil
}
