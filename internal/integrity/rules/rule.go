// Package rules holds the validation rule contract, the registry that orders
// rules per entity type, and the built-in referential-integrity rules.
package rules

import (
	"context"
	"fmt"
	"time"

	"counsel/internal/integrity/models"
)

// Lookup resolves cross-references for rules. Each method returns an error
// wrapping sentinel.ErrNotFound when the target does not exist in guildID.
type Lookup interface {
	StaffByUserID(ctx context.Context, guildID, userID string) (*models.Staff, error)
	Job(ctx context.Context, guildID, id string) (*models.Job, error)
	Case(ctx context.Context, guildID, id string) (*models.Case, error)
}

// Context carries what a rule may consult besides the entity itself.
type Context struct {
	GuildID string
	Lookup  Lookup
	Now     time.Time
}

// Rule validates one entity type.
//
// Rules run in ascending Priority order within their entity type; rules with
// equal priority run in registration order. Validate may return issues, an
// error, or both; an error is logged by the engine and the rule contributes
// no issues for that entity.
type Rule interface {
	Name() string
	Description() string
	EntityType() models.EntityType
	Priority() int
	Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error)
}

// ValidateFunc is the body of a function-backed rule.
type ValidateFunc func(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error)

type funcRule struct {
	name        string
	description string
	entityType  models.EntityType
	priority    int
	fn          ValidateFunc
}

// NewFunc builds a Rule from a function, the usual way to write custom rules.
func NewFunc(name, description string, entityType models.EntityType, priority int, fn ValidateFunc) Rule {
	return &funcRule{
		name:        name,
		description: description,
		entityType:  entityType,
		priority:    priority,
		fn:          fn,
	}
}

func (r *funcRule) Name() string                  { return r.name }
func (r *funcRule) Description() string           { return r.description }
func (r *funcRule) EntityType() models.EntityType { return r.entityType }
func (r *funcRule) Priority() int                 { return r.priority }

func (r *funcRule) Validate(ctx context.Context, entity models.Entity, rc Context) ([]models.Issue, error) {
	if r.fn == nil {
		return nil, nil
	}
	return r.fn(ctx, entity, rc)
}

func as[T models.Entity](rule string, entity models.Entity) (T, error) {
	typed, ok := entity.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("rule %s: unexpected entity %T", rule, entity)
	}
	return typed, nil
}
