package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action names what was done to a record.
type Action string

const (
	// ActionIntegrityRepair records an automatic referential-integrity fix.
	ActionIntegrityRepair Action = "integrity_repair"
)

// Entry is one audit trail record. It is transport-agnostic so stores and
// sinks can fan out.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Action     Action    `json:"action"`
	GuildID    string    `json:"guild_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Field      string    `json:"field,omitempty"`
	RepairKind string    `json:"repair_kind,omitempty"`
	Rule       string    `json:"rule,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	Message    string    `json:"message"`
	// RequestID correlates the entry with the HTTP request or CLI run.
	RequestID string `json:"request_id,omitempty"`
	// ActorID is the operator that triggered the repair, when known.
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Appender persists or forwards entries.
type Appender interface {
	Append(ctx context.Context, entry Entry) error
}

// Store is an Appender that can also list a guild's trail.
type Store interface {
	Appender
	ListByGuild(ctx context.Context, guildID string) ([]Entry, error)
}

// Multi appends to every appender in order and joins their errors.
type Multi []Appender

func (m Multi) Append(ctx context.Context, entry Entry) error {
	var errs []error
	for _, a := range m {
		if err := a.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
