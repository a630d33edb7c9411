package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "counsel/pkg/platform/audit"
	txcontext "counsel/pkg/platform/tx"
)

// Schema creates the audit table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS integrity_audit (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	guild_id    TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	field       TEXT NOT NULL DEFAULT '',
	repair_kind TEXT NOT NULL DEFAULT '',
	rule        TEXT NOT NULL DEFAULT '',
	severity    TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT '',
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS integrity_audit_guild_ts ON integrity_audit (guild_id, timestamp DESC);
`

// Store implements audit.Store on PostgreSQL. Appends join the transaction
// carried by the context, so a repair and its audit row commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an entry. Re-appending the same ID is ignored.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO integrity_audit (
			id, action, guild_id, entity_type, entity_id, field,
			repair_kind, rule, severity, message, request_id, actor_id, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		entry.ID,
		string(entry.Action),
		entry.GuildID,
		entry.EntityType,
		entry.EntityID,
		entry.Field,
		entry.RepairKind,
		entry.Rule,
		entry.Severity,
		entry.Message,
		entry.RequestID,
		entry.ActorID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByGuild returns a guild's entries, oldest first.
func (s *Store) ListByGuild(ctx context.Context, guildID string) ([]audit.Entry, error) {
	query := `
		SELECT id, action, guild_id, entity_type, entity_id, field,
			   repair_kind, rule, severity, message, request_id, actor_id, timestamp
		FROM integrity_audit
		WHERE guild_id = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e      audit.Entry
			action string
		)
		if err := rows.Scan(
			&e.ID,
			&action,
			&e.GuildID,
			&e.EntityType,
			&e.EntityID,
			&e.Field,
			&e.RepairKind,
			&e.Rule,
			&e.Severity,
			&e.Message,
			&e.RequestID,
			&e.ActorID,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
