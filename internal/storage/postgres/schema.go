package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the guild-scoped tables. It is idempotent. References are
// deliberately not foreign keys: the integrity engine exists to find and
// repair the dangling ones.
const Schema = `
CREATE TABLE IF NOT EXISTS staff (
	id         TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	username   TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	hired_at   TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS staff_guild_user ON staff (guild_id, user_id);

CREATE TABLE IF NOT EXISTS cases (
	id                  TEXT PRIMARY KEY,
	guild_id            TEXT NOT NULL,
	case_number         TEXT NOT NULL DEFAULT '',
	client_id           TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	lead_attorney_id    TEXT NOT NULL DEFAULT '',
	assigned_lawyer_ids TEXT[] NOT NULL DEFAULT '{}',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS cases_guild ON cases (guild_id);

CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	role_id    TEXT NOT NULL DEFAULT '',
	is_open    BOOLEAN NOT NULL,
	closed_at  TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_guild ON jobs (guild_id);

CREATE TABLE IF NOT EXISTS applications (
	id           TEXT PRIMARY KEY,
	guild_id     TEXT NOT NULL,
	job_id       TEXT NOT NULL,
	applicant_id TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_guild ON applications (guild_id);

CREATE TABLE IF NOT EXISTS retainers (
	id         TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	client_id  TEXT NOT NULL,
	lawyer_id  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS retainers_guild ON retainers (guild_id);

CREATE TABLE IF NOT EXISTS feedback (
	id              TEXT PRIMARY KEY,
	guild_id        TEXT NOT NULL,
	submitter_id    TEXT NOT NULL,
	target_staff_id TEXT NOT NULL DEFAULT '',
	rating          INTEGER NOT NULL,
	comment         TEXT NOT NULL DEFAULT '',
	is_for_firm     BOOLEAN NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS feedback_guild ON feedback (guild_id);

CREATE TABLE IF NOT EXISTS reminders (
	id            TEXT PRIMARY KEY,
	guild_id      TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	case_id       TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	scheduled_for TIMESTAMPTZ NOT NULL,
	is_active     BOOLEAN NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reminders_guild ON reminders (guild_id);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
