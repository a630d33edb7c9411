package models

import (
	"fmt"
	"time"
)

// EntityType tags the seven guild-scoped record kinds the engine validates.
type EntityType string

const (
	EntityStaff       EntityType = "staff"
	EntityCase        EntityType = "case"
	EntityApplication EntityType = "application"
	EntityJob         EntityType = "job"
	EntityRetainer    EntityType = "retainer"
	EntityFeedback    EntityType = "feedback"
	EntityReminder    EntityType = "reminder"
)

// EntityTypes lists every type in the order scans report them.
var EntityTypes = []EntityType{
	EntityStaff,
	EntityCase,
	EntityApplication,
	EntityJob,
	EntityRetainer,
	EntityFeedback,
	EntityReminder,
}

func (t EntityType) String() string { return string(t) }

// IsValid reports whether t is one of the known entity types.
func (t EntityType) IsValid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEntityType converts user input into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// Entity is implemented by every validated record.
type Entity interface {
	EntityID() string
	Guild() string
	Type() EntityType
}

// Base holds the fields every record shares.
type Base struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b Base) EntityID() string { return b.ID }
func (b Base) Guild() string    { return b.GuildID }
