package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"counsel/internal/integrity/models"
	dErrors "counsel/pkg/domain-errors"
)

var validate = validator.New()

// CheckRequest is the body of POST /admin/guilds/{guildID}/integrity/check.
type CheckRequest struct {
	EntityType string          `json:"entity_type" validate:"required"`
	Operation  string          `json:"operation" validate:"required,oneof=create update delete"`
	Entity     json.RawMessage `json:"entity" validate:"required"`

	parsedType   models.EntityType
	parsedOp     models.OperationKind
	parsedEntity models.Entity
}

// Validate checks the request shape and decodes the entity for its type.
// The guild in the path wins over any guild_id in the entity body.
func (r *CheckRequest) Validate(guildID string) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
		}
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}

	t, err := models.ParseEntityType(r.EntityType)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "unknown entity_type")
	}
	r.parsedType = t
	r.parsedOp = models.OperationKind(r.Operation)

	entity, err := decodeEntity(t, r.Entity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid entity")
	}
	setGuild(entity, guildID)
	if entity.EntityID() == "" {
		return dErrors.New(dErrors.CodeValidation, "entity.id is required")
	}
	r.parsedEntity = entity
	return nil
}

func decodeEntity(t models.EntityType, raw json.RawMessage) (models.Entity, error) {
	var entity models.Entity
	switch t {
	case models.EntityStaff:
		entity = &models.Staff{}
	case models.EntityCase:
		entity = &models.Case{}
	case models.EntityApplication:
		entity = &models.Application{}
	case models.EntityJob:
		entity = &models.Job{}
	case models.EntityRetainer:
		entity = &models.Retainer{}
	case models.EntityFeedback:
		entity = &models.Feedback{}
	case models.EntityReminder:
		entity = &models.Reminder{}
	default:
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func setGuild(entity models.Entity, guildID string) {
	switch e := entity.(type) {
	case *models.Staff:
		e.GuildID = guildID
	case *models.Case:
		e.GuildID = guildID
	case *models.Application:
		e.GuildID = guildID
	case *models.Job:
		e.GuildID = guildID
	case *models.Retainer:
		e.GuildID = guildID
	case *models.Feedback:
		e.GuildID = guildID
	case *models.Reminder:
		e.GuildID = guildID
	}
}
