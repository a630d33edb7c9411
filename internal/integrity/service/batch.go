package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	"counsel/pkg/requestcontext"
)

// BatchItem is one entity submitted for batch validation.
type BatchItem struct {
	Entity models.Entity
	Type   models.EntityType
}

// BatchValidate evaluates each item, reusing cached results. The result is
// keyed by entity id and omits entities with no issues, so an empty map means
// every item is clean. References resolve through the stores.
func (s *Service) BatchValidate(ctx context.Context, items []BatchItem) (map[string][]models.Issue, error) {
	for i, item := range items {
		if err := checkEntity(item.Entity, item.Type); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("batch item %d", i))
		}
	}
	ctx, span := s.tracer.Start(ctx, "integrity.batch_validate")
	defer span.End()

	lookup := newStoreLookup(s.stores)
	now := requestcontext.Now(ctx)
	out := make(map[string][]models.Issue)
	for _, item := range items {
		rc := rules.Context{GuildID: item.Entity.Guild(), Lookup: lookup, Now: now}
		issues := s.evaluate(ctx, item.Entity, item.Type, rc, true)
		if len(issues) == 0 {
			continue
		}
		id := item.Entity.EntityID()
		out[id] = append(out[id], issues...)
	}
	span.SetAttributes(
		attribute.Int("batch.size", len(items)),
		attribute.Int("batch.dirty", len(out)),
	)
	return out, nil
}
