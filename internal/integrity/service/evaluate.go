package service

import (
	"context"
	"fmt"

	"counsel/internal/integrity/cache"
	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	"counsel/pkg/requestcontext"
)

// Evaluate runs every rule registered for t against entity. A cached result
// younger than the cache TTL is returned without re-running rules. Zero
// fields of rc are filled in: the guild from the entity, lookups from the
// stores, and the clock from the request context.
func (s *Service) Evaluate(ctx context.Context, entity models.Entity, t models.EntityType, rc rules.Context) ([]models.Issue, error) {
	if err := checkEntity(entity, t); err != nil {
		return nil, err
	}
	return s.evaluate(ctx, entity, t, s.ruleContext(ctx, entity, rc), true), nil
}

func checkEntity(entity models.Entity, t models.EntityType) error {
	if entity == nil {
		return dErrors.New(dErrors.CodeBadRequest, "entity is required")
	}
	if !t.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown entity type %q", t))
	}
	return nil
}

func (s *Service) ruleContext(ctx context.Context, entity models.Entity, rc rules.Context) rules.Context {
	if rc.GuildID == "" {
		rc.GuildID = entity.Guild()
	}
	if rc.Lookup == nil {
		rc.Lookup = newStoreLookup(s.stores)
	}
	if rc.Now.IsZero() {
		rc.Now = requestcontext.Now(ctx)
	}
	return rc
}

// evaluate never fails: cache errors degrade to a miss and rule failures
// contribute no issues.
func (s *Service) evaluate(ctx context.Context, entity models.Entity, t models.EntityType, rc rules.Context, useCache bool) []models.Issue {
	key := cache.KeyFor(t, entity)
	if useCache {
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncrementCacheLookup("error")
			s.logger.WarnContext(ctx, "integrity cache read failed", "key", key.String(), "error", err)
		case ok:
			s.metrics.IncrementCacheLookup("hit")
			return cached
		default:
			s.metrics.IncrementCacheLookup("miss")
		}
	}

	var issues []models.Issue
	for _, rule := range s.registry.For(t) {
		issues = append(issues, s.runRule(ctx, rule, entity, t, rc)...)
	}

	if useCache {
		if err := s.cache.Set(ctx, key, issues); err != nil {
			s.logger.WarnContext(ctx, "integrity cache write failed", "key", key.String(), "error", err)
		}
	}
	return issues
}

// runRule isolates a single rule: an error or panic is logged, counted, and
// yields no issues.
func (s *Service) runRule(ctx context.Context, rule rules.Rule, entity models.Entity, t models.EntityType, rc rules.Context) (issues []models.Issue) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncrementRuleFailure(rule.Name())
			s.logger.ErrorContext(ctx, "integrity rule panicked",
				"rule", rule.Name(),
				"entity_type", t,
				"entity_id", entity.EntityID(),
				"panic", fmt.Sprint(r),
			)
			issues = nil
		}
	}()

	found, err := rule.Validate(ctx, entity, rc)
	if err != nil {
		s.metrics.IncrementRuleFailure(rule.Name())
		s.logger.WarnContext(ctx, "integrity rule failed",
			"rule", rule.Name(),
			"entity_type", t,
			"entity_id", entity.EntityID(),
			"error", err,
		)
		return nil
	}

	for i := range found {
		if found[i].Rule == "" {
			found[i].Rule = rule.Name()
		}
		if found[i].EntityType == "" {
			found[i].EntityType = t
		}
		if found[i].EntityID == "" {
			found[i].EntityID = entity.EntityID()
		}
		if found[i].GuildID == "" {
			found[i].GuildID = entity.Guild()
		}
	}
	return found
}
