// Package service is the integrity engine: it evaluates guild records against
// the rule registry, scans whole guilds, repairs what it safely can, and
// answers pre-operation checks.
package service

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"counsel/internal/integrity/cache"
	"counsel/internal/integrity/metrics"
	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
	"counsel/internal/integrity/repair"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	audit "counsel/pkg/platform/audit"
)

const tracerName = "counsel/internal/integrity/service"

// ResultCache memoises evaluation results per entity.
type ResultCache interface {
	Get(ctx context.Context, key cache.Key) ([]models.Issue, bool, error)
	Set(ctx context.Context, key cache.Key, issues []models.Issue) error
	Clear(ctx context.Context) error
}

// AuditPublisher records successful repairs.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Repairer applies a single repair action.
type Repairer interface {
	Apply(ctx context.Context, action models.RepairAction) error
}

// Service owns the rule registry and result cache for one process.
type Service struct {
	stores         ports.Stores
	registry       *rules.Registry
	cache          ResultCache
	repairer       Repairer
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	builtinOpts   rules.BuiltinOptions
	disabledRules []string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache replaces the default in-process TTL cache. Pass cache.Nop{} to
// disable caching.
func WithCache(c ResultCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithRepairer replaces the default store-backed repair executor.
func WithRepairer(r Repairer) Option {
	return func(s *Service) {
		s.repairer = r
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithBuiltinOptions tunes the built-in staff status rule.
func WithBuiltinOptions(opts rules.BuiltinOptions) Option {
	return func(s *Service) {
		s.builtinOpts = opts
	}
}

// WithDisabledRules drops the named built-in rules at construction.
func WithDisabledRules(names ...string) Option {
	return func(s *Service) {
		s.disabledRules = append(s.disabledRules, names...)
	}
}

// New constructs a Service with the built-in rules registered.
func New(stores ports.Stores, opts ...Option) (*Service, error) {
	if err := stores.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "incomplete store wiring")
	}
	s := &Service{
		stores:      stores,
		builtinOpts: rules.DefaultBuiltinOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory(cache.DefaultTTL)
	}
	if s.repairer == nil {
		executor, err := repair.New(stores)
		if err != nil {
			return nil, err
		}
		s.repairer = executor
	}

	registry, err := rules.NewRegistry(rules.Builtins(s.builtinOpts)...)
	if err != nil {
		return nil, err
	}
	for _, name := range s.disabledRules {
		if !registry.Remove(name) {
			s.logger.Warn("disabled rule is not registered", "rule", name)
		}
	}
	s.registry = registry
	return s, nil
}

// AddCustomRule registers rule, replacing any rule with the same name. The
// result cache is cleared so later evaluations see the new rule set.
func (s *Service) AddCustomRule(ctx context.Context, rule rules.Rule) error {
	replaced, err := s.registry.Register(rule)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid rule")
	}
	s.clearCache(ctx)
	s.logger.InfoContext(ctx, "integrity rule registered",
		"rule", rule.Name(),
		"entity_type", rule.EntityType(),
		"priority", rule.Priority(),
		"replaced", replaced,
	)
	return nil
}

// RemoveRule unregisters the named rule and reports whether it existed.
func (s *Service) RemoveRule(ctx context.Context, name string) bool {
	if !s.registry.Remove(name) {
		return false
	}
	s.clearCache(ctx)
	s.logger.InfoContext(ctx, "integrity rule removed", "rule", name)
	return true
}

// Rules lists the rules for t in evaluation order, or every rule when t is
// empty.
func (s *Service) Rules(t models.EntityType) []rules.Rule {
	if t == "" {
		return s.registry.All()
	}
	return s.registry.For(t)
}

// DisabledRules reports the names dropped at construction.
func (s *Service) DisabledRules() []string {
	return slices.Clone(s.disabledRules)
}

func (s *Service) clearCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear integrity cache", "error", err)
	}
}
