package rules

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"counsel/internal/integrity/models"
)

var (
	ErrNilRule           = errors.New("rule is required")
	ErrUnnamedRule       = errors.New("rule name is required")
	ErrUnknownEntityType = errors.New("rule targets an unknown entity type")
)

type registered struct {
	rule Rule
	seq  uint64
}

// Registry holds rules keyed by name and grouped by entity type. Names are
// unique: registering a rule under an existing name replaces the old rule,
// even when the new one targets a different entity type.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]registered
	byType map[models.EntityType][]registered
	seq    uint64
}

// NewRegistry returns a registry holding rules, in order.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]registered),
		byType: make(map[models.EntityType][]registered),
	}
	for _, rule := range rules {
		if _, err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register inserts rule, replacing any rule with the same name. It reports
// whether a rule was replaced.
func (r *Registry) Register(rule Rule) (bool, error) {
	if rule == nil {
		return false, ErrNilRule
	}
	if rule.Name() == "" {
		return false, ErrUnnamedRule
	}
	if !rule.EntityType().IsValid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownEntityType, rule.EntityType())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.byName[rule.Name()]
	if replaced {
		r.removeLocked(rule.Name())
	}

	r.seq++
	entry := registered{rule: rule, seq: r.seq}
	r.byName[rule.Name()] = entry

	list := append(r.byType[rule.EntityType()], entry)
	slices.SortStableFunc(list, func(a, b registered) int {
		if c := cmp.Compare(a.rule.Priority(), b.rule.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	r.byType[rule.EntityType()] = list
	return replaced, nil
}

// Remove deletes the named rule. It reports whether the rule existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return false
	}
	r.removeLocked(name)
	return true
}

func (r *Registry) removeLocked(name string) {
	old := r.byName[name]
	delete(r.byName, name)
	t := old.rule.EntityType()
	r.byType[t] = slices.DeleteFunc(r.byType[t], func(e registered) bool {
		return e.rule.Name() == name
	})
}

// For returns the rules for t in evaluation order.
func (r *Registry) For(t models.EntityType) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byType[t]
	out := make([]Rule, len(list))
	for i, e := range list {
		out[i] = e.rule
	}
	return out
}

// Get returns the named rule.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e.rule, ok
}

// All returns every rule, grouped by entity type in scan order.
func (r *Registry) All() []Rule {
	var out []Rule
	for _, t := range models.EntityTypes {
		out = append(out, r.For(t)...)
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
