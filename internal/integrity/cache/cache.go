// Package cache memoises per-entity evaluation results for a short TTL so an
// entity validated twice within one logical operation is evaluated once.
// The cache is an optimisation only: disabling it changes cost, never results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"counsel/internal/integrity/models"
)

// DefaultTTL bounds how long a cached evaluation is trusted.
const DefaultTTL = 30 * time.Second

// Key identifies one evaluated version of an entity. Fingerprint covers the
// entity's content, so a candidate that shares an id with a stored record
// never reads or overwrites the stored record's result.
type Key struct {
	EntityType  models.EntityType
	EntityID    string
	Fingerprint string
}

// KeyFor builds the cache key for entity evaluated as t.
func KeyFor(t models.EntityType, entity models.Entity) Key {
	return Key{EntityType: t, EntityID: entity.EntityID(), Fingerprint: Fingerprint(entity)}
}

// Fingerprint hashes the JSON encoding of entity.
func Fingerprint(entity models.Entity) string {
	raw, err := json.Marshal(entity)
	if err != nil {
		raw = fmt.Appendf(nil, "%#v", entity)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:12])
}

func (k Key) String() string {
	return string(k.EntityType) + ":" + k.EntityID + ":" + k.Fingerprint
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, Key) ([]models.Issue, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, Key, []models.Issue) error         { return nil }
func (Nop) Clear(context.Context) error                            { return nil }
