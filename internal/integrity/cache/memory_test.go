package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewMemory(10*time.Second, WithClock(clock.Now))
	key := Key{EntityType: models.EntityCase, EntityID: "case-1"}
	issues := []models.Issue{{Severity: models.SeverityCritical, EntityID: "case-1", Message: "Lead attorney u1 not found in staff"}}

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit within ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, key, issues))
		clock.Advance(9 * time.Second)
		got, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, issues, got)
	})

	t.Run("miss once ttl elapsed", func(t *testing.T) {
		clock.Advance(time.Second)
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty result is cached as a hit", func(t *testing.T) {
		clean := Key{EntityType: models.EntityStaff, EntityID: "staff-1"}
		require.NoError(t, c.Set(ctx, clean, nil))
		got, ok, err := c.Get(ctx, clean)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	key := Key{EntityType: models.EntityJob, EntityID: "job-1"}
	issues := []models.Issue{{Message: "original"}}
	require.NoError(t, c.Set(ctx, key, issues))

	issues[0].Message = "mutated by caller"
	got, _, _ := c.Get(ctx, key)
	assert.Equal(t, "original", got[0].Message)

	got[0].Message = "mutated after read"
	again, _, _ := c.Get(ctx, key)
	assert.Equal(t, "original", again[0].Message)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, Key{EntityType: models.EntityReminder, EntityID: id}, nil))
	}
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	_, ok, _ := c.Get(ctx, Key{EntityType: models.EntityReminder, EntityID: "a"})
	assert.False(t, ok)
}

func TestMemory_DefaultTTL(t *testing.T) {
	c := NewMemory(0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Nop
	require.NoError(t, c.Set(ctx, Key{EntityType: models.EntityCase, EntityID: "x"}, []models.Issue{{}}))
	_, ok, err := c.Get(ctx, Key{EntityType: models.EntityCase, EntityID: "x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyFor_TracksContent(t *testing.T) {
	stored := &models.Case{Base: models.Base{ID: "c1", GuildID: "g1"}, LeadAttorneyID: "u1"}
	same := &models.Case{Base: models.Base{ID: "c1", GuildID: "g1"}, LeadAttorneyID: "u1"}
	edited := &models.Case{Base: models.Base{ID: "c1", GuildID: "g1"}, LeadAttorneyID: "ghost"}

	assert.Equal(t, KeyFor(models.EntityCase, stored), KeyFor(models.EntityCase, same))
	assert.NotEqual(t, KeyFor(models.EntityCase, stored), KeyFor(models.EntityCase, edited))

	ctx := context.Background()
	c := NewMemory(time.Minute)
	require.NoError(t, c.Set(ctx, KeyFor(models.EntityCase, stored), nil))

	_, ok, err := c.Get(ctx, KeyFor(models.EntityCase, edited))
	require.NoError(t, err)
	assert.False(t, ok, "an edited entity must miss")

	_, ok, err = c.Get(ctx, KeyFor(models.EntityCase, same))
	require.NoError(t, err)
	assert.True(t, ok)
}
