package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl), mr, client
}

func TestRedis_RoundTripsRepairActions(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newRedisCache(t, time.Minute)

	reminder := &models.Reminder{Base: models.Base{ID: "rem-1", GuildID: "g1"}, CaseID: "case-gone"}
	issue := models.NewIssue(reminder, models.SeverityWarning, "caseId", "Case case-gone not found").
		WithRepair(models.ClearReminderCase(reminder))
	key := KeyFor(models.EntityReminder, reminder)

	require.NoError(t, c.Set(ctx, key, []models.Issue{issue}))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, issue, got[0])
	assert.True(t, got[0].Repairable())
}

func TestRedis_ExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newRedisCache(t, 5*time.Second)
	key := Key{EntityType: models.EntityStaff, EntityID: "s1"}

	require.NoError(t, c.Set(ctx, key, nil))
	mr.FastForward(6 * time.Second)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ClearOnlyTouchesPrefix(t *testing.T) {
	ctx := context.Background()
	c, _, client := newRedisCache(t, time.Minute)

	for i := range 450 {
		key := Key{EntityType: models.EntityCase, EntityID: time.Duration(i).String()}
		require.NoError(t, c.Set(ctx, key, nil))
	}
	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())

	require.NoError(t, c.Clear(ctx))

	keys, err := client.Keys(ctx, DefaultPrefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
	val, err := client.Get(ctx, "unrelated").Result()
	require.NoError(t, err)
	assert.Equal(t, "keep", val)
}

func TestRedis_UnavailableSurfacesError(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newRedisCache(t, time.Minute)
	mr.Close()

	_, ok, err := c.Get(ctx, Key{EntityType: models.EntityJob, EntityID: "j"})
	assert.Error(t, err)
	assert.False(t, ok)
}
