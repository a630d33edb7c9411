package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/platform/config"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when unconfigured", func(t *testing.T) {
		c, err := New(ctx, config.Redis{})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("connects and reports health", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, err := New(ctx, config.Redis{URL: "redis://" + mr.Addr(), PoolSize: 2})
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		assert.NoError(t, c.Health(ctx))
	})

	t.Run("rejects a malformed URL", func(t *testing.T) {
		_, err := New(ctx, config.Redis{URL: "://nope"})
		require.Error(t, err)
	})
}
