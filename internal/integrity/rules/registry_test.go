package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
)

func noop(name string, t models.EntityType, priority int) Rule {
	return NewFunc(name, "", t, priority, nil)
}

func names(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Name())
	}
	return out
}

func TestRegistryOrdering(t *testing.T) {
	reg, err := NewRegistry(
		noop("b", models.EntityCase, 20),
		noop("a", models.EntityCase, 10),
		noop("c", models.EntityCase, 20),
		noop("s", models.EntityStaff, 1),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, names(reg.For(models.EntityCase)))
	assert.Equal(t, []string{"s"}, names(reg.For(models.EntityStaff)))
	assert.Empty(t, reg.For(models.EntityJob))
	assert.Equal(t, 4, reg.Len())
}

func TestRegistryReplace(t *testing.T) {
	reg, err := NewRegistry(noop("a", models.EntityCase, 10), noop("b", models.EntityCase, 20))
	require.NoError(t, err)

	t.Run("same name replaces and reorders", func(t *testing.T) {
		replaced, err := reg.Register(noop("a", models.EntityCase, 30))
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, []string{"b", "a"}, names(reg.For(models.EntityCase)))
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("replacement may move to another entity type", func(t *testing.T) {
		replaced, err := reg.Register(noop("b", models.EntityJob, 1))
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, []string{"a"}, names(reg.For(models.EntityCase)))
		assert.Equal(t, []string{"b"}, names(reg.For(models.EntityJob)))
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, reg.Remove("a"))
		assert.False(t, reg.Remove("a"))
		_, ok := reg.Get("a")
		assert.False(t, ok)
		assert.Empty(t, reg.For(models.EntityCase))
	})
}

func TestRegistryRejectsInvalidRules(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Register(nil)
	assert.ErrorIs(t, err, ErrNilRule)
	_, err = reg.Register(noop("", models.EntityCase, 1))
	assert.ErrorIs(t, err, ErrUnnamedRule)
	_, err = reg.Register(noop("x", "invoice", 1))
	assert.ErrorIs(t, err, ErrUnknownEntityType)
	assert.Zero(t, reg.Len())
}

func TestFuncRuleWithoutBody(t *testing.T) {
	issues, err := noop("a", models.EntityCase, 1).Validate(context.Background(), &models.Case{}, Context{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}
