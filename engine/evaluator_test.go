package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/engine"
)

func registryIDs(r *engine.Registry) []string {
	var ids []string
	for _, e := range r.Evaluators() {
		ids = append(ids, e.ID())
	}
	return ids
}

func TestRegistry_KeepsRegistrationOrder(t *testing.T) {
	reg, err := engine.NewRegistry(
		&fixedEvaluator{id: "z"},
		&fixedEvaluator{id: "a"},
		&fixedEvaluator{id: "m"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, registryIDs(reg))
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_DuplicateID_Conflict(t *testing.T) {
	_, err := engine.NewRegistry(&fixedEvaluator{id: "a"}, &fixedEvaluator{id: "a"})

	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))
}

func TestRegistry_Replace_InPlace(t *testing.T) {
	reg, err := engine.NewRegistry(&fixedEvaluator{id: "a"}, &fixedEvaluator{id: "b", cashback: 1})
	require.NoError(t, err)

	reg.Replace(&fixedEvaluator{id: "b", cashback: 99})
	reg.Replace(&fixedEvaluator{id: "c"})

	assert.Equal(t, []string{"a", "b", "c"}, registryIDs(reg))
	b, err := reg.Lookup("b")
	require.NoError(t, err)
	assert.Equal(t, 99.0, b.(*fixedEvaluator).cashback)
}

func TestRegistry_Remove(t *testing.T) {
	reg, err := engine.NewRegistry(&fixedEvaluator{id: "a"}, &fixedEvaluator{id: "b"}, &fixedEvaluator{id: "c"})
	require.NoError(t, err)
	snapshot := reg.Evaluators()

	require.NoError(t, reg.Remove("b"))

	assert.Equal(t, []string{"a", "c"}, registryIDs(reg))
	// earlier snapshots are unaffected
	assert.Len(t, snapshot, 3)

	err = reg.Remove("b")
	assert.True(t, engine.IsNotFound(err))
}

func TestRegistry_Lookup_NotFound(t *testing.T) {
	reg, err := engine.NewRegistry()
	require.NoError(t, err)

	_, err = reg.Lookup("missing")
	assert.ErrorIs(t, err, engine.ErrProgramNotFound)
}
