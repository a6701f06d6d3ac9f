// Package storetest is a conformance suite every store.Store implementation runs.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/store"
)

// Run exercises newStore against the store.Store contract. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("SaveAndGetProgram", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		rec := store.ProgramRecord{
			ID:         "fmc-cashback",
			Company:    "FMC CashBack (modeled)",
			Kind:       "tiered_total",
			Position:   0,
			ParamsJSON: `{"breakpoints":[5000]}`,
		}
		require.NoError(t, s.SaveProgram(ctx, rec))

		got, err := s.GetProgram(ctx, "fmc-cashback")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec.Company, got.Company)
		assert.Equal(t, rec.Kind, got.Kind)
		assert.Equal(t, rec.ParamsJSON, got.ParamsJSON)
		assert.Equal(t, 1, got.Version)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("GetMissingProgram", func(t *testing.T) {
		got, err := newStore(t).GetProgram(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ReplaceBumpsVersion", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		rec := store.ProgramRecord{ID: "p", Company: "P", Kind: "bundle", ParamsJSON: `{}`}
		require.NoError(t, s.SaveProgram(ctx, rec))
		rec.Company = "P v2"
		rec.ParamsJSON = `{"bundle_rate":0.05}`
		require.NoError(t, s.SaveProgram(ctx, rec))

		got, err := s.GetProgram(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, "P v2", got.Company)
		assert.Equal(t, `{"bundle_rate":0.05}`, got.ParamsJSON)
	})

	t.Run("ListOrderedByPositionThenID", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, r := range []store.ProgramRecord{
			{ID: "c", Position: 2},
			{ID: "b", Position: 1},
			{ID: "a", Position: 2},
		} {
			r.Company, r.Kind, r.ParamsJSON = r.ID, "bundle", `{}`
			require.NoError(t, s.SaveProgram(ctx, r))
		}

		list, err := s.ListPrograms(ctx)
		require.NoError(t, err)

		var ids []string
		for _, r := range list {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, []string{"b", "a", "c"}, ids)
	})

	t.Run("DeleteProgram", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SaveProgram(ctx, store.ProgramRecord{ID: "p", Company: "P", Kind: "bundle", ParamsJSON: `{}`}))

		require.NoError(t, s.DeleteProgram(ctx, "p"))
		got, err := s.GetProgram(ctx, "p")
		require.NoError(t, err)
		assert.Nil(t, got)

		err = s.DeleteProgram(ctx, "p")
		assert.True(t, engine.IsNotFound(err))
	})

	t.Run("Assumptions", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		missing, err := s.GetAssumptions(ctx, store.DefaultAssumptions)
		require.NoError(t, err)
		assert.Nil(t, missing)

		require.NoError(t, s.SaveAssumptions(ctx, store.DefaultAssumptions, `{"other":{}}`))
		require.NoError(t, s.SaveAssumptions(ctx, store.DefaultAssumptions, `{"other":{"fungicide":{"low":5}}}`))

		got, err := s.GetAssumptions(ctx, store.DefaultAssumptions)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, `{"other":{"fungicide":{"low":5}}}`, got.TableJSON)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("Reset", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.SaveProgram(ctx, store.ProgramRecord{ID: "p", Company: "P", Kind: "bundle", ParamsJSON: `{}`}))
		require.NoError(t, s.SaveAssumptions(ctx, "x", `{}`))

		require.NoError(t, s.Reset(ctx))

		list, err := s.ListPrograms(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		rec, err := s.GetAssumptions(ctx, "x")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}
