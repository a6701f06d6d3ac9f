package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/store"
	"github.com/warp/rebate-engine/store/sqlite"
	"github.com/warp/rebate-engine/store/storetest"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rebates.db")

	// GIVEN: a program saved to a file database
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveProgram(ctx, store.ProgramRecord{
		ID: "upl-bundle", Company: "UPL", Kind: "bundle", Position: 3, ParamsJSON: `{"bundle_rate":0.04}`,
	}))
	require.NoError(t, s.Close())

	// WHEN: reopening (migrations run again)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: the program is still there
	got, err := s.GetProgram(ctx, "upl-bundle")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Position)
	assert.Equal(t, `{"bundle_rate":0.04}`, got.ParamsJSON)
}
