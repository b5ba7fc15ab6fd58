package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	return st
}

func TestMigrate_Idempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate())
	require.NoError(t, st.Migrate())
}

func TestScanLifecycle(t *testing.T) {
	st := newTestStore(t)

	id, err := st.InsertScan(&Scan{RootPath: "pooply", StartedAt: time.Now()})
	require.NoError(t, err)
	require.NotZero(t, id)

	scan, err := st.ScanByID(id)
	require.NoError(t, err)
	require.NotNil(t, scan)
	assert.Equal(t, "pooply", scan.RootPath)
	assert.Nil(t, scan.CompletedAt)
	assert.Zero(t, scan.MatchCount)

	require.NoError(t, st.CompleteScan(id, 3))

	scan, err = st.ScanByID(id)
	require.NoError(t, err)
	require.NotNil(t, scan.CompletedAt)
	assert.Equal(t, 3, scan.MatchCount)
}

func TestScanByID_Missing(t *testing.T) {
	st := newTestStore(t)

	scan, err := st.ScanByID(999)
	require.NoError(t, err)
	assert.Nil(t, scan)
}

func TestMatches(t *testing.T) {
	st := newTestStore(t)

	scanID, err := st.InsertScan(&Scan{RootPath: "pooply", StartedAt: time.Now()})
	require.NoError(t, err)

	now := time.Now()
	rows := []*Match{
		{ScanID: scanID, ModulePath: "pooply.b", Name: "Y", Kind: "map", Value: `{"other":2}`, CreatedAt: now},
		{ScanID: scanID, ModulePath: "pooply.a", Name: "X", Kind: "map", Value: `{"public_id":1}`, CreatedAt: now},
		{ScanID: scanID, ModulePath: "pooply.a", Name: "W", Kind: "string", Value: `"w"`, CreatedAt: now},
	}
	for _, m := range rows {
		id, err := st.InsertMatch(m)
		require.NoError(t, err)
		require.NotZero(t, id)
	}

	matches, err := st.MatchesByScan(scanID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	// Ordered by module path, then name.
	assert.Equal(t, "W", matches[0].Name)
	assert.Equal(t, "X", matches[1].Name)
	assert.Equal(t, "Y", matches[2].Name)

	byName, err := st.MatchesByName("X")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "pooply.a", byName[0].ModulePath)
	assert.Equal(t, "map", byName[0].Kind)

	byName, err = st.MatchesByName("missing")
	require.NoError(t, err)
	assert.Empty(t, byName)
}

func TestMatchesByScan_ScopedToScan(t *testing.T) {
	st := newTestStore(t)

	first, err := st.InsertScan(&Scan{RootPath: "a", StartedAt: time.Now()})
	require.NoError(t, err)
	second, err := st.InsertScan(&Scan{RootPath: "b", StartedAt: time.Now()})
	require.NoError(t, err)

	_, err = st.InsertMatch(&Match{ScanID: first, ModulePath: "a.m", Name: "X", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = st.InsertMatch(&Match{ScanID: second, ModulePath: "b.m", Name: "X", CreatedAt: time.Now()})
	require.NoError(t, err)

	matches, err := st.MatchesByScan(first)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.m", matches[0].ModulePath)
}
