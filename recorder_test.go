package looksee

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := NewRecorder(filepath.Join(t.TempDir(), "looksee.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecorder_ScanIntegration(t *testing.T) {
	rec := newTestRecorder(t)
	s := newTestScanner(t, WithRecorder(rec))

	found, err := s.Scan(context.Background(), "pooply", nil)
	require.NoError(t, err)
	require.Len(t, found, 2)

	matches, err := rec.Matches()
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Rows come back ordered by module path then name.
	assert.Equal(t, "pooply.a", matches[0].ModulePath)
	assert.Equal(t, "X", matches[0].Name)
	assert.Equal(t, "map", matches[0].Kind)
	assert.JSONEq(t, `{"public_id": 1}`, matches[0].Value)

	assert.Equal(t, "pooply.sub.c", matches[1].ModulePath)
	assert.Equal(t, "Z", matches[1].Name)
	assert.JSONEq(t, `{"public_id": 3}`, matches[1].Value)
}

func TestRecorder_ScanRowCompleted(t *testing.T) {
	rec := newTestRecorder(t)
	s := newTestScanner(t, WithRecorder(rec))

	_, err := s.Scan(context.Background(), "pooply", nil)
	require.NoError(t, err)

	scan, err := rec.Store().ScanByID(rec.scanID)
	require.NoError(t, err)
	require.NotNil(t, scan)
	assert.Equal(t, "pooply", scan.RootPath)
	assert.Equal(t, 2, scan.MatchCount)
	assert.NotNil(t, scan.CompletedAt)
}

func TestRecorder_FailedMemberNotRecorded(t *testing.T) {
	rec := newTestRecorder(t)
	s := newTestScanner(t,
		WithRecorder(rec),
		WithCallback(func(name string, obj any, ctx Context) error {
			if name == "X" {
				return assert.AnError
			}
			ctx[name] = obj
			return nil
		}),
		WithProcessErrorHook(func(error, *Module, Context, string, any) {}),
	)

	_, err := s.Scan(context.Background(), "pooply", nil)
	require.NoError(t, err)

	matches, err := rec.Matches()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Z", matches[0].Name)
}

func TestRecorder_EachScanGetsOwnRow(t *testing.T) {
	rec := newTestRecorder(t)
	s := newTestScanner(t, WithRecorder(rec))

	_, err := s.Scan(context.Background(), "pooply", nil)
	require.NoError(t, err)
	firstID := rec.scanID

	_, err = s.Scan(context.Background(), "solo", nil)
	require.NoError(t, err)
	require.NotEqual(t, firstID, rec.scanID)

	matches, err := rec.Store().MatchesByScan(firstID)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = rec.Matches()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "S", matches[0].Name)
}

func TestEncodeValue(t *testing.T) {
	assert.JSONEq(t, `{"a": 1}`, encodeValue(map[string]any{"a": 1}))
	assert.Equal(t, `"text"`, encodeValue("text"))

	// Values JSON can't represent fall back to their string form.
	assert.NotEmpty(t, encodeValue(func() {}))
}
