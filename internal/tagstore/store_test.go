package tagstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giering/throwsage-viewer/internal/tags"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "annotations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func validRecord(t *testing.T) *tags.Record {
	t.Helper()
	r := tags.NewRecord()
	r.SetT0(50)
	r.SetRelease(200)
	require.True(t, r.AddTurnBoundary(90))
	r.AddBallMarker(120, 640, 360)
	return r
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec := validRecord(t)
	require.NoError(t, s.Save("throw-001", rec))
	assert.False(t, rec.Dirty(), "save must clear the dirty flag")

	got, ok, err := s.Load("throw-001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, got.T0())
	assert.Equal(t, 200, got.Release())
	assert.Equal(t, []int{90}, got.TurnBoundaries())
	p, found := got.BallMarker(120)
	require.True(t, found)
	assert.Equal(t, tags.PixelPoint{X: 640, Y: 360}, p)
}

func TestSaveReplacesPrior(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec := validRecord(t)
	require.NoError(t, s.Save("throw-001", rec))

	rec.SetRelease(210)
	require.NoError(t, s.Save("throw-001", rec))

	got, ok, err := s.Load("throw-001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 210, got.Release())
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec := tags.NewRecord()
	rec.SetT0(50) // no release
	err := s.Save("throw-001", rec)
	require.Error(t, err)

	var verr *tags.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.True(t, rec.Dirty(), "failed save must keep the record dirty")

	// Nothing was written.
	_, ok, err := s.Load("throw-001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadMissingKey(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec, ok, err := s.Load("never-saved")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestRecordSession(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	require.NoError(t, s.RecordSession("sess-1", "throw-001"))
	require.NoError(t, s.RecordSession("sess-2", "throw-001"))

	var n int
	require.NoError(t, s.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE video_id = ?`, "throw-001").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "annotations.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save("throw-001", validRecord(t)))
	require.NoError(t, s1.Close())

	// Reopening runs migrations again as a no-op and keeps the data.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	_, ok, err := s2.Load("throw-001")
	require.NoError(t, err)
	assert.True(t, ok)
}
