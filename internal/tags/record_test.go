package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giering/throwsage-viewer/internal/ellipse"
)

func TestSetBoundaries(t *testing.T) {
	t.Parallel()

	t.Run("t0 and release overwrite unconditionally", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(50)
		r.SetT0(60)
		r.SetRelease(200)
		assert.Equal(t, 60, r.T0())
		assert.Equal(t, 200, r.Release())
		assert.Equal(t, 3, r.UndoDepth())
	})

	t.Run("new record has everything unset", func(t *testing.T) {
		r := NewRecord()
		assert.Equal(t, Unset, r.T0())
		assert.Equal(t, Unset, r.Release())
		assert.Empty(t, r.TurnBoundaries())
		assert.False(t, r.Dirty())
	})
}

func TestSeed(t *testing.T) {
	t.Parallel()

	t.Run("stays clean and out of the undo history", func(t *testing.T) {
		r := NewRecord()
		r.Seed(50, 200, []int{120, 80})
		assert.Equal(t, 50, r.T0())
		assert.Equal(t, 200, r.Release())
		assert.Equal(t, []int{80, 120}, r.TurnBoundaries())
		assert.False(t, r.Dirty())
		assert.Zero(t, r.UndoDepth())
		assert.False(t, r.Undo(), "seeds must not be undoable")
		assert.Equal(t, 50, r.T0())
	})

	t.Run("drops a turn boundary colliding with t0", func(t *testing.T) {
		r := NewRecord()
		r.Seed(50, Unset, []int{50, 90})
		assert.Equal(t, []int{90}, r.TurnBoundaries())
	})
}

func TestAddTurnBoundary(t *testing.T) {
	t.Parallel()

	t.Run("keeps boundaries sorted", func(t *testing.T) {
		r := NewRecord()
		assert.True(t, r.AddTurnBoundary(90))
		assert.True(t, r.AddTurnBoundary(30))
		assert.True(t, r.AddTurnBoundary(70))
		assert.Equal(t, []int{30, 70, 90}, r.TurnBoundaries())
	})

	t.Run("rejects a frame equal to t0", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(50)
		depth := r.UndoDepth()
		assert.False(t, r.AddTurnBoundary(50))
		assert.Empty(t, r.TurnBoundaries())
		assert.Equal(t, depth, r.UndoDepth(), "rejected add must not push an undo entry")
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		r := NewRecord()
		require.True(t, r.AddTurnBoundary(30))
		assert.False(t, r.AddTurnBoundary(30))
		assert.Equal(t, []int{30}, r.TurnBoundaries())
	})
}

func TestSupportExclusivity(t *testing.T) {
	t.Parallel()

	t.Run("double support evicts single at the same frame", func(t *testing.T) {
		r := NewRecord()
		require.True(t, r.AddSingleSupport(40))
		require.True(t, r.AddDoubleSupport(40))
		assert.Empty(t, r.SingleSupport())
		assert.Equal(t, []int{40}, r.DoubleSupport())
	})

	t.Run("single support evicts double at the same frame", func(t *testing.T) {
		r := NewRecord()
		require.True(t, r.AddDoubleSupport(40))
		require.True(t, r.AddSingleSupport(40))
		assert.Equal(t, []int{40}, r.SingleSupport())
		assert.Empty(t, r.DoubleSupport())
	})

	t.Run("re-adding the same state is a no-op", func(t *testing.T) {
		r := NewRecord()
		require.True(t, r.AddSingleSupport(40))
		assert.False(t, r.AddSingleSupport(40))
		assert.Equal(t, []int{40}, r.SingleSupport())
	})

	t.Run("undo of an evicting add restores the evicted state", func(t *testing.T) {
		r := NewRecord()
		require.True(t, r.AddSingleSupport(40))
		require.True(t, r.AddDoubleSupport(40))
		require.True(t, r.Undo())
		assert.Equal(t, []int{40}, r.SingleSupport())
		assert.Empty(t, r.DoubleSupport())
	})
}

func TestBallMarkers(t *testing.T) {
	t.Parallel()

	t.Run("one marker per frame, replacement wins", func(t *testing.T) {
		r := NewRecord()
		r.AddBallMarker(10, 100, 200)
		r.AddBallMarker(10, 300, 400)
		p, ok := r.BallMarker(10)
		require.True(t, ok)
		assert.Equal(t, PixelPoint{X: 300, Y: 400}, p)
	})

	t.Run("undo of replacement restores the previous marker", func(t *testing.T) {
		r := NewRecord()
		r.AddBallMarker(10, 100, 200)
		r.AddBallMarker(10, 300, 400)
		require.True(t, r.Undo())
		p, ok := r.BallMarker(10)
		require.True(t, ok)
		assert.Equal(t, PixelPoint{X: 100, Y: 200}, p)
	})

	t.Run("undo of a first marker removes it", func(t *testing.T) {
		r := NewRecord()
		r.AddBallMarker(10, 100, 200)
		require.True(t, r.Undo())
		_, ok := r.BallMarker(10)
		assert.False(t, ok)
	})
}

func TestDeleteAtFrame(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T) *Record {
		t.Helper()
		r := NewRecord()
		r.SetT0(50)
		r.SetRelease(50) // same frame, deliberately
		require.True(t, r.AddTurnBoundary(30))
		require.True(t, r.AddSingleSupport(50))
		r.AddBallMarker(50, 640, 360)
		return r
	}

	t.Run("removes every tag at the frame atomically", func(t *testing.T) {
		r := build(t)
		require.True(t, r.DeleteAtFrame(50))
		assert.Equal(t, Unset, r.T0())
		assert.Equal(t, Unset, r.Release())
		assert.Empty(t, r.SingleSupport())
		_, ok := r.BallMarker(50)
		assert.False(t, ok)
		// Unrelated tags survive.
		assert.Equal(t, []int{30}, r.TurnBoundaries())
	})

	t.Run("reverts as a single undo unit", func(t *testing.T) {
		r := build(t)
		depth := r.UndoDepth()
		require.True(t, r.DeleteAtFrame(50))
		assert.Equal(t, depth+1, r.UndoDepth())
		require.True(t, r.Undo())
		assert.Equal(t, 50, r.T0())
		assert.Equal(t, 50, r.Release())
		assert.Equal(t, []int{50}, r.SingleSupport())
		p, ok := r.BallMarker(50)
		require.True(t, ok)
		assert.Equal(t, PixelPoint{X: 640, Y: 360}, p)
	})

	t.Run("empty frame reports false without an undo entry", func(t *testing.T) {
		r := build(t)
		depth := r.UndoDepth()
		assert.False(t, r.DeleteAtFrame(999))
		assert.Equal(t, depth, r.UndoDepth())
	})
}

func TestUndoStack(t *testing.T) {
	t.Parallel()

	t.Run("empty stack reports false", func(t *testing.T) {
		r := NewRecord()
		assert.False(t, r.Undo())
	})

	t.Run("reverses in reverse order of application", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(10)
		r.SetT0(20)
		require.True(t, r.Undo())
		assert.Equal(t, 10, r.T0())
		require.True(t, r.Undo())
		assert.Equal(t, Unset, r.T0())
	})

	t.Run("circle and zero angle revert to previous values", func(t *testing.T) {
		r := NewRecord()
		r.SetCircle(ellipse.Ellipse{CenterX: 100, CenterY: 100, SemiMajor: 50, SemiMinor: 50})
		r.SetCircle(ellipse.Ellipse{CenterX: 200, CenterY: 200, SemiMajor: 80, SemiMinor: 60})
		r.SetZeroAngle(1.5)
		require.True(t, r.Undo())
		_, ok := r.ZeroAngle()
		assert.False(t, ok)
		require.True(t, r.Undo())
		c := r.Circle()
		require.NotNil(t, c)
		assert.Equal(t, 100.0, c.CenterX)
		require.True(t, r.Undo())
		assert.Nil(t, r.Circle())
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		t0      int
		release int
		wantErr string
	}{
		{"both unset", Unset, Unset, "throw start"},
		{"release unset", 50, Unset, "release frame is not set"},
		{"release before t0", 50, 40, "must be after"},
		{"release equals t0", 50, 50, "must be after"},
		{"valid", 50, 200, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRecord()
			if tc.t0 != Unset {
				r.SetT0(tc.t0)
			}
			if tc.release != Unset {
				r.SetRelease(tc.release)
			}
			err := r.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tc.wantErr)
		})
	}
}

func TestDirtyTracking(t *testing.T) {
	t.Parallel()

	r := NewRecord()
	assert.False(t, r.Dirty())
	r.SetT0(50)
	assert.True(t, r.Dirty())
	r.ClearDirty()
	assert.False(t, r.Dirty())
	// Undo after a save makes the record dirty again.
	require.True(t, r.Undo())
	assert.True(t, r.Dirty())
}
