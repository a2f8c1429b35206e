package ellipse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onEllipse samples parametric points of an ellipse with semi-axes
// a >= b rotated by rot.
func onEllipse(cx, cy, a, b, rot float64, params []float64) []Point {
	cos, sin := math.Cos(rot), math.Sin(rot)
	out := make([]Point, len(params))
	for i, p := range params {
		ex, ey := a*math.Cos(p), b*math.Sin(p)
		out[i] = Point{
			X: cx + ex*cos - ey*sin,
			Y: cy + ex*sin + ey*cos,
		}
	}
	return out
}

func onCircle(cx, cy, r float64, params []float64) []Point {
	return onEllipse(cx, cy, r, r, 0, params)
}

// normRot folds an axis angle into [0, pi).
func normRot(r float64) float64 {
	for r < 0 {
		r += math.Pi
	}
	for r >= math.Pi {
		r -= math.Pi
	}
	return r
}

func TestFitCircle(t *testing.T) {
	t.Parallel()

	t.Run("exact three point circle", func(t *testing.T) {
		pts := onCircle(200, 150, 80, []float64{0.2, 1.9, 4.1})
		res := FitCircle(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, 200, res.Ellipse.CenterX, 1e-6)
		assert.InDelta(t, 150, res.Ellipse.CenterY, 1e-6)
		assert.InDelta(t, 80, res.Ellipse.SemiMajor, 1e-6)
		assert.Equal(t, res.Ellipse.SemiMajor, res.Ellipse.SemiMinor)
	})

	t.Run("four noisy points average out", func(t *testing.T) {
		pts := onCircle(400, 300, 120, []float64{0, 1.5, 3.1, 4.6})
		// Nudge one point slightly off the rim.
		pts[2].X += 0.5
		res := FitCircle(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, 400, res.Ellipse.CenterX, 1)
		assert.InDelta(t, 300, res.Ellipse.CenterY, 1)
		assert.InDelta(t, 120, res.Ellipse.SemiMajor, 1)
	})

	t.Run("collinear points fail", func(t *testing.T) {
		pts := []Point{{0, 0}, {10, 10}, {20, 20}}
		res := FitCircle(pts, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
		assert.Contains(t, res.Reason, "collinear")
	})

	t.Run("radius below minimum fails", func(t *testing.T) {
		pts := onCircle(100, 100, DefaultMinRadiusPx/2, []float64{0, 2, 4})
		res := FitCircle(pts, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
	})

	t.Run("raised minimum rejects an otherwise valid circle", func(t *testing.T) {
		pts := onCircle(200, 150, 80, []float64{0.2, 1.9, 4.1})
		res := FitCircle(pts, 100, 1920)
		assert.False(t, res.Ok)
		assert.Contains(t, res.Reason, "minimum")
	})

	t.Run("radius beyond canvas fails", func(t *testing.T) {
		pts := onCircle(100, 100, 500, []float64{0, 2, 4})
		res := FitCircle(pts, DefaultMinRadiusPx, 100)
		assert.False(t, res.Ok)
	})

	t.Run("fewer than three points fail", func(t *testing.T) {
		res := FitCircle([]Point{{1, 1}, {2, 2}}, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
	})
}

func TestFitConic(t *testing.T) {
	t.Parallel()

	t.Run("five point exact ellipse round trip", func(t *testing.T) {
		pts := onEllipse(100, 100, 50, 30, 0.3, []float64{0.1, 1.3, 2.4, 3.8, 5.2})
		res := FitConic(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, 100, res.Ellipse.CenterX, 1e-3)
		assert.InDelta(t, 100, res.Ellipse.CenterY, 1e-3)
		assert.InDelta(t, 50, res.Ellipse.SemiMajor, 1e-3)
		assert.InDelta(t, 30, res.Ellipse.SemiMinor, 1e-3)
		assert.InDelta(t, 0.3, normRot(res.Ellipse.Rotation), 1e-3)
	})

	t.Run("overdetermined least squares path", func(t *testing.T) {
		params := []float64{0.2, 0.9, 1.7, 2.5, 3.3, 4.1, 4.9, 5.7}
		pts := onEllipse(640, 360, 220, 140, -0.5, params)
		res := FitConic(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, 640, res.Ellipse.CenterX, 1e-3)
		assert.InDelta(t, 360, res.Ellipse.CenterY, 1e-3)
		assert.InDelta(t, 220, res.Ellipse.SemiMajor, 1e-3)
		assert.InDelta(t, 140, res.Ellipse.SemiMinor, 1e-3)
		assert.InDelta(t, normRot(-0.5), normRot(res.Ellipse.Rotation), 1e-3)
	})

	t.Run("semi major is always the larger axis", func(t *testing.T) {
		// Rotation near pi/2 exercises the axis swap branch.
		pts := onEllipse(300, 300, 90, 40, 1.4, []float64{0.3, 1.1, 2.2, 3.6, 5.0, 5.9})
		res := FitConic(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.GreaterOrEqual(t, res.Ellipse.SemiMajor, res.Ellipse.SemiMinor)
		assert.InDelta(t, 90, res.Ellipse.SemiMajor, 1e-3)
		assert.InDelta(t, 40, res.Ellipse.SemiMinor, 1e-3)
	})

	t.Run("raised minimum rejects a small major axis", func(t *testing.T) {
		pts := onEllipse(100, 100, 50, 30, 0.3, []float64{0.1, 1.3, 2.4, 3.8, 5.2})
		res := FitConic(pts, 60, 1920)
		assert.False(t, res.Ok)
		assert.Contains(t, res.Reason, "minimum")
	})

	t.Run("parabola rejected", func(t *testing.T) {
		// Points on y = x^2/100 satisfy a conic with zero discriminant.
		var pts []Point
		for _, x := range []float64{-40, -15, 5, 25, 50} {
			pts = append(pts, Point{X: x, Y: x * x / 100})
		}
		res := FitConic(pts, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
	})

	t.Run("fewer than five points fail", func(t *testing.T) {
		pts := onCircle(100, 100, 50, []float64{0, 2, 4, 5})
		res := FitConic(pts, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
	})
}

func TestFitDispatch(t *testing.T) {
	t.Parallel()

	t.Run("two points fail", func(t *testing.T) {
		res := Fit([]Point{{0, 0}, {50, 50}}, DefaultMinRadiusPx, 1920)
		assert.False(t, res.Ok)
	})

	t.Run("three points use the circle fit", func(t *testing.T) {
		pts := onCircle(500, 400, 150, []float64{0.5, 2.5, 4.5})
		res := Fit(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.Equal(t, res.Ellipse.SemiMajor, res.Ellipse.SemiMinor)
	})

	t.Run("five points on a circle recover equal axes", func(t *testing.T) {
		pts := onCircle(500, 400, 150, []float64{0.3, 1.5, 2.7, 3.9, 5.1})
		res := Fit(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, res.Ellipse.SemiMajor, res.Ellipse.SemiMinor, 1e-6)
		assert.InDelta(t, 150, res.Ellipse.SemiMajor, 1e-6)
	})

	t.Run("six points use the conic path", func(t *testing.T) {
		pts := onEllipse(200, 200, 100, 60, 0.7, []float64{0.1, 1.2, 2.3, 3.4, 4.5, 5.6})
		res := Fit(pts, DefaultMinRadiusPx, 1920)
		require.True(t, res.Ok, res.Reason)
		assert.InDelta(t, 100, res.Ellipse.SemiMajor, 1e-3)
		assert.InDelta(t, 60, res.Ellipse.SemiMinor, 1e-3)
	})
}
