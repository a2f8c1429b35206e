// Package ellipse fits circles and ellipses to small sets of clicked
// pixel points for throwing-circle calibration. The routines are pure
// and canvas-independent; geometric degeneracy is reported as a fit
// failure, never as a panic or a NaN result.
package ellipse

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultMinRadiusPx is the smallest plausible fitted radius in
// pixels when no tuning overrides it. Anything smaller is a
// degenerate click cluster, not a circle.
const DefaultMinRadiusPx = 10.0

// pivotEps is the magnitude below which an elimination pivot is
// treated as numerically zero.
const pivotEps = 1e-12

// Point is a 2D pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ellipse describes a fitted ellipse in pixel space. SemiMajor is
// always the larger axis; Rotation is the major-axis angle in
// radians.
type Ellipse struct {
	CenterX   float64 `json:"cx"`
	CenterY   float64 `json:"cy"`
	SemiMajor float64 `json:"semi_major"`
	SemiMinor float64 `json:"semi_minor"`
	Rotation  float64 `json:"rotation"`
}

// Result is the discriminated outcome of a fit attempt. Failed fits
// carry a reason and a zero Ellipse.
type Result struct {
	Ok      bool    `json:"ok"`
	Reason  string  `json:"reason,omitempty"`
	Ellipse Ellipse `json:"ellipse,omitempty"`
}

func fail(reason string) Result { return Result{Reason: reason} }

// Fit dispatches on the point count: 3-4 points use the circle fit,
// exactly 5 use the general conic fit with a circle fallback on
// rejection, more than 5 use the conic normal-equations path.
// minRadius and maxRadius bound the plausible fit (the max is
// typically the canvas width).
func Fit(points []Point, minRadius, maxRadius float64) Result {
	switch {
	case len(points) < 3:
		return fail("need at least 3 points")
	case len(points) < 5:
		return FitCircle(points, minRadius, maxRadius)
	default:
		res := FitConic(points, minRadius, maxRadius)
		if !res.Ok {
			return FitCircle(points, minRadius, maxRadius)
		}
		return res
	}
}

// FitCircle fits a circle to 3 or more points by algebraic linear
// least squares: the linearized model 2*cx*x + 2*cy*y + c = x^2 + y^2
// is solved via its 3x3 normal equations. Collinear points make the
// system singular and report failure.
func FitCircle(points []Point, minRadius, maxRadius float64) Result {
	if len(points) < 3 {
		return fail("need at least 3 points")
	}

	// Normal equations for unknowns (cx, cy, c), c = r^2 - cx^2 - cy^2.
	m := newRows(3, 4)
	for _, p := range points {
		row := [3]float64{2 * p.X, 2 * p.Y, 1}
		rhs := p.X*p.X + p.Y*p.Y
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] += row[i] * row[j]
			}
			m[i][3] += row[i] * rhs
		}
	}

	sol, ok := solve(m, 3)
	if !ok {
		return fail("degenerate point set (collinear)")
	}
	cx, cy := sol[0], sol[1]
	r2 := sol[2] + cx*cx + cy*cy
	if r2 <= 0 || math.IsNaN(r2) {
		return fail("non-positive radius")
	}
	r := math.Sqrt(r2)
	if r < minRadius {
		return fail("radius below minimum")
	}
	if r > maxRadius {
		return fail("radius exceeds canvas")
	}
	return Result{Ok: true, Ellipse: Ellipse{
		CenterX:   cx,
		CenterY:   cy,
		SemiMajor: r,
		SemiMinor: r,
	}}
}

// FitConic fits the general conic A*x^2 + B*xy + C*y^2 + D*x + E*y + 1 = 0.
// Exactly 5 points give a square system solved by Gaussian elimination
// with partial pivoting; more than 5 form the 5x5 normal equations
// MtM*x = Mt*b solved through gonum. The result is rejected when the
// conic is not an ellipse or the derived axes are implausible.
func FitConic(points []Point, minRadius, maxRadius float64) Result {
	if len(points) < 5 {
		return fail("need at least 5 points for a conic fit")
	}

	var coef [5]float64
	if len(points) == 5 {
		m := newRows(5, 6)
		for i, p := range points {
			copy(m[i], []float64{p.X * p.X, p.X * p.Y, p.Y * p.Y, p.X, p.Y, -1})
		}
		sol, ok := solve(m, 5)
		if !ok {
			return fail("singular conic system")
		}
		copy(coef[:], sol)
	} else {
		M := mat.NewDense(len(points), 5, nil)
		b := mat.NewVecDense(len(points), nil)
		for i, p := range points {
			M.SetRow(i, []float64{p.X * p.X, p.X * p.Y, p.Y * p.Y, p.X, p.Y})
			b.SetVec(i, -1)
		}
		var mtm mat.Dense
		mtm.Mul(M.T(), M)
		var mtb mat.VecDense
		mtb.MulVec(M.T(), b)
		var x mat.VecDense
		if err := x.SolveVec(&mtm, &mtb); err != nil {
			return fail("singular normal equations")
		}
		for i := range coef {
			coef[i] = x.AtVec(i)
		}
	}

	e, reason := fromConic(coef)
	if reason != "" {
		return fail(reason)
	}
	if e.SemiMajor < minRadius {
		return fail("major axis below minimum")
	}
	if e.SemiMajor > maxRadius {
		return fail("major axis exceeds canvas")
	}
	return Result{Ok: true, Ellipse: e}
}

// fromConic extracts center, rotation and semi-axes from the conic
// coefficients (A,B,C,D,E) with F fixed to 1. An empty reason means
// success.
func fromConic(c [5]float64) (Ellipse, string) {
	A, B, C, D, E := c[0], c[1], c[2], c[3], c[4]
	const F = 1.0

	if B*B-4*A*C >= 0 {
		return Ellipse{}, "conic is not an ellipse"
	}
	den := 4*A*C - B*B
	cx := (B*E - 2*C*D) / den
	cy := (B*D - 2*A*E) / den

	// Conic value at the center; the axes scale by -J/lambda.
	J := A*cx*cx + B*cx*cy + C*cy*cy + D*cx + E*cy + F

	rot := 0.5 * math.Atan2(B, A-C)
	cos, sin := math.Cos(rot), math.Sin(rot)

	// Eigenvalues of [[A, B/2], [B/2, C]] along and across the
	// rotation direction.
	lA := A*cos*cos + B*cos*sin + C*sin*sin
	lB := A*sin*sin - B*cos*sin + C*cos*cos

	a2 := -J / lA
	b2 := -J / lB
	if a2 <= 0 || b2 <= 0 {
		return Ellipse{}, "non-positive semi-axis"
	}
	a, b := math.Sqrt(a2), math.Sqrt(b2)
	if b > a {
		// Keep SemiMajor the larger axis; rotate the frame a quarter
		// turn to compensate.
		a, b = b, a
		rot += math.Pi / 2
	}
	return Ellipse{CenterX: cx, CenterY: cy, SemiMajor: a, SemiMinor: b, Rotation: rot}, ""
}

// solve runs Gaussian elimination with partial pivoting over an
// augmented n x (n+1) system. It reports failure when any pivot
// magnitude is numerically negligible.
func solve(rows [][]float64, n int) ([]float64, bool) {
	for col := 0; col < n; col++ {
		// Partial pivot: largest magnitude in this column.
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(rows[r][col]) > math.Abs(rows[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(rows[pivot][col]) < pivotEps {
			return nil, false
		}
		rows[col], rows[pivot] = rows[pivot], rows[col]
		for r := col + 1; r < n; r++ {
			factor := rows[r][col] / rows[col][col]
			for j := col; j <= n; j++ {
				rows[r][j] -= factor * rows[col][j]
			}
		}
	}
	sol := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := rows[i][n]
		for j := i + 1; j < n; j++ {
			v -= rows[i][j] * sol[j]
		}
		sol[i] = v / rows[i][i]
	}
	return sol, true
}

func newRows(n, cols int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, cols)
	}
	return rows
}
