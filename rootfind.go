package ehi

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Root solver failure modes. ErrInvalidBracket means the caller handed the
// plain bisection an interval without a sign change, which is a bracket
// selection bug, not bad environmental input. The other three can occur on
// legitimately hard inputs and are fatal for that single solve only.
var (
	ErrInvalidBracket    = errors.New("bisection: endpoints have the same sign")
	ErrMaxIterations     = errors.New("bisection: maximum iterations reached")
	ErrNoBracketFound    = errors.New("bracketing: no sign change found")
	ErrRootFindingFailed = errors.New("root finding: all strategies failed")
)

/*
Bisection root solver.

    Args:
        f: function whose root is searched
        a, b: bracket endpoints, f(a) and f(b) must differ in sign
        tol: width of the final interval
        maxIter: iteration budget

    Returns:
        the midpoint of the converged interval

    Notes:
        Fails with ErrInvalidBracket when the endpoints do not bracket a root
        and with ErrMaxIterations when the budget is exhausted. Both are
        propagated as-is; the plain solver never degrades silently.
*/
func solve(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	fa := f(a)
	fb := f(b)

	if fa*fb > 0. {
		return 0, fmt.Errorf("%w: [%f, %f]", ErrInvalidBracket, a, b)
	}

	var c float64
	for i := 0; i < maxIter; i++ {
		c = (a + b) / 2.
		fc := f(c)
		if fb*fc > 0. {
			b = c
			fb = fc
		} else {
			a = c
			fa = fc
		}
		if math.Abs(a-b) < tol {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %d iterations", ErrMaxIterations, maxIter)
}

/*
Automatic bracket search.

    Samples f on an evenly spaced grid over [tmin, tmax] and returns the
    first interval with a sign change.

    Args:
        f: function to bracket
        tmin, tmax: search domain, K
        n: number of samples

    Returns:
        (a, b) of the first sign-change interval

    Notes:
        Samples at which f is NaN (an inner solve failed there) never form a
        bracket. Fails with ErrNoBracketFound when the whole grid has one
        sign.
*/
func auto_bracket_root(f func(float64) float64, tmin, tmax float64, n int) (float64, float64, error) {
	tvals := floats.Span(make([]float64, n), tmin, tmax)

	fprev := f(tvals[0])
	for i := 1; i < n; i++ {
		fnext := f(tvals[i])
		if !math.IsNaN(fprev) && !math.IsNaN(fnext) && sign(fprev) != sign(fnext) {
			return tvals[i-1], tvals[i], nil
		}
		fprev = fnext
	}

	return 0, 0, fmt.Errorf("%w: [%f, %f] with %d samples", ErrNoBracketFound, tmin, tmax, n)
}

/*
Bracket nudging.

    Shrinks a bad bracket from both ends up to maxNudges times, nudgeSize at
    a time, until the endpoints differ in sign.

    Notes:
        A bracket coming out of auto_bracket_root already has a sign change,
        so the first check normally passes untouched. Fails with
        ErrNoBracketFound when the nudges are exhausted.
*/
func smart_bracket(f func(float64) float64, a, b float64, maxNudges int, nudgeSize float64) (float64, float64, error) {
	fa := f(a)
	fb := f(b)

	if sign(fa) != sign(fb) {
		return a, b, nil
	}

	for i := 0; i < maxNudges; i++ {
		aNew := a + nudgeSize
		faNew := f(aNew)
		if sign(faNew) != sign(fb) {
			return aNew, b, nil
		}

		bNew := b - nudgeSize
		fbNew := f(bNew)
		if sign(fa) != sign(fbNew) {
			return a, bNew, nil
		}

		a, fa = aNew, faNew
		b, fb = bNew, fbNew
	}

	return 0, 0, fmt.Errorf("%w: after %d nudges", ErrNoBracketFound, maxNudges)
}

/*
Minimization fallback.

    Minimizes f(t)^2 over [x1, x2] by golden section search and accepts the
    minimizer only when the residual |f(t)| stays below an absolute
    threshold.

    Notes:
        Stands in for a bounded scalar minimizer; gonum/optimize only covers
        multivariate unbounded methods. Fails with ErrRootFindingFailed when
        the residual at the minimizer is too large to count as a root.
*/
func solve_advanced(f func(float64) float64, x1, x2, tol float64) (float64, error) {
	const residual_max = 1e-3
	const gr = 0.6180339887498949 // golden ratio conjugate

	g := func(t float64) float64 {
		ft := f(t)
		return ft * ft
	}

	a, b := x1, x2
	c := b - gr*(b-a)
	d := a + gr*(b-a)
	gc := g(c)
	gd := g(d)

	for i := 0; i < 500 && math.Abs(b-a) > tol; i++ {
		// NaN residuals (failed inner solves) are pushed away from the
		// minimizer by treating them as larger.
		if gc < gd || math.IsNaN(gd) {
			b = d
			d = c
			gd = gc
			c = b - gr*(b-a)
			gc = g(c)
		} else {
			a = c
			c = d
			gc = gd
			d = a + gr*(b-a)
			gd = g(d)
		}
	}

	x := (a + b) / 2.
	if math.Abs(f(x)) < residual_max {
		return x, nil
	}

	return 0, fmt.Errorf("%w: residual %e at %f", ErrRootFindingFailed, math.Abs(f(x)), x)
}

/*
RobustSolver is the fallback chain used where a naive bracket guess can fail:
regime boundaries make the inversion residual non-monotonic or flat, so the
plain bisection contract cannot be met up front.

    The strategies run in a fixed order:
        1. automatic bracket search over [Tmin, Tmax] with N samples
        2. bracket nudging (defensive, normally a no-op)
        3. bisection on the resulting bracket
        4. on any failure above, golden-section minimization of f(t)^2 with
           an absolute residual acceptance threshold

    This ordering and its thresholds are the robustness contract of the
    engine; every regime that needs the chain shares this one implementation.
*/
type RobustSolver struct {
	Tmin, Tmax float64 // search domain, K
	N          int     // bracket scan samples
	MaxNudges  int
	NudgeSize  float64 // K
	Tol        float64 // bisection interval tolerance, K
	MaxIter    int     // bisection iteration budget
}

/*
Runs the fallback chain on f.

    Returns:
        the root, or ErrRootFindingFailed when every strategy is exhausted
*/
func (rs RobustSolver) safe_solve(f func(float64) float64) (float64, error) {
	a, b, err := auto_bracket_root(f, rs.Tmin, rs.Tmax, rs.N)
	if err == nil {
		a, b, err = smart_bracket(f, a, b, rs.MaxNudges, rs.NudgeSize)
	}
	if err == nil {
		var t float64
		t, err = solve(f, a, b, rs.Tol, rs.MaxIter)
		if err == nil {
			return t, nil
		}
	}

	t, err2 := solve_advanced(f, rs.Tmin, rs.Tmax, rs.Tol)
	if err2 != nil {
		return 0, fmt.Errorf("%w (bracketing: %s)", err2, err)
	}
	return t, nil
}

// sign reports the sign of x the way the bracketing strategies compare it:
// -1, 0 or +1.
func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
