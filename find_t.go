package ehi

import (
	"fmt"
	"math"
)

// Robust solver configurations for the ill-conditioned inversions. The skin
// resistance inversion scans the full warm domain. The core-drift inversion
// only occurs at already-extreme conditions, so its bracket starts at the
// high-temperature band; the upper bound reaches the reference drift rate of
// the hottest production grid corner (50 degree C at full saturation under
// very heavy work) with room to spare.
var (
	rs_inversion_solver = RobustSolver{
		Tmin: 295., Tmax: 500., N: 5000,
		MaxNudges: 3, NudgeSize: 5.,
		Tol: 1e-8, MaxIter: 1000,
	}
	dtcdt_inversion_solver = RobustSolver{
		Tmin: 330., Tmax: 500., N: 2000,
		MaxNudges: 3, NudgeSize: 5.,
		Tol: solver_tol_T, MaxIter: solver_maxiter,
	}
)

/*
Inverse index solver.

    Finds the air temperature that reproduces the given equilibrium variable
    under the fixed reference scenario: reference humidity profile, the
    reference metabolic rate Qr and zero solar gain. That temperature is the
    reported heat index.

    Args:
        pc: model constants
        eq: the governing equilibrium variable from the forward solver

    Returns:
        (1) index temperature, K
        (2) regime; II vs III is disambiguated after inversion by comparing
            the reference vapor pressure against saturation at the solved
            temperature

    Notes:
        phi and Rf invert with plain bisection over fixed brackets. Rs/Rs*
        and dTcdt use the robust fallback chain; those inversions are the
        least well conditioned.
*/
func find_T(pc *PhysConsts, eq Eqvar) (float64, Regime, error) {
	switch eq.Kind {
	case EqvarPhi:
		f, firstErr := reference_residual(pc, func(t float64) float64 { return 1. }, EqvarPhi, eq.Value)
		t, err := solve(f, 0., 400., solver_tol_T, solver_maxiter)
		if err := coalesce(firstErr, err); err != nil {
			return 0, 0, fmt.Errorf("invert phi: %w", err)
		}
		return t, RegimeI, nil

	case EqvarRf:
		f, firstErr := reference_residual(pc, func(t float64) float64 {
			return math.Min(1., pc.Pa0/pc.pvstar(t))
		}, EqvarRf, eq.Value)
		t, err := solve(f, 230., 500., solver_tol_T, solver_maxiter)
		if err := coalesce(firstErr, err); err != nil {
			return 0, 0, fmt.Errorf("invert Rf: %w", err)
		}
		if pc.Pa0 > pc.pvstar(t) {
			return t, RegimeII, nil
		}
		return t, RegimeIII, nil

	case EqvarRs, EqvarRsStar:
		f, firstErr := reference_residual(pc, func(t float64) float64 {
			return pc.Pa0 / pc.pvstar(t)
		}, EqvarRs, eq.Value)
		t, err := rs_inversion_solver.safe_solve(f)
		if err := coalesce(firstErr, err); err != nil {
			return 0, 0, fmt.Errorf("invert %s: %w", eq.Kind, err)
		}
		if eq.Kind == EqvarRs {
			return t, RegimeIV, nil
		}
		return t, RegimeV, nil

	case EqvarDTcdt:
		f, firstErr := reference_residual(pc, func(t float64) float64 {
			return pc.Pa0 / pc.pvstar(t)
		}, EqvarDTcdt, eq.Value)
		t, err := dtcdt_inversion_solver.safe_solve(f)
		if err := coalesce(firstErr, err); err != nil {
			return 0, 0, fmt.Errorf("invert dTcdt: %w", err)
		}
		return t, RegimeVI, nil

	default:
		return 0, 0, fmt.Errorf("invert: unknown equilibrium variable %v", eq.Kind)
	}
}

/*
Builds the inversion residual f(t) = forward(t, reference scenario) - value.

    Args:
        rh: reference humidity profile as a function of temperature
        kind: which field of the forward state carries the compared value
        value: the target equilibrium value

    Returns:
        (1) the residual closure; it evaluates the forward solver at Qr with
            zero solar gain and yields NaN where that solve fails, so the
            bracketing strategies skip the point instead of aborting the scan
        (2) a pointer to the first inner error, for reporting when the outer
            solve cannot recover
*/
func reference_residual(pc *PhysConsts, rh func(float64) float64, kind EqvarKind, value float64) (func(float64) float64, *error) {
	var firstErr error

	f := func(t float64) float64 {
		st, err := find_eqvar(pc, t, rh(t), pc.Qr, 0.)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return math.NaN()
		}
		switch kind {
		case EqvarPhi:
			return st.Phi - value
		case EqvarRf:
			return st.Rf - value
		case EqvarRs:
			return st.Rs - value
		default:
			return st.DTcdt - value
		}
	}

	return f, &firstErr
}

// coalesce keeps the outer solver error, attaching the first inner failure
// only when the outer solve could not recover from it.
func coalesce(inner *error, outer error) error {
	if outer == nil {
		return nil
	}
	if inner != nil && *inner != nil {
		return fmt.Errorf("%w (inner solve: %s)", outer, *inner)
	}
	return outer
}

// HeatIndexResult is the outcome of one heat index computation. It is built
// fresh per invocation and never mutated afterwards.
type HeatIndexResult struct {
	Temperature float64 // index temperature, K
	Regime      Regime
	State       EquilibriumState
}

/*
ComputeHeatIndex runs the forward solver and the inversion back to an index
temperature. This is the offline entry point; production callers go through
the lookup table instead.

    Args:
        pc: model constants
        airTemp: air temperature, K
        relativeHumidity: fraction 0-1
        metabolicRate: W/m2
        solarGain: W/m2 (use PhysConsts.qsolar via SolarGain for a mean
            radiant temperature)

    Returns:
        the index temperature and the regime it was computed in

    Notes:
        airTemp == 0 is the cold-degenerate case: the index is defined to be
        0 regardless of the regime.
*/
func ComputeHeatIndex(pc *PhysConsts, airTemp, relativeHumidity, metabolicRate, solarGain float64) (HeatIndexResult, error) {
	st, err := find_eqvar(pc, airTemp, relativeHumidity, metabolicRate, solarGain)
	if err != nil {
		return HeatIndexResult{}, err
	}

	t, regime, err := find_T(pc, st.Eqvar())
	if err != nil {
		return HeatIndexResult{}, err
	}

	if airTemp == 0. {
		t = 0.
	}

	return HeatIndexResult{Temperature: t, Regime: regime, State: st}, nil
}

// SolarGain converts a mean radiant temperature to the solar heat gain input
// of ComputeHeatIndex.
func SolarGain(pc *PhysConsts, mrt float64) float64 {
	return pc.qsolar(mrt)
}

/*
Diagnostics renders the regime-specific interpretation of the equilibrium
state: clothing fraction, clothing thickness, skin blood flow or core
warming rate.

    Returns:
        a one-line human-readable summary for logs
*/
func (r HeatIndexResult) Diagnostics(pc *PhysConsts) string {
	switch r.Regime {
	case RegimeI:
		return fmt.Sprintf("regime I, covering: clothing fraction %.3f", r.State.Phi)
	case RegimeII, RegimeIII:
		// Clothing thickness, cm
		return fmt.Sprintf("regime %s, clothed: clothing thickness %.3f cm", r.Regime, r.State.Rf/clo_per_rf*100.)
	case RegimeIV, RegimeV:
		const kmin = 5.28  // conductance of tissue, W/K/m2
		const rho = 1.0e3  // density of blood, kg/m3
		const cBlood = 4184. // specific heat of blood, J/kg/K
		flow := (1./r.State.Rs - kmin) * pc.A / (rho * cBlood) * 1000. * 60.
		return fmt.Sprintf("regime %s, naked: blood flow %.3f l/min", r.Regime, flow)
	default:
		return fmt.Sprintf("regime VI, warming up: dTc/dt %.6f K/hour", r.State.DTcdt*3600.)
	}
}
