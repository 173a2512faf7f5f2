package ehi

import (
	"fmt"
	"math"
)

// Regime is one of the six physiological states of the thermoregulation
// model, ordered by increasing heat strain.
type Regime int

const (
	RegimeI   Regime = iota + 1 // covering: the body needs clothing to stay warm
	RegimeII                    // clothed, air vapor pressure at saturation
	RegimeIII                   // clothed, air vapor pressure at the reference value
	RegimeIV                    // naked, regulating by skin blood flow
	RegimeV                     // naked, dripping sweat at the saline saturation limit
	RegimeVI                    // core temperature warming up
)

var regime_names = map[Regime]string{
	RegimeI:   "I",
	RegimeII:  "II",
	RegimeIII: "III",
	RegimeIV:  "IV",
	RegimeV:   "V",
	RegimeVI:  "VI",
}

func (r Regime) String() string {
	if s, ok := regime_names[r]; ok {
		return s
	}
	return fmt.Sprintf("Regime(%d)", int(r))
}

// Zone is the integer risk classification of the regime, 1 through 6.
func (r Regime) Zone() int {
	return int(r)
}

// ZoneLabel maps a zone number to its display label. Zone 0 (the soft gap
// sentinel) and anything out of range map to "Unknown".
func ZoneLabel(zone int) string {
	if zone >= 1 && zone <= 6 {
		return fmt.Sprintf("Zone %d", zone)
	}
	return "Unknown"
}

// EqvarKind tags which equilibrium variable governs the current regime.
type EqvarKind int

const (
	EqvarPhi    EqvarKind = iota + 1 // clothing fraction, regime I
	EqvarRf                          // clothing resistance, m2K/W, regimes II and III
	EqvarRs                          // skin resistance, m2K/W, regime IV
	EqvarRsStar                      // skin resistance at maximum sweating, m2K/W, regime V
	EqvarDTcdt                       // core temperature drift rate, K/s, regime VI
)

var eqvar_names = map[EqvarKind]string{
	EqvarPhi:    "phi",
	EqvarRf:     "Rf",
	EqvarRs:     "Rs",
	EqvarRsStar: "Rs*",
	EqvarDTcdt:  "dTcdt",
}

func (k EqvarKind) String() string {
	if s, ok := eqvar_names[k]; ok {
		return s
	}
	return fmt.Sprintf("EqvarKind(%d)", int(k))
}

// Eqvar is the tagged equilibrium variable: the kind together with its value.
type Eqvar struct {
	Kind  EqvarKind
	Value float64
}

/*
EquilibriumState is the output of the forward solver.

    Only the field matching Kind is the governing equilibrium variable of the
    regime; the other fields are byproducts of the intermediate computation
    and must not be read as authoritative. Eqvar() picks the authoritative
    pair.
*/
type EquilibriumState struct {
	Kind  EqvarKind
	Phi   float64 // clothing fraction
	Rf    float64 // clothing resistance, m2K/W
	Rs    float64 // skin resistance, m2K/W (also holds the Rs* solution)
	DTcdt float64 // core temperature drift rate, K/s
}

// Eqvar returns the governing equilibrium variable of the state.
func (s EquilibriumState) Eqvar() Eqvar {
	switch s.Kind {
	case EqvarPhi:
		return Eqvar{EqvarPhi, s.Phi}
	case EqvarRf:
		return Eqvar{EqvarRf, s.Rf}
	case EqvarRs, EqvarRsStar:
		return Eqvar{s.Kind, s.Rs}
	default:
		return Eqvar{EqvarDTcdt, s.DTcdt}
	}
}

/*
Forward equilibrium solver.

    Given the environment and the metabolic load, classifies the
    physiological regime and computes the governing equilibrium variable.

    Args:
        pc: model constants
        ta: air temperature, K
        rh: relative humidity, fraction 0-1
        qmet: metabolic heat rate, W/m2
        qs: solar heat gain, W/m2

    Returns:
        the equilibrium state, with Kind naming the governing variable

    Notes:
        The flux tests run in a fixed priority order and the first match
        wins, so exactly one kind is assigned. Any nested root find failure
        propagates; a regime is never assigned without a solved equilibrium
        variable.
*/
func find_eqvar(pc *PhysConsts, ta, rh, qmet, qs float64) (EquilibriumState, error) {
	// Air vapor pressure, Pa
	pa := rh * pc.pvstar(ta)

	rs := rs_blood
	phi := phi_base
	dTcdt := 0.

	// Vapor flux density estimates bounding the skin temperature, W/m2
	m := (pc.Pc - pa) / (pc.zs(rs) + pc.Za)
	mBar := (pc.Pc - pa) / (pc.zs(rs) + pc.ZaBar)

	// Exposed skin temperature from the steady-state heat balance, K
	ts, err := solve(func(ts float64) float64 {
		return (ts-ta)/pc.ra(ts, ta) + (pc.Pc-pa)/(pc.zs(rs)+pc.Za) - (pc.Tc-ts)/rs
	}, math.Max(0., math.Min(pc.Tc, ta)-rs*math.Abs(m)), math.Max(pc.Tc, ta)+rs*math.Abs(m), solver_tol, solver_maxiter)
	if err != nil {
		return EquilibriumState{}, fmt.Errorf("exposed skin temperature: %w", err)
	}

	// Clothing temperature from the steady-state heat balance, K
	tf, err := solve(func(tf float64) float64 {
		return (tf-ta)/pc.ra_bar(tf, ta) + (pc.Pc-pa)/(pc.zs(rs)+pc.ZaBar) - (pc.Tc-tf)/rs
	}, math.Max(0., math.Min(pc.Tc, ta)-rs*math.Abs(mBar)), math.Max(pc.Tc, ta)+rs*math.Abs(mBar), solver_tol, solver_maxiter)
	if err != nil {
		return EquilibriumState{}, fmt.Errorf("clothing temperature: %w", err)
	}

	// Heat balance residual with fully exposed skin, W/m2
	flux1 := (qmet + qs) - pc.qv(ta, pa, qmet) - (1.-phi)*(pc.Tc-ts)/rs

	// Heat balance residual with partly clothed skin, two loss paths in
	// parallel, W/m2
	flux2 := (qmet + qs) - pc.qv(ta, pa, qmet) - (1.-phi)*(pc.Tc-ts)/rs - phi*(pc.Tc-tf)/rs

	if flux1 <= 0. {
		// Regime I: the body balances by covering up; clothing resistance
		// is infinite since no clothing layer is being solved for.
		phi = 1. - ((qmet+qs)-pc.qv(ta, pa, qmet))*rs/(pc.Tc-ts)
		return EquilibriumState{Kind: EqvarPhi, Phi: phi, Rf: math.Inf(1), Rs: rs, DTcdt: dTcdt}, nil
	}

	if flux2 <= 0. {
		// Regimes II/III: solve the clothing resistance through the
		// effective skin temperature under the clothed fraction.
		tsBar := pc.Tc - ((qmet+qs)-pc.qv(ta, pa, qmet))*rs/phi + (1./phi-1.)*(pc.Tc-ts)

		tf, err = solve(func(tf float64) float64 {
			return (tf-ta)/pc.ra_bar(tf, ta) +
				(pc.Pc-pa)*(tf-ta)/((pc.zs(rs)+pc.ZaBar)*(tf-ta)+pc.R*pc.ra_bar(tf, ta)*(tsBar-tf)) -
				(pc.Tc-tsBar)/rs
		}, ta, tsBar, solver_tol, solver_maxiter)
		if err != nil {
			return EquilibriumState{}, fmt.Errorf("clothed skin temperature: %w", err)
		}

		rf := pc.ra_bar(tf, ta) * (tsBar - tf) / (tf - ta)
		return EquilibriumState{Kind: EqvarRf, Phi: phi, Rf: rf, Rs: rs, DTcdt: dTcdt}, nil
	}

	// Naked-body regimes: heat balance residual with fully naked skin at
	// the core temperature, W/m2. The respiratory term is qv, so the sign
	// test agrees exactly with the naked-skin balance at ts = Tc and the
	// root brackets below are valid whenever the residual is negative.
	flux3 := (qmet + qs) - pc.qv(ta, pa, qmet) -
		0.80*pc.Epsilon*pc.Sigma*(math.Pow(pc.Tc, 4.)-math.Pow(ta, 4.)) -
		12.3*(pc.Tc-ta) -
		(pc.Pc-pa)/pc.ZaUn

	if flux3 >= 0. {
		// Regime VI: skin resistance pinned at the physiological minimum,
		// the residual flux drives the core temperature.
		return EquilibriumState{Kind: EqvarDTcdt, Phi: phi, Rf: 0., Rs: rs_min, DTcdt: flux3 / pc.C}, nil
	}

	// Regimes IV/V: sweating with the skin resistance as the unknown. The
	// resistance appears inside its own mass transfer term, so it is solved
	// through the skin temperature.
	ts, err = solve(func(ts float64) float64 {
		return (ts-ta)/pc.ra_un(ts, ta) +
			(pc.Pc-pa)/(pc.zs((pc.Tc-ts)/((qmet+qs)-pc.qv(ta, pa, qmet)))+pc.ZaUn) -
			((qmet + qs) - pc.qv(ta, pa, qmet))
	}, 0., pc.Tc, solver_tol, solver_maxiter)
	if err != nil {
		return EquilibriumState{}, fmt.Errorf("naked skin temperature: %w", err)
	}

	rs = (pc.Tc - ts) / ((qmet + qs) - pc.qv(ta, pa, qmet))
	kind := EqvarRs

	// Skin vapor pressure, Pa
	ps := pc.Pc - (pc.Pc-pa)*pc.zs(rs)/(pc.zs(rs)+pc.ZaUn)

	if ps > pc.PhiSalt*pc.pvstar(ts) {
		// Regime V: the skin cannot exceed the saline saturation pressure;
		// re-solve assuming maximum sweating.
		ts, err = solve(func(ts float64) float64 {
			return (ts-ta)/pc.ra_un(ts, ta) +
				(pc.PhiSalt*pc.pvstar(ts)-pa)/pc.ZaUn -
				((qmet + qs) - pc.qv(ta, pa, qmet))
		}, 0., pc.Tc, solver_tol, solver_maxiter)
		if err != nil {
			return EquilibriumState{}, fmt.Errorf("sweating skin temperature: %w", err)
		}

		rs = (pc.Tc - ts) / ((qmet + qs) - pc.qv(ta, pa, qmet))
		kind = EqvarRsStar

		if rs < rs_min {
			// The skin cannot go below its physiological minimum; the
			// clamped resistance stays the maximum-sweating variable.
			// flux3 < 0 here, so the core is not warming up and a regime
			// VI label would misorder the index.
			rs = rs_min
		}
	}

	return EquilibriumState{Kind: kind, Phi: phi, Rf: 0., Rs: rs, DTcdt: dTcdt}, nil
}
