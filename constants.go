package ehi

import "math"

/*
PhysConsts holds the fixed thermodynamic and thermoregulatory parameters of
the heat index model.

    The values follow the extended heat index formulation for a reference US
    adult. The struct is built once by NewPhysConsts and passed by pointer to
    the solver and the table builder; it is never mutated after construction.
*/
type PhysConsts struct {
	// Thermodynamic parameters
	Ttrip float64 // triple point temperature, K
	Ptrip float64 // saturation vapor pressure at Ttrip, Pa
	E0v   float64 // latent heat of vaporization for water, J/kg
	E0s   float64 // latent heat of fusion for water, J/kg
	Rgasa float64 // specific gas constant for air, J/kg/K
	Rgasv float64 // specific gas constant for water vapor, J/kg/K
	Cva   float64 // specific heat capacity of air at constant volume, J/kg/K
	Cvv   float64 // specific heat capacity of water vapor at constant volume, J/kg/K
	Cvl   float64 // specific heat capacity of liquid water at constant volume, J/kg/K
	Cvs   float64 // specific heat capacity of solid water at constant volume, J/kg/K
	Cpa   float64 // specific heat capacity of air at constant pressure, J/kg/K
	Cpv   float64 // specific heat capacity of water vapor at constant pressure, J/kg/K

	// Thermoregulatory parameters
	Sigma   float64 // Stefan-Boltzmann constant, W/m2/K4
	Epsilon float64 // emissivity of the skin surface
	M       float64 // mass of an average US adult, kg
	H       float64 // height of an average US adult, m
	A       float64 // DuBois body surface area, m2
	Cpc     float64 // specific heat capacity of the body core, J/kg/K
	C       float64 // heat capacity of the body core per skin area, J/K/m2
	R       float64 // Zf/Rf ratio, Pa/K
	Qr      float64 // reference metabolic rate per skin area, W/m2
	PhiSalt float64 // vapor saturation level over a saline solution
	Tc      float64 // core temperature, K
	Pc      float64 // core vapor pressure, Pa
	L       float64 // latent heat of vaporization at the core temperature, J/kg
	P       float64 // atmospheric pressure, Pa
	Eta     float64 // inhaled mass per metabolic rate, kg/J
	Pa0     float64 // reference air vapor pressure in regimes III, IV, V, VI, Pa

	// Mass transfer resistances through air, Pa m2/W
	Za    float64 // exposed skin
	ZaBar float64 // clothed skin
	ZaUn  float64 // naked skin
}

// Baseline and limit resistances of the model.
const (
	rs_blood   = 0.0387 // heat transfer resistance through skin at normal blood flow, m2K/W
	rs_min     = 0.004  // physiological minimum skin resistance, m2K/W
	phi_base   = 0.84   // baseline clothing fraction
	zs_blood   = 52.1   // mass transfer resistance through skin at Rs = rs_blood, Pa m2/W
	zs_coef    = 6.0e8  // Zs(Rs) power law coefficient
	clo_per_rf = 16.7   // clothing resistance per thickness, (m2K/W)/m
)

// Root solver tolerances carried from the model.
const (
	solver_tol     = 1e-7 // equilibrium root finds, K
	solver_tol_T   = 1e-8 // heat index inversion, K
	solver_maxiter = 300
)

/*
NewPhysConsts builds the constant set of the heat index model.

    Returns:
        PhysConsts with every derived quantity (surface area, core heat
        capacity, core vapor pressure, latent heat) evaluated once.
*/
func NewPhysConsts() *PhysConsts {
	pc := &PhysConsts{
		Ttrip: 273.16,
		Ptrip: 611.65,
		E0v:   2.3740e6,
		E0s:   0.3337e6,
		Rgasa: 287.04,
		Rgasv: 461.,
		Cva:   719.,
		Cvv:   1418.,
		Cvl:   4119.,
		Cvs:   1861.,

		Sigma:   5.67e-8,
		Epsilon: 0.97,
		M:       83.6,
		H:       1.69,
		Cpc:     3492.,
		R:       124.,
		Qr:      180.,
		PhiSalt: 0.9,
		Tc:      310.,
		P:       1.013e5,
		Eta:     1.43e-6,
		Pa0:     1.6e3,

		Za:    60.6 / 17.4,
		ZaBar: 60.6 / 11.6,
		ZaUn:  60.6 / 12.3,
	}

	pc.Cpa = pc.Cva + pc.Rgasa
	pc.Cpv = pc.Cvv + pc.Rgasv

	// DuBois formula for body surface area, m2
	pc.A = 0.202 * math.Pow(pc.M, 0.425) * math.Pow(pc.H, 0.725)

	// Heat capacity of the body core per skin area, J/K/m2
	pc.C = pc.M * pc.Cpc / pc.A

	// Core vapor pressure, Pa
	pc.Pc = pc.PhiSalt * pc.pvstar(pc.Tc)

	// Latent heat of vaporization at the core temperature, J/kg
	pc.L = pc.get_le(pc.Tc)

	return pc
}

/*
Solar heat gain on the body from the mean radiant temperature.

    Args:
        mrt: mean radiant temperature, K

    Returns:
        solar heat gain, W/m2
*/
func (pc *PhysConsts) qsolar(mrt float64) float64 {
	return math.Pow(mrt, 4.) * pc.Sigma * pc.Epsilon / pc.A
}

/*
Respiratory heat loss.

    Args:
        ta: air temperature, K
        pa: air vapor pressure, Pa
        qx: metabolic heat rate, W/m2

    Returns:
        respiratory heat loss, W/m2
*/
func (pc *PhysConsts) qv(ta, pa, qx float64) float64 {
	return pc.Eta * qx * (pc.Cpa*(pc.Tc-ta) + pc.L*pc.Rgasa/(pc.P*pc.Rgasv)*(pc.Pc-pa))
}

/*
Mass transfer resistance through the skin.

    Args:
        rs: heat transfer resistance through skin, m2K/W

    Returns:
        mass transfer resistance through skin, Pa m2/W

    Notes:
        At the normal blood flow resistance the measured value is used; away
        from it the resistance follows the fifth power law of the model.
*/
func (pc *PhysConsts) zs(rs float64) float64 {
	if rs == rs_blood {
		return zs_blood
	}
	return zs_coef * math.Pow(rs, 5.)
}

/*
Heat transfer resistance through air for the exposed skin part.

    Args:
        ts: skin temperature, K
        ta: air temperature, K

    Returns:
        heat transfer resistance, K m2/W
*/
func (pc *PhysConsts) ra(ts, ta float64) float64 {
	const hc = 17.4       // convective heat transfer coefficient, W/m2K
	const phi_rad = 0.85  // radiative view factor
	hr := pc.Epsilon * phi_rad * pc.Sigma * (ts*ts + ta*ta) * (ts + ta)
	return 1. / (hc + hr)
}

/*
Heat transfer resistance through air for the clothed skin part.

    Args:
        tf: clothing temperature, K
        ta: air temperature, K

    Returns:
        heat transfer resistance, K m2/W
*/
func (pc *PhysConsts) ra_bar(tf, ta float64) float64 {
	const hc = 11.6
	const phi_rad = 0.79
	hr := pc.Epsilon * phi_rad * pc.Sigma * (tf*tf + ta*ta) * (tf + ta)
	return 1. / (hc + hr)
}

/*
Heat transfer resistance through air for fully naked skin.

    Args:
        ts: skin temperature, K
        ta: air temperature, K

    Returns:
        heat transfer resistance, K m2/W
*/
func (pc *PhysConsts) ra_un(ts, ta float64) float64 {
	const hc = 12.3
	const phi_rad = 0.80
	hr := pc.Epsilon * phi_rad * pc.Sigma * (ts*ts + ta*ta) * (ts + ta)
	return 1. / (hc + hr)
}
