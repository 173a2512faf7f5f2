package ehi

import "math"

/*
Saturation vapor pressure over a plane surface of water or ice.

    Args:
        t: air temperature, K

    Returns:
        saturation vapor pressure, Pa

    Notes:
        Below the triple point the ice-phase Clausius-Clapeyron form is used,
        at and above it the liquid-phase form. The two branches agree at the
        triple point; the regime classification relies on continuity there.
        Returns 0 at t = 0 to keep the cold-degenerate input well defined.
*/
func (pc *PhysConsts) pvstar(t float64) float64 {
	if t == 0.0 {
		return 0.0
	}

	if t < pc.Ttrip {
		return pc.Ptrip * math.Pow(t/pc.Ttrip, (pc.Cpv-pc.Cvs)/pc.Rgasv) *
			math.Exp((pc.E0v+pc.E0s-(pc.Cvv-pc.Cvs)*pc.Ttrip)/pc.Rgasv*(1./pc.Ttrip-1./t))
	}

	return pc.Ptrip * math.Pow(t/pc.Ttrip, (pc.Cpv-pc.Cvl)/pc.Rgasv) *
		math.Exp((pc.E0v-(pc.Cvv-pc.Cvl)*pc.Ttrip)/pc.Rgasv*(1./pc.Ttrip-1./t))
}

/*
Latent heat of vaporization of water.

    Args:
        t: temperature, K

    Returns:
        latent heat of vaporization, J/kg

    Notes:
        Linear correction of the reference latent heat by the heat capacity
        difference between vapor and liquid, plus the gas constant term.
*/
func (pc *PhysConsts) get_le(t float64) float64 {
	return pc.E0v + (pc.Cvv-pc.Cvl)*(t-pc.Ttrip) + pc.Rgasv*t
}
