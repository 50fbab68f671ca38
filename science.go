/*
Copyright © 2025 the era5-to-ccpp-scm-tool authors.
This file is part of era5-to-ccpp-scm-tool.

era5-to-ccpp-scm-tool is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

era5-to-ccpp-scm-tool is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with era5-to-ccpp-scm-tool.  If not, see <http://www.gnu.org/licenses/>.
*/

package era5scm

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

func deg2rad(d float64) float64 { return d * math.Pi / 180. }

// GridSpacing converts the 3-point latitude and longitude axes into
// physical grid spacing [m] at the point with index centerIdx
// (normally 1, the middle of the patch). dx shrinks toward the poles
// with the cosine of the center latitude.
func GridSpacing(lats, lons []float64, centerIdx int) (dx, dy float64) {
	latRad := deg2rad(lats[centerIdx])
	dy = rEarth * deg2rad(math.Abs(lats[2]-lats[0])) / 2
	dx = rEarth * math.Cos(latRad) * deg2rad(math.Abs(lons[2]-lons[0])) / 2
	return dx, dy
}

// HorizontalGradients calculates zonal and meridional gradients of v
// at the center point using centered differences across the 3×3 patch.
// v must have shape (time, levels, latitude=3, longitude=3); the
// results have shape (time, levels). The patch is assumed to be
// uniformly spaced; this is not validated.
func HorizontalGradients(v *sparse.DenseArray, lats, lons []float64, centerIdx int) (ddx, ddy *sparse.DenseArray, err error) {
	if len(v.Shape) != 4 || v.Shape[2] != 3 || v.Shape[3] != 3 {
		return nil, nil, fmt.Errorf("era5scm: horizontal gradients: shape is %v; want (time, levels, 3, 3)", v.Shape)
	}
	dx, dy := GridSpacing(lats, lons, centerIdx)
	nt, nl := v.Shape[0], v.Shape[1]
	ddx = sparse.ZerosDense(nt, nl)
	ddy = sparse.ZerosDense(nt, nl)
	for t := 0; t < nt; t++ {
		for l := 0; l < nl; l++ {
			ddx.Set((v.Get(t, l, 1, 2)-v.Get(t, l, 1, 0))/(2*dx), t, l)
			ddy.Set((v.Get(t, l, 2, 1)-v.Get(t, l, 0, 1))/(2*dy), t, l)
		}
	}
	return ddx, ddy, nil
}

// GeostrophicWind calculates the geostrophic wind components at the
// center point from geopotential height z [m] over the 3×3 grid:
// u_g = −(g/f)·∂z/∂y and v_g = (g/f)·∂z/∂x, where f = 2Ω·sin(lat) is
// the Coriolis parameter at the center latitude.
//
// f vanishes at the equator, so the result there is unbounded; no
// guard is applied.
func GeostrophicWind(z *sparse.DenseArray, lats, lons []float64) (ug, vg *sparse.DenseArray, err error) {
	f := 2 * omega * math.Sin(deg2rad(lats[1]))
	dzdx, dzdy, err := HorizontalGradients(z, lats, lons, 1)
	if err != nil {
		return nil, nil, err
	}
	ug = dzdy.ScaleCopy(-g / f)
	vg = dzdx.ScaleCopy(g / f)
	return ug, vg, nil
}

// Advection calculates the horizontal and vertical advective
// tendencies of v at the center point:
// h_advec = −(u·∂v/∂x + v·∂v/∂y) and v_advec = −w·∂v/∂z.
//
// v has shape (time, levels, 3, 3); u, vWind, and w are the
// center-point wind components over (time, levels).
// pressure holds the level axis in Pa. The vertical gradient is taken
// against a standard-atmosphere height profile derived from the
// pressure axis alone, so the same heights apply at every time step.
// temperature (center point, K) is accepted for compatibility with the
// flux form of the calculation but does not enter the result.
func Advection(v, u, vWind, w *sparse.DenseArray, lats, lons, pressure []float64, temperature *sparse.DenseArray, centerIdx int) (hAdvec, vAdvec *sparse.DenseArray, err error) {
	dvdx, dvdy, err := HorizontalGradients(v, lats, lons, centerIdx)
	if err != nil {
		return nil, nil, err
	}
	nt, nl := v.Shape[0], v.Shape[1]
	if len(pressure) != nl {
		return nil, nil, fmt.Errorf("era5scm: advection: %d pressure levels for %d-level variable", len(pressure), nl)
	}
	heights := PressureToHeightStd(pressure)

	hAdvec = sparse.ZerosDense(nt, nl)
	vAdvec = sparse.ZerosDense(nt, nl)
	column := make([]float64, nl)
	for t := 0; t < nt; t++ {
		for l := 0; l < nl; l++ {
			column[l] = v.Get(t, l, centerIdx, centerIdx)
		}
		dvdz := gradient(column, heights)
		for l := 0; l < nl; l++ {
			hAdvec.Set(-(u.Get(t, l)*dvdx.Get(t, l) + vWind.Get(t, l)*dvdy.Get(t, l)), t, l)
			vAdvec.Set(-w.Get(t, l)*dvdz[l], t, l)
		}
	}
	return hAdvec, vAdvec, nil
}

// gradient calculates the derivative of vals with respect to coords
// using second-order centered differences on the (possibly unevenly
// spaced) interior points and first-order one-sided differences at the
// edges.
func gradient(vals, coords []float64) []float64 {
	n := len(vals)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = (vals[1] - vals[0]) / (coords[1] - coords[0])
	out[n-1] = (vals[n-1] - vals[n-2]) / (coords[n-1] - coords[n-2])
	for i := 1; i < n-1; i++ {
		hs := coords[i] - coords[i-1]
		hd := coords[i+1] - coords[i]
		out[i] = (hs*hs*vals[i+1] + (hd*hd-hs*hs)*vals[i] - hd*hd*vals[i-1]) /
			(hs * hd * (hd + hs))
	}
	return out
}

// PressureToHeightStd converts a pressure profile [Pa] to heights [m]
// using the US standard atmosphere:
// z = (T₀/Γ)·(1 − (p/p₀)^(R·Γ/g)).
func PressureToHeightStd(pressure []float64) []float64 {
	const exponent = stdRd * stdGamma / stdG
	heights := make([]float64, len(pressure))
	for i, p := range pressure {
		heights[i] = stdT0 / stdGamma * (1 - math.Pow(p/stdP0, exponent))
	}
	return heights
}

// PotentialTemperature converts temperature [K] to potential
// temperature via the Poisson relation θ = T·(p₀/p)^(R/cₚ) with
// p₀ = 100,000 Pa. Axis 1 of t must be the level axis; pressure holds
// the level axis in Pa.
func PotentialTemperature(t *sparse.DenseArray, pressure []float64) (*sparse.DenseArray, error) {
	if len(t.Shape) < 2 || t.Shape[1] != len(pressure) {
		return nil, fmt.Errorf("era5scm: potential temperature: shape %v does not match %d levels",
			t.Shape, len(pressure))
	}
	factor := make([]float64, len(pressure))
	for l, p := range pressure {
		factor[l] = math.Pow(p0/p, rdOvCp)
	}
	out := t.Copy()
	// Trailing axes, if any, are the horizontal footprint.
	inner := 1
	for _, s := range t.Shape[2:] {
		inner *= s
	}
	nl := t.Shape[1]
	for i := range out.Elements {
		l := (i / inner) % nl
		out.Elements[i] *= factor[l]
	}
	return out, nil
}

// RadiativeHeating approximates the radiative heating rate [K s-1]
// from top-of-atmosphere and surface radiation flux series:
// (swnet_top − swdn_sfc + lwnet_top − lwdn_sfc) / (p·T), with the same
// scalar flux difference broadcast across every level at each time
// step. temperature is the center-point profile over (time, levels).
func RadiativeHeating(swnetTop, swdnSfc, lwnetTop, lwdnSfc, pressure []float64, temperature *sparse.DenseArray) *sparse.DenseArray {
	nt := len(swnetTop)
	nl := len(pressure)
	out := sparse.ZerosDense(nt, nl)
	for t := 0; t < nt; t++ {
		net := swnetTop[t] - swdnSfc[t] + lwnetTop[t] - lwdnSfc[t]
		for l := 0; l < nl; l++ {
			out.Set(net/(pressure[l]*temperature.Get(t, l)), t, l)
		}
	}
	return out
}
