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
	"sort"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// derived dimension signatures not predefined by the unit package
var (
	kelvinPerSecond = unit.Dimensions{unit.TemperatureDim: 1, unit.TimeDim: -1}
	pascalPerSecond = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -3}
	perSecond       = unit.Dimensions{unit.TimeDim: -1}
)

// forcingAttrs describes every variable a forcing file may contain:
// its NetCDF units string, descriptive name, and dimensional
// signature.
var forcingAttrs = map[string]struct {
	units     string
	longName  string
	dimension unit.Dimensions
}{
	"p_surf":          {"Pa", "surface pressure", unit.Pascal},
	"T_surf":          {"K", "surface absolute temperature", unit.Kelvin},
	"w_ls":            {"m s^-1", "large scale vertical velocity", unit.MeterPerSecond},
	"omega":           {"Pa s^-1", "large scale pressure vertical velocity", pascalPerSecond},
	"u_g":             {"m s^-1", "large scale geostrophic E-W wind", unit.MeterPerSecond},
	"v_g":             {"m s^-1", "large scale geostrophic N-S wind", unit.MeterPerSecond},
	"u_nudge":         {"m s^-1", "E-W wind to nudge toward", unit.MeterPerSecond},
	"v_nudge":         {"m s^-1", "N-S wind to nudge toward", unit.MeterPerSecond},
	"T_nudge":         {"K", "absolute temperature to nudge toward", unit.Kelvin},
	"thil_nudge":      {"K", "potential temperature to nudge toward", unit.Kelvin},
	"qt_nudge":        {"kg kg^-1", "q_t to nudge toward", unit.Dimless},
	"dT_dt_rad":       {"K s^-1", "prescribed radiative heating rate", kelvinPerSecond},
	"h_advec_thetail": {"K s^-1", "prescribed theta_il tendency due to horizontal advection", kelvinPerSecond},
	"v_advec_thetail": {"K s^-1", "prescribed theta_il tendency due to vertical advection", kelvinPerSecond},
	"h_advec_qt":      {"kg kg^-1 s^-1", "prescribed q_t tendency due to horizontal advection", perSecond},
	"v_advec_qt":      {"kg kg^-1 s^-1", "prescribed q_t tendency due to vertical advection", perSecond},
}

// ForcingVariable holds one output field together with its metadata.
// Profile variables have shape (levels, time); surface variables have
// shape (time).
type ForcingVariable struct {
	Units     string
	LongName  string
	Dimension unit.Dimensions
	Data      *sparse.DenseArray
}

// ForcingData holds the large-scale forcing fields for a single-column
// model case.
type ForcingData struct {
	// Levels holds the pressure-level axis in Pa, surface first.
	Levels []float64
	// Times holds the time axis in seconds since 1970-01-01 00:00:00 UTC.
	Times []float64

	Data map[string]*ForcingVariable
}

// addVar registers data under name with the static attributes for
// that name. It panics on names missing from the attribute table;
// every variable written here is declared there.
func (f *ForcingData) addVar(name string, data *sparse.DenseArray) {
	attrs, ok := forcingAttrs[name]
	if !ok {
		panic(fmt.Sprintf("era5scm: no attributes registered for variable %s", name))
	}
	f.Data[name] = &ForcingVariable{
		Units:     attrs.units,
		LongName:  attrs.longName,
		Dimension: attrs.dimension,
		Data:      data,
	}
}

// Names returns the forcing variable names in sorted order.
func (f *ForcingData) Names() []string {
	names := make([]string, 0, len(f.Data))
	for name := range f.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForcingOptions adjusts details of the forcing calculation.
type ForcingOptions struct {
	// DownwardSurfaceRadiation selects the downward-only surface
	// radiation accumulations (ssrd, strd) for the radiative heating
	// budget instead of the net accumulations (ssr, str). The net
	// fields are the historical default.
	DownwardSurfaceRadiation bool
}

// ToSCMForcing derives the single-column forcing fields from a merged
// ERA5 dataset. The dataset must contain the pressure-level variables
// z, t, q, u, v, and w and the surface variables sp, t2m, tsr, ttr,
// and ssr/str (or ssrd/strd, depending on opts) on the 3×3 grid.
//
// The advective q_t tendencies currently mirror the theta_il
// tendencies; the q advection is evaluated for validation but its
// result is not written. Profile outputs are ordered (levels, time).
func ToSCMForcing(ds *Dataset, opts ForcingOptions) (*ForcingData, error) {
	if len(ds.Lats) != 3 || len(ds.Lons) != 3 {
		return nil, fmt.Errorf("era5scm: forcing needs a 3×3 horizontal grid; have %d×%d",
			len(ds.Lats), len(ds.Lons))
	}

	// Level axis in Pa.
	pressure := make([]float64, len(ds.Levels))
	for i, p := range ds.Levels {
		pressure[i] = p * 100
	}

	z, err := ds.Grid4("z")
	if err != nil {
		return nil, err
	}
	ug, vg, err := GeostrophicWind(z, ds.Lats, ds.Lons)
	if err != nil {
		return nil, err
	}

	t4, err := ds.Grid4("t")
	if err != nil {
		return nil, err
	}
	theta4, err := PotentialTemperature(t4, pressure)
	if err != nil {
		return nil, err
	}

	uC, err := ds.CenterProfile("u")
	if err != nil {
		return nil, err
	}
	vC, err := ds.CenterProfile("v")
	if err != nil {
		return nil, err
	}
	omegaC, err := ds.CenterProfile("w")
	if err != nil {
		return nil, err
	}
	tC, err := ds.CenterProfile("t")
	if err != nil {
		return nil, err
	}

	hTheta, vTheta, err := Advection(theta4, uC, vC, omegaC, ds.Lats, ds.Lons, pressure, tC, 1)
	if err != nil {
		return nil, err
	}

	// The humidity advection is evaluated against the same winds but
	// its result is discarded; the q_t tendencies below reuse the
	// theta_il tendencies.
	q4, err := ds.Grid4("q")
	if err != nil {
		return nil, err
	}
	if _, _, err := Advection(q4, uC, vC, omegaC, ds.Lats, ds.Lons, pressure, tC, 1); err != nil {
		return nil, err
	}

	spC, err := ds.CenterSeries("sp")
	if err != nil {
		return nil, err
	}

	// Convert omega to vertical velocity: w = −ω/(ρg), with
	// ρ = p_surf/(R_d·T) as an approximate air density.
	nt, nl := len(ds.Times), len(ds.Levels)
	wLS := sparse.ZerosDense(nt, nl)
	for t := 0; t < nt; t++ {
		for l := 0; l < nl; l++ {
			rho := spC[t] / (rd * tC.Get(t, l))
			wLS.Set(-omegaC.Get(t, l)/(rho*g), t, l)
		}
	}

	thilNudge, err := PotentialTemperature(tC, pressure)
	if err != nil {
		return nil, err
	}
	qC, err := ds.CenterProfile("q")
	if err != nil {
		return nil, err
	}

	t2m, err := ds.CenterSeries("t2m")
	if err != nil {
		return nil, err
	}

	swnetTop, err := ds.CenterSeries("tsr")
	if err != nil {
		return nil, err
	}
	lwnetTop, err := ds.CenterSeries("ttr")
	if err != nil {
		return nil, err
	}
	swSfc, lwSfc := "ssr", "str"
	if opts.DownwardSurfaceRadiation {
		swSfc, lwSfc = "ssrd", "strd"
	}
	swdnSfc, err := ds.CenterSeries(swSfc)
	if err != nil {
		return nil, err
	}
	lwdnSfc, err := ds.CenterSeries(lwSfc)
	if err != nil {
		return nil, err
	}
	dTdtRad := RadiativeHeating(swnetTop, swdnSfc, lwnetTop, lwdnSfc, pressure, tC)

	out := &ForcingData{
		Levels: pressure,
		Times:  append([]float64{}, ds.Times...),
		Data:   make(map[string]*ForcingVariable),
	}
	out.addVar("w_ls", transposeLT(wLS))
	out.addVar("omega", transposeLT(omegaC))
	out.addVar("u_nudge", transposeLT(uC))
	out.addVar("v_nudge", transposeLT(vC))
	out.addVar("T_nudge", transposeLT(tC))
	out.addVar("thil_nudge", transposeLT(thilNudge))
	out.addVar("qt_nudge", transposeLT(qC))
	out.addVar("u_g", transposeLT(ug))
	out.addVar("v_g", transposeLT(vg))
	out.addVar("h_advec_thetail", transposeLT(hTheta))
	out.addVar("v_advec_thetail", transposeLT(vTheta))
	out.addVar("h_advec_qt", transposeLT(hTheta))
	out.addVar("v_advec_qt", transposeLT(vTheta))
	out.addVar("dT_dt_rad", transposeLT(dTdtRad))
	out.addVar("p_surf", seriesArray(spC))
	out.addVar("T_surf", seriesArray(t2m))
	return out, nil
}

// transposeLT reorders a (time, levels) array to (levels, time).
func transposeLT(a *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(a.Shape[1], a.Shape[0])
	for t := 0; t < a.Shape[0]; t++ {
		for l := 0; l < a.Shape[1]; l++ {
			out.Set(a.Get(t, l), l, t)
		}
	}
	return out
}

func seriesArray(s []float64) *sparse.DenseArray {
	out := sparse.ZerosDense(len(s))
	copy(out.Elements, s)
	return out
}
