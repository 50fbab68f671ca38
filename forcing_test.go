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
	"testing"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// synthDataset builds a small but physically plausible merged ERA5
// dataset on the 3×3 test grid, with 2 time steps and 3 pressure
// levels.
func synthDataset() *Dataset {
	const nt, nl = 2, 3
	ds := NewDataset()
	ds.Times = []float64{1704067200, 1704070800} // 2024-01-01 00:00 and 01:00 UTC
	ds.Levels = []float64{1000, 850, 500}        // hPa
	ds.Lats = testLats
	ds.Lons = testLons

	grid4 := func(f func(tt, l, i, j int) float64) *sparse.DenseArray {
		a := sparse.ZerosDense(nt, nl, 3, 3)
		for tt := 0; tt < nt; tt++ {
			for l := 0; l < nl; l++ {
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						a.Set(f(tt, l, i, j), tt, l, i, j)
					}
				}
			}
		}
		return a
	}
	grid3 := func(f func(tt, i, j int) float64) *sparse.DenseArray {
		a := sparse.ZerosDense(nt, 3, 3)
		for tt := 0; tt < nt; tt++ {
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					a.Set(f(tt, i, j), tt, i, j)
				}
			}
		}
		return a
	}

	ds.AddVariable("z", nil, "geopotential", "m**2 s**-2", grid4(func(tt, l, i, j int) float64 {
		return 1000 + 2000*float64(l) + 30*float64(j) - 20*float64(i) + 5*float64(tt)
	}))
	ds.AddVariable("t", nil, "temperature", "K", grid4(func(tt, l, i, j int) float64 {
		return 285 - 10*float64(l) + 0.1*float64(i) + 0.2*float64(j) + float64(tt)
	}))
	ds.AddVariable("q", nil, "specific humidity", "kg kg**-1", grid4(func(tt, l, i, j int) float64 {
		return 0.008 - 0.002*float64(l) + 0.0001*float64(j)
	}))
	ds.AddVariable("u", nil, "u wind", "m s**-1", grid4(func(tt, l, i, j int) float64 {
		return 10 + float64(l) + 0.5*float64(tt)
	}))
	ds.AddVariable("v", nil, "v wind", "m s**-1", grid4(func(tt, l, i, j int) float64 {
		return 5 - 0.5*float64(l)
	}))
	ds.AddVariable("w", nil, "vertical velocity", "Pa s**-1", grid4(func(tt, l, i, j int) float64 {
		return 0.1 + 0.05*float64(l)
	}))

	ds.AddVariable("sp", nil, "surface pressure", "Pa", grid3(func(tt, i, j int) float64 {
		return 101000 + 100*float64(tt)
	}))
	ds.AddVariable("t2m", nil, "2 metre temperature", "K", grid3(func(tt, i, j int) float64 {
		return 284 + float64(tt)
	}))
	ds.AddVariable("tsr", nil, "top net solar radiation", "J m**-2", grid3(func(tt, i, j int) float64 {
		return 2.0e6 + 1.0e5*float64(tt)
	}))
	ds.AddVariable("ttr", nil, "top net thermal radiation", "J m**-2", grid3(func(tt, i, j int) float64 {
		return -8.0e5
	}))
	ds.AddVariable("ssr", nil, "surface net solar radiation", "J m**-2", grid3(func(tt, i, j int) float64 {
		return 1.5e6
	}))
	ds.AddVariable("str", nil, "surface net thermal radiation", "J m**-2", grid3(func(tt, i, j int) float64 {
		return -3.0e5
	}))
	ds.AddVariable("ssrd", nil, "surface solar radiation downwards", "J m**-2", grid3(func(tt, i, j int) float64 {
		return 1.8e6
	}))
	ds.AddVariable("strd", nil, "surface thermal radiation downwards", "J m**-2", grid3(func(tt, i, j int) float64 {
		return 2.5e5
	}))
	return ds
}

func TestToSCMForcing(t *testing.T) {
	ds := synthDataset()
	out, err := ToSCMForcing(ds, ForcingOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Levels) != 3 || out.Levels[0] != 100000 || out.Levels[2] != 50000 {
		t.Errorf("output levels = %v; want hPa converted to Pa", out.Levels)
	}
	if len(out.Times) != 2 {
		t.Errorf("output has %d times; want 2", len(out.Times))
	}

	for _, name := range []string{
		"p_surf", "T_surf", "w_ls", "omega", "u_g", "v_g",
		"u_nudge", "v_nudge", "T_nudge", "thil_nudge", "qt_nudge",
		"dT_dt_rad", "h_advec_thetail", "v_advec_thetail",
		"h_advec_qt", "v_advec_qt",
	} {
		v, ok := out.Data[name]
		if !ok {
			t.Errorf("output is missing variable %s", name)
			continue
		}
		if v.Units == "" || v.LongName == "" {
			t.Errorf("variable %s is missing attributes", name)
		}
	}

	// Profile variables are ordered (levels, time).
	tn := out.Data["T_nudge"].Data
	if tn.Shape[0] != 3 || tn.Shape[1] != 2 {
		t.Fatalf("T_nudge shape = %v; want [3 2]", tn.Shape)
	}
	tGrid, err := ds.Grid4("t")
	if err != nil {
		t.Fatal(err)
	}
	for l := 0; l < 3; l++ {
		for tt := 0; tt < 2; tt++ {
			if tn.Get(l, tt) != tGrid.Get(tt, l, 1, 1) {
				t.Errorf("T_nudge(%d,%d) = %g; want center value %g",
					l, tt, tn.Get(l, tt), tGrid.Get(tt, l, 1, 1))
			}
		}
	}

	// Surface variables are ordered (time).
	ps := out.Data["p_surf"].Data
	if len(ps.Shape) != 1 || ps.Shape[0] != 2 {
		t.Fatalf("p_surf shape = %v; want [2]", ps.Shape)
	}
	if ps.Get(0) != 101000 || ps.Get(1) != 101100 {
		t.Errorf("p_surf = %v; want [101000 101100]", ps.Elements)
	}

	// w_ls = −ω/(ρg) with ρ = p_surf/(R_d·T).
	omegaOut := out.Data["omega"].Data
	wls := out.Data["w_ls"].Data
	for l := 0; l < 3; l++ {
		for tt := 0; tt < 2; tt++ {
			rho := ps.Get(tt) / (rd * tn.Get(l, tt))
			want := -omegaOut.Get(l, tt) / (rho * g)
			if !closeTo(wls.Get(l, tt), want, tolerance) {
				t.Errorf("w_ls(%d,%d) = %g; want %g", l, tt, wls.Get(l, tt), want)
			}
		}
	}

	// The geostrophic wind matches a direct evaluation.
	zGrid, err := ds.Grid4("z")
	if err != nil {
		t.Fatal(err)
	}
	ug, vg, err := GeostrophicWind(zGrid, ds.Lats, ds.Lons)
	if err != nil {
		t.Fatal(err)
	}
	for l := 0; l < 3; l++ {
		for tt := 0; tt < 2; tt++ {
			if !closeTo(out.Data["u_g"].Data.Get(l, tt), ug.Get(tt, l), tolerance) {
				t.Errorf("u_g(%d,%d) = %g; want %g", l, tt,
					out.Data["u_g"].Data.Get(l, tt), ug.Get(tt, l))
			}
			if !closeTo(out.Data["v_g"].Data.Get(l, tt), vg.Get(tt, l), tolerance) {
				t.Errorf("v_g(%d,%d) = %g; want %g", l, tt,
					out.Data["v_g"].Data.Get(l, tt), vg.Get(tt, l))
			}
		}
	}
}

// The moisture tendency slots carry the theta_il tendencies; this
// pins that behavior so any change to it is deliberate.
func TestQtAdvectionMirrorsTheta(t *testing.T) {
	out, err := ToSCMForcing(synthDataset(), ForcingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	hTheta := out.Data["h_advec_thetail"].Data
	hQt := out.Data["h_advec_qt"].Data
	vTheta := out.Data["v_advec_thetail"].Data
	vQt := out.Data["v_advec_qt"].Data
	for i := range hTheta.Elements {
		if hQt.Elements[i] != hTheta.Elements[i] {
			t.Fatalf("h_advec_qt[%d] = %g; want the theta_il value %g",
				i, hQt.Elements[i], hTheta.Elements[i])
		}
		if vQt.Elements[i] != vTheta.Elements[i] {
			t.Fatalf("v_advec_qt[%d] = %g; want the theta_il value %g",
				i, vQt.Elements[i], vTheta.Elements[i])
		}
	}
}

func TestDownwardSurfaceRadiationOption(t *testing.T) {
	ds := synthDataset()
	net, err := ToSCMForcing(ds, ForcingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	down, err := ToSCMForcing(ds, ForcingOptions{DownwardSurfaceRadiation: true})
	if err != nil {
		t.Fatal(err)
	}

	tn := net.Data["T_nudge"].Data
	netRad := net.Data["dT_dt_rad"].Data
	downRad := down.Data["dT_dt_rad"].Data
	// ssr/str and ssrd/strd differ in the synthetic data, so the two
	// heating rates must differ by exactly the flux difference over p·T.
	const fluxDelta = (1.5e6 - 1.8e6) + (-3.0e5 - 2.5e5) // (ssr−ssrd)+(str−strd)
	for l := 0; l < 3; l++ {
		for tt := 0; tt < 2; tt++ {
			// The downward fluxes are subtracted in the budget, so
			// net − down = −fluxDelta/(p·T).
			want := -fluxDelta / (net.Levels[l] * tn.Get(l, tt))
			gotDelta := netRad.Get(l, tt) - downRad.Get(l, tt)
			if !closeTo(gotDelta, want, tolerance) {
				t.Errorf("heating difference(%d,%d) = %g; want %g", l, tt, gotDelta, want)
			}
		}
	}
}

// Every units string in the attribute table must agree with the
// dimensional signature declared next to it.
func TestForcingAttrDimensions(t *testing.T) {
	wantDims := map[string]unit.Dimensions{
		"Pa":            unit.Pascal,
		"K":             unit.Kelvin,
		"m s^-1":        unit.MeterPerSecond,
		"kg kg^-1":      unit.Dimless,
		"K s^-1":        kelvinPerSecond,
		"Pa s^-1":       pascalPerSecond,
		"kg kg^-1 s^-1": perSecond,
	}
	for name, attrs := range forcingAttrs {
		if attrs.dimension == nil {
			t.Errorf("variable %s has no dimensional signature", name)
			continue
		}
		want, ok := wantDims[attrs.units]
		if !ok {
			t.Errorf("variable %s has unrecognized units %q", name, attrs.units)
			continue
		}
		if !attrs.dimension.Matches(want) {
			t.Errorf("variable %s: dimensions %v do not match units %q", name, attrs.dimension, attrs.units)
		}
	}
}

func TestToSCMForcingMissingVariable(t *testing.T) {
	ds := synthDataset()
	delete(ds.Vars, "q")
	if _, err := ToSCMForcing(ds, ForcingOptions{}); err == nil {
		t.Error("expected an error for a missing input variable")
	}
}

func TestToSCMForcingNeedsPatch(t *testing.T) {
	ds := synthDataset()
	ds.Lats = []float64{40}
	if _, err := ToSCMForcing(ds, ForcingOptions{}); err == nil {
		t.Error("expected an error for a non-3×3 grid")
	}
}
