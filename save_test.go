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
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
)

// testForcing builds a small forcing dataset with recognizable
// values.
func testForcing(scale float64) *ForcingData {
	f := &ForcingData{
		Levels: []float64{100000, 85000},
		Times:  []float64{0, 3600, 7200},
		Data:   make(map[string]*ForcingVariable),
	}
	profile := sparse.ZerosDense(2, 3)
	for l := 0; l < 2; l++ {
		for tt := 0; tt < 3; tt++ {
			profile.Set(scale*float64(10*l+tt), l, tt)
		}
	}
	f.addVar("T_nudge", profile)
	surf := sparse.ZerosDense(3)
	for tt := 0; tt < 3; tt++ {
		surf.Set(scale*100000, tt)
	}
	f.addVar("p_surf", surf)
	return f
}

func TestSaveLoadForcing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.nc")
	orig := testForcing(1)
	if err := SaveForcing(orig, path, "forcing"); err != nil {
		t.Fatal(err)
	}

	got, err := LoadForcing(path, "forcing")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Levels) != 2 || got.Levels[0] != 100000 || got.Levels[1] != 85000 {
		t.Errorf("levels = %v; want [100000 85000]", got.Levels)
	}
	if len(got.Times) != 3 || got.Times[2] != 7200 {
		t.Errorf("times = %v; want [0 3600 7200]", got.Times)
	}

	tn, ok := got.Data["T_nudge"]
	if !ok {
		t.Fatal("loaded file is missing T_nudge")
	}
	if tn.Units != "K" {
		t.Errorf("T_nudge units = %q; want K", tn.Units)
	}
	if tn.LongName != "absolute temperature to nudge toward" {
		t.Errorf("T_nudge long_name = %q", tn.LongName)
	}
	want := orig.Data["T_nudge"].Data
	for i := range want.Elements {
		if tn.Data.Elements[i] != want.Elements[i] {
			t.Fatalf("T_nudge element %d = %g; want %g", i, tn.Data.Elements[i], want.Elements[i])
		}
	}

	ps := got.Data["p_surf"]
	if len(ps.Data.Shape) != 1 || ps.Data.Shape[0] != 3 {
		t.Errorf("p_surf shape = %v; want [3]", ps.Data.Shape)
	}
}

func TestSaveForcingAppendsGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.nc")
	if err := SaveForcing(testForcing(1), path, "forcing"); err != nil {
		t.Fatal(err)
	}
	if err := SaveForcing(testForcing(2), path, "forcing_b"); err != nil {
		t.Fatal(err)
	}

	a, err := LoadForcing(path, "forcing")
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadForcing(path, "forcing_b")
	if err != nil {
		t.Fatal(err)
	}
	if a.Data["p_surf"].Data.Get(0) != 100000 {
		t.Errorf("first group p_surf = %g; want 100000", a.Data["p_surf"].Data.Get(0))
	}
	if b.Data["p_surf"].Data.Get(0) != 200000 {
		t.Errorf("second group p_surf = %g; want 200000", b.Data["p_surf"].Data.Get(0))
	}
}

func TestSaveForcingReplacesGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.nc")
	if err := SaveForcing(testForcing(1), path, "forcing"); err != nil {
		t.Fatal(err)
	}
	if err := SaveForcing(testForcing(3), path, "forcing"); err != nil {
		t.Fatal(err)
	}
	got, err := LoadForcing(path, "forcing")
	if err != nil {
		t.Fatal(err)
	}
	if got.Data["p_surf"].Data.Get(0) != 300000 {
		t.Errorf("replaced group p_surf = %g; want 300000", got.Data["p_surf"].Data.Get(0))
	}
}

func TestLoadForcingMissingGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.nc")
	if err := SaveForcing(testForcing(1), path, "forcing"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadForcing(path, "nope"); err == nil {
		t.Error("expected an error for a missing group")
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.nc")
	levels := []float64{100000, 85000, 50000}
	times := []float64{0, 3600}
	if err := WriteTemplate(path, "forcing", levels, times); err != nil {
		t.Fatal(err)
	}
	got, err := LoadForcing(path, "forcing")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Data) != len(forcingAttrs) {
		t.Errorf("template has %d variables; want %d", len(got.Data), len(forcingAttrs))
	}
	for name, v := range got.Data {
		wantRank := 2
		if surfaceVars[name] {
			wantRank = 1
		}
		if len(v.Data.Shape) != wantRank {
			t.Errorf("template variable %s has shape %v; want rank %d", name, v.Data.Shape, wantRank)
		}
		for i, e := range v.Data.Elements {
			if e != 0 {
				t.Errorf("template variable %s element %d = %g; want 0", name, i, e)
				break
			}
		}
	}
}

func TestNewTemplateEmptyAxes(t *testing.T) {
	if _, err := NewTemplate(nil, []float64{0}); err == nil {
		t.Error("expected an error for empty level axis")
	}
}
