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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// coordTol is the tolerance used when checking that coordinate axes
// from different input files agree.
const coordTol = 1.e-8

// Variable holds one named array from an ERA5 dataset together with
// its metadata.
type Variable struct {
	Dims     []string           // axis names, outermost first
	Units    string             // physical units
	LongName string             // descriptive name
	Data     *sparse.DenseArray // variable data
}

// Dataset is a collection of ERA5 variables sharing coordinate axes.
// Gridded variables are indexed over some subset of
// (time, levels, latitude, longitude), where the horizontal axes have
// size exactly 3 and index (1, 1) is the column of interest.
type Dataset struct {
	// Times holds the time axis in seconds since 1970-01-01 00:00:00 UTC.
	Times []float64
	// Levels holds the pressure-level axis in hPa, as delivered by ERA5.
	Levels []float64
	// Lats and Lons hold the 3-point horizontal axes in degrees.
	Lats []float64
	Lons []float64

	Vars map[string]Variable
}

// NewDataset initializes an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{Vars: make(map[string]Variable)}
}

// AddVariable adds data for a new variable to d.
func (d *Dataset) AddVariable(name string, dims []string, longName, units string, data *sparse.DenseArray) {
	if d.Vars == nil {
		d.Vars = make(map[string]Variable)
	}
	d.Vars[name] = Variable{
		Dims:     dims,
		Units:    units,
		LongName: longName,
		Data:     data,
	}
}

// Get returns the named variable, or an error if it is not present.
func (d *Dataset) Get(name string) (Variable, error) {
	v, ok := d.Vars[name]
	if !ok {
		return Variable{}, fmt.Errorf("era5scm: variable %s is not in the dataset", name)
	}
	return v, nil
}

// checkFootprint returns an error unless the trailing two axes of v
// form the expected 3×3 horizontal footprint.
func checkFootprint(name string, v Variable) error {
	n := len(v.Data.Shape)
	if n < 2 || v.Data.Shape[n-2] != 3 || v.Data.Shape[n-1] != 3 {
		return fmt.Errorf("era5scm: variable %s: horizontal footprint is %v; want 3×3",
			name, v.Data.Shape)
	}
	return nil
}

// Grid4 returns the named variable over (time, levels, latitude, longitude),
// validating its shape against the coordinate axes.
func (d *Dataset) Grid4(name string) (*sparse.DenseArray, error) {
	v, err := d.Get(name)
	if err != nil {
		return nil, err
	}
	if len(v.Data.Shape) != 4 {
		return nil, fmt.Errorf("era5scm: variable %s has %d dimensions; want 4",
			name, len(v.Data.Shape))
	}
	if err := checkFootprint(name, v); err != nil {
		return nil, err
	}
	if v.Data.Shape[0] != len(d.Times) || v.Data.Shape[1] != len(d.Levels) {
		return nil, fmt.Errorf("era5scm: variable %s shape %v does not match %d times × %d levels",
			name, v.Data.Shape, len(d.Times), len(d.Levels))
	}
	return v.Data, nil
}

// Grid3 returns the named surface variable over (time, latitude, longitude),
// validating its shape against the coordinate axes.
func (d *Dataset) Grid3(name string) (*sparse.DenseArray, error) {
	v, err := d.Get(name)
	if err != nil {
		return nil, err
	}
	if len(v.Data.Shape) != 3 {
		return nil, fmt.Errorf("era5scm: variable %s has %d dimensions; want 3",
			name, len(v.Data.Shape))
	}
	if err := checkFootprint(name, v); err != nil {
		return nil, err
	}
	if v.Data.Shape[0] != len(d.Times) {
		return nil, fmt.Errorf("era5scm: variable %s shape %v does not match %d times",
			name, v.Data.Shape, len(d.Times))
	}
	return v.Data, nil
}

// CenterProfile extracts the (time, levels) series of the named
// pressure-level variable at the center grid point.
func (d *Dataset) CenterProfile(name string) (*sparse.DenseArray, error) {
	data, err := d.Grid4(name)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(data.Shape[0], data.Shape[1])
	for t := 0; t < data.Shape[0]; t++ {
		for l := 0; l < data.Shape[1]; l++ {
			out.Set(data.Get(t, l, 1, 1), t, l)
		}
	}
	return out, nil
}

// CenterSeries extracts the time series of the named surface variable
// at the center grid point.
func (d *Dataset) CenterSeries(name string) ([]float64, error) {
	data, err := d.Grid3(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, data.Shape[0])
	for t := range out {
		out[t] = data.Get(t, 1, 1)
	}
	return out, nil
}

// Merge combines the variables of two datasets, typically the ERA5
// surface and pressure-level files for the same period and location.
// Coordinate axes present in both inputs must agree.
func Merge(a, b *Dataset) (*Dataset, error) {
	out := NewDataset()
	var err error
	if out.Times, err = mergeAxis("time", a.Times, b.Times); err != nil {
		return nil, err
	}
	if out.Levels, err = mergeAxis("levels", a.Levels, b.Levels); err != nil {
		return nil, err
	}
	if out.Lats, err = mergeAxis("latitude", a.Lats, b.Lats); err != nil {
		return nil, err
	}
	if out.Lons, err = mergeAxis("longitude", a.Lons, b.Lons); err != nil {
		return nil, err
	}
	for name, v := range a.Vars {
		out.Vars[name] = v
	}
	for name, v := range b.Vars {
		if _, ok := out.Vars[name]; ok {
			return nil, fmt.Errorf("era5scm: merge: variable %s is in both datasets", name)
		}
		out.Vars[name] = v
	}
	return out, nil
}

func mergeAxis(name string, a, b []float64) ([]float64, error) {
	switch {
	case len(a) == 0:
		return b, nil
	case len(b) == 0:
		return a, nil
	case len(a) != len(b) || !floats.EqualApprox(a, b, coordTol):
		return nil, fmt.Errorf("era5scm: merge: %s axes disagree", name)
	}
	return a, nil
}
