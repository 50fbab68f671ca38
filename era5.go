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
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// axisRename maps the axis names used by newer CDS deliveries to the
// canonical names used throughout this package.
var axisRename = map[string]string{
	"valid_time":     "time",
	"pressure_level": "levels",
	"level":          "levels",
}

// auxiliary per-file bookkeeping variables that carry no field data
var skipVars = map[string]bool{
	"number": true,
	"expver": true,
}

// A Source provides an ERA5 dataset for conversion, either from a
// NetCDF file on disk or from data already in memory.
type Source interface {
	Dataset() (*Dataset, error)
}

// PathSource reads the dataset from the NetCDF file at the given path.
type PathSource string

// Dataset implements Source.
func (p PathSource) Dataset() (*Dataset, error) {
	return ReadERA5(string(p))
}

// MemorySource supplies a dataset that has already been constructed,
// for example by merging several files.
type MemorySource struct {
	Data *Dataset
}

// Dataset implements Source.
func (m MemorySource) Dataset() (*Dataset, error) {
	if m.Data == nil {
		return nil, fmt.Errorf("era5scm: memory source holds no dataset")
	}
	return m.Data, nil
}

// ReadERA5 reads an ERA5 NetCDF file (either the HDF5-backed NetCDF4
// layout the CDS delivers or the classic format) into a Dataset.
// Coordinate axes are recognized under both the legacy names
// (time, level) and the current CDS names (valid_time,
// pressure_level) and normalized to time/levels/latitude/longitude.
// Packed integer variables are unpacked with their
// scale_factor/add_offset attributes; times are converted to seconds
// since 1970-01-01 00:00:00 UTC.
func ReadERA5(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("era5scm: opening %s: %w", path, err)
	}
	defer nc.Close()
	ds, err := readGroup(nc)
	if err != nil {
		return nil, fmt.Errorf("era5scm: reading %s: %v", path, err)
	}
	return ds, nil
}

func readGroup(nc api.Group) (*Dataset, error) {
	ds := NewDataset()
	axes := make(map[string]bool)
	for _, name := range nc.ListVariables() {
		canonical := name
		if r, ok := axisRename[name]; ok {
			canonical = r
		}
		switch canonical {
		case "time", "levels", "latitude", "longitude":
			axes[name] = true
		}
	}

	for _, name := range nc.ListVariables() {
		if skipVars[name] {
			continue
		}
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, err
		}
		canonical := name
		if r, ok := axisRename[name]; ok {
			canonical = r
		}
		if axes[name] {
			vals, err := toFloats(v.Values)
			if err != nil {
				return nil, fmt.Errorf("axis %s: %v", name, err)
			}
			switch canonical {
			case "time":
				ds.Times = timesToEpoch(vals, attrString(v.Attributes, "units"))
			case "levels":
				ds.Levels = vals
			case "latitude":
				ds.Lats = vals
			case "longitude":
				ds.Lons = vals
			}
			continue
		}

		data, err := toDense(v.Values, v.Attributes)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %v", name, err)
		}
		dims := make([]string, len(v.Dimensions))
		for i, d := range v.Dimensions {
			if r, ok := axisRename[d]; ok {
				d = r
			}
			dims[i] = d
		}
		ds.AddVariable(canonical, dims,
			attrString(v.Attributes, "long_name"),
			attrString(v.Attributes, "units"), data)
	}
	if len(ds.Times) == 0 {
		return nil, fmt.Errorf("no time axis found")
	}
	return ds, nil
}

// timesToEpoch converts a raw time axis to seconds since
// 1970-01-01 00:00:00 UTC based on its units attribute. ERA5 files
// have carried both "hours since 1900-01-01" and "seconds since
// 1970-01-01" encodings; an unrecognized encoding passes through
// unchanged.
func timesToEpoch(raw []float64, units string) []float64 {
	out := make([]float64, len(raw))
	switch {
	case strings.HasPrefix(units, "hours since 1900"):
		for i, h := range raw {
			out[i] = h*3600 + unixSecs1900
		}
	case strings.HasPrefix(units, "seconds since 1970"):
		copy(out, raw)
	default:
		copy(out, raw)
	}
	return out
}

// attrString returns the named attribute as a string, or "" if it is
// absent or not a string.
func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// attrFloat returns the named numeric attribute, handling both scalar
// and single-element slice encodings.
func attrFloat(attrs api.AttributeMap, key string, missing float64) float64 {
	if attrs == nil {
		return missing
	}
	v, ok := attrs.Get(key)
	if !ok {
		return missing
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return missing
		}
		rv = rv.Index(0)
	}
	f, err := numToFloat(rv)
	if err != nil {
		return missing
	}
	return f
}

func numToFloat(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(rv.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return float64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %s", rv.Type())
	}
}

// toDense flattens the arbitrarily nested slice returned by the
// NetCDF library into a dense array, applying scale_factor and
// add_offset packing attributes if present.
func toDense(values interface{}, attrs api.AttributeMap) (*sparse.DenseArray, error) {
	scale := attrFloat(attrs, "scale_factor", 1)
	offset := attrFloat(attrs, "add_offset", 0)

	var shape []int
	rv := reflect.ValueOf(values)
	for rv.Kind() == reflect.Slice {
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			return nil, fmt.Errorf("empty dimension in shape %v", shape)
		}
		rv = rv.Index(0)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("scalar variable has no shape")
	}

	out := sparse.ZerosDense(shape...)
	i := 0
	var flatten func(rv reflect.Value, depth int) error
	flatten = func(rv reflect.Value, depth int) error {
		if depth == len(shape) {
			f, err := numToFloat(rv)
			if err != nil {
				return err
			}
			out.Elements[i] = f*scale + offset
			i++
			return nil
		}
		if rv.Len() != shape[depth] {
			return fmt.Errorf("ragged dimension %d: %d != %d", depth, rv.Len(), shape[depth])
		}
		for j := 0; j < rv.Len(); j++ {
			if err := flatten(rv.Index(j), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := flatten(reflect.ValueOf(values), 0); err != nil {
		return nil, err
	}
	return out, nil
}

// toFloats converts a 1-D slice of any numeric type to []float64.
func toFloats(values interface{}) ([]float64, error) {
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a 1-D axis; got %T", values)
	}
	out := make([]float64, rv.Len())
	for i := range out {
		f, err := numToFloat(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
