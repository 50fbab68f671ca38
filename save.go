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
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Forcing files are classic-format NetCDF. The classic format has no
// hierarchical groups, so a logical group is encoded as a
// "<group>." prefix on its variable and dimension names, with the
// group names listed in the global "groups" attribute. Classic
// headers are immutable, so appending a group rewrites the whole
// file from the merged contents.

const groupsAttrName = "groups"

// fileVariable is the raw content of one NetCDF variable held in
// memory during a merge-rewrite.
type fileVariable struct {
	dims     []string
	units    string
	longName string
	data     []float64
}

type forcingFile struct {
	vars    map[string]fileVariable
	dimLens map[string]int
	groups  []string
}

// SaveForcing writes f as the named logical group in the NetCDF file
// at path. If the file does not exist it is created; if it exists,
// the other groups it contains are preserved and an existing group
// with the same name is replaced.
func SaveForcing(f *ForcingData, path, group string) error {
	ff := &forcingFile{
		vars:    make(map[string]fileVariable),
		dimLens: make(map[string]int),
	}
	if _, err := os.Stat(path); err == nil {
		ff, err = readForcingFile(path)
		if err != nil {
			return err
		}
		ff.dropGroup(group)
	}

	levDim := group + ".levels"
	timeDim := group + ".time"
	ff.dimLens[levDim] = len(f.Levels)
	ff.dimLens[timeDim] = len(f.Times)
	ff.vars[levDim] = fileVariable{
		dims:     []string{levDim},
		units:    "Pa",
		longName: "pressure levels",
		data:     append([]float64{}, f.Levels...),
	}
	ff.vars[timeDim] = fileVariable{
		dims:     []string{timeDim},
		units:    "seconds since 1970-01-01 00:00:00",
		longName: "forcing time",
		data:     append([]float64{}, f.Times...),
	}
	for name, v := range f.Data {
		var dims []string
		switch len(v.Data.Shape) {
		case 2:
			dims = []string{levDim, timeDim}
		case 1:
			dims = []string{timeDim}
		default:
			return fmt.Errorf("era5scm: saving %s: unsupported rank %d", name, len(v.Data.Shape))
		}
		ff.vars[group+"."+name] = fileVariable{
			dims:     dims,
			units:    v.Units,
			longName: v.LongName,
			data:     v.Data.Elements,
		}
	}
	found := false
	for _, g := range ff.groups {
		if g == group {
			found = true
		}
	}
	if !found {
		ff.groups = append(ff.groups, group)
		sort.Strings(ff.groups)
	}
	return ff.write(path)
}

// dropGroup removes the variables and dimensions belonging to group,
// keeping the group name out of the groups list as well.
func (ff *forcingFile) dropGroup(group string) {
	prefix := group + "."
	for name := range ff.vars {
		if strings.HasPrefix(name, prefix) {
			delete(ff.vars, name)
		}
	}
	for name := range ff.dimLens {
		if strings.HasPrefix(name, prefix) {
			delete(ff.dimLens, name)
		}
	}
	groups := ff.groups[:0]
	for _, g := range ff.groups {
		if g != group {
			groups = append(groups, g)
		}
	}
	ff.groups = groups
}

// write lays the merged contents down as a new classic NetCDF file.
func (ff *forcingFile) write(path string) error {
	// Sort the names so they write in the same order every time.
	dimNames := make([]string, 0, len(ff.dimLens))
	for n := range ff.dimLens {
		dimNames = append(dimNames, n)
	}
	sort.Strings(dimNames)
	dimLens := make([]int, len(dimNames))
	for i, n := range dimNames {
		dimLens[i] = ff.dimLens[n]
	}

	h := cdf.NewHeader(dimNames, dimLens)
	h.AddAttribute("", "comment", "CCPP single-column model forcing data file")
	h.AddAttribute("", groupsAttrName, strings.Join(ff.groups, ","))

	names := make([]string, 0, len(ff.vars))
	for n := range ff.vars {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		v := ff.vars[name]
		h.AddVariable(name, v.dims, []float64{0})
		h.AddAttribute(name, "units", v.units)
		h.AddAttribute(name, "long_name", v.longName)
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("era5scm: creating %s: %w", path, err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("era5scm: writing header to %s: %v", path, err)
	}
	for _, name := range names {
		if err := writeVar(f, name, ff.vars[name].data); err != nil {
			return fmt.Errorf("era5scm: writing variable %s to %s: %v", name, path, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		return err
	}
	return nil
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data)
	return err
}

// readForcingFile reads every variable in the file at path into
// memory, together with the dimension table and the groups attribute.
func readForcingFile(path string) (*forcingFile, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("era5scm: opening %s: %w", path, err)
	}
	defer r.Close()
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("era5scm: reading %s: %v", path, err)
	}

	ff := &forcingFile{
		vars:    make(map[string]fileVariable),
		dimLens: make(map[string]int),
	}
	dimNames := f.Header.Dimensions("")
	dimLens := f.Header.Lengths("")
	for i, n := range dimNames {
		ff.dimLens[n] = dimLens[i]
	}
	if g, ok := f.Header.GetAttribute("", groupsAttrName).(string); ok && g != "" {
		ff.groups = strings.Split(g, ",")
	}

	for _, name := range f.Header.Variables() {
		lengths := f.Header.Lengths(name)
		n := 1
		for _, l := range lengths {
			n *= l
		}
		buf := f.Header.ZeroValue(name, n)
		rr := f.Reader(name, nil, nil)
		if _, err := rr.Read(buf); err != nil {
			return nil, fmt.Errorf("era5scm: reading variable %s from %s: %v", name, path, err)
		}
		data, err := bufToFloats(buf)
		if err != nil {
			return nil, fmt.Errorf("era5scm: variable %s in %s: %v", name, path, err)
		}
		v := fileVariable{
			dims: f.Header.Dimensions(name),
			data: data,
		}
		if u, ok := f.Header.GetAttribute(name, "units").(string); ok {
			v.units = u
		}
		if l, ok := f.Header.GetAttribute(name, "long_name").(string); ok {
			v.longName = l
		}
		ff.vars[name] = v
	}
	return ff, nil
}

func bufToFloats(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
}

// LoadForcing reads the named logical group back from a forcing file
// written by SaveForcing.
func LoadForcing(path, group string) (*ForcingData, error) {
	ff, err := readForcingFile(path)
	if err != nil {
		return nil, err
	}
	found := false
	for _, g := range ff.groups {
		if g == group {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("era5scm: file %s has no group %s (groups: %v)", path, group, ff.groups)
	}

	prefix := group + "."
	out := &ForcingData{Data: make(map[string]*ForcingVariable)}
	levDim, timeDim := prefix+"levels", prefix+"time"
	if v, ok := ff.vars[levDim]; ok {
		out.Levels = v.data
	}
	if v, ok := ff.vars[timeDim]; ok {
		out.Times = v.data
	}
	for name, v := range ff.vars {
		if !strings.HasPrefix(name, prefix) || name == levDim || name == timeDim {
			continue
		}
		short := strings.TrimPrefix(name, prefix)
		shape := make([]int, len(v.dims))
		for i, d := range v.dims {
			shape[i] = ff.dimLens[d]
		}
		data := sparse.ZerosDense(shape...)
		copy(data.Elements, v.data)
		fv := &ForcingVariable{
			Units:    v.units,
			LongName: v.longName,
			Data:     data,
		}
		if attrs, ok := forcingAttrs[short]; ok {
			fv.Dimension = attrs.dimension
		}
		out.Data[short] = fv
	}
	return out, nil
}
