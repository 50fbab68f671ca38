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
)

// surface variables carried over (time) only
var surfaceVars = map[string]bool{
	"p_surf": true,
	"T_surf": true,
}

// NewTemplate builds a zero-filled forcing skeleton holding every
// variable a forcing file may contain, on the given level [Pa] and
// time axes. The result can be saved and then edited by hand or
// filled by other tooling to build an idealized case.
func NewTemplate(levels, times []float64) (*ForcingData, error) {
	if len(levels) == 0 || len(times) == 0 {
		return nil, fmt.Errorf("era5scm: template needs non-empty level and time axes")
	}
	out := &ForcingData{
		Levels: append([]float64{}, levels...),
		Times:  append([]float64{}, times...),
		Data:   make(map[string]*ForcingVariable),
	}
	for name := range forcingAttrs {
		if surfaceVars[name] {
			out.addVar(name, sparse.ZerosDense(len(times)))
		} else {
			out.addVar(name, sparse.ZerosDense(len(levels), len(times)))
		}
	}
	return out, nil
}

// WriteTemplate writes a zero-filled forcing skeleton to the NetCDF
// file at path under the named group.
func WriteTemplate(path, group string, levels, times []float64) error {
	t, err := NewTemplate(levels, times)
	if err != nil {
		return err
	}
	return SaveForcing(t, path, group)
}
