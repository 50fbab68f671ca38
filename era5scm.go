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

// Package era5scm converts ERA5 reanalysis data into the forcing-file
// format expected by the CCPP single-column model (SCM).
//
// The input is a merged ERA5 dataset on a 3×3 horizontal grid centered
// on the column of interest, with pressure-level and surface variables.
// The output is a set of large-scale forcing fields (geostrophic wind,
// advective tendencies, nudging profiles, an approximate radiative
// heating rate) indexed by (levels, time).
package era5scm

// Version gives the version number of this package.
const Version = "0.2.0"

// physical constants
const (
	g      = 9.81       // gravitational acceleration [m s-2]
	rEarth = 6371000.   // Earth radius [m]
	omega  = 7.2921e-5  // Earth rotation rate [rad s-1]
	rd     = 287.0      // specific gas constant for dry air [J kg-1 K-1]
	p0     = 100000.    // reference pressure for potential temperature [Pa]
	rdOvCp = 0.286      // ratio of dry-air gas constant to specific heat

	// US standard atmosphere parameters for the pressure-height mapping.
	stdT0    = 288.       // sea level temperature [K]
	stdGamma = 0.0065     // tropospheric lapse rate [K m-1]
	stdP0    = 101325.    // sea level pressure [Pa]
	stdG     = 9.80665    // standard gravity [m s-2]
	stdRd    = 287.05     // dry-air gas constant [J kg-1 K-1]
)
