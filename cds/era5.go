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

package cds

import (
	"context"
	"fmt"
	"path/filepath"
)

// ERA5 dataset names in the CDS catalogue.
const (
	PressureLevelsDataset = "reanalysis-era5-pressure-levels"
	SingleLevelsDataset   = "reanalysis-era5-single-levels"
)

// era5PressureLevels is the full set of ERA5 pressure levels [hPa].
var era5PressureLevels = []string{
	"1", "2", "3", "5", "7", "10", "20", "30", "50", "70",
	"100", "125", "150", "175", "200", "225", "250", "300",
	"350", "400", "450", "500", "550", "600", "650", "700",
	"750", "775", "800", "825", "850", "875", "900", "925",
	"950", "975", "1000",
}

var era5PressureLevelVariables = []string{
	"geopotential",
	"specific_humidity",
	"temperature",
	"u_component_of_wind",
	"v_component_of_wind",
	"vertical_velocity",
}

var era5SingleLevelVariables = []string{
	"surface_pressure",
	"skin_temperature",
	"top_net_solar_radiation",
	"surface_net_solar_radiation",
	"top_net_thermal_radiation",
	"surface_net_thermal_radiation",
	"2m_temperature",
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
	"surface_solar_radiation_downwards",
	"surface_thermal_radiation_downwards",
}

// TimeSeriesRequest describes an ERA5 download for a single location
// and date range.
type TimeSeriesRequest struct {
	// StartDate and EndDate bound the period, in YYYY-MM-DD form.
	StartDate, EndDate string
	// Lat and Lon locate the column of interest in degrees
	// (latitude -90 to 90, longitude -180 to 180).
	Lat, Lon float64
	// OutputDir receives the downloaded files.
	OutputDir string
	// Name is the prefix for the output file names ("era5" if empty).
	Name string
}

// PressureLevelsFile returns the path the pressure-level download is
// written to.
func (r *TimeSeriesRequest) PressureLevelsFile() string {
	return filepath.Join(r.OutputDir, r.name()+"_pl.nc")
}

// SurfaceFile returns the path the single-level download is written
// to.
func (r *TimeSeriesRequest) SurfaceFile() string {
	return filepath.Join(r.OutputDir, r.name()+"_sfc.nc")
}

func (r *TimeSeriesRequest) name() string {
	if r.Name == "" {
		return "era5"
	}
	return r.Name
}

// area returns the retrieval bounding box [N, W, S, E]: a 3×3 grid of
// 0.25-degree points centered on the requested location, with
// longitude normalized to 0-360.
func (r *TimeSeriesRequest) area() []float64 {
	lon := r.Lon
	if lon < 0 {
		lon += 360
	}
	return []float64{r.Lat + 0.25, lon - 0.25, r.Lat - 0.25, lon + 0.25}
}

func (r *TimeSeriesRequest) hours() []string {
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = fmt.Sprintf("%02d:00", h)
	}
	return hours
}

// PressureLevelsRequest builds the retrieval request for the
// pressure-level fields the forcing conversion needs.
func (r *TimeSeriesRequest) PressureLevelsRequest() Request {
	return Request{
		"product_type":   "reanalysis",
		"format":         "netcdf",
		"variable":       era5PressureLevelVariables,
		"pressure_level": era5PressureLevels,
		"date":           r.StartDate + "/" + r.EndDate,
		"time":           r.hours(),
		"area":           r.area(),
	}
}

// SingleLevelsRequest builds the retrieval request for the surface
// fields the forcing conversion needs.
func (r *TimeSeriesRequest) SingleLevelsRequest() Request {
	return Request{
		"product_type": "reanalysis",
		"format":       "netcdf",
		"variable":     era5SingleLevelVariables,
		"date":         r.StartDate + "/" + r.EndDate,
		"time":         r.hours(),
		"area":         r.area(),
	}
}

// DownloadTimeSeries retrieves the pressure-level and surface ERA5
// files for req, writing them to req.OutputDir.
func (c *Client) DownloadTimeSeries(ctx context.Context, req *TimeSeriesRequest) error {
	if req.StartDate == "" || req.EndDate == "" {
		return fmt.Errorf("cds: download needs a start and end date")
	}
	c.logf("cds: downloading pressure level time series...")
	if err := c.Retrieve(ctx, PressureLevelsDataset, req.PressureLevelsRequest(), req.PressureLevelsFile()); err != nil {
		return err
	}
	c.logf("cds: downloading surface data time series...")
	return c.Retrieve(ctx, SingleLevelsDataset, req.SingleLevelsRequest(), req.SurfaceFile())
}
