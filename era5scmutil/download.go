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

package era5scmutil

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/YifanCheng/era5-to-ccpp-scm-tool/cds"
	"github.com/lnashier/viper"
)

// downloadRequest builds the ERA5 download request from the
// configuration.
func downloadRequest(cfg *viper.Viper) *cds.TimeSeriesRequest {
	return &cds.TimeSeriesRequest{
		StartDate: cfg.GetString("start_date"),
		EndDate:   cfg.GetString("end_date"),
		Lat:       cfg.GetFloat64("lat"),
		Lon:       cfg.GetFloat64("lon"),
		OutputDir: os.ExpandEnv(cfg.GetString("output_dir")),
		Name:      cfg.GetString("name"),
	}
}

// Download retrieves the configured ERA5 pressure-level and surface
// files from the Climate Data Store.
func Download(ctx context.Context, cfg *viper.Viper) error {
	client, err := cds.NewClient(cds.Config{
		URL:          cfg.GetString("CDS.URL"),
		Key:          cfg.GetString("CDS.Key"),
		PollInterval: time.Duration(cfg.GetInt("CDS.PollSeconds")) * time.Second,
		Logf:         log.Printf,
	})
	if err != nil {
		return err
	}
	req := downloadRequest(cfg)
	if req.OutputDir != "" {
		if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
			return err
		}
	}
	return client.DownloadTimeSeries(ctx, req)
}
