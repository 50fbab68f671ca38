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
	"fmt"
	"os"

	"github.com/YifanCheng/era5-to-ccpp-scm-tool"
	"github.com/lnashier/viper"
)

// Convert merges the configured ERA5 surface and pressure-level
// files, derives the forcing fields, and writes them to the output
// file. msgChan, if not nil, receives progress messages.
func Convert(cfg *viper.Viper, msgChan chan string) error {
	if err := checkPaths(cfg, "era5_surface_file", "era5_pressure_levels_file", "output_file"); err != nil {
		return err
	}
	surfacePath := os.ExpandEnv(cfg.GetString("era5_surface_file"))
	pressurePath := os.ExpandEnv(cfg.GetString("era5_pressure_levels_file"))
	outputPath := os.ExpandEnv(cfg.GetString("output_file"))
	group := cfg.GetString("group")

	sources := map[string]era5scm.Source{
		surfacePath:  era5scm.PathSource(surfacePath),
		pressurePath: era5scm.PathSource(pressurePath),
	}
	merged := era5scm.NewDataset()
	for _, path := range []string{surfacePath, pressurePath} {
		if msgChan != nil {
			msgChan <- fmt.Sprintf("Reading %s...", path)
		}
		ds, err := sources[path].Dataset()
		if err != nil {
			return err
		}
		merged, err = era5scm.Merge(merged, ds)
		if err != nil {
			return err
		}
	}

	if msgChan != nil {
		msgChan <- "Deriving forcing fields..."
	}
	forcing, err := era5scm.ToSCMForcing(merged, era5scm.ForcingOptions{
		DownwardSurfaceRadiation: cfg.GetBool("DownwardSurfaceRadiation"),
	})
	if err != nil {
		return err
	}

	if err := era5scm.SaveForcing(forcing, outputPath, group); err != nil {
		return err
	}
	if msgChan != nil {
		msgChan <- fmt.Sprintf("Wrote group %s to %s.", group, outputPath)
	}
	return nil
}
