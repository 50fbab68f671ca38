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
	"os"

	"github.com/YifanCheng/era5-to-ccpp-scm-tool"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// Template writes a zero-filled forcing skeleton to the configured
// output file.
func Template(cfg *viper.Viper) error {
	if err := checkPaths(cfg, "output_file"); err != nil {
		return err
	}
	levelsHPa, err := cast.ToIntSliceE(cfg.Get("Template.Levels"))
	if err != nil {
		return err
	}
	levels := make([]float64, len(levelsHPa))
	for i, l := range levelsHPa {
		levels[i] = float64(l) * 100 // hPa to Pa
	}
	start := cfg.GetFloat64("Template.StartTime")
	times := make([]float64, cfg.GetInt("Template.Hours"))
	for i := range times {
		times[i] = start + float64(i)*3600
	}
	return era5scm.WriteTemplate(
		os.ExpandEnv(cfg.GetString("output_file")),
		cfg.GetString("group"), levels, times)
}
