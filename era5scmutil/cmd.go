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

// Package era5scmutil holds the command-line interface of the
// era5scm tool.
package era5scmutil

import (
	"context"
	"fmt"
	"os"

	"github.com/YifanCheng/era5-to-ccpp-scm-tool"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to era5scm.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "start_date",
			usage: `
              start_date is the first day of the period to download,
              in YYYY-MM-DD form.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "end_date",
			usage: `
              end_date is the last day of the period to download,
              in YYYY-MM-DD form.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "lat",
			usage: `
              lat is the latitude of the column of interest in degrees
              (-90 to 90).`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "lon",
			usage: `
              lon is the longitude of the column of interest in degrees
              (-180 to 180).`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the directory the downloaded ERA5 files are
              written to.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "name",
			usage: `
              name is the prefix for the downloaded file names.`,
			defaultVal: "era5",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "era5_surface_file",
			usage: `
              era5_surface_file is the path to the ERA5 single-level
              (surface) NetCDF file.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "era5_pressure_levels_file",
			usage: `
              era5_pressure_levels_file is the path to the ERA5
              pressure-level NetCDF file.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "output_file",
			usage: `
              output_file is the path of the forcing file to create or
              append to.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), templateCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "group",
			usage: `
              group is the name of the group the forcing fields are
              stored under in the output file.`,
			defaultVal: "forcing",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), templateCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "DownwardSurfaceRadiation",
			usage: `
              DownwardSurfaceRadiation selects the downward-only surface
              radiation accumulations (ssrd, strd) for the radiative
              heating budget instead of the net accumulations (ssr, str).`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "CDS.URL",
			usage: `
              CDS.URL is the endpoint of the Climate Data Store API.`,
			defaultVal: "https://cds.climate.copernicus.eu/api/v2",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "CDS.Key",
			usage: `
              CDS.Key is the Climate Data Store API key in uid:key form.
              It can also be set with the ERA5SCM_CDS.KEY environment
              variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "CDS.PollSeconds",
			usage: `
              CDS.PollSeconds is the initial interval in seconds between
              checks on a queued retrieval request.`,
			defaultVal: 15,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags(), allCmd.Flags()},
		},
		{
			name: "Template.Levels",
			usage: `
              Template.Levels lists the pressure levels [hPa] of the
              generated template, surface last.`,
			defaultVal: []int{
				1, 2, 3, 5, 7, 10, 20, 30, 50, 70,
				100, 125, 150, 175, 200, 225, 250, 300,
				350, 400, 450, 500, 550, 600, 650, 700,
				750, 775, 800, 825, 850, 875, 900, 925,
				950, 975, 1000,
			},
			flagsets: []*pflag.FlagSet{templateCmd.Flags()},
		},
		{
			name: "Template.Hours",
			usage: `
              Template.Hours is the number of hourly time steps in the
              generated template.`,
			defaultVal: 24,
			flagsets:   []*pflag.FlagSet{templateCmd.Flags()},
		},
		{
			name: "Template.StartTime",
			usage: `
              Template.StartTime is the time of the first template step
              in seconds since 1970-01-01 00:00:00 UTC.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{templateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ERA5SCM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(downloadCmd)
	Root.AddCommand(templateCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(allCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Println(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("era5scm: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "era5scm",
	Short: "Convert ERA5 reanalysis data to CCPP-SCM forcing files.",
	Long: `era5scm downloads ERA5 reanalysis data for a single atmospheric column
and converts it into the forcing-file format expected by the CCPP
single-column model. Use the subcommands specified below to access the
functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ERA5SCM_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of era5scm.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("era5scm v%s\n", era5scm.Version)
	},
	DisableAutoGenTag: true,
}

var downloadCmd = &cobra.Command{
	Use:   "download_era5",
	Short: "Download ERA5 data for a given time period and location.",
	Long: `download_era5 retrieves the pressure-level and surface ERA5 fields for
a 3×3 grid of 0.25-degree points centered on the requested location from the
Copernicus Climate Data Store. The API key is read from the CDS.Key option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Download(context.Background(), Cfg)
	},
	DisableAutoGenTag: true,
}

var templateCmd = &cobra.Command{
	Use:   "generate_template",
	Short: "Generate a template CCPP-SCM input file.",
	Long: `generate_template writes a zero-filled forcing file skeleton that can
be edited by hand or filled by other tooling to build an idealized case.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Template(Cfg)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert_forcings",
	Short: "Convert ERA5 data to a CCPP-SCM forcing file.",
	Long: `convert_forcings merges an ERA5 surface file and pressure-levels file,
derives the large-scale forcing fields, and writes them to the output file,
creating it or appending to it as needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		return Convert(Cfg, outChan)
	},
	DisableAutoGenTag: true,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Download ERA5 data and convert it in one step.",
	Long: `all runs download_era5 followed by convert_forcings, using the
downloaded files as the conversion input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()
		if err := Download(context.Background(), Cfg); err != nil {
			return err
		}
		req := downloadRequest(Cfg)
		Cfg.Set("era5_surface_file", req.SurfaceFile())
		Cfg.Set("era5_pressure_levels_file", req.PressureLevelsFile())
		return Convert(Cfg, outChan)
	},
	DisableAutoGenTag: true,
}

// checkPaths returns an error naming the first empty option.
func checkPaths(cfg *viper.Viper, names ...string) error {
	for _, name := range names {
		if os.ExpandEnv(cfg.GetString(name)) == "" {
			return fmt.Errorf("era5scm: the %s option must be set", name)
		}
	}
	return nil
}
