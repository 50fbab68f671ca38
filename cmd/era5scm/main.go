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

// Command era5scm is a command-line interface for converting ERA5
// reanalysis data into CCPP single-column model forcing files.
package main

import (
	"time"

	"github.com/YifanCheng/era5-to-ccpp-scm-tool/era5scmutil"
	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

func main() {
	if err := era5scmutil.Root.Execute(); err != nil {
		logger.Fatal(err)
	}
}
