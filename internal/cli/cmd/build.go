/*
Copyright © 2025-2026 LevitateOS Authors
SPDX-License-Identifier: Apache-2.0

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// BuildFlags contains the flags for the build command.
type BuildFlags struct {
	Definition string
	OutputDir  string
	Force      bool
}

// BuildArgs holds the parsed build command flags.
var BuildArgs BuildFlags

// NewBuildCommand creates the build command.
func NewBuildCommand(appName string, action func(*cli.Context) error) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Build a bootable qcow2 disk image from a staged root tree",
		UsageText: fmt.Sprintf("%s build [OPTIONS]", appName),
		Action:    action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "definition",
				Aliases:     []string{"d"},
				Usage:       "Path to the build definition file",
				Value:       "leviso.yaml",
				Destination: &BuildArgs.Definition,
			},
			&cli.StringFlag{
				Name:        "output-dir",
				Aliases:     []string{"o"},
				Usage:       "Override the output directory from the definition",
				Destination: &BuildArgs.OutputDir,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "Rebuild even if the recorded input digest matches",
				Destination: &BuildArgs.Force,
			},
		},
	}
}
