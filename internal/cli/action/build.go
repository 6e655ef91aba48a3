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

package action

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/levitateos/leviso/internal/cli/cmd"
	"github.com/levitateos/leviso/internal/config"
	"github.com/levitateos/leviso/pkg/diskimage"
	"github.com/levitateos/leviso/pkg/layout"
)

// Build parses the definition file and runs the full disk build.
func Build(ctx *cli.Context) error {
	s, err := cmd.System(ctx)
	if err != nil {
		return err
	}
	args := &cmd.BuildArgs

	s.Logger().Info("Starting build action")

	def, err := config.Parse(s.FS(), args.Definition)
	if err != nil {
		return err
	}
	if args.OutputDir != "" {
		def.OutputDir = args.OutputDir
	}

	spec := diskimage.Spec{
		Staging:    def.Staging,
		Kernel:     def.Kernel,
		Initramfs:  def.Initramfs,
		Bootloader: def.Bootloader,
		DiskSize:   layout.MiB(def.DiskSize),
		EfiSize:    layout.MiB(def.EfiSize),
		OutputDir:  def.OutputDir,
		OutputName: def.OutputName,
		Force:      args.Force,
	}
	for _, e := range def.Entries {
		spec.Entries = append(spec.Entries, diskimage.EntrySpec{Title: e.Title, Cmdline: e.Cmdline})
	}

	builder, err := diskimage.New(s)
	if err != nil {
		return err
	}

	out, err := builder.Build(ctx.Context, spec)
	if err != nil {
		return fmt.Errorf("building disk image: %w", err)
	}

	s.Logger().Info("Build complete: %s", out)
	return nil
}
