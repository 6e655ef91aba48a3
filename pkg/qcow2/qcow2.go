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

// Package qcow2 converts raw disk images into compressed qcow2 through
// qemu-img. Compression collapses the sparse regions of the raw image, so
// the output is typically a small fraction of the virtual disk size.
package qcow2

import (
	"context"
	"fmt"

	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

// Convert writes a compressed qcow2 version of the given raw image. Any
// preexisting file at the output path is replaced, never appended to or
// merged with.
func Convert(ctx context.Context, s *sys.System, ts tools.Toolset, raw, out string) error {
	fs := s.FS()
	if ok, _ := vfs.Exists(fs, out); ok {
		if err := fs.Remove(out); err != nil {
			return fmt.Errorf("removing stale image '%s': %w", out, err)
		}
	}

	s.Logger().Info("Converting raw image to qcow2")
	_, err := s.Runner().RunContext(
		ctx, ts.Path("qemu-img"),
		"convert", "-f", "raw", "-O", "qcow2", "-c", raw, out,
	)
	if err != nil {
		return fmt.Errorf("converting '%s' to qcow2: %w", raw, err)
	}
	return nil
}
