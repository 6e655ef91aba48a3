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

package partbuild

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

// Directories a usable root tree cannot do without. Their absence almost
// always means the staging path points at the wrong directory.
var criticalStagingDirs = []string{"etc", "usr"}

// ValidateStaging checks that the staging tree exists, is a directory and
// has the shape of a root filesystem.
func ValidateStaging(fs vfs.FS, staging string) error {
	ok, err := vfs.IsDir(fs, staging)
	if err != nil || !ok {
		return fmt.Errorf("staging tree '%s' is not an accessible directory", staging)
	}
	for _, dir := range criticalStagingDirs {
		if ok, _ := vfs.IsDir(fs, filepath.Join(staging, dir)); !ok {
			return fmt.Errorf("staging tree '%s' is missing '%s', it does not look like a root filesystem", staging, dir)
		}
	}
	return nil
}

// BuildRoot creates the root partition image: an exactly-sized sparse file
// handed to mkfs.ext4, which formats it with the build's root filesystem
// UUID and populates it from the staging tree in one pass (-d). Ownership
// inside the image is determined by mkfs.ext4, not by the invoking user.
func BuildRoot(ctx context.Context, s *sys.System, ts tools.Toolset, lay layout.Layout, id identity.DiskIdentity, staging, image string) error {
	fs := s.FS()
	if err := ValidateStaging(fs, staging); err != nil {
		return err
	}

	size, err := vfs.DirSizeMB(fs, staging)
	if err != nil {
		s.Logger().Warn("Could not measure staging tree size: %s", err.Error())
	} else if uint64(size)*1024*1024 > lay.RootSize {
		return fmt.Errorf("staging tree (%dMiB) does not fit the root partition (%dMiB)", size, lay.RootSizeMiB())
	}

	s.Logger().Info("Creating root partition image (%dMiB)", lay.RootSizeMiB())
	if err := vfs.CreateSparseFile(fs, image, int64(lay.RootSize)); err != nil {
		return fmt.Errorf("creating root image file: %w", err)
	}

	_, err = s.Runner().RunContext(
		ctx, ts.Path("mkfs.ext4"),
		"-q", "-L", "root", "-U", id.RootFsUUID, "-d", staging, image,
	)
	if err != nil {
		return fmt.Errorf("formatting and populating root image: %w", err)
	}

	return nil
}
