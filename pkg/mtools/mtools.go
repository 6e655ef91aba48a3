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

// Package mtools populates FAT filesystem images through the GNU mtools
// suite (mmd, mcopy). All operations address paths inside the image with
// the ::path syntax, so no mount and no elevated privileges are ever
// needed.
package mtools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

type Mtools struct {
	s  *sys.System
	ts tools.Toolset
}

func New(s *sys.System, ts tools.Toolset) *Mtools {
	return &Mtools{s: s, ts: ts}
}

// Mkdir creates a directory inside the FAT image. mmd fails when the
// directory already exists, which is not an error for our callers, so
// failures here are logged and swallowed.
func (m Mtools) Mkdir(ctx context.Context, image, dir string) error {
	_, err := m.s.Runner().RunContext(ctx, m.ts.Path("mmd"), "-i", image, fmt.Sprintf("::%s", dir))
	if err != nil {
		m.s.Logger().Debug("mmd '%s' in '%s': %s (directory may already exist)", dir, image, err.Error())
	}
	return nil
}

// Copy copies a host file into the FAT image at the given in-image path.
func (m Mtools) Copy(ctx context.Context, image, source, target string) error {
	_, err := m.s.Runner().RunContext(ctx, m.ts.Path("mcopy"), "-i", image, source, fmt.Sprintf("::%s", target))
	if err != nil {
		return fmt.Errorf("copying '%s' to '%s' in image '%s': %w", source, target, image, err)
	}
	return nil
}

// WriteFile writes the given content to a path inside the FAT image.
// mcopy only takes host files as sources, so the content goes through a
// temporary file next to the image.
func (m Mtools) WriteFile(ctx context.Context, image, target, content string) (err error) {
	fs := m.s.FS()
	temp := filepath.Join(filepath.Dir(image), fmt.Sprintf(".mtools-%s", filepath.Base(target)))
	if err = fs.WriteFile(temp, []byte(content), vfs.FilePerm); err != nil {
		return fmt.Errorf("staging content for '%s': %w", target, err)
	}
	defer func() {
		if rErr := fs.Remove(temp); rErr != nil && err == nil {
			err = rErr
		}
	}()

	return m.Copy(ctx, image, temp, target)
}
