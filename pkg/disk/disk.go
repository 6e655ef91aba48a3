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

// Package disk assembles the final raw disk image: it writes a GPT onto a
// sparse file with sfdisk, splices the prebuilt partition images into
// their slots with plain seeks and writes, and verifies the resulting
// table by reading it back. No loop devices and no privileges involved.
package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

// SizeMismatchError reports a partition image whose size does not match
// its slot in the computed layout. It always fires before any byte is
// written to the disk image.
type SizeMismatchError struct {
	Partition string
	Expected  uint64
	Actual    uint64
}

func (e SizeMismatchError) Error() string {
	return fmt.Sprintf("%s partition image is %d bytes, expected exactly %d", e.Partition, e.Actual, e.Expected)
}

type Assembler struct {
	s  *sys.System
	ts tools.Toolset
}

func NewAssembler(s *sys.System, ts tools.Toolset) *Assembler {
	return &Assembler{s: s, ts: ts}
}

// Assemble produces the raw disk image at the given path from the EFI and
// root partition images. Both images must be exactly the size the layout
// assigns them; anything else aborts before the disk file is touched.
func (a Assembler) Assemble(ctx context.Context, lay layout.Layout, id identity.DiskIdentity, efiImage, rootImage, disk string) error {
	if err := a.checkSize("EFI", efiImage, lay.EfiSize); err != nil {
		return err
	}
	if err := a.checkSize("root", rootImage, lay.RootSize); err != nil {
		return err
	}

	a.s.Logger().Info("Assembling disk image (%dMiB)", lay.TotalSize/(1024*1024))
	if err := vfs.CreateSparseFile(a.s.FS(), disk, int64(lay.TotalSize)); err != nil {
		return fmt.Errorf("creating disk image file: %w", err)
	}

	script := sfdiskScript(lay, id)
	_, err := a.s.Runner().RunContextInput(ctx, []byte(script), a.ts.Path("sfdisk"), "--no-reread", "--no-tell-kernel", disk)
	if err != nil {
		return fmt.Errorf("writing partition table: %w", err)
	}

	if err := a.splice(lay, efiImage, rootImage, disk); err != nil {
		return err
	}

	return a.verify(ctx, lay, id, disk)
}

// sfdiskScript renders the sfdisk input describing the GPT: the bootable
// EFI system partition at the front reservation boundary, then the root
// partition with its predetermined partition UUID.
func sfdiskScript(lay layout.Layout, id identity.DiskIdentity) string {
	var b strings.Builder
	b.WriteString("label: gpt\n")
	fmt.Fprintf(&b, "start=%d, size=%d, type=U, bootable\n", lay.EfiStartSector(), lay.EfiSizeSectors())
	fmt.Fprintf(&b, "start=%d, size=%d, type=L, uuid=%s\n", lay.RootStartSector(), lay.RootSizeSectors(), id.RootPartUUID)
	return b.String()
}

func (a Assembler) checkSize(name, image string, expected uint64) error {
	info, err := a.s.FS().Stat(image)
	if err != nil {
		return fmt.Errorf("checking %s partition image: %w", name, err)
	}
	if uint64(info.Size()) != expected {
		return SizeMismatchError{Partition: name, Expected: expected, Actual: uint64(info.Size())}
	}
	return nil
}

// splice copies both partition images into their byte offsets through a
// single read-write handle on the disk image.
func (a Assembler) splice(lay layout.Layout, efiImage, rootImage, disk string) (err error) {
	fs := a.s.FS()
	out, err := fs.OpenFile(disk, os.O_RDWR, vfs.FilePerm)
	if err != nil {
		return fmt.Errorf("opening disk image for splicing: %w", err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	for _, part := range []struct {
		name   string
		image  string
		offset uint64
	}{
		{"EFI", efiImage, lay.EfiOffset},
		{"root", rootImage, lay.RootOffset},
	} {
		in, err := fs.Open(part.image)
		if err != nil {
			return fmt.Errorf("opening %s partition image: %w", part.name, err)
		}
		if _, err = out.Seek(int64(part.offset), io.SeekStart); err != nil {
			_ = in.Close()
			return fmt.Errorf("seeking to %s partition offset: %w", part.name, err)
		}
		_, err = io.Copy(out, in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf("splicing %s partition: %w", part.name, err)
		}
	}

	return nil
}
