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

// Package partbuild produces the partition filesystem images that later
// get spliced into the assembled disk. Both builders work on plain files
// and never mount anything: the FAT image is populated through mtools and
// the ext4 image is populated at mkfs time with -d.
package partbuild

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/levitateos/leviso/pkg/bootentry"
	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/mtools"
	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

// Candidate locations for the systemd-boot EFI binary, relative to the
// staging tree first and the build host second.
var bootloaderCandidates = []string{
	"usr/lib/systemd/boot/efi/systemd-bootx64.efi",
	"/usr/lib/systemd/boot/efi/systemd-bootx64.efi",
}

// EfiManifest is the ordered list of operations that populate the EFI
// system partition. Operations are applied strictly in order through the
// same mtools-backed mechanism; nothing is special cased.
type EfiManifest struct {
	ops []efiOp
}

type efiOpKind int

const (
	opMkDir efiOpKind = iota
	opCopyFile
	opWriteFile
)

type efiOp struct {
	kind    efiOpKind
	target  string
	source  string
	content string
}

// MkDir appends a directory creation to the manifest.
func (m *EfiManifest) MkDir(target string) {
	m.ops = append(m.ops, efiOp{kind: opMkDir, target: target})
}

// CopyFile appends a host-file copy to the manifest.
func (m *EfiManifest) CopyFile(source, target string) {
	m.ops = append(m.ops, efiOp{kind: opCopyFile, source: source, target: target})
}

// WriteFile appends an in-place content write to the manifest.
func (m *EfiManifest) WriteFile(target, content string) {
	m.ops = append(m.ops, efiOp{kind: opWriteFile, target: target, content: content})
}

// Sources returns the host files the manifest copies from, in manifest
// order, for presence checks and cache digests.
func (m EfiManifest) Sources() []string {
	var sources []string
	for _, op := range m.ops {
		if op.kind == opCopyFile {
			sources = append(sources, op.source)
		}
	}
	return sources
}

// NewEfiManifest assembles the standard systemd-boot layout: directory
// skeleton, the boot binary at both the removable-media fallback path and
// its canonical path, the loader configuration, the boot entries and the
// kernel plus initramfs images.
func NewEfiManifest(kernel, initramfs, bootloader string, loader bootentry.LoaderConf, entries []bootentry.Entry) (EfiManifest, error) {
	var m EfiManifest

	m.MkDir("EFI")
	m.MkDir("EFI/BOOT")
	m.MkDir("EFI/systemd")
	m.MkDir("loader")
	m.MkDir("loader/entries")

	m.CopyFile(bootloader, "EFI/BOOT/BOOTX64.EFI")
	m.CopyFile(bootloader, "EFI/systemd/systemd-bootx64.efi")

	loaderConf, err := loader.Render()
	if err != nil {
		return EfiManifest{}, err
	}
	m.WriteFile("loader/loader.conf", loaderConf)

	for _, entry := range entries {
		content, err := entry.Render()
		if err != nil {
			return EfiManifest{}, err
		}
		m.WriteFile(filepath.Join("loader/entries", entry.Filename()), content)
	}

	m.CopyFile(kernel, "vmlinuz")
	m.CopyFile(initramfs, "initramfs.img")

	return m, nil
}

// FindBootloader locates the systemd-boot EFI binary, preferring the copy
// inside the staging tree over the build host's own.
func FindBootloader(fs vfs.FS, staging string) (string, error) {
	for _, candidate := range bootloaderCandidates {
		path := candidate
		if !filepath.IsAbs(candidate) {
			path = filepath.Join(staging, candidate)
		}
		if ok, _ := vfs.Exists(fs, path); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("systemd-boot binary not found in staging tree '%s' or on the host (install: systemd-boot)", staging)
}

// BuildEfi creates the EFI system partition image: an exactly-sized sparse
// file formatted FAT32 with the given volume ID, populated by applying the
// manifest in order. All copy sources are checked before the image is
// created so a missing artifact fails fast without leaving partial output.
func BuildEfi(ctx context.Context, s *sys.System, ts tools.Toolset, lay layout.Layout, id identity.DiskIdentity, m EfiManifest, image string) error {
	fs := s.FS()
	for _, source := range m.Sources() {
		if ok, _ := vfs.Exists(fs, source); !ok {
			return fmt.Errorf("EFI partition input '%s' does not exist", source)
		}
	}

	s.Logger().Info("Creating EFI system partition image (%dMiB)", lay.EfiSize/(1024*1024))
	if err := vfs.CreateSparseFile(fs, image, int64(lay.EfiSize)); err != nil {
		return fmt.Errorf("creating EFI image file: %w", err)
	}

	_, err := s.Runner().RunContext(
		ctx, ts.Path("mkfs.vfat"),
		"-F", "32", "-n", "EFI", "-i", id.EfiVolumeID(), image,
	)
	if err != nil {
		return fmt.Errorf("formatting EFI image: %w", err)
	}

	mt := mtools.New(s, ts)
	for _, op := range m.ops {
		switch op.kind {
		case opMkDir:
			err = mt.Mkdir(ctx, image, op.target)
		case opCopyFile:
			err = mt.Copy(ctx, image, op.source, op.target)
		case opWriteFile:
			err = mt.WriteFile(ctx, image, op.target, op.content)
		}
		if err != nil {
			return fmt.Errorf("populating EFI image at '%s': %w", op.target, err)
		}
	}

	return nil
}
