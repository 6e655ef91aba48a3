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

// Package diskimage orchestrates the whole disk build: identity and
// geometry, both partition images, GPT assembly and the final qcow2
// conversion, with an input digest cache short-circuiting rebuilds whose
// inputs did not change.
package diskimage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/levitateos/leviso/pkg/bootentry"
	"github.com/levitateos/leviso/pkg/buildcache"
	"github.com/levitateos/leviso/pkg/cleanstack"
	"github.com/levitateos/leviso/pkg/disk"
	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/partbuild"
	"github.com/levitateos/leviso/pkg/qcow2"
	"github.com/levitateos/leviso/pkg/release"
	"github.com/levitateos/leviso/pkg/sys"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

const (
	// stageTimeout bounds each external-tool stage. Generous on purpose:
	// populating a large ext4 image legitimately takes minutes.
	stageTimeout = 15 * time.Minute

	// minOutputSize flags a conversion that produced a technically valid
	// but clearly broken image, e.g. from an empty staging tree.
	minOutputSize = 100 * 1024 * 1024
)

// EntrySpec describes one requested boot menu entry.
type EntrySpec struct {
	Title   string
	Cmdline string
}

// Spec carries everything a build needs. Zero values fall back to
// defaults where a default exists.
type Spec struct {
	Staging    string
	Kernel     string
	Initramfs  string
	Bootloader string

	DiskSize layout.MiB
	EfiSize  layout.MiB

	OutputDir  string
	OutputName string

	Entries []EntrySpec

	// Force skips the input digest check and always rebuilds.
	Force bool
}

type Builder struct {
	s        *sys.System
	ts       tools.Toolset
	resolved bool
	cache    *buildcache.Cache
}

type Option func(*Builder)

// WithToolset injects a pre-resolved toolset, skipping host lookup.
func WithToolset(ts tools.Toolset) Option {
	return func(b *Builder) {
		b.ts = ts
		b.resolved = true
	}
}

// New prepares a builder, resolving all required host tools up front so a
// missing tool is reported before any work starts.
func New(s *sys.System, opts ...Option) (*Builder, error) {
	b := &Builder{
		s:     s,
		cache: buildcache.New(s.FS()),
	}
	for _, opt := range opts {
		opt(b)
	}
	if !b.resolved {
		ts, err := tools.Resolve(s, tools.DiskBuild)
		if err != nil {
			return nil, err
		}
		b.ts = ts
	}
	return b, nil
}

// Build produces the compressed qcow2 disk image described by the spec
// and returns its path. When the recorded input digest for the output
// still matches, the build is skipped entirely and the existing image is
// returned.
func (b Builder) Build(ctx context.Context, spec Spec) (out string, err error) {
	fs := b.s.FS()
	logger := b.s.Logger()

	if err = partbuild.ValidateStaging(fs, spec.Staging); err != nil {
		return "", err
	}

	bootloader := spec.Bootloader
	if bootloader == "" {
		if bootloader, err = partbuild.FindBootloader(fs, spec.Staging); err != nil {
			return "", err
		}
	}

	rel, err := release.FromStaging(fs, spec.Staging)
	if err != nil {
		return "", err
	}
	name := spec.OutputName
	if name == "" {
		name = rel.ImageFileName()
	}
	out = filepath.Join(spec.OutputDir, name+".qcow2")

	inputs, err := b.cache.Digest(spec.Kernel, spec.Initramfs, bootloader)
	if err != nil {
		if errors.Is(err, buildcache.ErrMissingInput) {
			return "", fmt.Errorf("build input missing: %w", err)
		}
		return "", err
	}
	if !spec.Force && !b.cache.IsStale(inputs, out) {
		logger.Info("Inputs unchanged, keeping existing image %s", out)
		return out, nil
	}

	cleanup := cleanstack.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	workdir, err := vfs.TempDir(fs, "", "diskbuild-")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	cleanup.Push(func() error { return fs.RemoveAll(workdir) })

	id, err := identity.Generate()
	if err != nil {
		return "", err
	}
	lay, err := layout.Compute(spec.DiskSize, spec.EfiSize)
	if err != nil {
		return "", err
	}

	entries := spec.Entries
	if len(entries) == 0 {
		entries = []EntrySpec{{Title: rel.Title()}}
	}
	var bootEntries []bootentry.Entry
	for _, e := range entries {
		name := bootentry.SanitizeName(e.Title)
		bootEntries = append(bootEntries, bootentry.New(name, e.Title, id.RootPartUUID, e.Cmdline))
	}
	loader := bootentry.DefaultLoaderConf(bootEntries[0])

	manifest, err := partbuild.NewEfiManifest(spec.Kernel, spec.Initramfs, bootloader, loader, bootEntries)
	if err != nil {
		return "", err
	}

	efiImage := filepath.Join(workdir, "efi.img")
	rootImage := filepath.Join(workdir, "root.img")
	rawDisk := filepath.Join(workdir, "disk.raw")

	if err = b.stage(ctx, func(ctx context.Context) error {
		return partbuild.BuildEfi(ctx, b.s, b.ts, lay, id, manifest, efiImage)
	}); err != nil {
		return "", err
	}

	if err = b.stage(ctx, func(ctx context.Context) error {
		return partbuild.BuildRoot(ctx, b.s, b.ts, lay, id, spec.Staging, rootImage)
	}); err != nil {
		return "", err
	}

	if err = b.stage(ctx, func(ctx context.Context) error {
		return disk.NewAssembler(b.s, b.ts).Assemble(ctx, lay, id, efiImage, rootImage, rawDisk)
	}); err != nil {
		return "", err
	}

	if err = vfs.MkdirAll(fs, spec.OutputDir, vfs.DirPerm); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err = b.stage(ctx, func(ctx context.Context) error {
		return qcow2.Convert(ctx, b.s, b.ts, rawDisk, out)
	}); err != nil {
		return "", err
	}

	if err = b.checkOutput(out); err != nil {
		return "", err
	}
	if err = b.cache.Record(inputs, out); err != nil {
		return "", err
	}

	logger.Info("Disk image built: %s", out)
	return out, nil
}

func (b Builder) stage(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()
	return run(ctx)
}

// checkOutput catches conversions that succeeded but produced an image no
// bootable system could fit in.
func (b Builder) checkOutput(out string) error {
	info, err := b.s.FS().Stat(out)
	if err != nil {
		return fmt.Errorf("checking output image: %w", err)
	}
	if info.Size() < minOutputSize {
		return fmt.Errorf("output image '%s' is only %d bytes, a bootable system cannot be this small", out, info.Size())
	}
	return nil
}
