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

// Package config parses the disk build definition file.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/docker/go-units"
	"go.yaml.in/yaml/v3"

	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/sys/vfs"
)

// DefaultDiskSize applies when the definition does not set one.
const DefaultDiskSize = layout.MiB(20 * 1024)

// DiskSize accepts human readable sizes ("20GiB", "8192MiB") and
// normalizes them to whole mebibytes.
type DiskSize layout.MiB

func (d *DiskSize) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	size, err := units.RAMInBytes(raw)
	if err != nil {
		return fmt.Errorf("parsing disk size %q: %w", raw, err)
	}
	if size <= 0 || size%(1024*1024) != 0 {
		return fmt.Errorf("disk size %q must be a positive whole number of MiB", raw)
	}
	*d = DiskSize(size / (1024 * 1024))
	return nil
}

func (d DiskSize) MarshalYAML() (any, error) {
	return units.BytesSize(float64(layout.MiB(d).Bytes())), nil
}

// BootEntry describes one boot menu entry in the definition.
type BootEntry struct {
	Title   string `yaml:"title"`
	Cmdline string `yaml:"cmdline,omitempty"`
}

// Definition is the on-disk build definition.
type Definition struct {
	// Staging is the root filesystem tree to package.
	Staging string `yaml:"staging"`
	// Kernel and Initramfs are the boot artifacts copied onto the EFI
	// system partition.
	Kernel    string `yaml:"kernel"`
	Initramfs string `yaml:"initramfs"`
	// Bootloader optionally overrides systemd-boot binary discovery.
	Bootloader string `yaml:"bootloader,omitempty"`

	DiskSize DiskSize `yaml:"diskSize,omitempty"`
	EfiSize  DiskSize `yaml:"efiSize,omitempty"`

	// OutputDir receives the qcow2 image and its cache record.
	OutputDir string `yaml:"outputDir,omitempty"`
	// OutputName overrides the os-release derived image name.
	OutputName string `yaml:"outputName,omitempty"`

	Entries []BootEntry `yaml:"bootEntries,omitempty"`
}

// Parse reads and validates a definition file. Relative paths in the
// definition are resolved against the definition file's directory.
func Parse(f vfs.FS, path string) (*Definition, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}

	def := &Definition{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(def); err != nil {
		return nil, fmt.Errorf("parsing definition file %q: %w", path, err)
	}

	base := filepath.Dir(path)
	def.Staging = resolve(base, def.Staging)
	def.Kernel = resolve(base, def.Kernel)
	def.Initramfs = resolve(base, def.Initramfs)
	def.Bootloader = resolve(base, def.Bootloader)
	def.OutputDir = resolve(base, def.OutputDir)

	if err := def.sanitize(); err != nil {
		return nil, err
	}
	return def, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (d *Definition) sanitize() error {
	if d.Staging == "" {
		return fmt.Errorf("definition is missing the staging tree path")
	}
	if d.Kernel == "" {
		return fmt.Errorf("definition is missing the kernel path")
	}
	if d.Initramfs == "" {
		return fmt.Errorf("definition is missing the initramfs path")
	}
	if d.DiskSize == 0 {
		d.DiskSize = DiskSize(DefaultDiskSize)
	}
	if d.EfiSize == 0 {
		d.EfiSize = DiskSize(layout.EfiSize)
	}
	if d.OutputDir == "" {
		d.OutputDir = "."
	}
	return nil
}
