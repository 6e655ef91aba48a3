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

// Package identity generates the set of unique identifiers a disk build
// needs so partitions, boot entries and the kernel command line can all
// cross-reference the same disk: the root filesystem UUID (consumed by
// root=UUID= matching), the FAT volume serial of the EFI system partition
// and the GPT partition UUID of the root partition (consumed by
// root=PARTUUID= matching).
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DiskIdentity holds the identifiers generated once per build. The values
// are never reused across builds and the RootPartUUID embedded in the boot
// entry must be the exact value assigned to the root partition's GPT entry.
type DiskIdentity struct {
	// RootFsUUID identifies the root filesystem superblock.
	RootFsUUID string
	// EfiFsSerial is the FAT volume serial in XXXX-XXXX form.
	EfiFsSerial string
	// RootPartUUID is the GPT partition UUID of the root partition.
	RootPartUUID string
}

// Generate returns a fresh DiskIdentity. The only failure mode is the
// entropy source failing.
func Generate() (DiskIdentity, error) {
	rootFs, err := uuid.NewRandom()
	if err != nil {
		return DiskIdentity{}, fmt.Errorf("generating root filesystem UUID: %w", err)
	}

	rootPart, err := uuid.NewRandom()
	if err != nil {
		return DiskIdentity{}, fmt.Errorf("generating root partition UUID: %w", err)
	}

	serial, err := generateVfatSerial()
	if err != nil {
		return DiskIdentity{}, err
	}

	return DiskIdentity{
		RootFsUUID:   rootFs.String(),
		EfiFsSerial:  serial,
		RootPartUUID: rootPart.String(),
	}, nil
}

// EfiVolumeID renders the FAT serial as the 8 hex digit volume ID
// expected by mkfs.vfat's -i flag.
func (d DiskIdentity) EfiVolumeID() string {
	return strings.ReplaceAll(d.EfiFsSerial, "-", "")
}

// generateVfatSerial derives a FAT volume serial (XXXX-XXXX, uppercase
// hex) from 4 bytes of fresh randomness.
func generateVfatSerial() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating vfat volume serial: %w", err)
	}
	return fmt.Sprintf("%02X%02X-%02X%02X", u[0], u[1], u[2], u[3]), nil
}
