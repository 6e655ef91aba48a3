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

// Package layout computes the byte geometry of a two-partition GPT disk:
// an EFI system partition followed by a Linux root partition, with 1MiB
// reserved at each end of the disk for the primary and backup GPT
// metadata regions.
package layout

import "fmt"

// MiB expresses sizes with mebibyte granularity.
type MiB uint64

// Bytes returns the size in bytes.
func (m MiB) Bytes() uint64 {
	return uint64(m) * 1024 * 1024
}

const (
	// SectorSize is the logical sector size GPT tables are written with.
	SectorSize = 512

	// FrontReserve covers the protective MBR, the primary GPT header and
	// the partition entry array, rounded up to the 1MiB alignment
	// boundary partitioning tools use.
	FrontReserve MiB = 1

	// BackReserve covers the backup GPT header and entry array at the
	// end of the disk, rounded up to the same boundary.
	BackReserve MiB = 1

	// EfiSize is the fixed size of the EFI system partition.
	EfiSize MiB = 1024

	// FirstPartitionSector is where the first partition starts, right
	// after the front reservation.
	FirstPartitionSector = uint64(FrontReserve) * 1024 * 1024 / SectorSize
)

// Layout describes the resolved geometry. All fields are in bytes.
type Layout struct {
	TotalSize  uint64
	EfiOffset  uint64
	EfiSize    uint64
	RootOffset uint64
	RootSize   uint64
}

// Compute derives the root partition geometry from the total disk size
// and the EFI partition size: the root partition takes everything between
// the end of the EFI partition and the backup GPT reservation.
func Compute(total, efi MiB) (Layout, error) {
	if efi == 0 {
		efi = EfiSize
	}
	minimum := efi + FrontReserve + BackReserve
	if total <= minimum {
		return Layout{}, fmt.Errorf("disk size %dMiB is too small: need more than %dMiB to fit a %dMiB EFI partition plus GPT metadata", total, minimum, efi)
	}

	l := Layout{
		TotalSize:  total.Bytes(),
		EfiOffset:  FrontReserve.Bytes(),
		EfiSize:    efi.Bytes(),
		RootOffset: (FrontReserve + efi).Bytes(),
		RootSize:   (total - efi - FrontReserve - BackReserve).Bytes(),
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// RootSizeMiB returns the root partition size in MiB.
func (l Layout) RootSizeMiB() MiB {
	return MiB(l.RootSize / (1024 * 1024))
}

// EfiStartSector returns the EFI partition start in sectors.
func (l Layout) EfiStartSector() uint64 {
	return l.EfiOffset / SectorSize
}

// EfiSizeSectors returns the EFI partition size in sectors.
func (l Layout) EfiSizeSectors() uint64 {
	return l.EfiSize / SectorSize
}

// RootStartSector returns the root partition start in sectors.
func (l Layout) RootStartSector() uint64 {
	return l.RootOffset / SectorSize
}

// RootSizeSectors returns the root partition size in sectors.
func (l Layout) RootSizeSectors() uint64 {
	return l.RootSize / SectorSize
}

// validate enforces the geometry invariants: partitions must not overlap,
// must not reach into the backup GPT region and must account for every
// byte of the disk together with the reservations.
func (l Layout) validate() error {
	if l.EfiOffset+l.EfiSize > l.RootOffset {
		return fmt.Errorf("EFI partition (end %d) overlaps root partition (start %d)", l.EfiOffset+l.EfiSize, l.RootOffset)
	}
	if l.RootOffset+l.RootSize > l.TotalSize-BackReserve.Bytes() {
		return fmt.Errorf("root partition (end %d) overlaps backup GPT region (start %d)", l.RootOffset+l.RootSize, l.TotalSize-BackReserve.Bytes())
	}
	if l.EfiOffset+l.EfiSize+l.RootSize+BackReserve.Bytes() != l.TotalSize {
		return fmt.Errorf("layout does not account for the whole disk: %d + %d + %d + %d != %d",
			l.EfiOffset, l.EfiSize, l.RootSize, BackReserve.Bytes(), l.TotalSize)
	}
	return nil
}
