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

package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
)

const (
	// GPT type GUIDs for the partitions we create (sfdisk type=U / type=L).
	efiTypeGUID  = "C12A7328-F81F-11D2-BA4B-00A0C93EC93B"
	rootTypeGUID = "0FC63DAF-8483-4772-8E79-3D69D8477DE4"
)

type partitionTable struct {
	Label      string      `json:"label"`
	Unit       string      `json:"unit"`
	SectorSize uint64      `json:"sectorsize"`
	Partitions []partition `json:"partitions"`
}

type partition struct {
	Node  string `json:"node"`
	Start uint64 `json:"start"`
	Size  uint64 `json:"size"`
	Type  string `json:"type"`
	UUID  string `json:"uuid"`
}

// verify reads the partition table back out of the assembled image and
// checks it against the layout and identity that went in. The EFI entry's
// partition UUID is assigned by sfdisk, so only its geometry is checked;
// the root entry must additionally carry the UUID referenced by the boot
// entry's kernel command line.
func (a Assembler) verify(ctx context.Context, lay layout.Layout, id identity.DiskIdentity, disk string) error {
	out, err := a.s.Runner().RunContext(ctx, a.ts.Path("sfdisk"), "--json", disk)
	if err != nil {
		return fmt.Errorf("reading back partition table: %w", err)
	}

	objmap := map[string]*json.RawMessage{}
	if err := json.Unmarshal(out, &objmap); err != nil {
		return fmt.Errorf("parsing sfdisk output: %w", err)
	}
	raw, ok := objmap["partitiontable"]
	if !ok || raw == nil {
		return fmt.Errorf("sfdisk output has no partition table for '%s'", disk)
	}
	var table partitionTable
	if err := json.Unmarshal(*raw, &table); err != nil {
		return fmt.Errorf("parsing partition table: %w", err)
	}

	if !strings.EqualFold(table.Label, "gpt") {
		return fmt.Errorf("disk image carries a '%s' label, expected gpt", table.Label)
	}
	if len(table.Partitions) != 2 {
		return fmt.Errorf("disk image has %d partitions, expected 2", len(table.Partitions))
	}

	efi, root := table.Partitions[0], table.Partitions[1]
	if err := checkGeometry("EFI", efi, lay.EfiStartSector(), lay.EfiSizeSectors(), efiTypeGUID); err != nil {
		return err
	}
	if err := checkGeometry("root", root, lay.RootStartSector(), lay.RootSizeSectors(), rootTypeGUID); err != nil {
		return err
	}
	if !strings.EqualFold(root.UUID, id.RootPartUUID) {
		return fmt.Errorf("root partition UUID is '%s', expected '%s'", root.UUID, id.RootPartUUID)
	}

	a.s.Logger().Info("Partition table verified")
	return nil
}

func checkGeometry(name string, p partition, start, size uint64, typeGUID string) error {
	if p.Start != start {
		return fmt.Errorf("%s partition starts at sector %d, expected %d", name, p.Start, start)
	}
	if p.Size != size {
		return fmt.Errorf("%s partition spans %d sectors, expected %d", name, p.Size, size)
	}
	if !strings.EqualFold(p.Type, typeGUID) {
		return fmt.Errorf("%s partition has type '%s', expected '%s'", name, p.Type, typeGUID)
	}
	return nil
}
