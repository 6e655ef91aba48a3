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

package disk_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/levitateos/leviso/pkg/disk"
	"github.com/levitateos/leviso/pkg/identity"
	"github.com/levitateos/leviso/pkg/layout"
	"github.com/levitateos/leviso/pkg/log"
	"github.com/levitateos/leviso/pkg/sys"
	sysmock "github.com/levitateos/leviso/pkg/sys/mock"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

func TestDiskSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Disk test suite")
}

var _ = Describe("Assembler", Label("disk"), func() {
	var runner *sysmock.Runner
	var fs vfs.FS
	var cleanup func()
	var s *sys.System
	var assembler *disk.Assembler
	var id identity.DiskIdentity
	var lay layout.Layout

	tableJSON := func(rootUUID string) string {
		return fmt.Sprintf(`{
			"partitiontable": {
				"label": "gpt",
				"unit": "sectors",
				"sectorsize": 512,
				"partitions": [
					{"node": "/work/disk.raw1", "start": 2048, "size": 8192,
					 "type": "C12A7328-F81F-11D2-BA4B-00A0C93EC93B", "uuid": "AB1C4418-93A1-4E57-9E5C-05A34FD08E32"},
					{"node": "/work/disk.raw2", "start": 10240, "size": 20480,
					 "type": "0FC63DAF-8483-4772-8E79-3D69D8477DE4", "uuid": "%s"}
				]
			}
		}`, rootUUID)
	}

	BeforeEach(func() {
		var err error
		runner = sysmock.NewRunner()
		fs, cleanup, err = sysmock.TestFS(nil)
		Expect(err).NotTo(HaveOccurred())
		s, err = sys.NewSystem(
			sys.WithRunner(runner), sys.WithFS(fs),
			sys.WithLogger(log.New(log.WithDiscardAll())),
		)
		Expect(err).NotTo(HaveOccurred())

		id = identity.DiskIdentity{
			RootFsUUID:   "f3f57270-0dcb-4f43-8d7e-68a2b3a0a6ad",
			EfiFsSerial:  "1A2B-3C4D",
			RootPartUUID: "d9e8f6a0-1234-4b6e-9c1d-55aa66bb77cc",
		}
		lay, err = layout.Compute(16, 4)
		Expect(err).NotTo(HaveOccurred())

		Expect(vfs.MkdirAll(fs, "/work", vfs.DirPerm)).To(Succeed())
		Expect(fs.WriteFile("/work/efi.img", []byte("EFI-CONTENT"), vfs.FilePerm)).To(Succeed())
		Expect(fs.WriteFile("/work/root.img", []byte("ROOT-CONTENT"), vfs.FilePerm)).To(Succeed())
		Expect(truncate(fs, "/work/efi.img", int64(lay.EfiSize))).To(Succeed())
		Expect(truncate(fs, "/work/root.img", int64(lay.RootSize))).To(Succeed())

		runner.SideEffect = func(cmd string, args ...string) ([]byte, error) {
			if cmd == "sfdisk" && args[0] == "--json" {
				return []byte(tableJSON(id.RootPartUUID)), nil
			}
			return []byte{}, nil
		}

		assembler = disk.NewAssembler(s, tools.Toolset{})
	})

	AfterEach(func() {
		cleanup()
	})

	It("writes the GPT from an sfdisk script on stdin", func() {
		Expect(assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")).To(Succeed())

		script := string(runner.InputFor("sfdisk", "--no-reread"))
		Expect(script).To(HavePrefix("label: gpt\n"))
		Expect(script).To(ContainSubstring("start=2048, size=8192, type=U, bootable\n"))
		Expect(script).To(ContainSubstring(fmt.Sprintf("start=10240, size=20480, type=L, uuid=%s\n", id.RootPartUUID)))
	})

	It("splices both partition images at their byte offsets", func() {
		Expect(assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")).To(Succeed())

		info, err := fs.Stat("/work/disk.raw")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(Equal(int64(lay.TotalSize)))

		Expect(readAt(fs, "/work/disk.raw", int64(lay.EfiOffset), 11)).To(Equal("EFI-CONTENT"))
		Expect(readAt(fs, "/work/disk.raw", int64(lay.RootOffset), 12)).To(Equal("ROOT-CONTENT"))
	})

	It("verifies the written table against the expected geometry", func() {
		Expect(assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")).To(Succeed())

		Expect(runner.MatchMilestones([][]string{
			{"sfdisk", "--no-reread", "--no-tell-kernel", "/work/disk.raw"},
			{"sfdisk", "--json", "/work/disk.raw"},
		})).To(Succeed())
	})

	It("accepts the root partition UUID in any case", func() {
		runner.SideEffect = func(cmd string, args ...string) ([]byte, error) {
			if cmd == "sfdisk" && args[0] == "--json" {
				return []byte(tableJSON("D9E8F6A0-1234-4B6E-9C1D-55AA66BB77CC")), nil
			}
			return []byte{}, nil
		}

		Expect(assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")).To(Succeed())
	})

	It("fails verification when the root partition UUID differs", func() {
		runner.SideEffect = func(cmd string, args ...string) ([]byte, error) {
			if cmd == "sfdisk" && args[0] == "--json" {
				return []byte(tableJSON("00000000-0000-0000-0000-000000000000")), nil
			}
			return []byte{}, nil
		}

		err := assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("root partition UUID"))
	})

	It("rejects a wrongly sized partition image before writing anything", func() {
		Expect(truncate(fs, "/work/root.img", int64(lay.RootSize)-1)).To(Succeed())

		err := assembler.Assemble(context.Background(), lay, id, "/work/efi.img", "/work/root.img", "/work/disk.raw")
		Expect(err).To(HaveOccurred())

		var sizeErr disk.SizeMismatchError
		Expect(errors.As(err, &sizeErr)).To(BeTrue())
		Expect(sizeErr.Partition).To(Equal("root"))

		Expect(runner.CmdsMatch([][]string{})).To(Succeed())
		ok, _ := vfs.Exists(fs, "/work/disk.raw")
		Expect(ok).To(BeFalse())
	})
})

func truncate(fs vfs.FS, path string, size int64) error {
	f, err := fs.OpenFile(path, os.O_RDWR, vfs.FilePerm)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(size)
}

func readAt(fs vfs.FS, path string, offset int64, length int) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(f, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
