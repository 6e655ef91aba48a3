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

package mtools_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/levitateos/leviso/pkg/log"
	"github.com/levitateos/leviso/pkg/mtools"
	"github.com/levitateos/leviso/pkg/sys"
	sysmock "github.com/levitateos/leviso/pkg/sys/mock"
	"github.com/levitateos/leviso/pkg/sys/vfs"
	"github.com/levitateos/leviso/pkg/tools"
)

func TestMtoolsSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mtools test suite")
}

var _ = Describe("Mtools", Label("mtools"), func() {
	var runner *sysmock.Runner
	var fs vfs.FS
	var cleanup func()
	var s *sys.System
	var mt *mtools.Mtools

	BeforeEach(func() {
		var err error
		runner = sysmock.NewRunner()
		fs, cleanup, err = sysmock.TestFS(map[string]any{
			"/work/efi.img": "fat-image",
		})
		Expect(err).NotTo(HaveOccurred())
		s, err = sys.NewSystem(
			sys.WithRunner(runner), sys.WithFS(fs),
			sys.WithLogger(log.New(log.WithDiscardAll())),
		)
		Expect(err).NotTo(HaveOccurred())
		mt = mtools.New(s, tools.Toolset{})
	})

	AfterEach(func() {
		cleanup()
	})

	It("creates directories with the in-image path syntax", func() {
		Expect(mt.Mkdir(context.Background(), "/work/efi.img", "EFI/BOOT")).To(Succeed())
		Expect(runner.CmdsMatch([][]string{
			{"mmd", "-i", "/work/efi.img", "::EFI/BOOT"},
		})).To(Succeed())
	})

	It("ignores directory creation failures", func() {
		runner.ReturnError = fmt.Errorf("directory exists")
		Expect(mt.Mkdir(context.Background(), "/work/efi.img", "EFI")).To(Succeed())
	})

	It("copies host files into the image", func() {
		Expect(mt.Copy(context.Background(), "/work/efi.img", "/boot/vmlinuz", "vmlinuz")).To(Succeed())
		Expect(runner.CmdsMatch([][]string{
			{"mcopy", "-i", "/work/efi.img", "/boot/vmlinuz", "::vmlinuz"},
		})).To(Succeed())
	})

	It("surfaces copy failures", func() {
		runner.ReturnError = fmt.Errorf("no space on device")
		err := mt.Copy(context.Background(), "/work/efi.img", "/boot/vmlinuz", "vmlinuz")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("/boot/vmlinuz"))
	})

	It("writes content through a temporary host file and removes it", func() {
		Expect(mt.WriteFile(context.Background(), "/work/efi.img", "loader/loader.conf", "default entry\n")).To(Succeed())

		history := runner.CmdHistory()
		Expect(history).To(HaveLen(1))
		Expect(history[0][0]).To(Equal("mcopy"))
		Expect(history[0][4]).To(Equal("::loader/loader.conf"))

		temp := history[0][3]
		ok, _ := vfs.Exists(fs, temp)
		Expect(ok).To(BeFalse())
	})
})
