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

package config_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/levitateos/leviso/internal/config"
	"github.com/levitateos/leviso/pkg/layout"
	sysmock "github.com/levitateos/leviso/pkg/sys/mock"
	"github.com/levitateos/leviso/pkg/sys/vfs"
)

func TestConfigSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config test suite")
}

const fullDefinition = `staging: staging
kernel: /boot/vmlinuz
initramfs: artifacts/initramfs.img
diskSize: 20GiB
outputDir: /out
outputName: levitateos-test
bootEntries:
  - title: LevitateOS
    cmdline: quiet
`

const minimalDefinition = `staging: /staging
kernel: /boot/vmlinuz
initramfs: /boot/initramfs.img
`

var _ = Describe("Definition", Label("config"), func() {
	var fs vfs.FS
	var cleanup func()

	BeforeEach(func() {
		var err error
		fs, cleanup, err = sysmock.TestFS(map[string]any{
			"/build/leviso.yaml": fullDefinition,
			"/minimal.yaml":      minimalDefinition,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("parses sizes and boot entries", func() {
		def, err := config.Parse(fs, "/build/leviso.yaml")
		Expect(err).NotTo(HaveOccurred())

		Expect(def.DiskSize).To(Equal(config.DiskSize(20 * 1024)))
		Expect(def.OutputName).To(Equal("levitateos-test"))
		Expect(def.Entries).To(HaveLen(1))
		Expect(def.Entries[0].Cmdline).To(Equal("quiet"))
	})

	It("resolves relative paths against the definition directory", func() {
		def, err := config.Parse(fs, "/build/leviso.yaml")
		Expect(err).NotTo(HaveOccurred())

		Expect(def.Staging).To(Equal("/build/staging"))
		Expect(def.Kernel).To(Equal("/boot/vmlinuz"))
		Expect(def.Initramfs).To(Equal("/build/artifacts/initramfs.img"))
	})

	It("applies defaults for omitted fields", func() {
		def, err := config.Parse(fs, "/minimal.yaml")
		Expect(err).NotTo(HaveOccurred())

		Expect(def.DiskSize).To(Equal(config.DiskSize(config.DefaultDiskSize)))
		Expect(def.EfiSize).To(Equal(config.DiskSize(layout.EfiSize)))
		Expect(def.OutputDir).NotTo(BeEmpty())
	})

	It("rejects unknown fields", func() {
		Expect(fs.WriteFile("/typo.yaml", []byte("staging: /s\nkernle: /k\n"), vfs.FilePerm)).To(Succeed())
		_, err := config.Parse(fs, "/typo.yaml")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a definition without a kernel", func() {
		Expect(fs.WriteFile("/nokernel.yaml", []byte("staging: /s\ninitramfs: /i\n"), vfs.FilePerm)).To(Succeed())
		_, err := config.Parse(fs, "/nokernel.yaml")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("kernel"))
	})

	It("rejects sizes that are not whole MiB", func() {
		Expect(fs.WriteFile("/odd.yaml", []byte(minimalDefinition+"diskSize: 1000001b\n"), vfs.FilePerm)).To(Succeed())
		_, err := config.Parse(fs, "/odd.yaml")
		Expect(err).To(HaveOccurred())
	})
})
