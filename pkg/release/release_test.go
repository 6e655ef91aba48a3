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

package release_test

import (
	"fmt"
	"runtime"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/levitateos/leviso/pkg/release"
	sysmock "github.com/levitateos/leviso/pkg/sys/mock"
)

func TestReleaseSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Release test suite")
}

const osRelease = `NAME="LevitateOS"
ID=levitateos
VERSION_ID="1.2"
PRETTY_NAME="LevitateOS 1.2"
`

var _ = Describe("Release", Label("release"), func() {
	It("reads os-release from the staging tree", func() {
		fs, cleanup, err := sysmock.TestFS(map[string]any{
			"/staging/etc/os-release": osRelease,
		})
		Expect(err).NotTo(HaveOccurred())
		defer cleanup()

		rel, err := release.FromStaging(fs, "/staging")
		Expect(err).NotTo(HaveOccurred())
		Expect(rel.ID).To(Equal("levitateos"))
		Expect(rel.Version).To(Equal("1.2"))
		Expect(rel.Title()).To(Equal("LevitateOS 1.2"))
	})

	It("derives the image file name from the release", func() {
		fs, cleanup, err := sysmock.TestFS(map[string]any{
			"/staging/etc/os-release": osRelease,
		})
		Expect(err).NotTo(HaveOccurred())
		defer cleanup()

		rel, err := release.FromStaging(fs, "/staging")
		Expect(err).NotTo(HaveOccurred())
		Expect(rel.ImageFileName()).To(Equal(fmt.Sprintf("levitateos-1.2-%s", runtime.GOARCH)))
	})

	It("falls back to neutral defaults without os-release", func() {
		fs, cleanup, err := sysmock.TestFS(map[string]any{
			"/staging/etc/fstab": "",
		})
		Expect(err).NotTo(HaveOccurred())
		defer cleanup()

		rel, err := release.FromStaging(fs, "/staging")
		Expect(err).NotTo(HaveOccurred())
		Expect(rel.ID).To(Equal("linux"))
		Expect(rel.ImageFileName()).To(Equal(fmt.Sprintf("linux-%s", runtime.GOARCH)))
	})
})
