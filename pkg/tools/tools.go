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

// Package tools resolves the host tools the image build shells out to.
// Resolution happens once at startup and produces an immutable Toolset
// that is passed by value into every stage, instead of mutating
// process-wide search path state.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/levitateos/leviso/pkg/sys"
)

// Tool names a host binary and the package commonly shipping it, used to
// give actionable install hints when it is missing.
type Tool struct {
	Name    string
	Package string
}

// DiskBuild lists the host tools required for a sudo-free disk image
// build. None of them needs a block device or a mount namespace.
var DiskBuild = []Tool{
	{Name: "sfdisk", Package: "util-linux"},
	{Name: "mkfs.vfat", Package: "dosfstools"},
	{Name: "mkfs.ext4", Package: "e2fsprogs"},
	{Name: "mmd", Package: "mtools"},
	{Name: "mcopy", Package: "mtools"},
	{Name: "qemu-img", Package: "qemu-img"},
}

// Toolset maps tool names to their resolved absolute paths. It is
// immutable after construction.
type Toolset struct {
	paths map[string]string
}

// Resolve looks up every given tool through the system runner and fails
// listing all missing tools at once, each with its install hint.
func Resolve(s *sys.System, required []Tool) (Toolset, error) {
	paths := map[string]string{}
	var missing []string

	for _, tool := range required {
		out, err := s.Runner().Run("which", tool.Name)
		path := strings.TrimSpace(string(out))
		if err != nil || path == "" {
			missing = append(missing, fmt.Sprintf("  %s (install: %s)", tool.Name, tool.Package))
			continue
		}
		paths[tool.Name] = path
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return Toolset{}, fmt.Errorf("missing required host tools:\n%s", strings.Join(missing, "\n"))
	}

	return Toolset{paths: paths}, nil
}

// Path returns the resolved path for the given tool, or the bare name if
// the tool was not part of the resolved set.
func (t Toolset) Path(name string) string {
	if path, ok := t.paths[name]; ok {
		return path
	}
	return name
}
