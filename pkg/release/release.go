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

// Package release reads os-release metadata out of a staged root tree and
// derives naming for built artifacts from it.
package release

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/levitateos/leviso/pkg/sys/vfs"
)

const osReleasePath = "etc/os-release"

// Release is the subset of os-release fields the build consumes.
type Release struct {
	ID         string
	Name       string
	Version    string
	PrettyName string
}

// FromStaging parses etc/os-release inside the staged root tree. A staging
// tree without one gets neutral defaults instead of an error, since
// os-release only feeds artifact naming.
func FromStaging(fs vfs.FS, staging string) (Release, error) {
	path := filepath.Join(staging, osReleasePath)
	if ok, _ := vfs.Exists(fs, path); !ok {
		return Release{ID: "linux", Name: "Linux"}, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return Release{}, fmt.Errorf("reading '%s': %w", path, err)
	}
	env, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return Release{}, fmt.Errorf("parsing '%s': %w", path, err)
	}

	rel := Release{
		ID:         env["ID"],
		Name:       env["NAME"],
		Version:    env["VERSION_ID"],
		PrettyName: env["PRETTY_NAME"],
	}
	if rel.ID == "" {
		rel.ID = "linux"
	}
	if rel.Name == "" {
		rel.Name = rel.ID
	}
	return rel, nil
}

// ImageFileName derives the output image base name, without extension.
func (r Release) ImageFileName() string {
	if r.Version != "" {
		return fmt.Sprintf("%s-%s-%s", r.ID, r.Version, runtime.GOARCH)
	}
	return fmt.Sprintf("%s-%s", r.ID, runtime.GOARCH)
}

// Title returns the human readable name for boot menu entries.
func (r Release) Title() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	return r.Name
}
