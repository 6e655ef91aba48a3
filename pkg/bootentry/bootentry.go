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

// Package bootentry renders systemd-boot loader configuration: the
// loader.conf blob and the boot menu entry files placed under
// loader/entries on the EFI system partition.
package bootentry

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const (
	// KernelPath is the in-image path the kernel is installed at.
	KernelPath = "/vmlinuz"
	// InitrdPath is the in-image path the initramfs is installed at.
	InitrdPath = "/initramfs.img"
)

const entryTemplate = `title   {{.Title}}
linux   {{.Linux}}
initrd  {{.Initrd}}
options {{.Options}}
`

const loaderTemplate = `default {{.Default}}
timeout {{.Timeout}}
console-mode {{.ConsoleMode}}
editor {{if .Editor}}yes{{else}}no{{end}}
`

// Entry is one boot menu item.
type Entry struct {
	// Name is the entry file base name, without the .conf suffix.
	Name    string
	Title   string
	Linux   string
	Initrd  string
	Options string
}

// LoaderConf is the systemd-boot loader configuration.
type LoaderConf struct {
	Default     string
	Timeout     int
	ConsoleMode string
	Editor      bool
}

// New returns a boot entry whose kernel command line locates the root
// filesystem by GPT partition UUID. The given rootPartUUID must be the
// exact UUID assigned to the root partition's GPT entry.
func New(name, title, rootPartUUID, extraCmdline string) Entry {
	options := fmt.Sprintf("root=PARTUUID=%s rw", rootPartUUID)
	if extraCmdline != "" {
		options = fmt.Sprintf("%s %s", options, extraCmdline)
	}
	return Entry{
		Name:    name,
		Title:   title,
		Linux:   KernelPath,
		Initrd:  InitrdPath,
		Options: options,
	}
}

// DefaultLoaderConf returns a loader configuration booting the given
// entry without delay.
func DefaultLoaderConf(entry Entry) LoaderConf {
	return LoaderConf{
		Default:     entry.Filename(),
		Timeout:     3,
		ConsoleMode: "max",
	}
}

// Filename returns the entry file name under loader/entries.
func (e Entry) Filename() string {
	return fmt.Sprintf("%s.conf", e.Name)
}

// Render produces the entry file content.
func (e Entry) Render() (string, error) {
	return render("boot-entry", entryTemplate, e)
}

// Render produces the loader.conf content.
func (l LoaderConf) Render() (string, error) {
	return render("loader-conf", loaderTemplate, l)
}

func render(name, text string, data any) (string, error) {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// SanitizeName turns an arbitrary title into a safe entry file base name.
func SanitizeName(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	name = strings.ReplaceAll(name, " ", "-")
	return name
}
