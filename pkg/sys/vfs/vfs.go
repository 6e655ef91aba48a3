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

package vfs

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

const (
	// DirPerm is the default permission mode for created directories.
	DirPerm os.FileMode = 0755
	// FilePerm is the default permission mode for created files.
	FilePerm os.FileMode = 0644
)

// FS is the filesystem interface consumed across the module. It is an
// afero filesystem extended with the read/write convenience helpers so
// callers never need package level afero utilities.
type FS interface {
	afero.Fs
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadDir(name string) ([]os.FileInfo, error)
	Exists(name string) (bool, error)
	IsDir(name string) (bool, error)
	TempDir(dir, prefix string) (string, error)
	Walk(root string, walkFn func(path string, info os.FileInfo, err error) error) error
}

type aferoFS struct {
	afero.Afero
}

func (f aferoFS) Exists(name string) (bool, error) {
	return f.Afero.Exists(name)
}

func (f aferoFS) IsDir(name string) (bool, error) {
	return f.Afero.IsDir(name)
}

func (f aferoFS) Walk(root string, walkFn func(path string, info os.FileInfo, err error) error) error {
	return afero.Walk(f.Afero.Fs, root, walkFn)
}

// New returns an FS backed by the host filesystem.
func New() FS {
	return aferoFS{afero.Afero{Fs: afero.NewOsFs()}}
}

// NewFrom wraps any afero filesystem into an FS. Used by test helpers to
// inject in-memory filesystems.
func NewFrom(base afero.Fs) FS {
	return aferoFS{afero.Afero{Fs: base}}
}

// Exists checks if the given path exists.
func Exists(fs FS, path string) (bool, error) {
	return fs.Exists(path)
}

// IsDir checks if the given path is an existing directory.
func IsDir(fs FS, path string) (bool, error) {
	return fs.IsDir(path)
}

// MkdirAll creates the given directory and any missing parent.
func MkdirAll(fs FS, path string, perm os.FileMode) error {
	return fs.MkdirAll(path, perm)
}

// TempDir creates a fresh temporary directory under dir, or under the
// default temporary location if dir is empty.
func TempDir(fs FS, dir, prefix string) (string, error) {
	if dir != "" {
		if err := fs.MkdirAll(dir, DirPerm); err != nil {
			return "", err
		}
	}
	return fs.TempDir(dir, prefix)
}

// CopyFile copies the source file contents to the target path, creating
// or truncating the target.
func CopyFile(fs FS, source, target string) (err error) {
	src, err := fs.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := dst.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	_, err = io.Copy(dst, src)
	return err
}

// CreateSparseFile creates (or truncates) the given path as a sparse file
// of exactly the requested size in bytes.
func CreateSparseFile(fs FS, path string, size int64) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return f.Truncate(size)
}

// DirSize walks the given root and accumulates the size in bytes of all
// regular files underneath it.
func DirSize(fs FS, root string) (int64, error) {
	var size int64
	err := fs.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// DirSizeMB returns the size of the given directory tree in megabytes.
func DirSizeMB(fs FS, root string) (uint, error) {
	size, err := DirSize(fs, root)
	if err != nil {
		return 0, err
	}
	return uint(size / (1024 * 1024)), nil
}
