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

// Package buildcache decides whether expensive build steps can be skipped.
// Freshness is based on a content digest over the step's inputs, recorded
// next to the produced artifact in a .hash file. A separate modification
// time heuristic exists for callers that only need a cheap "did anything
// change since" answer and can tolerate false positives.
package buildcache

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/levitateos/leviso/pkg/sys/vfs"
)

// ErrMissingInput reports a digest input file that does not exist. The
// caller decides whether that is fatal for the step.
var ErrMissingInput = errors.New("cache input does not exist")

// HashFileSuffix is appended to an artifact path to locate its recorded
// input digest.
const HashFileSuffix = ".hash"

type Cache struct {
	fs vfs.FS
}

func New(fs vfs.FS) *Cache {
	return &Cache{fs: fs}
}

// Digest computes a sha256 digest over the contents of the given files,
// in the given order. The order is part of the digest, so callers must
// pass inputs in a stable order.
func (c Cache) Digest(inputs ...string) (digest.Digest, error) {
	digester := digest.SHA256.Digester()
	for _, input := range inputs {
		f, err := c.fs.Open(input)
		if err != nil {
			return "", fmt.Errorf("opening '%s': %w: %w", input, ErrMissingInput, err)
		}
		_, err = io.Copy(digester.Hash(), f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("hashing '%s': %w", input, err)
		}
	}
	return digester.Digest(), nil
}

// HashFile returns the path of the digest record for the given artifact.
func HashFile(target string) string {
	return target + HashFileSuffix
}

// IsStale reports whether the artifact must be rebuilt for the given
// current input digest. Missing artifact, missing digest record and a
// digest mismatch all mean stale; only a readable record matching the
// current digest is fresh.
func (c Cache) IsStale(current digest.Digest, target string) bool {
	if ok, _ := vfs.Exists(c.fs, target); !ok {
		return true
	}
	recorded, err := c.fs.ReadFile(HashFile(target))
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(recorded)) != current.String()
}

// Record stores the input digest for the given artifact, creating parent
// directories as needed.
func (c Cache) Record(current digest.Digest, target string) error {
	hashFile := HashFile(target)
	if err := vfs.MkdirAll(c.fs, filepath.Dir(hashFile), vfs.DirPerm); err != nil {
		return fmt.Errorf("creating directory for '%s': %w", hashFile, err)
	}
	if err := c.fs.WriteFile(hashFile, []byte(current.String()+"\n"), vfs.FilePerm); err != nil {
		return fmt.Errorf("recording digest for '%s': %w", target, err)
	}
	return nil
}

// IsNewer reports whether source has a newer modification time than
// target. A missing target means a rebuild is needed (true); a missing
// source cannot be newer than anything (false). This is a heuristic only:
// modification times move for reasons other than content changes, so
// digest-based staleness is preferred for anything expensive.
func (c Cache) IsNewer(source, target string) bool {
	srcInfo, err := c.fs.Stat(source)
	if err != nil {
		return false
	}
	tgtInfo, err := c.fs.Stat(target)
	if err != nil {
		return true
	}
	return srcInfo.ModTime().After(tgtInfo.ModTime())
}
