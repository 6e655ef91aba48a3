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

package mock

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/levitateos/leviso/pkg/sys/vfs"
)

// TestFS returns an in-memory filesystem pre-populated with the given
// files and a cleanup function. Values may be []byte or string.
func TestFS(files map[string]any) (vfs.FS, func(), error) {
	fs := vfs.NewFrom(afero.NewMemMapFs())

	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), vfs.DirPerm); err != nil {
			return nil, nil, err
		}
		var data []byte
		switch v := content.(type) {
		case []byte:
			data = v
		case string:
			data = []byte(v)
		case nil:
			data = []byte{}
		default:
			return nil, nil, fmt.Errorf("unsupported content type for '%s': %T", path, content)
		}
		if err := fs.WriteFile(path, data, vfs.FilePerm); err != nil {
			return nil, nil, err
		}
	}

	return fs, func() {}, nil
}
