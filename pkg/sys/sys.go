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

package sys

import (
	"context"

	"github.com/levitateos/leviso/pkg/log"
	"github.com/levitateos/leviso/pkg/sys/vfs"
)

// Runner abstracts external tool invocation. Implementations must capture
// stdout as the returned bytes and surface stderr verbatim as part of the
// returned error on non-zero exits.
type Runner interface {
	Run(command string, args ...string) ([]byte, error)
	RunContext(ctx context.Context, command string, args ...string) ([]byte, error)
	// RunContextInput feeds the given bytes to the command's stdin. Used
	// for tools driven by scripts (e.g. sfdisk).
	RunContextInput(ctx context.Context, input []byte, command string, args ...string) ([]byte, error)
}

// System aggregates the host collaborators (process runner, filesystem,
// logger) so they can be injected and mocked as a unit.
type System struct {
	runner Runner
	fs     vfs.FS
	logger log.Logger
}

type Option func(*System)

func WithRunner(runner Runner) Option {
	return func(s *System) {
		s.runner = runner
	}
}

func WithFS(fs vfs.FS) Option {
	return func(s *System) {
		s.fs = fs
	}
}

func WithLogger(logger log.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// NewSystem returns a System with host defaults for any collaborator not
// provided as an option.
func NewSystem(opts ...Option) (*System, error) {
	s := &System{}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = log.New()
	}
	if s.fs == nil {
		s.fs = vfs.New()
	}
	if s.runner == nil {
		s.runner = NewCmdRunner(s.logger)
	}
	return s, nil
}

func (s System) Runner() Runner {
	return s.runner
}

func (s System) FS() vfs.FS {
	return s.fs
}

func (s System) Logger() log.Logger {
	return s.logger
}
