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
	"context"
	"fmt"

	"github.com/levitateos/leviso/pkg/sys"
)

// Runner is a sys.Runner stub recording every invoked command. Tests can
// set ReturnValue/ReturnError for uniform behavior or SideEffect for
// per-command behavior.
type Runner struct {
	cmds        [][]string
	inputs      map[int][]byte
	ReturnValue []byte
	ReturnError error
	SideEffect  func(command string, args ...string) ([]byte, error)
}

var _ sys.Runner = (*Runner)(nil)

func NewRunner() *Runner {
	return &Runner{inputs: map[int][]byte{}}
}

func (r *Runner) Run(command string, args ...string) ([]byte, error) {
	return r.RunContextInput(context.Background(), nil, command, args...)
}

func (r *Runner) RunContext(ctx context.Context, command string, args ...string) ([]byte, error) {
	return r.RunContextInput(ctx, nil, command, args...)
}

func (r *Runner) RunContextInput(_ context.Context, input []byte, command string, args ...string) ([]byte, error) {
	if input != nil {
		r.inputs[len(r.cmds)] = input
	}
	r.cmds = append(r.cmds, append([]string{command}, args...))
	if r.SideEffect != nil {
		return r.SideEffect(command, args...)
	}
	return r.ReturnValue, r.ReturnError
}

// ClearCmds wipes the recorded command history.
func (r *Runner) ClearCmds() {
	r.cmds = [][]string{}
	r.inputs = map[int][]byte{}
}

// CmdsMatch checks the recorded commands match the given list in strict
// order. Each expected command is compared as a prefix, so trailing
// arguments can be omitted.
func (r *Runner) CmdsMatch(cmdList [][]string) error {
	if len(cmdList) != len(r.cmds) {
		return fmt.Errorf("number of commands mismatch, expected %d, got %d: %v", len(cmdList), len(r.cmds), r.cmds)
	}
	for i, cmd := range cmdList {
		if !prefixMatch(r.cmds[i], cmd) {
			return fmt.Errorf("expected command '%v' at position %d, got '%v'", cmd, i, r.cmds[i])
		}
	}
	return nil
}

// MatchMilestones checks all the given commands were run in the given
// order, ignoring any other command in between. Comparison is by prefix.
func (r *Runner) MatchMilestones(cmdList [][]string) error {
	recorded := r.cmds
	for _, cmd := range cmdList {
		match := false
		for len(recorded) > 0 {
			current := recorded[0]
			recorded = recorded[1:]
			if prefixMatch(current, cmd) {
				match = true
				break
			}
		}
		if !match {
			return fmt.Errorf("milestone command '%v' not found in: %v", cmd, r.cmds)
		}
	}
	return nil
}

// IncludesCmds checks the given commands were run in any order.
func (r *Runner) IncludesCmds(cmdList [][]string) error {
	for _, cmd := range cmdList {
		found := false
		for _, executed := range r.cmds {
			if prefixMatch(executed, cmd) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("command '%v' not found in: %v", cmd, r.cmds)
		}
	}
	return nil
}

// InputFor returns the stdin bytes recorded for the first executed command
// matching the given prefix, or nil if none matched.
func (r *Runner) InputFor(cmd ...string) []byte {
	for i, executed := range r.cmds {
		if prefixMatch(executed, cmd) {
			return r.inputs[i]
		}
	}
	return nil
}

// CmdHistory returns a copy of the recorded commands.
func (r *Runner) CmdHistory() [][]string {
	history := make([][]string, len(r.cmds))
	copy(history, r.cmds)
	return history
}

func prefixMatch(executed, expected []string) bool {
	if len(expected) > len(executed) {
		return false
	}
	for i, arg := range expected {
		if executed[i] != arg {
			return false
		}
	}
	return true
}
