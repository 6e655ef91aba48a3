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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/levitateos/leviso/pkg/log"
)

type cmdRunner struct {
	logger log.Logger
}

var _ Runner = (*cmdRunner)(nil)

// NewCmdRunner returns a Runner executing commands on the host.
func NewCmdRunner(logger log.Logger) Runner {
	return &cmdRunner{logger: logger}
}

func (r cmdRunner) Run(command string, args ...string) ([]byte, error) {
	return r.RunContextInput(context.Background(), nil, command, args...)
}

func (r cmdRunner) RunContext(ctx context.Context, command string, args ...string) ([]byte, error) {
	return r.RunContextInput(ctx, nil, command, args...)
}

func (r cmdRunner) RunContextInput(ctx context.Context, input []byte, command string, args ...string) ([]byte, error) {
	r.logger.Debug("Running cmd: '%s %s'", command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, command, args...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return stdout.Bytes(), fmt.Errorf("'%s' timed out: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.Bytes(), fmt.Errorf("'%s' failed (exit code %d)", command, exitErr.ExitCode())
		}
		return stdout.Bytes(), fmt.Errorf("'%s' failed (exit code %d): %s", command, exitErr.ExitCode(), msg)
	}

	return stdout.Bytes(), fmt.Errorf("executing '%s': %w", command, err)
}
