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

// Package cleanstack provides a LIFO stack of cleanup tasks meant to be
// executed from a deferred call chained onto a named error return:
//
//	cleanup := cleanstack.NewCleanStack()
//	defer func() { err = cleanup.Cleanup(err) }()
package cleanstack

import "errors"

type Task func() error

type CleanStack struct {
	tasks []Task
}

func NewCleanStack() *CleanStack {
	return &CleanStack{}
}

// Push adds a cleanup task on top of the stack.
func (c *CleanStack) Push(task Task) {
	c.tasks = append(c.tasks, task)
}

// Cleanup runs all stacked tasks in reverse order regardless of failures
// and returns the given error joined with any error the tasks produced.
func (c *CleanStack) Cleanup(err error) error {
	errs := []error{err}
	for i := len(c.tasks) - 1; i >= 0; i-- {
		if tErr := c.tasks[i](); tErr != nil {
			errs = append(errs, tErr)
		}
	}
	c.tasks = nil
	return errors.Join(errs...)
}
