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

package cleanstack_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/levitateos/leviso/pkg/cleanstack"
)

func TestCleanStackSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CleanStack test suite")
}

var _ = Describe("CleanStack", Label("cleanstack"), func() {
	It("runs cleanup tasks in reverse order", func() {
		var order []string
		stack := cleanstack.NewCleanStack()
		stack.Push(func() error { order = append(order, "first"); return nil })
		stack.Push(func() error { order = append(order, "second"); return nil })

		Expect(stack.Cleanup(nil)).To(Succeed())
		Expect(order).To(Equal([]string{"second", "first"}))
	})

	It("keeps running after a task failure and joins the errors", func() {
		var ran bool
		taskErr := errors.New("task failed")
		stack := cleanstack.NewCleanStack()
		stack.Push(func() error { ran = true; return nil })
		stack.Push(func() error { return taskErr })

		err := stack.Cleanup(nil)
		Expect(err).To(MatchError(taskErr))
		Expect(ran).To(BeTrue())
	})

	It("preserves the original error", func() {
		origErr := errors.New("build failed")
		stack := cleanstack.NewCleanStack()
		stack.Push(func() error { return nil })

		Expect(stack.Cleanup(origErr)).To(MatchError(origErr))
	})
})
