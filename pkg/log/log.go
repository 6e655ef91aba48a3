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

package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the printf-style logging interface consumed across the module.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level string)
}

type logger struct {
	log *logrus.Logger
}

type Option func(*logger)

// New returns a Logger writing to stderr at info level.
func New(opts ...Option) Logger {
	l := &logger{log: logrus.New()}
	l.log.SetOutput(os.Stderr)
	l.log.SetLevel(logrus.InfoLevel)
	l.log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithDiscardAll silences the logger entirely, handy for tests.
func WithDiscardAll() Option {
	return func(l *logger) {
		l.log.SetOutput(io.Discard)
	}
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(l *logger) {
		l.log.SetOutput(w)
	}
}

// WithDebugLevel enables debug messages.
func WithDebugLevel() Option {
	return func(l *logger) {
		l.log.SetLevel(logrus.DebugLevel)
	}
}

func (l logger) Debug(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func (l logger) Info(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l logger) Warn(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l logger) Error(format string, args ...any) {
	l.log.Errorf(format, args...)
}

func (l logger) SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.log.SetLevel(lv)
}
