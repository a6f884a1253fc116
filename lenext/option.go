// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package lenext

import (
	"log/slog"

	"github.com/superwindstorm/smkit/internal/logx"
)

const (
	DefaultMinSecretLen = 1
	DefaultMaxSecretLen = 64
)

type config struct {
	minLen, maxLen int
	logger         *slog.Logger
}

type Option func(*config)

// WithSecretLenRange sets the inclusive range of secret lengths to try.
func WithSecretLenRange(lo, hi int) Option {
	return func(c *config) {
		c.minLen, c.maxLen = lo, hi
	}
}

// WithLogger reports every attempt to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		minLen: DefaultMinSecretLen,
		maxLen: DefaultMaxSecretLen,
		logger: slog.New(logx.New(nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
