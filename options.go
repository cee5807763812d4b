// go-nametag
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nametag.
//
// go-nametag is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nametag is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nametag; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package nametag

import (
	"errors"
	"fmt"
	"time"
)

// SessionConfig contains configuration options for a Session
type SessionConfig struct {
	// ExpectTimeout bounds each wait for an expected notification.
	ExpectTimeout time.Duration
	// ConnectTimeout bounds connect plus GATT discovery in Open.
	ConnectTimeout time.Duration
	// WriteDelay is slept after every packet write (0 = none).
	WriteDelay time.Duration
	// BurstThreshold enables burst flow control when positive: writes
	// continue without waiting until a frame ends with more than this many
	// bytes unacknowledged, a short packet is written, or the steps run out.
	BurstThreshold int
	// TraceSize is the number of wire events kept for error reports.
	TraceSize int
}

// DefaultSessionConfig returns the strict lockstep configuration.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ExpectTimeout:  DefaultExpectTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		TraceSize:      DefaultTraceSize,
	}
}

// Option represents a functional option for Open
type Option func(*SessionConfig) error

// WithExpectTimeout sets the per-step notification timeout
func WithExpectTimeout(timeout time.Duration) Option {
	return func(c *SessionConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("expect timeout must be positive, got %v", timeout)
		}
		c.ExpectTimeout = timeout
		return nil
	}
}

// WithConnectTimeout sets the connect and discovery timeout
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *SessionConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("connect timeout must be positive, got %v", timeout)
		}
		c.ConnectTimeout = timeout
		return nil
	}
}

// WithBurstThreshold enables burst flow control. Use
// DefaultBurstThreshold unless the badge firmware is known to buffer more.
func WithBurstThreshold(bytes int) Option {
	return func(c *SessionConfig) error {
		if bytes < 0 {
			return errors.New("burst threshold cannot be negative")
		}
		c.BurstThreshold = bytes
		return nil
	}
}

// WithWriteDelay pauses after every packet write
func WithWriteDelay(delay time.Duration) Option {
	return func(c *SessionConfig) error {
		c.WriteDelay = delay
		return nil
	}
}

// WithTraceSize sets how many wire events are kept for error reports
func WithTraceSize(entries int) Option {
	return func(c *SessionConfig) error {
		if entries < 1 {
			return fmt.Errorf("trace size must be at least 1, got %d", entries)
		}
		c.TraceSize = entries
		return nil
	}
}

func applyOptions(opts []Option) (*SessionConfig, error) {
	config := DefaultSessionConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply session option: %w", err)
		}
	}
	return config, nil
}
