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
	"context"
	"sync/atomic"

	"github.com/ZaparooProject/go-nametag/discovery"
	"github.com/ZaparooProject/go-nametag/internal/syncutil"
	"github.com/ZaparooProject/go-nametag/transport"
)

// ConnectionState is the state of a ResilientSession
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnected
)

// String returns a human-readable state name
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ResilientConfig configures a ResilientSession
type ResilientConfig struct {
	// Retry controls backoff and the overall deadline. RetryTimeout is the
	// deadline: once a failure happens later than that after the first
	// attempt, Send gives up.
	Retry *RetryConfig
	// SessionOptions are passed to every Open.
	SessionOptions []Option
	// Scan is used while the badge address is not yet known.
	Scan discovery.Options
}

// DefaultResilientConfig returns a 60 second reconnect deadline with
// exponential backoff.
func DefaultResilientConfig() *ResilientConfig {
	return &ResilientConfig{
		Retry: DefaultRetryConfig(),
		Scan:  discovery.DefaultOptions(),
	}
}

// ResilientSession keeps a Session to one badge alive across link loss.
// A failed Send is replayed from its first step on a fresh connection,
// since the badge discards partial transfers.
type ResilientSession struct {
	adapter transport.Adapter
	config  *ResilientConfig
	session *Session
	target  discovery.Target
	address string
	mu      syncutil.Mutex
	state   atomic.Int32
	closed  bool
}

// NewResilientSession creates the session and makes one connection
// attempt. A failure there is only logged; Send reconnects.
func NewResilientSession(
	ctx context.Context, adapter transport.Adapter, target discovery.Target, config *ResilientConfig,
) *ResilientSession {
	if config == nil {
		config = DefaultResilientConfig()
	}
	if config.Retry == nil {
		config.Retry = DefaultRetryConfig()
	}

	r := &ResilientSession{
		adapter: adapter,
		config:  config,
		target:  target,
		address: target.Address,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.connect(ctx); err != nil {
		Debugf("Initial connection to %s failed (will retry on send): %v", target, err)
	}
	return r
}

// State reports whether a session is currently open.
func (r *ResilientSession) State() ConnectionState {
	return ConnectionState(r.state.Load())
}

// Address returns the pinned badge address, or "" before the first
// successful connection.
func (r *ResilientSession) Address() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.address
}

func (r *ResilientSession) connect(ctx context.Context) error {
	if r.session != nil {
		return nil
	}

	target := r.target
	if r.address != "" {
		target.Address = r.address
	}
	device, err := resolveTarget(ctx, r.adapter, target, &r.config.Scan)
	if err != nil {
		return err
	}

	session, err := Open(ctx, r.adapter, device.Address, r.config.SessionOptions...)
	if err != nil {
		return err
	}
	r.session = session
	r.address = device.Address
	r.state.Store(int32(StateConnected))
	return nil
}

func (r *ResilientSession) drop() {
	if r.session == nil {
		return
	}
	if err := r.session.Close(); err != nil {
		Debugf("(%s) Close after failure: %v", r.address, err)
	}
	r.session = nil
	r.state.Store(int32(StateDisconnected))
}

// Send delivers steps, reconnecting and replaying from the first step
// after any retryable failure. Non-retryable errors are returned as they
// are; giving up on retryable ones returns a *RetryError.
func (r *ResilientSession) Send(ctx context.Context, steps []SendStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return &SessionError{Op: "send", Address: r.address, Err: ErrSessionClosed}
	}

	return RetryWithConfig(ctx, r.config.Retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			Debugf("Reconnecting to %s (attempt %d)", r.target, attempt)
		}
		if err := r.connect(ctx); err != nil {
			Debugf("Connect attempt %d failed: %v", attempt, err)
			return err
		}
		if err := r.session.Send(ctx, steps); err != nil {
			Debugf("(%s) Send attempt %d failed: %v", r.address, attempt, err)
			r.drop()
			return err
		}
		return nil
	})
}

// Close releases the current session. The ResilientSession cannot be
// used afterwards.
func (r *ResilientSession) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	r.state.Store(int32(StateDisconnected))
	return err
}
