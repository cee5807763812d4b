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
	"time"

	"github.com/ZaparooProject/go-nametag/internal/syncutil"
)

// mailbox records notification values delivered on the transport's
// goroutine. The callback only puts; Send only clears and waits.
type mailbox struct {
	received map[string]struct{}
	signal   chan struct{}
	mu       syncutil.Mutex
	any      bool
}

func newMailbox() *mailbox {
	return &mailbox{
		received: make(map[string]struct{}),
		signal:   make(chan struct{}, 1),
	}
}

// put records value and wakes a waiter.
func (m *mailbox) put(value []byte) {
	m.mu.Lock()
	m.received[string(value)] = struct{}{}
	m.any = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// clear forgets everything received so far. Values put after clear
// returns are kept.
func (m *mailbox) clear() {
	m.mu.Lock()
	clear(m.received)
	m.any = false
	m.mu.Unlock()

	select {
	case <-m.signal:
	default:
	}
}

// has reports whether expect (or, for Wildcard, anything) was received.
func (m *mailbox) has(expect []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isWildcard(expect) {
		return m.any
	}
	_, ok := m.received[string(expect)]
	return ok
}

// wait blocks until expect is present, timeout elapses or ctx is done.
func (m *mailbox) wait(ctx context.Context, expect []byte, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if m.has(expect) {
			return time.Since(start), nil
		}
		select {
		case <-m.signal:
		case <-timer.C:
			if m.has(expect) {
				return time.Since(start), nil
			}
			return time.Since(start), ErrExpectTimeout
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		}
	}
}
