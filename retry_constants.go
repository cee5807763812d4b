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

import "time"

// Session timing constants.
const (
	// DefaultExpectTimeout is how long a step waits for its expected
	// notification. The badge acknowledges a chunk within a few tens of
	// milliseconds when the link is healthy.
	DefaultExpectTimeout = 1 * time.Second
	// DefaultConnectTimeout bounds connect plus GATT discovery.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultTraceSize is the number of wire events kept for error reports.
	DefaultTraceSize = 32
)

// Burst-mode flow control.
const (
	// DefaultBurstThreshold is the number of unacknowledged bytes after
	// which burst mode stops at the next frame end to wait for a notification.
	DefaultBurstThreshold = 140
)

// Reconnect constants control ResilientSession.
const (
	// DefaultReconnectDeadline is the overall time after the first attempt
	// beyond which a failure is reported instead of retried.
	DefaultReconnectDeadline = 60 * time.Second
	// ReconnectInitialBackoff is the delay before the first reconnect.
	ReconnectInitialBackoff = 250 * time.Millisecond
	// ReconnectMaxBackoff caps the delay between reconnects.
	ReconnectMaxBackoff = 5 * time.Second
	// ReconnectBackoffMultiplier is the exponential backoff multiplier.
	ReconnectBackoffMultiplier = 2.0
	// ReconnectJitter is the random jitter factor (0.0-1.0).
	ReconnectJitter = 0.1
)
