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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nametag/discovery"
	"github.com/ZaparooProject/go-nametag/internal/frame"
)

// Frame errors - input or programming errors, never retried
var (
	ErrBadDelimiters    = frame.ErrBadDelimiters
	ErrLengthMismatch   = frame.ErrLengthMismatch
	ErrBadEscape        = frame.ErrBadEscape
	ErrChecksumMismatch = frame.ErrChecksumMismatch
)

// Validation errors - not retryable
var (
	ErrEmptyPayload    = frame.ErrEmptyPayload
	ErrPayloadTooLarge = frame.ErrPayloadTooLarge
	ErrBadDimensions   = errors.New("bad payload dimensions")
)

// Session errors
var (
	// ErrCapabilityMissing means the badge did not expose exactly one
	// FFF0/FFF1 characteristic. Not retryable.
	ErrCapabilityMissing = errors.New("required characteristic missing")
	// ErrDescriptorMissing means the characteristic did not expose exactly
	// one notification configuration descriptor. Not retryable.
	ErrDescriptorMissing = errors.New("notification descriptor missing")
	// ErrExpectTimeout means an expected notification never arrived. Retryable.
	ErrExpectTimeout = errors.New("expected notification not received")
	// ErrTransportFailure wraps any radio-level failure. Retryable.
	ErrTransportFailure = errors.New("transport failure")
	// ErrSessionClosed means the session was used after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// SessionError wraps session failures with enough context for a report.
type SessionError struct {
	Err      error         // Underlying error
	Op       string        // Operation that failed
	Address  string        // Peripheral address
	Expected []byte        // Expected notification for ExpectTimeout
	Elapsed  time.Duration // Time spent waiting for ExpectTimeout
}

func (e *SessionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Address != "" {
		msg = fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
	}
	if e.Expected != nil {
		msg += fmt.Sprintf(" (expected %s after %v)", formatExpect(e.Expected), e.Elapsed.Round(time.Millisecond))
	}
	return msg
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// RetryError is returned by ResilientSession once it gives up.
type RetryError struct {
	Err      error
	Attempts int
	Elapsed  time.Duration
	Deadline time.Duration
}

func (e *RetryError) Error() string {
	if e.Deadline > 0 && e.Elapsed > e.Deadline {
		return fmt.Sprintf("giving up after %d attempts (%v > %v deadline): %v",
			e.Attempts, e.Elapsed.Round(time.Millisecond), e.Deadline, e.Err)
	}
	return fmt.Sprintf("giving up after %d attempts (%v): %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if a fresh connection might make the operation
// succeed: transport failures, expect timeouts, and badges that were not
// (yet) visible during a scan.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, discovery.ErrAmbiguous):
		return false
	case errors.Is(err, ErrTransportFailure),
		errors.Is(err, ErrExpectTimeout),
		errors.Is(err, discovery.ErrNoDevices),
		errors.Is(err, discovery.ErrCodeNotFound):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error will not go away by reconnecting:
// codec or validation errors, a badge without the expected GATT layout,
// or an ambiguous discovery that needs the caller to choose.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsRetryable(err)
}

// newTransportError marks err as a retryable transport failure.
func newTransportError(op, address string, err error) *SessionError {
	return &SessionError{
		Op:      op,
		Address: address,
		Err:     fmt.Errorf("%w: %w", ErrTransportFailure, err),
	}
}
