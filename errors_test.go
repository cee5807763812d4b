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
	"testing"
	"time"

	"github.com/ZaparooProject/go-nametag/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport failure", err: ErrTransportFailure, want: true},
		{name: "wrapped transport failure", err: newTransportError("write", "AA", errors.New("gatt: link lost")), want: true},
		{name: "expect timeout", err: &SessionError{Op: "expect", Err: ErrExpectTimeout}, want: true},
		{name: "expect timeout with trace", err: &TraceableError{Err: ErrExpectTimeout}, want: true},
		{name: "no devices", err: discovery.ErrNoDevices, want: true},
		{name: "code not found", err: fmt.Errorf("%w (code=AB12)", discovery.ErrCodeNotFound), want: true},
		{name: "ambiguous", err: &discovery.AmbiguousError{}, want: false},
		{name: "capability missing", err: ErrCapabilityMissing, want: false},
		{name: "descriptor missing", err: ErrDescriptorMissing, want: false},
		{name: "bad delimiters", err: ErrBadDelimiters, want: false},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: false},
		{name: "payload too large", err: ErrPayloadTooLarge, want: false},
		{name: "bad dimensions", err: ErrBadDimensions, want: false},
		{name: "session closed", err: ErrSessionClosed, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{
			name: "canceled wins over transport failure",
			err:  fmt.Errorf("%w: %w", ErrTransportFailure, context.Canceled),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
			if tt.err != nil {
				assert.Equal(t, !tt.want, IsFatal(tt.err))
			}
		})
	}
}

func TestIsFatal_Nil(t *testing.T) {
	t.Parallel()
	assert.False(t, IsFatal(nil))
}

func TestSessionError(t *testing.T) {
	t.Parallel()

	t.Run("expect timeout message", func(t *testing.T) {
		t.Parallel()
		err := &SessionError{
			Op:       "expect",
			Address:  "AA:BB:CC:DD:EE:FF",
			Expected: []byte{0x01, 0x02},
			Elapsed:  1000 * time.Millisecond,
			Err:      ErrExpectTimeout,
		}
		assert.Equal(t,
			"expect AA:BB:CC:DD:EE:FF: expected notification not received (expected 01 02 after 1s)",
			err.Error())
		require.ErrorIs(t, err, ErrExpectTimeout)
	})

	t.Run("wildcard expectation", func(t *testing.T) {
		t.Parallel()
		err := &SessionError{Op: "expect", Address: "AA", Expected: Wildcard, Err: ErrExpectTimeout}
		assert.Contains(t, err.Error(), "expected [*]")
	})

	t.Run("no address", func(t *testing.T) {
		t.Parallel()
		err := newTransportError("scan", "", errors.New("adapter off"))
		assert.Equal(t, "scan: transport failure: adapter off", err.Error())
	})
}

func TestRetryError(t *testing.T) {
	t.Parallel()

	last := &SessionError{Op: "write", Address: "AA", Err: ErrTransportFailure}
	err := &RetryError{Err: last, Attempts: 4, Elapsed: 61 * time.Second, Deadline: 60 * time.Second}

	require.ErrorIs(t, err, ErrTransportFailure)
	var sessErr *SessionError
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "write", sessErr.Op)
	assert.Contains(t, err.Error(), "giving up after 4 attempts")
	assert.Contains(t, err.Error(), "deadline")
	assert.True(t, IsRetryable(err), "the wrapped cause stays classifiable")
}
