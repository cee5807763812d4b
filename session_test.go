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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-nametag/internal/testing"
	"github.com/ZaparooProject/go-nametag/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadge(address string) *testutil.VirtualBadge {
	return testutil.NewVirtualBadge(address, [2]byte{0xAB, 0x12})
}

func openTestSession(t *testing.T, badge *testutil.VirtualBadge, opts ...Option) *Session {
	t.Helper()

	session, err := Open(context.Background(), testutil.NewMockAdapter(badge), badge.Address(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestOpen_EnablesNotifications(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:01")
	session := openTestSession(t, badge)

	assert.Equal(t, badge.Address(), session.Address())
	assert.True(t, badge.Notifying())
	assert.Equal(t, [][]byte{transport.NotifyEnable}, badge.CCCDWrites())
	assert.Equal(t, DefaultExpectTimeout, session.Config().ExpectTimeout)
}

func TestOpen_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr     error
		setup       func(*testutil.VirtualBadge)
		name        string
		address     string
		retryable   bool
		disconnects int
	}{
		{
			name:        "no characteristic",
			setup:       func(b *testutil.VirtualBadge) { b.SetLayout(0, 1) },
			wantErr:     ErrCapabilityMissing,
			disconnects: 1,
		},
		{
			name:        "duplicate characteristic",
			setup:       func(b *testutil.VirtualBadge) { b.SetLayout(2, 1) },
			wantErr:     ErrCapabilityMissing,
			disconnects: 1,
		},
		{
			name:        "no descriptor",
			setup:       func(b *testutil.VirtualBadge) { b.SetLayout(1, 0) },
			wantErr:     ErrDescriptorMissing,
			disconnects: 1,
		},
		{
			name:      "connect fails",
			setup:     func(b *testutil.VirtualBadge) { b.FailNextConnects(1) },
			wantErr:   ErrTransportFailure,
			retryable: true,
		},
		{
			name:      "unknown address",
			setup:     func(*testutil.VirtualBadge) {},
			address:   "FF:FF:FF:FF:FF:FF",
			wantErr:   ErrTransportFailure,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			badge := newTestBadge("AA:00:00:00:00:02")
			tt.setup(badge)
			address := tt.address
			if address == "" {
				address = badge.Address()
			}

			session, err := Open(context.Background(), testutil.NewMockAdapter(badge), address)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, session)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.disconnects, badge.Disconnects())
			assert.False(t, badge.Connected())
		})
	}
}

func TestOpen_BadOption(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:03")
	_, err := Open(context.Background(), testutil.NewMockAdapter(badge), badge.Address(), WithExpectTimeout(0))
	require.Error(t, err)
	assert.Zero(t, badge.Connects())
}

func TestSession_Lockstep(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:04")
	badge.SetSilent(true)
	session := openTestSession(t, badge)

	a := []byte{0xA0, 0xA1}
	x := []byte{0x58}
	b := []byte{0xB0, 0xB1}

	done := make(chan error, 1)
	go func() {
		done <- session.Send(context.Background(), []SendStep{{Send: a, Expect: x}, {Send: b}})
	}()

	require.Eventually(t, func() bool { return len(badge.Writes()) == 1 }, time.Second, time.Millisecond)
	badge.Notify([]byte{0x59})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, [][]byte{a}, badge.Writes(), "B must not be written before X")

	badge.Notify(x)
	require.NoError(t, <-done)
	assert.Equal(t, [][]byte{a, b}, badge.Writes())
}

func TestSession_StaleNotificationIgnored(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:05")
	badge.SetSilent(true)
	session := openTestSession(t, badge, WithExpectTimeout(30*time.Millisecond))

	badge.Notify([]byte{0x58})
	time.Sleep(10 * time.Millisecond)

	err := session.Send(context.Background(), []SendStep{{Send: []byte{0xA0}, Expect: []byte{0x58}}})
	require.ErrorIs(t, err, ErrExpectTimeout, "a notification from before the write does not count")
}

func TestSession_GlyphTransfer(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:06")
	badge.SetJitter(testutil.JitterConfig{MaxLatency: 2 * time.Millisecond, Seed: 42})
	session := openTestSession(t, badge)

	glyphs := repeatGlyphs(20, 16)
	steps, err := GlyphSteps(glyphs)
	require.NoError(t, err)
	require.NoError(t, session.Send(context.Background(), steps))

	payload, err := GlyphPayload(glyphs)
	require.NoError(t, err)
	transfers := badge.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, byte(TagGlyphs), transfers[0].Tag)
	assert.Equal(t, payload, transfers[0].Payload)
	assert.Equal(t, JoinPackets(steps), bytes.Join(badge.Writes(), nil))
}

func TestSession_Settings(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:07")
	session := openTestSession(t, badge)

	var steps []SendStep
	steps = append(steps, ModeSteps(1)...)
	steps = append(steps, SpeedSteps(4)...)
	steps = append(steps, BrightnessSteps(0x80)...)
	require.NoError(t, session.Send(context.Background(), steps))

	frames := badge.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, byte(TagMode), frames[0].Tag)
	assert.Equal(t, byte(TagSpeed), frames[1].Tag)
	assert.Equal(t, []byte{0x80}, frames[2].Payload)
}

func TestSession_ExpectTimeoutCarriesTrace(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:08")
	session := openTestSession(t, badge, WithExpectTimeout(30*time.Millisecond))
	badge.SetSilent(true)

	steps := append(ModeSteps(2), BrightnessSteps(1)...)
	err := session.Send(context.Background(), steps)

	require.ErrorIs(t, err, ErrExpectTimeout)
	assert.True(t, IsRetryable(err))
	assert.Len(t, badge.Writes(), 1, "second command is never written")

	var sessErr *SessionError
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, Wildcard, sessErr.Expected)
	assert.GreaterOrEqual(t, sessErr.Elapsed, 30*time.Millisecond)

	te := GetTrace(err)
	require.NotNil(t, te)
	require.Len(t, te.Trace, 2)
	assert.Equal(t, TraceTX, te.Trace[0].Direction)
	assert.Contains(t, te.Trace[1].Note, "TIMEOUT")
}

func TestSession_WriteFailure(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:09")
	session := openTestSession(t, badge)
	badge.FailNextWrites(1)

	err := session.Send(context.Background(), ModeSteps(1))
	require.ErrorIs(t, err, ErrTransportFailure)
	require.ErrorIs(t, err, testutil.ErrLinkLost)
	assert.True(t, IsRetryable(err))
	assert.True(t, HasTrace(err))
}

func TestSession_ContextCanceledDuringWait(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:0A")
	badge.SetSilent(true)
	session := openTestSession(t, badge)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := session.Send(ctx, ModeSteps(1))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsRetryable(err))
}

func TestSession_Close(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:0B")
	session, err := Open(context.Background(), testutil.NewMockAdapter(badge), badge.Address())
	require.NoError(t, err)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	assert.Equal(t, [][]byte{transport.NotifyEnable, transport.NotifyDisable}, badge.CCCDWrites())
	assert.False(t, badge.Connected())
	assert.Equal(t, 1, badge.Disconnects())

	err = session.Send(context.Background(), ModeSteps(1))
	require.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, IsRetryable(err))
}

func TestSession_EmptySteps(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:0C")
	session := openTestSession(t, badge)
	require.NoError(t, session.Send(context.Background(), nil))
	assert.Empty(t, badge.Writes())
}

func TestSession_BurstWaitPoints(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:0D")
	badge.SetSilent(true)
	session := openTestSession(t, badge, WithBurstThreshold(DefaultBurstThreshold))

	packets := make([][]byte, 10)
	for i := range packets {
		packets[i] = bytes.Repeat([]byte{0xAA}, PacketSize)
	}
	// The 8th packet closes a frame with 8 * 20 = 160 > 140 bytes pending.
	packets[7][PacketSize-1] = 0x03

	done := make(chan error, 1)
	go func() {
		done <- session.Send(context.Background(), PacketSteps(packets, false))
	}()

	require.Eventually(t, func() bool { return len(badge.Writes()) == 8 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, badge.Writes(), 8)

	badge.Notify([]byte{0x01})
	require.Eventually(t, func() bool { return len(badge.Writes()) == 10 }, time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("send returned before the final wait: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	badge.Notify([]byte{0x01})
	require.NoError(t, <-done)
}

func TestSession_BurstThresholdWaitsForFrameEnd(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:1D")
	badge.SetSilent(true)
	session := openTestSession(t, badge, WithBurstThreshold(DefaultBurstThreshold))

	// 200 bytes of one unfinished frame: nothing answers mid-frame, so no
	// wait may happen before the last packet.
	packets := make([][]byte, 10)
	for i := range packets {
		packets[i] = bytes.Repeat([]byte{0xAA}, PacketSize)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Send(context.Background(), PacketSteps(packets, false))
	}()

	require.Eventually(t, func() bool { return len(badge.Writes()) == 10 }, time.Second, time.Millisecond)
	badge.Notify([]byte{0x01})
	require.NoError(t, <-done)
}

func TestSession_BurstShortPacketFlushes(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:0E")
	badge.SetSilent(true)
	session := openTestSession(t, badge, WithBurstThreshold(DefaultBurstThreshold), WithExpectTimeout(30*time.Millisecond))

	steps := PacketSteps([][]byte{{0x01, 0x02}, {0x03, 0x04}}, false)
	err := session.Send(context.Background(), steps)
	require.ErrorIs(t, err, ErrExpectTimeout)
	assert.Len(t, badge.Writes(), 1, "a short packet waits before the next write")
}

func TestSession_BurstGlyphTransfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		fill    []byte
	}{
		{name: "no escaping", address: "AA:00:00:00:00:0F", fill: []byte{0x55}},
		{name: "escape bytes only", address: "AA:00:00:00:00:1F", fill: []byte{0x02}},
		{name: "all reserved bytes", address: "AA:00:00:00:00:2F", fill: []byte{0x01, 0x02, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			badge := newTestBadge(tt.address)
			session := openTestSession(t, badge, WithBurstThreshold(DefaultBurstThreshold))

			glyphs := make([][]byte, 40)
			for i := range glyphs {
				glyphs[i] = bytes.Repeat(tt.fill, 30/len(tt.fill))
			}
			steps, err := GlyphSteps(glyphs)
			require.NoError(t, err)
			require.NoError(t, session.Send(context.Background(), steps))

			payload, err := GlyphPayload(glyphs)
			require.NoError(t, err)
			transfers := badge.Transfers()
			require.Len(t, transfers, 1)
			assert.Equal(t, payload, transfers[0].Payload)
		})
	}
}

func TestEndsFrame(t *testing.T) {
	t.Parallel()

	full := bytes.Repeat([]byte{0xAA}, PacketSize)
	closing := append(bytes.Repeat([]byte{0xAA}, PacketSize-1), 0x03)

	tests := []struct {
		name string
		step SendStep
		want bool
	}{
		{name: "full packet mid-frame", step: SendStep{Send: full}},
		{name: "full packet closing a frame", step: SendStep{Send: closing}, want: true},
		{name: "short packet", step: SendStep{Send: []byte{0xAA}}, want: true},
		{name: "expectation", step: SendStep{Send: full, Expect: Wildcard}, want: true},
		{name: "empty", step: SendStep{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, endsFrame(tt.step))
		})
	}
}

func TestSession_WriteDelay(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:10")
	session := openTestSession(t, badge, WithWriteDelay(5*time.Millisecond))

	start := time.Now()
	require.NoError(t, session.Send(context.Background(), PacketSteps([][]byte{{0xAA}, {0xBB}}, false)))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSession_Trace(t *testing.T) {
	t.Parallel()

	badge := newTestBadge("AA:00:00:00:00:11")
	session := openTestSession(t, badge, WithTraceSize(4))
	require.NoError(t, session.Send(context.Background(), ModeSteps(1)))

	require.Eventually(t, func() bool { return len(session.Trace()) == 2 }, time.Second, time.Millisecond)
	entries := session.Trace()
	assert.Equal(t, TraceTX, entries[0].Direction)
	assert.Equal(t, TraceRX, entries[1].Direction)
}

func TestOptions_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opt  Option
		name string
	}{
		{name: "zero expect timeout", opt: WithExpectTimeout(0)},
		{name: "negative connect timeout", opt: WithConnectTimeout(-time.Second)},
		{name: "negative burst threshold", opt: WithBurstThreshold(-1)},
		{name: "zero trace size", opt: WithTraceSize(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := applyOptions([]Option{tt.opt})
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrTransportFailure))
		})
	}
}
