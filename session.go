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

	"github.com/ZaparooProject/go-nametag/internal/frame"
	"github.com/ZaparooProject/go-nametag/internal/syncutil"
	"github.com/ZaparooProject/go-nametag/transport"
)

// Session is an open connection to one badge. Send serializes callers;
// notifications arrive on the transport's goroutine and go straight into
// the mailbox.
type Session struct {
	peripheral transport.Peripheral
	char       transport.Characteristic
	cccd       transport.Descriptor
	inbox      *mailbox
	trace      *TraceBuffer
	config     *SessionConfig
	address    string
	mu         syncutil.Mutex
	traceMu    syncutil.Mutex
	closed     bool
}

// Open connects to the badge at address, locates the FFF0/FFF1
// characteristic and its notification descriptor, and enables
// notifications. On any failure after connecting the link is torn down.
func Open(ctx context.Context, adapter transport.Adapter, address string, opts ...Option) (*Session, error) {
	config, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	Debugf("(%s) Connecting to nametag...", address)
	peripheral, err := adapter.Connect(connectCtx, address)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newTransportError("connect", address, err)
	}

	s := &Session{
		peripheral: peripheral,
		inbox:      newMailbox(),
		trace:      NewTraceBuffer(address, config.TraceSize),
		config:     config,
		address:    address,
	}
	if err := s.setup(connectCtx); err != nil {
		if dcErr := peripheral.Disconnect(); dcErr != nil {
			Debugf("(%s) Disconnect after failed setup: %v", address, dcErr)
		}
		return nil, err
	}

	Debugf("(%s) Nametag ready!", address)
	return s, nil
}

func (s *Session) setup(ctx context.Context) error {
	chars, err := s.peripheral.Characteristics(ctx, transport.ServiceUUID, transport.CharacteristicUUID)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return ctxErr
		}
		return newTransportError("discover", s.address, err)
	}
	if len(chars) != 1 {
		return &SessionError{
			Op:      "discover",
			Address: s.address,
			Err:     fmt.Errorf("%w: found %d %04X/%04X characteristics", ErrCapabilityMissing, len(chars), transport.ServiceUUID, transport.CharacteristicUUID),
		}
	}
	s.char = chars[0]

	descs, err := s.char.Descriptors(transport.CCCDUUID)
	if err != nil {
		return newTransportError("discover", s.address, err)
	}
	if len(descs) != 1 {
		return &SessionError{
			Op:      "discover",
			Address: s.address,
			Err:     fmt.Errorf("%w: found %d %04X descriptors", ErrDescriptorMissing, len(descs), transport.CCCDUUID),
		}
	}
	s.cccd = descs[0]

	s.char.SetNotificationHandler(s.handleNotification)
	if err := s.cccd.Write(transport.NotifyEnable); err != nil {
		s.char.SetNotificationHandler(nil)
		return newTransportError("enable notifications", s.address, err)
	}
	return nil
}

func (s *Session) handleNotification(value []byte) {
	Debugf("(%s) Received: %s", s.address, formatHexBytes(value))
	s.traceMu.Lock()
	s.trace.RecordRX(value, "")
	s.traceMu.Unlock()
	s.inbox.put(value)
}

// Address returns the peripheral address this session is connected to.
func (s *Session) Address() string {
	return s.address
}

// Config returns a copy of the session configuration.
func (s *Session) Config() SessionConfig {
	return *s.config
}

// Trace returns the most recent wire events, oldest first.
func (s *Session) Trace() []TraceEntry {
	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	return s.trace.Entries()
}

// Send writes steps in order. In lockstep mode (the default) a step with
// an Expect blocks until that notification arrives, so no later step is
// written before it. With a burst threshold the waits are deferred to
// flush points; see WithBurstThreshold.
func (s *Session) Send(ctx context.Context, steps []SendStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &SessionError{Op: "send", Address: s.address, Err: ErrSessionClosed}
	}
	if s.config.BurstThreshold > 0 {
		return s.sendBurst(ctx, steps)
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(step.Send) > 0 {
			s.inbox.clear()
			if err := s.write(step.Send); err != nil {
				return err
			}
		}
		if len(step.Expect) > 0 {
			if err := s.expect(ctx, step.Expect); err != nil {
				return err
			}
		}
	}
	return nil
}

// sendBurst keeps writing until a frame ends with more than BurstThreshold
// bytes unconfirmed, a short packet ends a frame, or the steps run out. It
// then waits for every expectation collected since the last flush, or for
// any notification when none was given. The badge only answers whole
// frames, so the threshold is never honored mid-frame. The mailbox is only
// cleared at flush points so acks arriving mid-burst are kept.
func (s *Session) sendBurst(ctx context.Context, steps []SendStep) error {
	var expects [][]byte
	pending := 0
	s.inbox.clear()

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(step.Send) > 0 {
			if err := s.write(step.Send); err != nil {
				return err
			}
			pending += len(step.Send)
		}
		if len(step.Expect) > 0 {
			expects = append(expects, step.Expect)
		}

		short := len(step.Send) > 0 && len(step.Send) < PacketSize
		full := pending > s.config.BurstThreshold && endsFrame(step)
		flush := full || short || i == len(steps)-1
		if !flush || (pending == 0 && len(expects) == 0) {
			continue
		}

		if len(expects) == 0 {
			expects = append(expects, Wildcard)
		}
		for _, expect := range expects {
			if err := s.expect(ctx, expect); err != nil {
				return err
			}
		}
		pending = 0
		expects = expects[:0]
		s.inbox.clear()
	}
	return nil
}

// endsFrame reports whether step completes a frame. Escaping keeps END out
// of the frame span, so a packet ending in END closes its frame.
func endsFrame(step SendStep) bool {
	if len(step.Expect) > 0 {
		return true
	}
	n := len(step.Send)
	return n > 0 && (n < PacketSize || step.Send[n-1] == frame.End)
}

func (s *Session) write(packet []byte) error {
	Debugf("(%s) Sending: %s", s.address, formatHexBytes(packet))
	s.traceMu.Lock()
	s.trace.RecordTX(packet, "")
	s.traceMu.Unlock()

	if _, err := s.char.Write(packet); err != nil {
		return s.wrapTrace(newTransportError("write", s.address, err))
	}
	if s.config.WriteDelay > 0 {
		time.Sleep(s.config.WriteDelay)
	}
	return nil
}

func (s *Session) expect(ctx context.Context, expect []byte) error {
	Debugf("(%s) Waiting for %s", s.address, formatExpect(expect))
	elapsed, err := s.inbox.wait(ctx, expect, s.config.ExpectTimeout)
	switch {
	case err == nil:
		Debugf("(%s) Got %s after %v", s.address, formatExpect(expect), elapsed.Round(time.Millisecond))
		return nil
	case errors.Is(err, ErrExpectTimeout):
		Debugf("(%s) Timed out waiting for %s", s.address, formatExpect(expect))
		s.traceMu.Lock()
		s.trace.RecordTimeout("expected " + formatExpect(expect))
		s.traceMu.Unlock()
		return s.wrapTrace(&SessionError{
			Op:       "expect",
			Address:  s.address,
			Expected: append([]byte(nil), expect...),
			Elapsed:  elapsed,
			Err:      ErrExpectTimeout,
		})
	default:
		return err
	}
}

func (s *Session) wrapTrace(err error) error {
	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	return s.trace.WrapError(err)
}

// Close disables notifications (best effort) and disconnects. Calling it
// again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.cccd.Write(transport.NotifyDisable); err != nil {
		Debugf("(%s) Disable notifications failed (ignored): %v", s.address, err)
	}
	s.char.SetNotificationHandler(nil)

	if err := s.peripheral.Disconnect(); err != nil {
		return newTransportError("disconnect", s.address, err)
	}
	Debugf("(%s) Disconnected", s.address)
	return nil
}
