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

// Package testing provides an in-memory badge for exercising sessions
// without a radio.
//
// VirtualBadge reassembles written packets into frames the way the
// firmware does: bytes accumulate until an end delimiter, the frame is
// decoded, and chunked transfers are acknowledged one chunk at a time
// with the frame of 0x00 | u16be(index) | 0x00 under the same tag.
package testing

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/go-nametag/internal/frame"
	"github.com/ZaparooProject/go-nametag/internal/syncutil"
	"github.com/ZaparooProject/go-nametag/transport"
)

// Tags the virtual firmware treats as chunked transfers.
const (
	tagGlyphs    = 0x02
	tagAnimation = 0x04
)

// ErrLinkLost is returned by writes while the badge simulates a dropped link.
var ErrLinkLost = errors.New("virtual badge: link lost")

// ReceivedFrame is one decoded frame as the badge saw it.
type ReceivedFrame struct {
	Payload []byte
	Tag     byte
}

// Transfer is a completed chunked payload.
type Transfer struct {
	Payload []byte
	Tag     byte
}

// JitterConfig delays notifications by a random amount to shake out
// ordering assumptions.
type JitterConfig struct {
	MaxLatency time.Duration
	Seed       uint64
}

// VirtualBadge simulates one badge. All methods are safe for concurrent use.
type VirtualBadge struct {
	rng            *rand.Rand
	handler        transport.NotificationHandler
	assembly       map[byte][]byte
	address        string
	name           string
	manufacturer   []byte
	rx             []byte
	writes         [][]byte
	frames         []ReceivedFrame
	transfers      []Transfer
	cccdWrites     [][]byte
	jitter         JitterConfig
	characteristic int
	descriptors    int
	failWrites     int
	failAt         int
	failConnects   int
	dropAcks       int
	connects       int
	disconnects    int
	mu             syncutil.Mutex
	notifying      bool
	connected      bool
	silent         bool
	hidden         bool
}

// NewVirtualBadge creates a badge advertising as CoolLED with the given
// code. code is the two bytes printed on the hardware, high byte first.
func NewVirtualBadge(address string, code [2]byte) *VirtualBadge {
	return &VirtualBadge{
		address:        address,
		name:           "CoolLED",
		manufacturer:   []byte{code[1], code[0], 0x00, 0x00, 0x02, 0x22, 0xFF, 0xFF},
		assembly:       make(map[byte][]byte),
		characteristic: 1,
		descriptors:    1,
	}
}

// Address returns the badge's link-layer address.
func (b *VirtualBadge) Address() string {
	return b.address
}

// Advertisement returns what a scan would report for this badge.
func (b *VirtualBadge) Advertisement() transport.Advertisement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return transport.Advertisement{
		Address:          b.address,
		LocalName:        b.name,
		ManufacturerData: append([]byte(nil), b.manufacturer...),
		RSSI:             -50,
	}
}

// SetHidden stops (or resumes) advertising.
func (b *VirtualBadge) SetHidden(hidden bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hidden = hidden
}

// SetLayout sets how many FFF1 characteristics and CCCDs the badge exposes.
func (b *VirtualBadge) SetLayout(characteristics, descriptors int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.characteristic = characteristics
	b.descriptors = descriptors
}

// SetSilent makes the badge accept writes but never notify.
func (b *VirtualBadge) SetSilent(silent bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.silent = silent
}

// SetJitter delays every notification by up to cfg.MaxLatency.
func (b *VirtualBadge) SetJitter(cfg JitterConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // Test code, not crypto
	}
	b.rng = rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	b.jitter = cfg
}

// FailNextWrites makes the next n writes fail with ErrLinkLost.
func (b *VirtualBadge) FailNextWrites(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = n
}

// FailWriteAt makes the nth write from now fail with ErrLinkLost, so a
// transfer breaks partway through. Writes before it succeed.
func (b *VirtualBadge) FailWriteAt(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAt = n
}

// FailNextConnects makes the next n connection attempts fail.
func (b *VirtualBadge) FailNextConnects(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failConnects = n
}

// DropNextAcks swallows the next n notifications the badge would send.
func (b *VirtualBadge) DropNextAcks(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropAcks = n
}

// Notify sends value to the host if notifications are enabled, even when
// the badge is silent.
func (b *VirtualBadge) Notify(value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendLocked(value)
}

// Writes returns every packet written so far, across connections.
func (b *VirtualBadge) Writes() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.writes)
}

// Frames returns every frame decoded so far.
func (b *VirtualBadge) Frames() []ReceivedFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ReceivedFrame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Transfers returns every completed chunked payload.
func (b *VirtualBadge) Transfers() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Transfer, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// CCCDWrites returns the values written to the notification descriptor.
func (b *VirtualBadge) CCCDWrites() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.cccdWrites)
}

// Connects returns how many connections succeeded.
func (b *VirtualBadge) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// Disconnects returns how many times the host disconnected.
func (b *VirtualBadge) Disconnects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disconnects
}

// Connected reports whether a host link is open.
func (b *VirtualBadge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Notifying reports whether the host enabled notifications.
func (b *VirtualBadge) Notifying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notifying
}

func (b *VirtualBadge) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failConnects > 0 {
		b.failConnects--
		return ErrLinkLost
	}
	b.connects++
	b.connected = true
	b.notifying = false
	b.rx = nil
	clear(b.assembly)
	return nil
}

func (b *VirtualBadge) disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return
	}
	b.connected = false
	b.notifying = false
	b.disconnects++
}

func (b *VirtualBadge) setHandler(handler transport.NotificationHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

func (b *VirtualBadge) writeCCCD(value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return transport.ErrNotConnected
	}
	b.cccdWrites = append(b.cccdWrites, append([]byte(nil), value...))
	b.notifying = len(value) > 0 && value[0]&0x01 != 0
	return nil
}

// write accepts one packet and processes every frame it completes.
func (b *VirtualBadge) write(packet []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return 0, transport.ErrNotConnected
	}
	if b.failAt > 0 {
		b.failAt--
		if b.failAt == 0 {
			b.rx = nil
			return 0, ErrLinkLost
		}
	}
	if b.failWrites > 0 {
		b.failWrites--
		b.rx = nil
		return 0, ErrLinkLost
	}

	b.writes = append(b.writes, append([]byte(nil), packet...))
	b.rx = append(b.rx, packet...)

	for {
		end := bytes.IndexByte(b.rx, frame.End)
		if end < 0 {
			break
		}
		raw := b.rx[:end+1]
		b.rx = append([]byte(nil), b.rx[end+1:]...)
		b.handleFrame(raw)
	}
	return len(packet), nil
}

func (b *VirtualBadge) handleFrame(raw []byte) {
	if start := bytes.IndexByte(raw, frame.Start); start > 0 {
		raw = raw[start:]
	}
	tag, payload, err := frame.Decode(raw)
	if err != nil {
		return
	}
	b.frames = append(b.frames, ReceivedFrame{Tag: tag, Payload: payload})

	if tag != tagGlyphs && tag != tagAnimation {
		ack, _ := frame.Encode(tag, []byte{0x00})
		b.notifyLocked(ack)
		return
	}

	chunk, err := frame.ParseChunk(payload)
	if err != nil {
		return
	}
	if chunk.Index == 0 {
		b.assembly[tag] = nil
	}
	b.assembly[tag] = append(b.assembly[tag], chunk.Data...)
	if len(b.assembly[tag]) >= int(chunk.Total) {
		b.transfers = append(b.transfers, Transfer{Tag: tag, Payload: b.assembly[tag]})
		delete(b.assembly, tag)
	}

	ack, err := frame.Encode(tag, frame.AckPayload(chunk.Index))
	if err == nil {
		b.notifyLocked(ack)
	}
}

// notifyLocked sends an automatic acknowledgment.
func (b *VirtualBadge) notifyLocked(value []byte) {
	if b.silent || !b.notifying || b.handler == nil {
		return
	}
	if b.dropAcks > 0 {
		b.dropAcks--
		return
	}
	b.sendLocked(value)
}

func (b *VirtualBadge) sendLocked(value []byte) {
	if !b.notifying || b.handler == nil {
		return
	}

	var delay time.Duration
	if b.jitter.MaxLatency > 0 && b.rng != nil {
		delay = time.Duration(b.rng.Int64N(int64(b.jitter.MaxLatency) + 1))
	}
	value = append([]byte(nil), value...)

	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		b.mu.Lock()
		handler := b.handler
		deliver := b.connected && b.notifying
		b.mu.Unlock()
		if deliver && handler != nil {
			handler(value)
		}
	}()
}

func cloneAll(in [][]byte) [][]byte {
	out := make([][]byte, len(in))
	for i, v := range in {
		out[i] = append([]byte(nil), v...)
	}
	return out
}
