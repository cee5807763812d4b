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
	"fmt"

	"github.com/ZaparooProject/go-nametag/internal/frame"
)

// Tag selects the device operation a frame requests.
type Tag byte

// Known tags
const (
	TagGlyphs     Tag = 0x02 // Display a glyph set (text)
	TagAnimation  Tag = 0x04 // Display animation frames
	TagMode       Tag = 0x06 // Set scroll/display mode
	TagSpeed      Tag = 0x07 // Set scroll speed
	TagBrightness Tag = 0x08 // Set LED brightness
)

// String returns the tag name
func (t Tag) String() string {
	switch t {
	case TagGlyphs:
		return "glyphs"
	case TagAnimation:
		return "animation"
	case TagMode:
		return "mode"
	case TagSpeed:
		return "speed"
	case TagBrightness:
		return "brightness"
	default:
		return fmt.Sprintf("tag(0x%02X)", byte(t))
	}
}

// PacketSize is the largest single write the badge accepts.
const PacketSize = frame.PacketSize

// Wildcard is an expectation satisfied by any notification.
var Wildcard = []byte{'*'}

func isWildcard(expect []byte) bool {
	return bytes.Equal(expect, Wildcard)
}

// SendStep is one packet write followed by an optional wait. Expect is
// empty (no wait), Wildcard (any notification) or an exact notification
// value.
type SendStep struct {
	Send   []byte
	Expect []byte
}

// String formats a step for logs
func (s SendStep) String() string {
	if len(s.Expect) == 0 {
		return formatHexBytes(s.Send)
	}
	return fmt.Sprintf("%s -> expect %s", formatHexBytes(s.Send), formatExpect(s.Expect))
}

// Encode frames tag and payload and cuts the frame into packets. Only the
// last packet carries expect.
func Encode(tag Tag, payload, expect []byte) ([]SendStep, error) {
	encoded, err := frame.Encode(byte(tag), payload)
	if err != nil {
		return nil, err
	}

	packets := frame.Split(encoded, frame.PacketSize)
	steps := make([]SendStep, len(packets))
	for i, packet := range packets {
		steps[i] = SendStep{Send: packet}
	}
	if len(expect) > 0 {
		steps[len(steps)-1].Expect = append([]byte(nil), expect...)
	}
	return steps, nil
}

// EncodeChunked splits payload into 128-byte chunks and frames each one.
// The last packet of chunk n expects the badge to echo AckFrame(tag, n),
// so chunk n+1 is never written before chunk n is confirmed.
func EncodeChunked(tag Tag, payload []byte) ([]SendStep, error) {
	bodies, err := frame.SplitChunks(payload)
	if err != nil {
		return nil, err
	}

	var steps []SendStep
	for index, body := range bodies {
		ack, err := AckFrame(tag, uint16(index)) //nolint:gosec // SplitChunks caps the count
		if err != nil {
			return nil, err
		}
		chunkSteps, err := Encode(tag, body, ack)
		if err != nil {
			return nil, err
		}
		steps = append(steps, chunkSteps...)
	}
	return steps, nil
}

// AckFrame returns the notification the badge sends after receiving chunk
// index of a tag transfer: the frame of 0x00 | u16be(index) | 0x00.
func AckFrame(tag Tag, index uint16) ([]byte, error) {
	return frame.Encode(byte(tag), frame.AckPayload(index))
}

// Decode parses one complete frame back into tag and payload.
func Decode(data []byte) (Tag, []byte, error) {
	tag, payload, err := frame.Decode(data)
	return Tag(tag), payload, err
}

// JoinPackets concatenates the Send bytes of steps.
func JoinPackets(steps []SendStep) []byte {
	var out []byte
	for _, step := range steps {
		out = append(out, step.Send...)
	}
	return out
}

// PacketSteps wraps raw packets (for replaying captures) as steps. Packets
// longer than PacketSize are split; every packet expects a wildcard reply
// when waitEach is set.
func PacketSteps(packets [][]byte, waitEach bool) []SendStep {
	var steps []SendStep
	for _, packet := range packets {
		for _, p := range frame.Split(packet, frame.PacketSize) {
			step := SendStep{Send: p}
			if waitEach {
				step.Expect = Wildcard
			}
			steps = append(steps, step)
		}
	}
	return steps
}
