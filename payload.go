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
	"encoding/binary"
	"fmt"
)

// Payload layout limits
const (
	// ReservedHeaderSize is the zero prefix of glyph and animation payloads.
	ReservedHeaderSize = 24
	// MaxGlyphs is the size of the per-glyph length table.
	MaxGlyphs = 80
	// MaxGlyphBytes is the largest single glyph bitmap (u8 length).
	MaxGlyphBytes = 0xFF
	// AnimationFrameSize is one 12x48 1-bit frame.
	AnimationFrameSize = 96
	// MaxAnimationFrames fits the u8 frame count.
	MaxAnimationFrames = 0xFF
)

// GlyphPayload builds the glyph-set payload:
//
//	reserved[24] | u8 count | u8[80] lengths | u16be total | glyph bitmaps
func GlyphPayload(glyphs [][]byte) ([]byte, error) {
	if len(glyphs) > MaxGlyphs {
		return nil, fmt.Errorf("%w: %d glyphs (max %d)", ErrBadDimensions, len(glyphs), MaxGlyphs)
	}

	total := 0
	for i, g := range glyphs {
		if len(g) == 0 || len(g) > MaxGlyphBytes {
			return nil, fmt.Errorf("%w: glyph %d is %d bytes (1-%d)", ErrBadDimensions, i, len(g), MaxGlyphBytes)
		}
		total += len(g)
	}

	header := make([]byte, ReservedHeaderSize+1+MaxGlyphs+2, ReservedHeaderSize+1+MaxGlyphs+2+total)
	header[ReservedHeaderSize] = byte(len(glyphs))
	for i, g := range glyphs {
		header[ReservedHeaderSize+1+i] = byte(len(g))
	}
	binary.BigEndian.PutUint16(header[ReservedHeaderSize+1+MaxGlyphs:], uint16(total)) //nolint:gosec // 80*255 fits

	payload := header
	for _, g := range glyphs {
		payload = append(payload, g...)
	}
	return payload, nil
}

// AnimationPayload builds the animation payload:
//
//	reserved[24] | u8 count | u16be interval | frames (96 bytes each)
func AnimationPayload(frames [][]byte, interval uint16) ([]byte, error) {
	if len(frames) == 0 || len(frames) > MaxAnimationFrames {
		return nil, fmt.Errorf("%w: %d frames (1-%d)", ErrBadDimensions, len(frames), MaxAnimationFrames)
	}

	payload := make([]byte, ReservedHeaderSize+3, ReservedHeaderSize+3+len(frames)*AnimationFrameSize)
	payload[ReservedHeaderSize] = byte(len(frames))
	binary.BigEndian.PutUint16(payload[ReservedHeaderSize+1:], interval)
	for i, f := range frames {
		if len(f) != AnimationFrameSize {
			return nil, fmt.Errorf("%w: frame %d is %d bytes (want %d)", ErrBadDimensions, i, len(f), AnimationFrameSize)
		}
		payload = append(payload, f...)
	}
	return payload, nil
}

// GlyphSteps encodes a glyph set as acknowledged chunks.
func GlyphSteps(glyphs [][]byte) ([]SendStep, error) {
	payload, err := GlyphPayload(glyphs)
	if err != nil {
		return nil, err
	}
	return EncodeChunked(TagGlyphs, payload)
}

// AnimationSteps encodes animation frames as acknowledged chunks.
func AnimationSteps(frames [][]byte, interval uint16) ([]SendStep, error) {
	payload, err := AnimationPayload(frames, interval)
	if err != nil {
		return nil, err
	}
	return EncodeChunked(TagAnimation, payload)
}

// settingSteps encodes a one-byte setting; the badge answers with a
// notification whose exact content is not checked.
func settingSteps(tag Tag, value byte) []SendStep {
	steps, err := Encode(tag, []byte{value}, Wildcard)
	if err != nil {
		// A one-byte payload always fits.
		panic(fmt.Sprintf("encode %s: %v", tag, err))
	}
	return steps
}

// ModeSteps sets the display mode.
func ModeSteps(mode byte) []SendStep {
	return settingSteps(TagMode, mode)
}

// SpeedSteps sets the scroll speed.
func SpeedSteps(speed byte) []SendStep {
	return settingSteps(TagSpeed, speed)
}

// BrightnessSteps sets the LED brightness.
func BrightnessSteps(brightness byte) []SendStep {
	return settingSteps(TagBrightness, brightness)
}
