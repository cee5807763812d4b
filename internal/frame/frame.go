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

package frame

import (
	"encoding/binary"
	"fmt"
)

// Encode builds a complete escaped frame:
//
//	0x01 | escape(u16be(len(tag+payload)) | tag | payload) | 0x03
func Encode(tag byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadLength)
	}

	typed := make([]byte, 3+len(payload))
	binary.BigEndian.PutUint16(typed[0:2], uint16(1+len(payload))) //nolint:gosec // bounded above
	typed[2] = tag
	copy(typed[3:], payload)

	escaped := EscapeSpan(typed)
	out := make([]byte, 0, len(escaped)+2)
	out = append(out, Start)
	out = append(out, escaped...)
	out = append(out, End)
	return out, nil
}

// Decode reverses Encode. The input must be exactly one frame, START to END.
func Decode(data []byte) (tag byte, payload []byte, err error) {
	if len(data) < 2 || data[0] != Start || data[len(data)-1] != End {
		return 0, nil, fmt.Errorf("%w: %d byte input", ErrBadDelimiters, len(data))
	}

	body, err := UnescapeSpan(data[1 : len(data)-1])
	if err != nil {
		return 0, nil, err
	}
	if len(body) < 3 {
		return 0, nil, fmt.Errorf("%w: body of %d bytes has no room for length and tag", ErrLengthMismatch, len(body))
	}

	declared := int(binary.BigEndian.Uint16(body[0:2]))
	typed := body[2:]
	if declared != len(typed) {
		return 0, nil, fmt.Errorf("%w: prefix says %d, body has %d", ErrLengthMismatch, declared, len(typed))
	}

	return typed[0], typed[1:], nil
}

// Split cuts data into consecutive slices of at most size bytes. The
// slices alias data.
func Split(data []byte, size int) [][]byte {
	if size <= 0 {
		size = PacketSize
	}
	packets := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		packets = append(packets, data[start:end])
	}
	return packets
}
