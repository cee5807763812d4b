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

// Chunk is one indexed slice of a payload too large for a single frame.
type Chunk struct {
	Data     []byte
	Total    uint16
	Index    uint16
	Checksum byte
}

// ChunkBody builds 0x00 | u16be(total) | u16be(index) | u8(len) | data | xor.
func ChunkBody(total, index uint16, data []byte) ([]byte, error) {
	if len(data) > ChunkSize {
		return nil, fmt.Errorf("%w: chunk of %d bytes (max %d)", ErrPayloadTooLarge, len(data), ChunkSize)
	}

	body := make([]byte, ChunkHeaderSize, ChunkHeaderSize+len(data)+1)
	body[0] = 0x00
	binary.BigEndian.PutUint16(body[1:3], total)
	binary.BigEndian.PutUint16(body[3:5], index)
	body[5] = byte(len(data))
	body = append(body, data...)
	return append(body, CalculateChecksum(body)), nil
}

// ParseChunk validates and splits a chunk body produced by ChunkBody.
func ParseChunk(body []byte) (Chunk, error) {
	if len(body) < ChunkHeaderSize+1 {
		return Chunk{}, fmt.Errorf("%w: chunk body of %d bytes", ErrLengthMismatch, len(body))
	}

	dataLen := int(body[5])
	if len(body) != ChunkHeaderSize+dataLen+1 {
		return Chunk{}, fmt.Errorf("%w: chunk declares %d data bytes, body has %d",
			ErrLengthMismatch, dataLen, len(body)-ChunkHeaderSize-1)
	}

	sum := body[len(body)-1]
	if want := CalculateChecksum(body[:len(body)-1]); want != sum {
		return Chunk{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumMismatch, sum, want)
	}

	return Chunk{
		Total:    binary.BigEndian.Uint16(body[1:3]),
		Index:    binary.BigEndian.Uint16(body[3:5]),
		Data:     body[ChunkHeaderSize : len(body)-1],
		Checksum: sum,
	}, nil
}

// SplitChunks cuts payload into ChunkSize slices and returns their bodies
// in ascending index order.
func SplitChunks(payload []byte) ([][]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxChunkedLength {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxChunkedLength)
	}

	total := uint16(len(payload)) //nolint:gosec // bounded above
	bodies := make([][]byte, 0, (len(payload)+ChunkSize-1)/ChunkSize)
	for index, data := range Split(payload, ChunkSize) {
		body, err := ChunkBody(total, uint16(index), data) //nolint:gosec // at most 512 chunks
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// AckPayload is the payload the badge echoes after receiving chunk index:
// 0x00 | u16be(index) | 0x00.
func AckPayload(index uint16) []byte {
	ack := make([]byte, 4)
	binary.BigEndian.PutUint16(ack[1:3], index)
	return ack
}
