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

// Frame delimiters and the escape marker
const (
	Start  = 0x01 // Opens every frame
	Escape = 0x02 // Introduces an escaped byte inside the frame span
	End    = 0x03 // Closes every frame
)

// Escaped forms of the reserved bytes (the byte following Escape)
const (
	EscapedStart  = 0x05 // Escape, EscapedStart means a literal 0x01
	EscapedEscape = 0x06 // Escape, EscapedEscape means a literal 0x02
	EscapedEnd    = 0x07 // Escape, EscapedEnd means a literal 0x03
)

// Size limits
const (
	// PacketSize is the largest single characteristic write the badge accepts.
	PacketSize = 20
	// ChunkSize is the largest data slice carried by one chunk.
	ChunkSize = 128
	// MaxTypedLength is the largest tag+payload span the u16 length prefix can describe.
	MaxTypedLength = 0xFFFF
	// MaxPayloadLength is the largest payload a single frame can carry.
	MaxPayloadLength = MaxTypedLength - 1
	// MaxChunkedLength is the largest payload the chunk header's u16 total can describe.
	MaxChunkedLength = 0xFFFF
	// ChunkHeaderSize covers the reserved byte, total, index and chunk length.
	ChunkHeaderSize = 6
	// MinFrameLength is START + u16 length + tag + END.
	MinFrameLength = 5
)
