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
	"bytes"
	"testing"
)

// Run with: go test -fuzz=FuzzDecode -fuzztime=30s ./internal/frame/

// FuzzDecode feeds arbitrary bytes to Decode. Notifications come straight
// off the radio, so malformed input must never panic.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x01, 0x00, 0x02, 0x05, 0x02, 0x06, 0x03})
	f.Add([]byte{0x01, 0x00, 0x02, 0x06, 0x06, 0x02, 0x05, 0x03})
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add([]byte{0x01, 0x03})
	f.Add([]byte{0x01, 0x02, 0x03})
	f.Add([]byte{0x01, 0xFF, 0xFF, 0x02, 0x03})

	f.Fuzz(func(_ *testing.T, data []byte) {
		_, _, _ = Decode(data)
	})
}

// FuzzEncodeDecode checks the round trip on arbitrary payloads.
func FuzzEncodeDecode(f *testing.F) {
	f.Add(byte(0x02), []byte{0x01, 0x02, 0x03})
	f.Add(byte(0x04), []byte{})
	f.Add(byte(0x03), []byte{0x02, 0x06, 0x02, 0x05})

	f.Fuzz(func(t *testing.T, tag byte, payload []byte) {
		encoded, err := Encode(tag, payload)
		if err != nil {
			return
		}
		gotTag, gotPayload, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%d, % X)) failed: %v", tag, payload, err)
		}
		if gotTag != tag || !bytes.Equal(gotPayload, payload) {
			t.Fatalf("round trip mismatch for tag %d", tag)
		}
	})
}

// FuzzParseChunk ensures chunk parsing handles arbitrary bodies.
func FuzzParseChunk(f *testing.F) {
	f.Add([]byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x01, 0x41, 0x41})
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x00})

	f.Fuzz(func(_ *testing.T, body []byte) {
		_, _ = ParseChunk(body)
	})
}
