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

import "testing"

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{
			name: "empty data",
			data: []byte{},
			want: 0,
		},
		{
			name: "single byte",
			data: []byte{0x42},
			want: 0x42,
		},
		{
			name: "cancelling bytes",
			data: []byte{0x01, 0x02, 0x03},
			want: 0x00,
		},
		{
			name: "high nibble survives",
			data: []byte{0xFF, 0x0F},
			want: 0xF0,
		},
		{
			name: "chunk header",
			data: []byte{0x00, 0x00, 0x81, 0x00, 0x01, 0x01, 0x7E},
			want: 0xFF, // 0x81 ^ 0x01 ^ 0x01 ^ 0x7E
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateChecksum(tt.data); got != tt.want {
				t.Errorf("CalculateChecksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestCalculateChecksum_BodyPlusChecksumFoldsToZero(t *testing.T) {
	t.Parallel()

	body := []byte{0x00, 0x01, 0x2C, 0x00, 0x02, 0x03, 0xAA, 0xBB, 0xCC}
	withSum := append(append([]byte(nil), body...), CalculateChecksum(body))
	if got := CalculateChecksum(withSum); got != 0 {
		t.Errorf("fold of body+checksum = 0x%02X, want 0", got)
	}
}
