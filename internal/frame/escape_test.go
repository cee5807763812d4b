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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{name: "empty", in: []byte{}, want: []byte{}},
		{name: "no reserved bytes", in: []byte{0x00, 0x04, 0xFF}, want: []byte{0x00, 0x04, 0xFF}},
		{name: "start", in: []byte{0x01}, want: []byte{0x02, 0x05}},
		{name: "escape", in: []byte{0x02}, want: []byte{0x02, 0x06}},
		{name: "end", in: []byte{0x03}, want: []byte{0x02, 0x07}},
		{
			name: "escape marker next to escaped-form values",
			in:   []byte{0x02, 0x05, 0x02, 0x06},
			want: []byte{0x02, 0x06, 0x05, 0x02, 0x06, 0x06},
		},
		{
			name: "all reserved in sequence",
			in:   []byte{0x03, 0x02, 0x01},
			want: []byte{0x02, 0x07, 0x02, 0x06, 0x02, 0x05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EscapeSpan(tt.in))
		})
	}
}

func TestEscapeSpan_NoRawDelimitersAndReversible(t *testing.T) {
	t.Parallel()

	// Every combination of three bytes drawn from 0x00..0x07.
	for a := byte(0); a < 8; a++ {
		for b := byte(0); b < 8; b++ {
			for c := byte(0); c < 8; c++ {
				span := []byte{a, b, c}
				escaped := EscapeSpan(span)
				assert.NotContains(t, escaped, byte(Start))
				assert.NotContains(t, escaped, byte(End))

				back, err := UnescapeSpan(escaped)
				require.NoError(t, err)
				if !bytes.Equal(span, back) {
					t.Fatalf("round trip of % X gave % X", span, back)
				}
			}
		}
	}
}

func TestUnescapeSpan_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		in      []byte
	}{
		{name: "dangling escape", in: []byte{0x00, 0x02}, wantErr: ErrBadEscape},
		{name: "unknown escape", in: []byte{0x02, 0x09}, wantErr: ErrBadEscape},
		{name: "raw start", in: []byte{0x00, 0x01}, wantErr: ErrBadDelimiters},
		{name: "raw end", in: []byte{0x03}, wantErr: ErrBadDelimiters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := UnescapeSpan(tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
