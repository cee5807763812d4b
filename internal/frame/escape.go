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

import "fmt"

// EscapeSpan returns span with every reserved byte (0x01, 0x02, 0x03)
// replaced by its two-byte escape sequence. It must be applied exactly once.
func EscapeSpan(span []byte) []byte {
	out := make([]byte, 0, len(span)+len(span)/8)
	for _, b := range span {
		switch b {
		case Start:
			out = append(out, Escape, EscapedStart)
		case Escape:
			out = append(out, Escape, EscapedEscape)
		case End:
			out = append(out, Escape, EscapedEnd)
		default:
			out = append(out, b)
		}
	}
	return out
}

// UnescapeSpan reverses EscapeSpan. A raw delimiter inside the span is
// reported as ErrBadDelimiters; an unknown or dangling escape as ErrBadEscape.
func UnescapeSpan(span []byte) ([]byte, error) {
	out := make([]byte, 0, len(span))
	for i := 0; i < len(span); i++ {
		b := span[i]
		switch b {
		case Start, End:
			return nil, fmt.Errorf("%w: raw 0x%02X at offset %d", ErrBadDelimiters, b, i)
		case Escape:
			if i+1 >= len(span) {
				return nil, fmt.Errorf("%w: dangling escape at offset %d", ErrBadEscape, i)
			}
			i++
			switch span[i] {
			case EscapedStart:
				out = append(out, Start)
			case EscapedEscape:
				out = append(out, Escape)
			case EscapedEnd:
				out = append(out, End)
			default:
				return nil, fmt.Errorf("%w: 0x02 0x%02X at offset %d", ErrBadEscape, span[i], i-1)
			}
		default:
			out = append(out, b)
		}
	}
	return out, nil
}
