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

import "errors"

// Frame errors. These are input or programming errors and are never retried.
var (
	ErrBadDelimiters    = errors.New("frame delimiters missing or misplaced")
	ErrLengthMismatch   = errors.New("frame length prefix does not match body")
	ErrBadEscape        = errors.New("invalid escape sequence")
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
)

// Validation errors
var (
	ErrEmptyPayload    = errors.New("payload is empty")
	ErrPayloadTooLarge = errors.New("payload too large")
)
