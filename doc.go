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

// Package nametag drives CoolLED Bluetooth LE name badges.
//
// # Protocol
//
// Every command is one frame:
//
//	0x01 | escape(u16be length | tag | payload) | 0x03
//
// where escaping replaces 0x01, 0x02 and 0x03 with 0x02 followed by
// 0x05, 0x06 or 0x07. Frames are written to characteristic FFF1 in
// packets of at most 20 bytes. Payloads larger than 128 bytes (glyph sets
// and animations) are split into checksummed chunks, and the badge
// acknowledges each chunk with a notification before the next one may be
// written.
//
// # Usage
//
//	adapter := ble.New(0)
//	rs := nametag.NewResilientSession(ctx, adapter, discovery.Target{Code: "AB12"}, nil)
//	defer rs.Close()
//
//	steps, err := nametag.GlyphSteps(glyphs)
//	if err != nil {
//	    return err
//	}
//	err = rs.Send(ctx, steps)
//
// Session is a single connection that fails fast. ResilientSession
// reconnects and replays a failed Send from its first step until the
// reconnect deadline passes.
package nametag
