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

package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-nametag/transport"
)

// Target is what the caller knows about the badge to open. Both fields
// are optional.
type Target struct {
	// Address skips scanning entirely when set.
	Address string
	// Code selects among scanned badges (case-insensitive).
	Code string
}

// String returns a human-readable representation of the target
func (t Target) String() string {
	switch {
	case t.Address != "":
		return t.Address
	case t.Code != "":
		return "code=" + strings.ToUpper(t.Code)
	default:
		return "any nametag"
	}
}

// Resolve turns a Target into a single address. An explicit address is
// returned as-is. Otherwise a scan runs and exactly one candidate must
// remain after applying the code filter.
func Resolve(ctx context.Context, scanner transport.Scanner, target Target, opts *Options) (Device, error) {
	if target.Address != "" {
		return Device{Address: target.Address, Code: strings.ToUpper(target.Code)}, nil
	}

	devices, err := Scan(ctx, scanner, opts)
	if err != nil {
		return Device{}, err
	}
	return Select(devices, target.Code)
}

// Select applies the resolution policy to already scanned devices.
func Select(devices []Device, code string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	matching := devices
	if code != "" {
		matching = nil
		for _, d := range devices {
			if d.Code == code {
				matching = append(matching, d)
			}
		}
		if len(matching) == 0 {
			return Device{}, fmt.Errorf("%w (code=%s, found %d)", ErrCodeNotFound, code, len(devices))
		}
	}

	if len(matching) > 1 {
		candidates := make([]Device, len(matching))
		copy(candidates, matching)
		return Device{}, &AmbiguousError{Candidates: candidates}
	}
	return matching[0], nil
}
