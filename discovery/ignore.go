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

import "strings"

// normalizeAddress upper-cases and strips separators so
// "aa:bb:cc:dd:ee:ff" and "AA-BB-CC-DD-EE-FF" compare equal.
func normalizeAddress(address string) string {
	address = strings.ToUpper(strings.TrimSpace(address))
	return strings.NewReplacer(":", "", "-", "").Replace(address)
}

// IsAddressIgnored checks if an address is in the ignore list.
func IsAddressIgnored(address string, ignoreAddresses []string) bool {
	if len(ignoreAddresses) == 0 {
		return false
	}
	normalized := normalizeAddress(address)
	for _, ignored := range ignoreAddresses {
		if normalizeAddress(ignored) == normalized {
			return true
		}
	}
	return false
}

// filterDevices applies IgnoreAddresses to a device list.
// Cached results go through here too.
func filterDevices(devices []Device, opts *Options) []Device {
	if len(opts.IgnoreAddresses) == 0 {
		return devices
	}

	var filtered []Device
	for _, device := range devices {
		if IsAddressIgnored(device.Address, opts.IgnoreAddresses) {
			continue
		}
		filtered = append(filtered, device)
	}
	return filtered
}
