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
	"time"

	"github.com/ZaparooProject/go-nametag/internal/syncutil"
)

// cacheEntry holds cached scan results.
type cacheEntry struct {
	timestamp time.Time
	devices   []Device
}

// scanCache provides thread-safe caching of scan results per interface.
type scanCache struct {
	entries map[int]cacheEntry
	mu      syncutil.RWMutex
}

// global cache instance.
var cache = &scanCache{
	entries: make(map[int]cacheEntry),
}

// getCached returns cached devices if available and not expired
func getCached(iface int, ttl time.Duration) ([]Device, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	entry, exists := cache.entries[iface]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > ttl {
		return nil, false
	}

	devices := make([]Device, len(entry.devices))
	copy(devices, entry.devices)
	return devices, true
}

// setCached stores scan results in cache
func setCached(iface int, devices []Device) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	devicesCopy := make([]Device, len(devices))
	copy(devicesCopy, devices)

	cache.entries[iface] = cacheEntry{
		devices:   devicesCopy,
		timestamp: time.Now(),
	}
}

// clearCacheForInterface removes cached entries for one interface
func clearCacheForInterface(iface int) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	delete(cache.entries, iface)
}

// ClearCache removes all cached scan results
func ClearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries = make(map[int]cacheEntry)
}
