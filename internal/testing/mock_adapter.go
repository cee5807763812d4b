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

package testing

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-nametag/internal/syncutil"
	"github.com/ZaparooProject/go-nametag/transport"
)

// ErrScanBroken is returned by Scan after BreakScan.
var ErrScanBroken = errors.New("mock adapter: scan failed")

// MockAdapter is a transport.Adapter backed by VirtualBadges. Extra
// advertisements (for devices that are not badges) can be added too.
type MockAdapter struct {
	scanErr  error
	badges   []*VirtualBadge
	extra    []transport.Advertisement
	mu       syncutil.Mutex
	scans    atomic.Int32
	connects atomic.Int32
}

// NewMockAdapter creates an adapter that can see and reach badges.
func NewMockAdapter(badges ...*VirtualBadge) *MockAdapter {
	return &MockAdapter{badges: badges}
}

// AddBadge makes another badge reachable.
func (a *MockAdapter) AddBadge(badge *VirtualBadge) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.badges = append(a.badges, badge)
}

// AddAdvertisement adds a raw advertisement to every scan result.
func (a *MockAdapter) AddAdvertisement(adv transport.Advertisement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extra = append(a.extra, adv)
}

// BreakScan makes every following Scan fail with err (nil repairs it).
func (a *MockAdapter) BreakScan(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanErr = err
}

// Scans returns how many scans ran.
func (a *MockAdapter) Scans() int {
	return int(a.scans.Load())
}

// ConnectAttempts returns how many times Connect was called.
func (a *MockAdapter) ConnectAttempts() int {
	return int(a.connects.Load())
}

// Scan returns the advertisements of every visible badge. It does not
// wait out the window.
func (a *MockAdapter) Scan(ctx context.Context, _ time.Duration) ([]transport.Advertisement, error) {
	a.scans.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scanErr != nil {
		return nil, a.scanErr
	}

	advs := make([]transport.Advertisement, 0, len(a.badges)+len(a.extra))
	for _, badge := range a.badges {
		badge.mu.Lock()
		hidden := badge.hidden
		badge.mu.Unlock()
		if !hidden {
			advs = append(advs, badge.Advertisement())
		}
	}
	advs = append(advs, a.extra...)
	return advs, nil
}

// Connect opens a link to the badge at address.
func (a *MockAdapter) Connect(ctx context.Context, address string) (transport.Peripheral, error) {
	a.connects.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	var target *VirtualBadge
	for _, badge := range a.badges {
		if strings.EqualFold(badge.address, address) {
			target = badge
			break
		}
	}
	a.mu.Unlock()

	if target == nil {
		return nil, transport.ErrUnknownPeer
	}
	if err := target.connect(); err != nil {
		return nil, err
	}
	return &virtualPeripheral{badge: target}, nil
}

type virtualPeripheral struct {
	badge *VirtualBadge
}

func (p *virtualPeripheral) Address() string {
	return p.badge.address
}

func (p *virtualPeripheral) Characteristics(ctx context.Context, service, char uint16) ([]transport.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if service != transport.ServiceUUID || char != transport.CharacteristicUUID {
		return nil, nil
	}

	p.badge.mu.Lock()
	n := p.badge.characteristic
	connected := p.badge.connected
	p.badge.mu.Unlock()
	if !connected {
		return nil, transport.ErrNotConnected
	}

	chars := make([]transport.Characteristic, n)
	for i := range chars {
		chars[i] = &virtualCharacteristic{badge: p.badge}
	}
	return chars, nil
}

func (p *virtualPeripheral) Disconnect() error {
	p.badge.disconnect()
	return nil
}

type virtualCharacteristic struct {
	badge *VirtualBadge
}

func (c *virtualCharacteristic) Write(packet []byte) (int, error) {
	return c.badge.write(packet)
}

func (c *virtualCharacteristic) Descriptors(uuid uint16) ([]transport.Descriptor, error) {
	if uuid != transport.CCCDUUID {
		return nil, nil
	}
	c.badge.mu.Lock()
	n := c.badge.descriptors
	c.badge.mu.Unlock()

	descs := make([]transport.Descriptor, n)
	for i := range descs {
		descs[i] = &virtualCCCD{badge: c.badge}
	}
	return descs, nil
}

func (c *virtualCharacteristic) SetNotificationHandler(handler transport.NotificationHandler) {
	c.badge.setHandler(handler)
}

type virtualCCCD struct {
	badge *VirtualBadge
}

func (d *virtualCCCD) Write(value []byte) error {
	return d.badge.writeCCCD(value)
}
