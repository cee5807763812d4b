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

// Package ble implements the transport interfaces on top of
// tinygo.org/x/bluetooth (BlueZ over D-Bus on Linux, CoreBluetooth on
// macOS, WinRT on Windows).
package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-nametag/transport"
	"tinygo.org/x/bluetooth"
)

// stopScanInterval paces StopScan retries while the backend has not yet
// started scanning.
const stopScanInterval = 10 * time.Millisecond

// radio is the part of *bluetooth.Adapter the transport drives.
type radio interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
	Connect(address bluetooth.Address, params bluetooth.ConnectionParams) (bluetooth.Device, error)
}

// Adapter is a transport.Adapter backed by a local Bluetooth controller.
type Adapter struct {
	adapter radio
	// seen maps formatted addresses to the backend's address values so a
	// scanned random address reconnects with the right address type.
	seen     map[string]bluetooth.Address
	mu       sync.Mutex
	iface    int
	enableMu sync.Mutex
	enabled  bool
}

var _ transport.Adapter = (*Adapter)(nil)

// New returns an adapter for HCI interface iface (hci0 is 0). The
// controller is enabled lazily on first use.
func New(iface int) *Adapter {
	return newAdapter(newBackendAdapter(iface), iface)
}

func newAdapter(r radio, iface int) *Adapter {
	return &Adapter{
		adapter: r,
		iface:   iface,
		seen:    make(map[string]bluetooth.Address),
	}
}

// ensureEnabled powers the controller up once. A failed Enable is not
// remembered, so the next Scan or Connect tries again.
func (a *Adapter) ensureEnabled() error {
	a.enableMu.Lock()
	defer a.enableMu.Unlock()

	if a.enabled {
		return nil
	}
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("enable hci%d: %w", a.iface, err)
	}
	a.enabled = true
	return nil
}

// Scan listens for advertisements until window elapses or ctx is done.
func (a *Adapter) Scan(ctx context.Context, window time.Duration) ([]transport.Advertisement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.ensureEnabled(); err != nil {
		return nil, err
	}

	var (
		resultsMu sync.Mutex
		results   = make(map[string]transport.Advertisement)
		addrs     = make(map[string]bluetooth.Address)
	)

	done := make(chan error, 1)
	go func() {
		done <- a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			adv := transport.Advertisement{
				Address:          result.Address.String(),
				LocalName:        result.LocalName(),
				ManufacturerData: rawManufacturerData(result.ManufacturerData()),
				RSSI:             result.RSSI,
			}
			resultsMu.Lock()
			defer resultsMu.Unlock()
			prev, ok := results[adv.Address]
			// Scan responses arrive separately from advertisements; keep
			// whichever fields each report carried.
			if ok {
				if adv.LocalName == "" {
					adv.LocalName = prev.LocalName
				}
				if len(adv.ManufacturerData) == 0 {
					adv.ManufacturerData = prev.ManufacturerData
				}
			}
			results[adv.Address] = adv
			addrs[adv.Address] = result.Address
		})
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()

	var scanErr error
	select {
	case <-ctx.Done():
		scanErr = a.stopScan(done)
	case <-timer.C:
		scanErr = a.stopScan(done)
	case scanErr = <-done:
	}
	if scanErr != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrScanFailed, scanErr)
	}

	resultsMu.Lock()
	defer resultsMu.Unlock()

	a.mu.Lock()
	for k, v := range addrs {
		a.seen[k] = v
	}
	a.mu.Unlock()

	out := make([]transport.Advertisement, 0, len(results))
	for _, adv := range results {
		out = append(out, adv)
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	return out, nil
}

// stopScan stops the running scan and returns its result. StopScan fails
// while the scan goroutine has not reached the backend yet, so it is
// retried until it succeeds or the scan returns on its own.
func (a *Adapter) stopScan(done <-chan error) error {
	ticker := time.NewTicker(stopScanInterval)
	defer ticker.Stop()

	for {
		if err := a.adapter.StopScan(); err == nil {
			return <-done
		}
		select {
		case err := <-done:
			return err
		case <-ticker.C:
		}
	}
}

// rawManufacturerData rebuilds the AD 0xFF value: company ID little-endian,
// then the data bytes.
func rawManufacturerData(elements []bluetooth.ManufacturerDataElement) []byte {
	if len(elements) == 0 {
		return nil
	}
	el := elements[0]
	raw := make([]byte, 0, 2+len(el.Data))
	raw = append(raw, byte(el.CompanyID), byte(el.CompanyID>>8))
	return append(raw, el.Data...)
}

// Connect opens a link to address. Addresses seen in a previous Scan are
// reused as-is; otherwise the platform parser is consulted.
func (a *Adapter) Connect(ctx context.Context, address string) (transport.Peripheral, error) {
	if err := a.ensureEnabled(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	addr, ok := a.seen[address]
	a.mu.Unlock()
	if !ok {
		parsed, err := parseAddress(address)
		if err != nil {
			return nil, err
		}
		addr = parsed
	}

	type connectResult struct {
		err    error
		device bluetooth.Device
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device: device, err: err}
	}()

	select {
	case <-ctx.Done():
		// The backend connect cannot be cancelled; release it when it lands.
		go func() {
			if res := <-ch; res.err == nil {
				_ = res.device.Disconnect()
			}
		}()
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("connect %s: %w", address, res.err)
		}
		return &peripheral{device: res.device, address: address}, nil
	}
}

type peripheral struct {
	device  bluetooth.Device
	address string
	mu      sync.Mutex
	closed  bool
}

func (p *peripheral) Address() string {
	return p.address
}

func (p *peripheral) Characteristics(_ context.Context, service, char uint16) ([]transport.Characteristic, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, transport.ErrNotConnected
	}

	services, err := p.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	serviceUUID := bluetooth.New16BitUUID(service)
	charUUID := bluetooth.New16BitUUID(char)

	var out []transport.Characteristic
	for i := range services {
		if services[i].UUID() != serviceUUID {
			continue
		}
		chars, err := services[i].DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("discover characteristics: %w", err)
		}
		for j := range chars {
			if chars[j].UUID() == charUUID {
				out = append(out, &characteristic{char: chars[j]})
			}
		}
	}
	return out, nil
}

func (p *peripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", p.address, err)
	}
	return nil
}

type characteristic struct {
	handler transport.NotificationHandler
	char    bluetooth.DeviceCharacteristic
	mu      sync.Mutex
}

func (c *characteristic) Write(p []byte) (int, error) {
	n, err := c.char.WriteWithoutResponse(p)
	if err != nil {
		return n, fmt.Errorf("write characteristic: %w", err)
	}
	return n, nil
}

// Descriptors only knows the CCCD. The backend manages the CCCD itself
// through EnableNotifications, so writes to it are translated.
func (c *characteristic) Descriptors(uuid uint16) ([]transport.Descriptor, error) {
	if uuid != transport.CCCDUUID {
		return nil, nil
	}
	return []transport.Descriptor{&cccd{char: c}}, nil
}

func (c *characteristic) SetNotificationHandler(handler transport.NotificationHandler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

func (c *characteristic) deliver(buf []byte) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		return
	}
	// The backend may reuse buf after the callback returns.
	handler(append([]byte(nil), buf...))
}

type cccd struct {
	char *characteristic
}

var errBadCCCDValue = errors.New("unsupported CCCD value")

func (d *cccd) Write(p []byte) error {
	switch {
	case len(p) == 2 && p[0]&0x01 != 0:
		if err := d.char.char.EnableNotifications(d.char.deliver); err != nil {
			return fmt.Errorf("enable notifications: %w", err)
		}
		return nil
	case len(p) == 2 && p[0] == 0 && p[1] == 0:
		if err := d.char.char.EnableNotifications(nil); err != nil {
			return fmt.Errorf("disable notifications: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: % X", errBadCCCDValue, p)
	}
}
