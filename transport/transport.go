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

// Package transport defines the radio capabilities the nametag driver
// consumes: scanning for advertisements, connecting to a peripheral,
// locating a notifying characteristic, writing short packets and
// receiving notifications. Backends live in subpackages.
package transport

import (
	"context"
	"errors"
	"time"
)

// GATT identifiers used by the badge.
const (
	// ServiceUUID is the 16-bit UUID of the badge's only vendor service.
	ServiceUUID uint16 = 0xFFF0
	// CharacteristicUUID is the write/notify characteristic inside ServiceUUID.
	CharacteristicUUID uint16 = 0xFFF1
	// CCCDUUID is the Client Characteristic Configuration Descriptor.
	CCCDUUID uint16 = 0x2902
)

// CCCD values
var (
	NotifyEnable  = []byte{0x01, 0x00}
	NotifyDisable = []byte{0x00, 0x00}
)

// Transport errors
var (
	ErrNotConnected = errors.New("peripheral not connected")
	ErrScanFailed   = errors.New("scan failed")
	ErrUnknownPeer  = errors.New("unknown peripheral address")
)

// Advertisement is one scan result.
type Advertisement struct {
	// Address is the link-layer address as the backend formats it.
	Address string
	// LocalName is the complete local name (AD type 0x09), if advertised.
	LocalName string
	// ManufacturerData is the raw AD type 0xFF value, company ID bytes
	// first in over-the-air order.
	ManufacturerData []byte
	// RSSI in dBm.
	RSSI int16
}

// NotificationHandler receives notification values. It is called on the
// backend's goroutine and must not block.
type NotificationHandler func(value []byte)

// Scanner scans for advertising peripherals for a bounded window.
type Scanner interface {
	Scan(ctx context.Context, window time.Duration) ([]Advertisement, error)
}

// Adapter is a local radio able to scan and open connections.
type Adapter interface {
	Scanner
	// Connect opens a link to the peripheral at address.
	Connect(ctx context.Context, address string) (Peripheral, error)
}

// Peripheral is an open link to one remote device.
type Peripheral interface {
	// Address returns the resolved link-layer address.
	Address() string
	// Characteristics returns every characteristic matching char inside
	// every service matching service.
	Characteristics(ctx context.Context, service, char uint16) ([]Characteristic, error)
	// Disconnect releases the link. It is safe to call more than once.
	Disconnect() error
}

// Characteristic is a GATT characteristic supporting write and notify.
type Characteristic interface {
	// Write sends one packet (write without response).
	Write(p []byte) (int, error)
	// Descriptors returns every descriptor matching uuid.
	Descriptors(uuid uint16) ([]Descriptor, error)
	// SetNotificationHandler installs the callback for notification values.
	// Notifications only flow once the CCCD has been enabled.
	SetNotificationHandler(handler NotificationHandler)
}

// Descriptor is a writable GATT descriptor.
type Descriptor interface {
	Write(p []byte) error
}
