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

// Package discovery finds advertising name badges, derives their printed
// device codes and resolves a caller's address/code choice to a single
// link-layer address.
package discovery

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZaparooProject/go-nametag/transport"
)

// Advertisement filter values.
const (
	// ProductName is the complete local name every badge advertises.
	ProductName = "CoolLED"
	// SignatureSuffix ends the hex-encoded manufacturer data of every badge.
	SignatureSuffix = "0222ffff"
	// DefaultScanWindow is how long a single scan listens.
	DefaultScanWindow = 2 * time.Second
)

// Errors
var (
	// ErrNoDevices indicates no badge answered the scan.
	ErrNoDevices = errors.New("no nametags found")
	// ErrCodeNotFound indicates badges were found but none carries the requested code.
	ErrCodeNotFound = errors.New("no nametag matches code")
	// ErrAmbiguous indicates more than one badge matched and the caller must choose.
	ErrAmbiguous = errors.New("multiple nametags matched")
)

// AmbiguousError lists the candidates when resolution cannot pick one.
type AmbiguousError struct {
	Candidates []Device
}

func (e *AmbiguousError) Error() string {
	var sb strings.Builder
	_, _ = sb.WriteString(ErrAmbiguous.Error())
	_, _ = sb.WriteString(":")
	for _, d := range e.Candidates {
		_, _ = sb.WriteString("\n  ")
		_, _ = sb.WriteString(d.String())
	}
	return sb.String()
}

// Is lets errors.Is(err, ErrAmbiguous) match.
func (*AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Device is a discovered badge.
type Device struct {
	// Address is the transport-level address used to connect.
	Address string
	// Code is the short identifier printed on the hardware.
	Code string
	// RSSI of the strongest advertisement seen.
	RSSI int16
}

// String returns a human-readable representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s (%s) rssi=%d", d.Code, d.Address, d.RSSI)
}

// Options configures scanning.
type Options struct {
	// Addresses to drop from results (case-insensitive).
	IgnoreAddresses []string
	// Window is how long one scan listens.
	Window time.Duration
	// CacheTTL bounds how long cached results are reused.
	CacheTTL time.Duration
	// Interface is the HCI index being scanned; it keys the result cache.
	Interface int
	// EnableCache reuses results of a recent scan on the same interface.
	EnableCache bool
}

// DefaultOptions returns sensible default scan options
func DefaultOptions() Options {
	return Options{
		Window:   DefaultScanWindow,
		CacheTTL: 30 * time.Second,
	}
}

// DeriveCode turns raw manufacturer data into the printed device code: the
// first two bytes swapped, hex-encoded, upper case. It returns "" if the
// data is too short.
func DeriveCode(mfgr []byte) string {
	if len(mfgr) < 2 {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString([]byte{mfgr[1], mfgr[0]}))
}

// Matches reports whether an advertisement comes from a badge.
func Matches(adv transport.Advertisement) bool {
	if adv.LocalName != ProductName {
		return false
	}
	return strings.HasSuffix(hex.EncodeToString(adv.ManufacturerData), SignatureSuffix)
}

// Scan runs one bounded scan and returns the matching badges sorted by
// code. An empty result is not an error; Resolve decides that.
func Scan(ctx context.Context, scanner transport.Scanner, opts *Options) ([]Device, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultScanWindow
	}

	if opts.EnableCache {
		if cached, found := getCached(opts.Interface, opts.CacheTTL); found {
			return filterDevices(cached, opts), nil
		}
	}

	advs, err := scanner.Scan(ctx, window)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("scan for nametags: %w", err)
	}

	devices := devicesFromAdvertisements(advs)

	if opts.EnableCache {
		if len(devices) > 0 {
			setCached(opts.Interface, devices)
		} else {
			clearCacheForInterface(opts.Interface)
		}
	}

	return filterDevices(devices, opts), nil
}

// devicesFromAdvertisements filters, dedupes by address (strongest RSSI
// wins) and sorts by code.
func devicesFromAdvertisements(advs []transport.Advertisement) []Device {
	byAddress := make(map[string]Device)
	for _, adv := range advs {
		if !Matches(adv) {
			continue
		}
		dev := Device{
			Address: adv.Address,
			Code:    DeriveCode(adv.ManufacturerData),
			RSSI:    adv.RSSI,
		}
		if prev, ok := byAddress[dev.Address]; ok && prev.RSSI >= dev.RSSI {
			continue
		}
		byAddress[dev.Address] = dev
	}

	devices := make([]Device, 0, len(byAddress))
	for _, dev := range byAddress {
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Code != devices[j].Code {
			return devices[i].Code < devices[j].Code
		}
		return devices[i].Address < devices[j].Address
	})
	return devices
}

// Codes maps device code to address. If two badges share a code the
// first in scan order wins; Resolve reports such collisions instead.
func Codes(devices []Device) map[string]string {
	out := make(map[string]string, len(devices))
	for _, d := range devices {
		if _, exists := out[d.Code]; !exists {
			out[d.Code] = d.Address
		}
	}
	return out
}
