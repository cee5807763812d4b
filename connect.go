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

package nametag

import (
	"context"
	"errors"

	"github.com/ZaparooProject/go-nametag/discovery"
	"github.com/ZaparooProject/go-nametag/transport"
)

// Scan lists nearby badges. It is a thin wrapper over discovery.Scan that
// reports radio failures as retryable transport errors.
func Scan(ctx context.Context, scanner transport.Scanner, opts *discovery.Options) ([]discovery.Device, error) {
	devices, err := discovery.Scan(ctx, scanner, opts)
	if err != nil {
		return nil, classifyScanError(ctx, err)
	}
	return devices, nil
}

// OpenSession resolves target (scanning when it has no address) and opens
// a session to the single badge it selects.
func OpenSession(
	ctx context.Context, adapter transport.Adapter, target discovery.Target, opts ...Option,
) (*Session, error) {
	device, err := resolveTarget(ctx, adapter, target, nil)
	if err != nil {
		return nil, err
	}
	return Open(ctx, adapter, device.Address, opts...)
}

func resolveTarget(
	ctx context.Context, scanner transport.Scanner, target discovery.Target, opts *discovery.Options,
) (discovery.Device, error) {
	if target.Address == "" {
		Debugf("Scanning for %s...", target)
	}
	device, err := discovery.Resolve(ctx, scanner, target, opts)
	if err != nil {
		Debugf("Could not resolve %s: %v", target, err)
		return discovery.Device{}, classifyScanError(ctx, err)
	}
	Debugf("Resolved %s to %s", target, device)
	return device, nil
}

// classifyScanError keeps discovery outcomes and caller cancellation as
// they are and marks everything else as a radio failure.
func classifyScanError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, discovery.ErrNoDevices),
		errors.Is(err, discovery.ErrCodeNotFound),
		errors.Is(err, discovery.ErrAmbiguous),
		ctx.Err() != nil:
		return err
	default:
		return newTransportError("scan", "", err)
	}
}
