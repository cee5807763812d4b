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

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	nametag "github.com/ZaparooProject/go-nametag"
	"github.com/ZaparooProject/go-nametag/discovery"
)

// config is the resolved CLI configuration: defaults, then the TOML
// file, then explicit flags.
type config struct {
	address           string
	code              string
	packetsFile       string
	glyphsFile        string
	ignoreAddresses   []string
	expectTimeout     time.Duration
	connectTimeout    time.Duration
	reconnectDeadline time.Duration
	scanWindow        time.Duration
	writeDelay        time.Duration
	iface             int
	burstThreshold    int
	soak              int
	mode              int
	speed             int
	brightness        int
	scan              bool
	waitEach          bool
	debug             bool
	sessionLog        bool
}

// nametag.toml key mapping to CLI settings.
type fileConfig struct {
	Address           string   `toml:"address"`
	Code              string   `toml:"code"`
	ExpectTimeout     string   `toml:"expect_timeout"`
	ConnectTimeout    string   `toml:"connect_timeout"`
	ReconnectDeadline string   `toml:"reconnect_deadline"`
	ScanWindow        string   `toml:"scan_window"`
	WriteDelay        string   `toml:"write_delay"`
	IgnoreAddresses   []string `toml:"ignore_addresses"`
	Interface         int      `toml:"interface"`
	BurstThreshold    int      `toml:"burst_threshold"`
	Debug             bool     `toml:"debug"`
	SessionLog        bool     `toml:"session_log"`
}

func defaultConfig() *config {
	return &config{
		expectTimeout:     nametag.DefaultExpectTimeout,
		connectTimeout:    nametag.DefaultConnectTimeout,
		reconnectDeadline: nametag.DefaultReconnectDeadline,
		scanWindow:        discovery.DefaultScanWindow,
		mode:              -1,
		speed:             -1,
		brightness:        -1,
	}
}

// loadConfigFile overlays the keys present in the TOML file at path onto cfg.
func loadConfigFile(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load nametag config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load nametag config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("interface") {
		if raw.Interface < 0 {
			return fmt.Errorf("load nametag config: interface must be >= 0, got %d", raw.Interface)
		}
		cfg.iface = raw.Interface
	}
	if meta.IsDefined("address") {
		cfg.address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("code") {
		cfg.code = strings.ToUpper(strings.TrimSpace(raw.Code))
	}
	if meta.IsDefined("ignore_addresses") {
		cfg.ignoreAddresses = raw.IgnoreAddresses
	}
	if meta.IsDefined("burst_threshold") {
		if raw.BurstThreshold < 0 {
			return fmt.Errorf("load nametag config: burst_threshold must be >= 0, got %d", raw.BurstThreshold)
		}
		cfg.burstThreshold = raw.BurstThreshold
	}
	if meta.IsDefined("session_log") {
		cfg.sessionLog = raw.SessionLog
	}
	if meta.IsDefined("debug") {
		cfg.debug = raw.Debug
	}

	durations := []struct {
		dst      *time.Duration
		key      string
		raw      string
		positive bool
	}{
		{key: "expect_timeout", raw: raw.ExpectTimeout, dst: &cfg.expectTimeout, positive: true},
		{key: "connect_timeout", raw: raw.ConnectTimeout, dst: &cfg.connectTimeout, positive: true},
		{key: "reconnect_deadline", raw: raw.ReconnectDeadline, dst: &cfg.reconnectDeadline},
		{key: "scan_window", raw: raw.ScanWindow, dst: &cfg.scanWindow},
		{key: "write_delay", raw: raw.WriteDelay, dst: &cfg.writeDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("load nametag config: %s: %w", d.key, err)
		}
		if parsed < 0 {
			return fmt.Errorf("load nametag config: %s cannot be negative", d.key)
		}
		if d.positive && parsed == 0 {
			return fmt.Errorf("load nametag config: %s must be greater than zero", d.key)
		}
		*d.dst = parsed
	}

	return nil
}

// validate checks flag combinations that cannot work together.
func (c *config) validate() error {
	if c.address != "" && c.code != "" {
		return errors.New("-address and -code are mutually exclusive")
	}
	if c.packetsFile != "" && c.glyphsFile != "" {
		return errors.New("-packets and -glyphs are mutually exclusive")
	}
	for name, v := range map[string]int{"mode": c.mode, "speed": c.speed, "brightness": c.brightness} {
		if v > 0xFF {
			return fmt.Errorf("-%s must fit in one byte, got %d", name, v)
		}
	}
	if !c.scan && c.packetsFile == "" && c.glyphsFile == "" && c.soak == 0 &&
		c.mode < 0 && c.speed < 0 && c.brightness < 0 {
		return errors.New("nothing to do: use -scan, -packets, -glyphs, -soak, -mode, -speed or -brightness")
	}
	return nil
}

func (c *config) target() discovery.Target {
	return discovery.Target{Address: c.address, Code: c.code}
}

func (c *config) scanOptions() discovery.Options {
	opts := discovery.DefaultOptions()
	opts.Interface = c.iface
	opts.Window = c.scanWindow
	opts.IgnoreAddresses = c.ignoreAddresses
	return opts
}

func (c *config) sessionOptions() []nametag.Option {
	opts := []nametag.Option{
		nametag.WithExpectTimeout(c.expectTimeout),
		nametag.WithConnectTimeout(c.connectTimeout),
		nametag.WithWriteDelay(c.writeDelay),
	}
	if c.burstThreshold > 0 {
		opts = append(opts, nametag.WithBurstThreshold(c.burstThreshold))
	}
	return opts
}

func (c *config) resilientConfig() *nametag.ResilientConfig {
	rc := nametag.DefaultResilientConfig()
	rc.Retry.RetryTimeout = c.reconnectDeadline
	rc.Scan = c.scanOptions()
	rc.SessionOptions = c.sessionOptions()
	return rc
}
