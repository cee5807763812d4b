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
	"os"
	"path/filepath"
	"testing"
	"time"

	nametag "github.com/ZaparooProject/go-nametag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nametag.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
interface = 1
code = " ab12 "
expect_timeout = "2s"
reconnect_deadline = "90s"
burst_threshold = 140
ignore_addresses = ["AA:BB:CC:DD:EE:FF"]
session_log = true
`)
	cfg := defaultConfig()
	require.NoError(t, loadConfigFile(path, cfg))

	assert.Equal(t, 1, cfg.iface)
	assert.Equal(t, "AB12", cfg.code)
	assert.Equal(t, 2*time.Second, cfg.expectTimeout)
	assert.Equal(t, 90*time.Second, cfg.reconnectDeadline)
	assert.Equal(t, 140, cfg.burstThreshold)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, cfg.ignoreAddresses)
	assert.True(t, cfg.sessionLog)

	// keys not in the file keep their defaults
	assert.Equal(t, nametag.DefaultConnectTimeout, cfg.connectTimeout)
	assert.Empty(t, cfg.address)
	assert.False(t, cfg.debug)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad duration", body: `expect_timeout = "soon"`, want: "expect_timeout"},
		{name: "negative duration", body: `write_delay = "-1s"`, want: "cannot be negative"},
		{name: "zero expect timeout", body: `expect_timeout = "0s"`, want: "expect_timeout must be greater than zero"},
		{name: "zero connect timeout", body: `connect_timeout = "0s"`, want: "connect_timeout must be greater than zero"},
		{name: "negative interface", body: `interface = -1`, want: "interface"},
		{name: "negative burst", body: `burst_threshold = -5`, want: "burst_threshold"},
		{name: "unknown key", body: `colour = "red"`, want: "unknown key"},
		{name: "not toml", body: `interface = = 1`, want: "load nametag config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := loadConfigFile(writeConfig(t, tt.body), defaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigFile_ZeroDeadlineMeansUnlimited(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.NoError(t, loadConfigFile(writeConfig(t, "reconnect_deadline = \"0s\"\nwrite_delay = \"0s\""), cfg))
	assert.Zero(t, cfg.reconnectDeadline)
	assert.Zero(t, cfg.writeDelay)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	t.Parallel()

	err := loadConfigFile(filepath.Join(t.TempDir(), "absent.toml"), defaultConfig())
	require.Error(t, err)
}

func TestParseFlags_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "code = \"AB12\"\ninterface = 2\nburst_threshold = 100\n")
	cfg, err := parseFlags([]string{"-config", path, "-interface", "3", "-brightness", "10"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.iface, "flag wins")
	assert.Equal(t, "AB12", cfg.code, "file value kept")
	assert.Equal(t, 100, cfg.burstThreshold)
	assert.Equal(t, 10, cfg.brightness)
	assert.Equal(t, -1, cfg.mode)
}

func TestParseFlags_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "nothing to do", args: nil},
		{name: "address and code", args: []string{"-address", "AA", "-code", "AB12", "-scan"}},
		{name: "packets and glyphs", args: []string{"-packets", "a", "-glyphs", "b"}},
		{name: "mode out of range", args: []string{"-mode", "256"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseFlags(tt.args)
			require.Error(t, err)
		})
	}
}

func TestConfig_ResilientConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.iface = 1
	cfg.reconnectDeadline = 5 * time.Second
	cfg.burstThreshold = 140

	rc := cfg.resilientConfig()
	assert.Equal(t, 5*time.Second, rc.Retry.RetryTimeout)
	assert.Equal(t, 1, rc.Scan.Interface)
	assert.Len(t, rc.SessionOptions, 4)
}
