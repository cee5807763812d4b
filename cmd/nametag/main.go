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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	nametag "github.com/ZaparooProject/go-nametag"
	"github.com/ZaparooProject/go-nametag/discovery"
	"github.com/ZaparooProject/go-nametag/transport"
	"github.com/ZaparooProject/go-nametag/transport/ble"
)

// newAdapter opens the radio. Tests replace it.
var newAdapter = func(iface int) transport.Adapter {
	return ble.New(iface)
}

// parseFlags resolves defaults, the optional config file and flags.
// Flags given on the command line override the file.
func parseFlags(args []string) (*config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("nametag", flag.ContinueOnError)

	configPath := fs.String("config", "", "TOML config file")
	iface := fs.Int("interface", 0, "HCI interface index")
	address := fs.String("address", "", "Badge address (skips scanning)")
	code := fs.String("code", "", "Badge code printed on the hardware")
	fs.StringVar(&cfg.packetsFile, "packets", "", "Raw packets hex file to replay")
	fs.StringVar(&cfg.glyphsFile, "glyphs", "", "Glyph bitmaps hex file (one glyph per line)")
	fs.BoolVar(&cfg.scan, "scan", false, "List nearby badges and exit")
	fs.BoolVar(&cfg.waitEach, "wait-each", false, "Wait for a notification after every raw packet")
	fs.IntVar(&cfg.mode, "mode", -1, "Set display mode (0-255)")
	fs.IntVar(&cfg.speed, "speed", -1, "Set scroll speed (0-255)")
	fs.IntVar(&cfg.brightness, "brightness", -1, "Set brightness (0-255)")
	fs.IntVar(&cfg.soak, "soak", 0, "Send this many random glyph sets and report the first failure")
	burst := fs.Int("burst", 0, "Burst flow control threshold in bytes (0 = wait for every acknowledgment)")
	deadline := fs.Duration("timeout", cfg.reconnectDeadline, "Give up reconnecting after this long")
	debug := fs.Bool("debug", false, "Enable debug output")
	sessionLog := fs.Bool("log", false, "Mirror debug output into a session log file in the current directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *configPath != "" {
		if err := loadConfigFile(*configPath, cfg); err != nil {
			return nil, err
		}
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["interface"] {
		cfg.iface = *iface
	}
	if set["address"] {
		cfg.address = strings.TrimSpace(*address)
	}
	if set["code"] {
		cfg.code = strings.ToUpper(strings.TrimSpace(*code))
	}
	if set["burst"] {
		cfg.burstThreshold = *burst
	}
	if set["timeout"] {
		cfg.reconnectDeadline = *deadline
	}
	if set["debug"] {
		cfg.debug = *debug
	}
	if set["log"] {
		cfg.sessionLog = *sessionLog
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSteps turns the requested operations into one step list.
func buildSteps(cfg *config) ([]nametag.SendStep, error) {
	var steps []nametag.SendStep

	if cfg.packetsFile != "" {
		packets, err := loadFile(cfg.packetsFile, readPackets)
		if err != nil {
			return nil, err
		}
		steps = append(steps, nametag.PacketSteps(packets, cfg.waitEach)...)
	}
	if cfg.glyphsFile != "" {
		glyphs, err := loadFile(cfg.glyphsFile, readGlyphs)
		if err != nil {
			return nil, err
		}
		glyphSteps, err := nametag.GlyphSteps(glyphs)
		if err != nil {
			return nil, fmt.Errorf("encode glyphs: %w", err)
		}
		steps = append(steps, glyphSteps...)
	}
	if cfg.mode >= 0 {
		steps = append(steps, nametag.ModeSteps(byte(cfg.mode))...)
	}
	if cfg.speed >= 0 {
		steps = append(steps, nametag.SpeedSteps(byte(cfg.speed))...)
	}
	if cfg.brightness >= 0 {
		steps = append(steps, nametag.BrightnessSteps(byte(cfg.brightness))...)
	}
	return steps, nil
}

func runScan(ctx context.Context, out io.Writer, adapter transport.Adapter, cfg *config) error {
	opts := cfg.scanOptions()
	devices, err := nametag.Scan(ctx, adapter, &opts)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		_, _ = fmt.Fprintln(out, "No nametags found")
		return nil
	}

	codes := discovery.Codes(devices)
	keys := make([]string, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Strings(keys)
	for _, code := range keys {
		_, _ = fmt.Fprintf(out, "%s %s\n", code, codes[code])
	}
	return nil
}

func run(ctx context.Context, out io.Writer, cfg *config) error {
	adapter := newAdapter(cfg.iface)

	if cfg.scan {
		return runScan(ctx, out, adapter, cfg)
	}

	steps, err := buildSteps(cfg)
	if err != nil {
		return err
	}
	if len(steps) > 0 {
		_, _ = fmt.Fprintf(out, "%d packets loaded\n", len(steps))
	}

	_, _ = fmt.Fprintf(out, "Connecting to %s...\n", cfg.target())
	rs := nametag.NewResilientSession(ctx, adapter, cfg.target(), cfg.resilientConfig())
	defer func() {
		if err := rs.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close session: %v\n", err)
		}
	}()

	if len(steps) > 0 {
		if err := rs.Send(ctx, steps); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Sent to %s\n", rs.Address())
	}

	if cfg.soak > 0 {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("crash report directory: %w", err)
		}
		result, err := runSoak(ctx, out, rs, cfg.soak, dir)
		_, _ = fmt.Fprintf(out, "Soak: %d passed, %d failed in %v\n",
			result.Passed, result.Failed, result.Duration.Round(time.Millisecond))
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if cfg.debug {
		nametag.SetDebugEnabled(true)
	}
	if cfg.sessionLog {
		path, err := nametag.InitSessionLog()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Session log: %s\n", path)
			defer func() { _ = nametag.CloseSessionLog() }()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, os.Stdout, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if te := nametag.GetTrace(err); te != nil && cfg.debug {
			_, _ = fmt.Fprint(os.Stderr, te.FormatTrace())
		}
		return 1
	}
	return 0
}
