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
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	nametag "github.com/ZaparooProject/go-nametag"
)

// soakResult summarizes a soak run.
type soakResult struct {
	CrashFile string
	Passed    int
	Failed    int
	Duration  time.Duration
}

// CrashReport contains everything needed to debug a failed transfer.
type CrashReport struct {
	Timestamp  time.Time      `json:"timestamp"`
	Address    string         `json:"address"`
	Operation  string         `json:"operation"`
	Error      string         `json:"error"`
	PayloadHex string         `json:"payload_hex"`
	Trace      []traceLogLine `json:"trace,omitempty"`
	Iteration  int            `json:"iteration"`
	Glyphs     int            `json:"glyphs"`
	Attempts   int            `json:"attempts,omitempty"`
}

type traceLogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"`
	DataHex   string    `json:"data_hex"`
	Note      string    `json:"note,omitempty"`
}

// sender is the part of ResilientSession a soak run needs.
type sender interface {
	Send(ctx context.Context, steps []nametag.SendStep) error
	Address() string
}

// runSoak sends iterations random glyph sets and stops at the first
// failure, writing a crash report into dir.
func runSoak(ctx context.Context, out io.Writer, s sender, iterations int, dir string) (*soakResult, error) {
	result := &soakResult{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	_, _ = fmt.Fprintf(out, "Soak test: %d random glyph sets\n", iterations)
	for i := 1; i <= iterations; i++ {
		glyphs, err := randomGlyphs()
		if err != nil {
			return result, err
		}
		steps, err := nametag.GlyphSteps(glyphs)
		if err != nil {
			return result, fmt.Errorf("encode glyphs: %w", err)
		}

		sendStart := time.Now()
		if err := s.Send(ctx, steps); err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			result.Failed++
			report := newCrashReport(s.Address(), i, glyphs, err)
			file, writeErr := writeCrashReport(dir, report)
			if writeErr != nil {
				return result, errors.Join(err, writeErr)
			}
			result.CrashFile = file
			_, _ = fmt.Fprintf(out, "  [%d/%d] FAILED: %v (report: %s)\n", i, iterations, err, file)
			return result, err
		}
		result.Passed++
		_, _ = fmt.Fprintf(out, "  [%d/%d] %d glyphs, %d packets in %v\n",
			i, iterations, len(glyphs), len(steps), time.Since(sendStart).Round(time.Millisecond))
	}
	return result, nil
}

// randomGlyphs returns 1-80 glyphs of 1-32 random bytes.
func randomGlyphs() ([][]byte, error) {
	count, err := randomInt(1, nametag.MaxGlyphs)
	if err != nil {
		return nil, err
	}
	glyphs := make([][]byte, count)
	for i := range glyphs {
		size, err := randomInt(1, 32)
		if err != nil {
			return nil, err
		}
		glyphs[i] = make([]byte, size)
		if _, err := rand.Read(glyphs[i]); err != nil {
			return nil, fmt.Errorf("generate glyph: %w", err)
		}
	}
	return glyphs, nil
}

func randomInt(low, high int) (int, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate random number: %w", err)
	}
	span := uint64(high - low + 1) //nolint:gosec // high >= low
	return low + int(binary.LittleEndian.Uint64(buf[:])%span), nil //nolint:gosec // bounded by span
}

func newCrashReport(address string, iteration int, glyphs [][]byte, err error) *CrashReport {
	report := &CrashReport{
		Timestamp: time.Now(),
		Address:   address,
		Operation: "send glyphs",
		Error:     err.Error(),
		Iteration: iteration,
		Glyphs:    len(glyphs),
	}
	if payload, payloadErr := nametag.GlyphPayload(glyphs); payloadErr == nil {
		report.PayloadHex = formatHexString(payload)
	}

	var retryErr *nametag.RetryError
	if errors.As(err, &retryErr) {
		report.Attempts = retryErr.Attempts
	}
	if te := nametag.GetTrace(err); te != nil {
		for _, entry := range te.Trace {
			report.Trace = append(report.Trace, traceLogLine{
				Timestamp: entry.Timestamp,
				Direction: string(entry.Direction),
				DataHex:   formatHexString(entry.Data),
				Note:      entry.Note,
			})
		}
	}
	return report
}

func writeCrashReport(dir string, report *CrashReport) (string, error) {
	addressSafe := strings.ReplaceAll(report.Address, ":", "")
	timestamp := report.Timestamp.Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("nametag_crash_%s_%s.json", addressSafe, timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal crash report: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}
	return filename, nil
}

func formatHexString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
