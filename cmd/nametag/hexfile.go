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
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	nametag "github.com/ZaparooProject/go-nametag"
)

// readPackets parses a raw packet capture: hex bytes (spaces or colons
// allowed), '#' comments, and blank lines separating packets. Packets
// longer than one write are split.
func readPackets(r io.Reader) ([][]byte, error) {
	var packets [][]byte
	var current []byte

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := normalizeHexLine(scanner.Text())
		switch {
		case text == "":
			if len(current) > 0 {
				packets = append(packets, current)
				current = nil
			}
		case strings.HasPrefix(text, "#"):
		default:
			data, err := hex.DecodeString(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current = append(current, data...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read packets: %w", err)
	}
	if len(current) > 0 {
		packets = append(packets, current)
	}

	var out [][]byte
	for _, p := range packets {
		for len(p) > nametag.PacketSize {
			out = append(out, p[:nametag.PacketSize])
			p = p[nametag.PacketSize:]
		}
		out = append(out, p)
	}
	return out, nil
}

// readGlyphs parses one glyph bitmap per non-empty line.
func readGlyphs(r io.Reader) ([][]byte, error) {
	var glyphs [][]byte

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := normalizeHexLine(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		data, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		glyphs = append(glyphs, data)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read glyphs: %w", err)
	}
	return glyphs, nil
}

func normalizeHexLine(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return line
	}
	return strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(line)
}

func loadFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	out, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
