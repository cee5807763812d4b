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
	"errors"
	"fmt"
	"strings"
	"time"
)

// TraceDirection indicates the direction of wire data
type TraceDirection string

const (
	// TraceTX indicates a packet written to the badge
	TraceTX TraceDirection = "TX"
	// TraceRX indicates a notification received from the badge
	TraceRX TraceDirection = "RX"
)

// TraceEntry represents a single wire-level operation
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

// String formats a trace entry for display
func (e TraceEntry) String() string {
	hexData := formatHexBytes(e.Data)
	if e.Note != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", e.Timestamp.Format("15:04:05.000"), e.Direction, hexData, e.Note)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Direction, hexData)
}

// TraceableError wraps an error with wire-level trace data for debugging.
//
//	var te *nametag.TraceableError
//	if errors.As(err, &te) {
//	    log.Printf("Wire trace:\n%s", te.FormatTrace())
//	}
type TraceableError struct {
	Err     error
	Address string
	Trace   []TraceEntry
}

// Error implements the error interface
func (e *TraceableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace returns a human-readable formatted trace log
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Address)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "[%s] Wire trace (%d entries):\n", e.Address, len(e.Trace))

	for _, entry := range e.Trace {
		direction := ">"
		if entry.Direction == TraceRX {
			direction = "<"
		}
		hexData := formatHexBytes(entry.Data)
		if entry.Note != "" {
			_, _ = fmt.Fprintf(&sb, "  %s %s (%s)\n", direction, hexData, entry.Note)
		} else {
			_, _ = fmt.Fprintf(&sb, "  %s %s\n", direction, hexData)
		}
	}

	return sb.String()
}

// formatHexBytes formats a byte slice as space-separated hex values
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	if len(data) > 32 {
		return fmt.Sprintf("% X ... (%d bytes total)", data[:32], len(data))
	}
	return fmt.Sprintf("% X", data)
}

// formatExpect renders an expectation the way the debug log does.
func formatExpect(expect []byte) string {
	if isWildcard(expect) {
		return "[*]"
	}
	return formatHexBytes(expect)
}

// TraceBuffer collects trace entries for one session.
// It keeps only the most recent entries.
type TraceBuffer struct {
	address string
	entries []TraceEntry
	maxSize int
}

// NewTraceBuffer creates a new trace buffer with the specified capacity
func NewTraceBuffer(address string, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = DefaultTraceSize
	}
	return &TraceBuffer{
		entries: make([]TraceEntry, 0, maxSize),
		maxSize: maxSize,
		address: address,
	}
}

// RecordTX records a packet written to the badge
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records a notification received from the badge
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

// RecordTimeout records a timeout event
func (tb *TraceBuffer) RecordTimeout(note string) {
	tb.record(TraceRX, nil, "TIMEOUT: "+note)
}

// record adds an entry to the buffer, evicting oldest if full
func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	entry := TraceEntry{
		Direction: dir,
		Data:      append([]byte(nil), data...),
		Timestamp: time.Now(),
		Note:      note,
	}

	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
	} else {
		tb.entries = append(tb.entries, entry)
	}
}

// WrapError wraps an error with the collected trace data.
// Returns nil if err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}

	entriesCopy := make([]TraceEntry, len(tb.entries))
	copy(entriesCopy, tb.entries)

	return &TraceableError{
		Err:     err,
		Trace:   entriesCopy,
		Address: tb.address,
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (tb *TraceBuffer) Entries() []TraceEntry {
	out := make([]TraceEntry, len(tb.entries))
	copy(out, tb.entries)
	return out
}

// Clear resets the trace buffer
func (tb *TraceBuffer) Clear() {
	tb.entries = tb.entries[:0]
}

// HasTrace checks if an error contains trace data
func HasTrace(err error) bool {
	var te *TraceableError
	return errors.As(err, &te)
}

// GetTrace extracts trace data from an error, returning nil if not present
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
