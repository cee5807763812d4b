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
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-nametag/internal/syncutil"
)

// debugEnabled controls whether debug logging goes to the console.
// Notification callbacks log from the transport's goroutine, so output is
// serialized through logMu.
var (
	debugEnabled = false
	logMu        syncutil.Mutex
)

func init() {
	if os.Getenv("NAMETAG_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

// Debugf prints debug information.
// Always writes to session log file (if initialized) with timestamp.
// Only prints to console when debug mode is enabled.
func Debugf(format string, args ...any) {
	writeDebug(fmt.Sprintf(format, args...))
}

// Debugln prints debug information.
// Always writes to session log file (if initialized) with timestamp.
// Only prints to console when debug mode is enabled.
func Debugln(args ...any) {
	message := fmt.Sprintln(args...)
	writeDebug(message[:len(message)-1])
}

func writeDebug(message string) {
	logMu.Lock()
	defer logMu.Unlock()

	if sessionLogWriter != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", timestamp, message)
	}

	if debugEnabled {
		_, _ = fmt.Fprintf(os.Stderr, "DEBUG: %s\n", message)
	}
}

// SetDebugEnabled allows programmatic control of debug logging
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	debugEnabled = enabled
	logMu.Unlock()
}
