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
	"crypto/rand"
	"encoding/binary"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (0 = until RetryTimeout)
	MaxAttempts int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the factor by which the backoff increases
	BackoffMultiplier float64
	// Jitter adds randomness to backoff so several badges do not reconnect in step
	Jitter float64
	// RetryTimeout bounds the time since the first attempt after which a
	// failure is final (0 = no bound). An attempt in flight is never cut short.
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns the reconnect configuration used by
// ResilientSession.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       0,
		InitialBackoff:    ReconnectInitialBackoff,
		MaxBackoff:        ReconnectMaxBackoff,
		BackoffMultiplier: ReconnectBackoffMultiplier,
		Jitter:            ReconnectJitter,
		RetryTimeout:      DefaultReconnectDeadline,
	}
}

// RetryableFunc is a function that can be retried. attempt starts at 1.
type RetryableFunc func(ctx context.Context, attempt int) error

// RetryWithConfig runs retryFunc until it succeeds, fails with a
// non-retryable error, runs out of attempts, passes RetryTimeout, or ctx
// is done. Non-retryable errors are returned as-is; giving up on a
// retryable one returns a *RetryError wrapping the last failure.
func RetryWithConfig(ctx context.Context, config *RetryConfig, retryFunc RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	start := time.Now()
	backoff := config.InitialBackoff

	for attempt := 1; ; attempt++ {
		err := retryFunc(ctx, attempt)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		elapsed := time.Since(start)
		giveUp := &RetryError{Err: err, Attempts: attempt, Elapsed: elapsed, Deadline: config.RetryTimeout}
		if config.RetryTimeout > 0 && elapsed > config.RetryTimeout {
			return giveUp
		}
		if config.MaxAttempts > 0 && attempt >= config.MaxAttempts {
			return giveUp
		}

		sleep := calculateJitteredSleep(backoff, config.Jitter)
		if sleepWithContext(ctx, sleep) != nil {
			giveUp.Elapsed = time.Since(start)
			return giveUp
		}
		backoff = calculateNextBackoff(backoff, config)
	}
}

func sleepWithContext(ctx context.Context, sleep time.Duration) error {
	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func calculateNextBackoff(backoff time.Duration, config *RetryConfig) time.Duration {
	newBackoff := time.Duration(float64(backoff) * config.BackoffMultiplier)
	if newBackoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return newBackoff
}

// calculateJitteredSleep calculates sleep duration with jitter
func calculateJitteredSleep(baseSleep time.Duration, jitterFactor float64) time.Duration {
	sleep := baseSleep
	if jitterFactor > 0 {
		var randBytes [8]byte
		if _, err := rand.Read(randBytes[:]); err == nil {
			// Convert to float64 in range [0, 1)
			randUint := binary.LittleEndian.Uint64(randBytes[:])
			randFloat := float64(randUint) / float64(1<<64)
			jitter := float64(sleep) * jitterFactor
			sleep += time.Duration(randFloat * jitter)
		}
	}
	return sleep
}
