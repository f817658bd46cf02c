// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package drive describes drivetrain commands and the sinks that deliver
// them to a differential (tank) chassis.
package drive

import (
	"fmt"
	"math"
)

// MaxRate is the magnitude limit of both command axes.
const MaxRate = 100.0

// Command is one drivetrain instruction. Turn is positive clockwise.
// Values are on an arbitrary [-100, 100] scale; sinks map them to hardware.
type Command struct {
	Turn    float64 `json:"turn"`
	Forward float64 `json:"forward"`
}

// Stop is the all-zero command.
var Stop = Command{}

// IsStop reports whether c commands no motion.
func (c Command) IsStop() bool {
	return c.Turn == 0 && c.Forward == 0
}

func (c Command) String() string {
	return fmt.Sprintf("turn=%.1f forward=%.1f", c.Turn, c.Forward)
}

// SinkError reports a failed command delivery.
type SinkError struct {
	Sink    string
	Command Command
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: send %s: %v", e.Sink, e.Command, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Mix converts a command into left/right track rates for a tank chassis,
// each clamped to [-MaxRate, MaxRate]. A clockwise turn drives the left
// track forward and the right track backward.
func Mix(c Command) (left, right float64) {
	left = clamp(c.Forward + c.Turn)
	right = clamp(c.Forward - c.Turn)
	return left, right
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-MaxRate, math.Min(MaxRate, v))
}
