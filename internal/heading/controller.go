// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading implements the rotate-to-heading control loop as a
// tick-driven state machine. The controller never sleeps or reads a clock;
// the caller supplies the tick time and the current heading.
package heading

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
)

var (
	// ErrInvalidHeading is returned for NaN or infinite headings.
	ErrInvalidHeading = errors.New("invalid heading")
	// ErrTimeout is reported when an alignment exceeds its tick or time budget.
	ErrTimeout = errors.New("alignment timed out")
	// ErrCancelled is reported when an alignment is cancelled.
	ErrCancelled = errors.New("alignment cancelled")
	// ErrBusy is returned by Begin when an alignment is already running.
	ErrBusy = errors.New("alignment already in progress")
)

// State of the controller.
type State int

const (
	Idle State = iota
	Aligning
	Settled
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Aligning:
		return "aligning"
	case Settled:
		return "settled"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

const (
	DefaultTolerance = 6.5
	DefaultTurnRate  = 15.0
	DefaultMaxTicks  = 600
)

// Config tunes the controller.
type Config struct {
	// Tolerance is the settle window in degrees.
	Tolerance float64
	// TurnRate is the turn command magnitude, on the drive scale.
	TurnRate float64
	// MaxTicks bounds the ticks spent on one alignment. Zero means DefaultMaxTicks.
	MaxTicks int
	// Timeout bounds the wall-clock time of one alignment. Zero disables it.
	Timeout time.Duration
	// Correction is added to every heading sample before use, to account
	// for how the magnetometer is mounted.
	Correction float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Tolerance: DefaultTolerance,
		TurnRate:  DefaultTurnRate,
		MaxTicks:  DefaultMaxTicks,
	}
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.TurnRate <= 0 {
		c.TurnRate = DefaultTurnRate
	}
	if c.MaxTicks <= 0 {
		c.MaxTicks = DefaultMaxTicks
	}
	return c
}

// Step is the outcome of one controller transition.
type Step struct {
	// State is the state the transition ended in. Settled and Aborted are
	// reported here once; the controller itself is already back to Idle.
	State State
	// Command is the drive command to emit, if any.
	Command *drive.Command
	// Turn is the remaining rotation computed on this tick.
	Turn geo.Turn
	// Err is ErrTimeout or ErrCancelled for an Aborted step.
	Err error
}

// Evaluate is the pure aligning transition: given the current and target
// headings it returns Settled with a stop command when within tolerance,
// otherwise Aligning with a fixed-rate turn in the shorter direction.
func Evaluate(current, target, tolerance, turnRate float64) (State, drive.Command, geo.Turn) {
	turn := geo.ShortestTurn(current, target)
	if turn.Magnitude <= tolerance {
		return Settled, drive.Stop, turn
	}
	cmd := drive.Command{Turn: turnRate}
	if turn.Direction == geo.CounterClockwise {
		cmd.Turn = -turnRate
	}
	return Aligning, cmd, turn
}

// Controller drives the current heading toward a target heading.
// Not safe for concurrent use.
type Controller struct {
	cfg Config

	state   State
	target  float64
	ticks   int
	started time.Time
}

// NewController creates an idle controller.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Target returns the target heading of the running alignment.
func (c *Controller) Target() float64 {
	return c.target
}

// Ticks returns the number of ticks spent on the running alignment.
func (c *Controller) Ticks() int {
	return c.ticks
}

// Begin starts aligning toward target, which is normalized into [0, 360).
func (c *Controller) Begin(target float64) error {
	if c.state != Idle {
		return ErrBusy
	}
	if !geo.Finite(target) {
		return fmt.Errorf("%w: target %v", ErrInvalidHeading, target)
	}
	c.state = Aligning
	c.target = geo.Normalize(target)
	c.ticks = 0
	c.started = time.Time{}
	return nil
}

// Retarget moves the target of the running alignment without resetting
// its budget. Used when the position, and so the bearing, drifts while turning.
func (c *Controller) Retarget(target float64) error {
	if c.state != Aligning {
		return nil
	}
	if !geo.Finite(target) {
		return fmt.Errorf("%w: target %v", ErrInvalidHeading, target)
	}
	c.target = geo.Normalize(target)
	return nil
}

// Tick runs one control evaluation at time now with the latest heading.
//
// Budget checks happen first, so a source that never converges or keeps
// reporting garbage still ends in Aborted. A non-finite heading is rejected
// with ErrInvalidHeading and no command; the tick still counts.
func (c *Controller) Tick(now time.Time, current float64) (Step, error) {
	if c.state != Aligning {
		return Step{State: c.state}, nil
	}

	if c.started.IsZero() {
		c.started = now
	}
	if c.ticks >= c.cfg.MaxTicks || (c.cfg.Timeout > 0 && now.Sub(c.started) > c.cfg.Timeout) {
		return c.abort(ErrTimeout), nil
	}
	c.ticks++

	if !geo.Finite(current) {
		return Step{State: Aligning}, fmt.Errorf("%w: current %v", ErrInvalidHeading, current)
	}
	current = geo.Normalize(current + c.cfg.Correction)

	state, cmd, turn := Evaluate(current, c.target, c.cfg.Tolerance, c.cfg.TurnRate)
	if state == Settled {
		c.state = Idle
	}
	return Step{State: state, Command: &cmd, Turn: turn}, nil
}

// Cancel aborts a running alignment and returns the stop command that
// must be emitted. Cancelling an idle controller is a no-op.
func (c *Controller) Cancel() Step {
	if c.state != Aligning {
		return Step{State: c.state}
	}
	return c.abort(ErrCancelled)
}

func (c *Controller) abort(reason error) Step {
	c.state = Idle
	stop := drive.Stop
	return Step{State: Aborted, Command: &stop, Err: reason}
}
