// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nav

import (
	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
)

// PositionSource returns the latest known position. It may be stale and
// must never block.
type PositionSource interface {
	Current() geo.Coordinate
}

// HeadingSource returns the latest known heading in degrees [0, 360).
// It may be stale and must never block.
type HeadingSource interface {
	Current() float64
}

// CommandSink delivers drive commands. A failed send is logged by the
// navigator and never ends a session.
type CommandSink interface {
	Send(drive.Command) error
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func() geo.Coordinate

func (f PositionFunc) Current() geo.Coordinate { return f() }

// HeadingFunc adapts a function to HeadingSource.
type HeadingFunc func() float64

func (f HeadingFunc) Current() float64 { return f() }

// SinkFunc adapts a function to CommandSink.
type SinkFunc func(drive.Command) error

func (f SinkFunc) Send(c drive.Command) error { return f(c) }
