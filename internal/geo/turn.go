// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

// Direction is the rotation sense of a turn.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counterclockwise"
	default:
		return "unknown"
	}
}

// Turn is the shortest rotation from one heading to another.
// Magnitude is in degrees and always in [0, 180].
type Turn struct {
	Direction Direction
	Magnitude float64
}

// Signed returns the turn as a signed angle, positive for clockwise.
func (t Turn) Signed() float64 {
	if t.Direction == CounterClockwise {
		return -t.Magnitude
	}
	return t.Magnitude
}

// ShortestTurn picks the smaller of the clockwise and counter-clockwise
// rotations from current to target. A 180° tie resolves to clockwise.
func ShortestTurn(current, target float64) Turn {
	cw := Normalize(target - current)
	ccw := Normalize(current - target)
	if cw <= ccw {
		return Turn{Direction: Clockwise, Magnitude: cw}
	}
	return Turn{Direction: CounterClockwise, Magnitude: ccw}
}
