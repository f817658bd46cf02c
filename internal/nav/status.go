// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nav

import (
	"fmt"

	"github.com/relabs-tech/rover_nav/internal/geo"
)

// Phase is the coarse navigation state reported to collaborators.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAligning
	PhaseCompleted
	PhaseCancelled
	PhaseTimedOut
)

var phaseNames = map[Phase]string{
	PhaseIdle:      "idle",
	PhaseAligning:  "aligning",
	PhaseCompleted: "completed",
	PhaseCancelled: "cancelled",
	PhaseTimedOut:  "timed_out",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the phase by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for k, v := range phaseNames {
		if v == string(b) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown navigation phase %q", b)
}

// Terminal reports whether the phase ends a session.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled || p == PhaseTimedOut
}

// Status is a snapshot of the navigator.
type Status struct {
	Phase Phase `json:"phase"`
	// TargetHeading is the bearing being aligned to. It is 0 when the
	// session completed with nothing queued.
	TargetHeading float64 `json:"target_heading"`
	// Waypoint is the waypoint currently being aligned to.
	Waypoint  *geo.Coordinate `json:"waypoint,omitempty"`
	Remaining int             `json:"remaining"`
	Reached   int             `json:"reached"`
	// Active is true while a session is running.
	Active bool `json:"active"`
}

func (s Status) String() string {
	if s.Phase == PhaseAligning {
		return fmt.Sprintf("%s(%.1f°) remaining=%d reached=%d", s.Phase, s.TargetHeading, s.Remaining, s.Reached)
	}
	return fmt.Sprintf("%s remaining=%d reached=%d", s.Phase, s.Remaining, s.Reached)
}
