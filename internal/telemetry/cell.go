// Package telemetry holds the latest GPS and IMU samples in atomically
// swapped cells. One goroutine (the transport callback) writes, the control
// loop reads; readers never block and always get the newest sample.
package telemetry

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/gps"
	"github.com/relabs-tech/rover_nav/internal/orientation"
)

type stamped[T any] struct {
	value T
	at    time.Time
}

// Cell is a single-writer/single-reader snapshot of the latest value.
type Cell[T any] struct {
	p atomic.Pointer[stamped[T]]
}

// Store replaces the snapshot.
func (c *Cell[T]) Store(v T, at time.Time) {
	c.p.Store(&stamped[T]{value: v, at: at})
}

// Load returns the latest value, when it was stored, and whether any value
// was ever stored.
func (c *Cell[T]) Load() (T, time.Time, bool) {
	s := c.p.Load()
	if s == nil {
		var zero T
		return zero, time.Time{}, false
	}
	return s.value, s.at, true
}

// Age returns how old the latest value is at now, or -1 if empty.
func (c *Cell[T]) Age(now time.Time) time.Duration {
	_, at, ok := c.Load()
	if !ok {
		return -1
	}
	return now.Sub(at)
}

// Position is the latest GPS fix.
type Position struct {
	Cell[gps.Fix]
}

// Current returns the latest fix as a coordinate. Before the first fix it
// returns NaN fields, which the navigator rejects as invalid.
func (p *Position) Current() geo.Coordinate {
	fix, _, ok := p.Load()
	if !ok {
		return geo.Coordinate{Lat: math.NaN(), Lng: math.NaN()}
	}
	return fix.Coordinate()
}

// Update validates and stores a fix. Fixes without a valid position are
// rejected so the previous good one stays current.
func (p *Position) Update(fix gps.Fix, at time.Time) error {
	if err := fix.Coordinate().Validate(); err != nil {
		return err
	}
	if !fix.HasPosition() {
		return fmt.Errorf("%w: receiver reports no fix", geo.ErrInvalidCoordinate)
	}
	p.Store(fix, at)
	return nil
}

// Orientation is the latest IMU orientation.
type Orientation struct {
	Cell[orientation.Orientation]
}

// Current returns the latest heading, or NaN before the first sample.
func (o *Orientation) Current() float64 {
	s, _, ok := o.Load()
	if !ok {
		return math.NaN()
	}
	return s.Heading
}

// Update validates and stores an orientation sample.
func (o *Orientation) Update(s orientation.Orientation, at time.Time) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Heading = geo.Normalize(s.Heading)
	o.Store(s, at)
	return nil
}
