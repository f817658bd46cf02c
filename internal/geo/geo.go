// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo holds the pure bearing and angle helpers used by the navigator.
package geo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// ErrInvalidCoordinate is returned for coordinates with NaN or infinite fields.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" csv:"lat"`
	Lng float64 `json:"lng" yaml:"lng" csv:"lng"`
}

// NewCoordinate returns a validated coordinate.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether both fields are finite real numbers.
func (c Coordinate) Validate() error {
	if !Finite(c.Lat) || !Finite(c.Lng) {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinate, c.Lat, c.Lng)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", c.Lat, c.Lng)
}

// Coincident reports whether a and b are within eps degrees on both axes.
// Callers use it to treat a waypoint as reached before asking for a bearing.
func Coincident(a, b Coordinate, eps float64) bool {
	return scalar.EqualWithinAbs(a.Lat, b.Lat, eps) && scalar.EqualWithinAbs(a.Lng, b.Lng, eps)
}

// Normalize wraps an angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Bearing returns the heading in degrees [0, 360) from one coordinate to another.
//
// The angle is measured as atan2(Δlat, Δlng), so 0° points along +lng and
// angles grow toward +lat. When from == to the result is 0; callers should
// check Coincident first.
func Bearing(from, to Coordinate) float64 {
	deg := math.Atan2(to.Lat-from.Lat, to.Lng-from.Lng) * 180.0 / math.Pi
	return Normalize(deg)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
