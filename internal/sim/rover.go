// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim is a simulated differential-drive rover. It accepts drive
// commands like the real drivetrain and reports GPS fixes and orientation
// samples, so the navigator can be exercised end to end without hardware.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/gps"
	"github.com/relabs-tech/rover_nav/internal/orientation"
)

// Config sets the rover dynamics.
type Config struct {
	// TurnSpeed is the heading change in degrees per second at full turn rate.
	TurnSpeed float64
	// DriveSpeed is the distance in degrees per second at full forward rate.
	DriveSpeed float64
	// Declination is the local magnetic declination in degrees. The
	// simulated magnetometer points this far off true heading.
	Declination float64
}

// DefaultConfig turns at 90°/s at full rate, so the navigator's default
// turn rate of 15 rotates 13.5°/s.
func DefaultConfig() Config {
	return Config{
		TurnSpeed:  90,
		DriveSpeed: 1e-5,
	}
}

// Rover is safe for concurrent use: commands usually arrive from a
// transport callback while a ticker advances the simulation.
type Rover struct {
	cfg Config

	mu      sync.RWMutex
	pos     geo.Coordinate
	heading float64
	cmd     drive.Command
}

// New places a rover at start facing heading.
func New(cfg Config, start geo.Coordinate, heading float64) *Rover {
	return &Rover{
		cfg:     cfg,
		pos:     start,
		heading: geo.Normalize(heading),
	}
}

// Send latches c until the next command.
func (r *Rover) Send(c drive.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmd = c
	return nil
}

// Step advances the simulation by dt under the latched command. A positive
// turn increases the heading; forward motion follows the bearing convention
// of geo.Bearing.
func (r *Rover) Step(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := dt.Seconds()
	r.heading = geo.Normalize(r.heading + r.cmd.Turn/drive.MaxRate*r.cfg.TurnSpeed*s)

	dist := r.cmd.Forward / drive.MaxRate * r.cfg.DriveSpeed * s
	rad := r.heading * math.Pi / 180
	r.pos.Lat += dist * math.Sin(rad)
	r.pos.Lng += dist * math.Cos(rad)
}

// Position returns the true position.
func (r *Rover) Position() geo.Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pos
}

// Heading returns the true heading.
func (r *Rover) Heading() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.heading
}

// Command returns the latched drive command.
func (r *Rover) Command() drive.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cmd
}

// Fix reports the position as a valid GPS fix.
func (r *Rover) Fix(now time.Time) gps.Fix {
	r.mu.RLock()
	defer r.mu.RUnlock()

	quality := 1
	return gps.Fix{
		Time:       now.UTC().Format("15:04:05"),
		Date:       now.UTC().Format("02/01/06"),
		Latitude:   r.pos.Lat,
		Longitude:  r.pos.Lng,
		SpeedKnots: 0,
		CourseDeg:  r.heading,
		Validity:   "A",
		FixQuality: &quality,
	}
}

const gravity = 9.81

// IMU returns raw sensor readings for a level rover: gravity on the
// accelerometer Z axis, the turn rate in °/s on the gyro Z axis and a unit
// magnetic field vector.
func (r *Rover) IMU() (accel, gyro, mag orientation.Vector) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rad := (r.heading + r.cfg.Declination) * math.Pi / 180
	accel = orientation.Vector{Z: gravity}
	gyro = orientation.Vector{Z: r.cmd.Turn / drive.MaxRate * r.cfg.TurnSpeed}
	mag = orientation.Vector{X: math.Cos(rad), Y: math.Sin(rad)}
	return accel, gyro, mag
}

// Next implements orientation.Source by fusing IMU readings, corrected
// for the configured declination.
func (r *Rover) Next() (orientation.Orientation, error) {
	accel, gyro, mag := r.IMU()
	o := orientation.FromIMU(accel, gyro, mag, r.cfg.Declination)
	return o, o.Validate()
}
