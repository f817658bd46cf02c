// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package drive

import (
	"errors"
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// pwmPin is the subset of gpio.PinIO the tank sink drives.
type pwmPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// BiMotor is an H-bridge driven DC motor with one PWM pin per direction.
type BiMotor struct {
	Forward  pwmPin
	Backward pwmPin
}

// Set drives the motor at rate in [-MaxRate, MaxRate].
func (m BiMotor) Set(rate float64, freq physic.Frequency) error {
	rate = clamp(rate)
	duty := gpio.Duty(math.Round(math.Abs(rate) / MaxRate * float64(gpio.DutyMax)))

	active, idle := m.Forward, m.Backward
	if rate < 0 {
		active, idle = m.Backward, m.Forward
	}
	if err := idle.Out(gpio.Low); err != nil {
		return err
	}
	if duty == 0 {
		return active.Out(gpio.Low)
	}
	return active.PWM(duty, freq)
}

// TankSink drives two BiMotors (left and right tracks) over GPIO PWM.
type TankSink struct {
	Left  BiMotor
	Right BiMotor
	Freq  physic.Frequency
}

// TankPins names the four GPIO pins of a tank drivetrain.
type TankPins struct {
	LeftForward   string
	LeftBackward  string
	RightForward  string
	RightBackward string
}

// NewTankSink initializes periph and resolves the motor pins by name.
func NewTankSink(pins TankPins, freq physic.Frequency) (*TankSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	lookup := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("drive pin %q not found", name)
		}
		return p, nil
	}

	var resolved [4]gpio.PinIO
	for i, name := range []string{pins.LeftForward, pins.LeftBackward, pins.RightForward, pins.RightBackward} {
		p, err := lookup(name)
		if err != nil {
			return nil, err
		}
		resolved[i] = p
	}

	if freq <= 0 {
		freq = physic.KiloHertz
	}
	return &TankSink{
		Left:  BiMotor{Forward: resolved[0], Backward: resolved[1]},
		Right: BiMotor{Forward: resolved[2], Backward: resolved[3]},
		Freq:  freq,
	}, nil
}

// Send mixes the command onto both tracks. Both tracks are always
// written, and any pin errors are joined.
func (s *TankSink) Send(c Command) error {
	left, right := Mix(c)
	errL := s.Left.Set(left, s.Freq)
	errR := s.Right.Set(right, s.Freq)
	if err := errors.Join(errL, errR); err != nil {
		return &SinkError{Sink: "gpio", Command: c, Err: err}
	}
	return nil
}
