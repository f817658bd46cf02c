package orientation

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const tol = 1e-9

func TestHeadingFromMag(t *testing.T) {
	tests := []struct {
		name        string
		mx, my, dec float64
		want        float64
	}{
		{"east axis", 1, 0, 0, 0},
		{"positive y", 0, 1, 0, 90},
		{"negative y on axis", 0, -1, 0, 90},
		{"negative y off axis", 1, -1, 0, 315},
		{"negative x", -1, 0, 0, 180},
		{"declination", 1, 1, 10, 35},
		{"declination wraps", 1, 0, 10, 350},
		{"negative declination", 1, 0, -15, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeadingFromMag(tt.mx, tt.my, tt.dec)
			if !scalar.EqualWithinAbs(got, tt.want, tol) {
				t.Errorf("HeadingFromMag(%v, %v, %v) = %v, want %v", tt.mx, tt.my, tt.dec, got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Errorf("heading %v out of [0, 360)", got)
			}
		})
	}
}

func TestTilt(t *testing.T) {
	roll, pitch := Tilt(Vector{Z: 1})
	if roll != 0 || pitch != 0 {
		t.Errorf("level: roll %v pitch %v", roll, pitch)
	}

	roll, _ = Tilt(Vector{Y: 1, Z: 1})
	if !scalar.EqualWithinAbs(roll, 45, tol) {
		t.Errorf("roll = %v, want 45", roll)
	}

	_, pitch = Tilt(Vector{X: 1, Z: 1})
	if !scalar.EqualWithinAbs(pitch, 45, tol) {
		t.Errorf("pitch = %v, want 45", pitch)
	}
}

func TestFromIMU(t *testing.T) {
	o := FromIMU(Vector{Z: 9.81}, Vector{Z: 3.5}, Vector{X: 0, Y: 2}, 0)
	if o.Yaw != 3.5 {
		t.Errorf("yaw = %v, want gyro z", o.Yaw)
	}
	if !scalar.EqualWithinAbs(o.Heading, 90, tol) {
		t.Errorf("heading = %v, want 90", o.Heading)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := []Orientation{
		{Heading: math.NaN()},
		{Pitch: math.Inf(-1)},
		{Roll: math.NaN()},
	}
	for _, o := range bad {
		if err := o.Validate(); !errors.Is(err, ErrInvalidOrientation) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidOrientation", o, err)
		}
	}
}
