// Package orientation turns raw IMU readings into the rover's heading and
// attitude.
package orientation

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/rover_nav/internal/geo"
)

// ErrInvalidOrientation is returned for samples with non-finite angles.
var ErrInvalidOrientation = errors.New("invalid orientation")

// Orientation is one IMU sample in degrees. Heading is the compass heading
// in [0, 360) that the navigator steers on.
type Orientation struct {
	Heading float64 `json:"heading"`
	Yaw     float64 `json:"yaw"`
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
}

// Validate reports whether every angle is a finite number.
func (o Orientation) Validate() error {
	for _, v := range [...]struct {
		name  string
		value float64
	}{
		{"heading", o.Heading},
		{"yaw", o.Yaw},
		{"pitch", o.Pitch},
		{"roll", o.Roll},
	} {
		if !geo.Finite(v.value) {
			return fmt.Errorf("%w: %s %v", ErrInvalidOrientation, v.name, v.value)
		}
	}
	return nil
}

// Source is anything that can provide orientation samples over time.
type Source interface {
	Next() (Orientation, error)
}

// Vector is a three-axis sensor reading.
type Vector struct {
	X, Y, Z float64
}

// HeadingFromMag computes the compass heading from the horizontal
// magnetometer axes, corrected by the local magnetic declination.
// A reading straight down the negative Y axis is taken as 90°.
func HeadingFromMag(mx, my, declination float64) float64 {
	var rad float64
	if mx == 0 && my < 0 {
		rad = math.Pi / 2
	} else {
		rad = math.Atan2(my, mx)
	}
	return geo.Normalize(rad*180/math.Pi - declination)
}

// Tilt computes roll and pitch in degrees from accelerometer data only.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(ax, sqrt(ay² + az²))
func Tilt(accel Vector) (roll, pitch float64) {
	roll = math.Atan2(accel.Y, accel.Z) * 180 / math.Pi
	pitch = math.Atan2(accel.X, math.Sqrt(accel.Y*accel.Y+accel.Z*accel.Z)) * 180 / math.Pi
	return roll, pitch
}

// FromIMU combines one accelerometer, gyroscope and magnetometer reading.
// Yaw is the raw gyro Z rate, used downstream to correct drift.
func FromIMU(accel, gyro, mag Vector, declination float64) Orientation {
	roll, pitch := Tilt(accel)
	return Orientation{
		Heading: HeadingFromMag(mag.X, mag.Y, declination),
		Yaw:     gyro.Z,
		Pitch:   pitch,
		Roll:    roll,
	}
}
