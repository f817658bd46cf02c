package gps

import "github.com/relabs-tech/rover_nav/internal/geo"

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
// Dilution and fix-quality fields are nil when the receiver has not
// reported them.
type Fix struct {
	Time       string  `json:"time,omitempty"`        // e.g. "12:34:56"
	Date       string  `json:"date,omitempty"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`                   // decimal degrees
	Longitude  float64 `json:"lng"`                   // decimal degrees
	SpeedKnots float64 `json:"speed_knots,omitempty"` // speed over ground
	CourseDeg  float64 `json:"course_deg,omitempty"`  // course over ground
	Validity   string  `json:"validity,omitempty"`    // "A" (valid) / "V" (void)

	HDOP       *float64 `json:"hdop,omitempty"`
	VDOP       *float64 `json:"vdop,omitempty"`
	PDOP       *float64 `json:"pdop,omitempty"`
	FixQuality *int     `json:"fix_quality,omitempty"` // GGA quality: 0 invalid, 1 GPS, 2 DGPS, ...
	Satellites *int     `json:"satellites,omitempty"`
}

// Coordinate returns the fix position.
func (f Fix) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: f.Latitude, Lng: f.Longitude}
}

// HasPosition reports whether the receiver claims a usable position.
func (f Fix) HasPosition() bool {
	if f.Validity == "V" {
		return false
	}
	if f.FixQuality != nil && *f.FixQuality == 0 {
		return false
	}
	return f.Coordinate().Validate() == nil
}
