package gps

import (
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Assembler accumulates NMEA sentences into a Fix. RMC and GGA carry the
// position; GSA only refreshes the dilution values.
type Assembler struct {
	current Fix
}

// Current returns the fix assembled so far.
func (a *Assembler) Current() Fix {
	return a.current
}

// ParseLine parses one raw NMEA line and folds it in. It returns the
// updated fix and true when the sentence carried a new position.
// Non-sentence lines and parse errors are ignored.
func (a *Assembler) ParseLine(line string) (Fix, bool) {
	line = strings.TrimSpace(line)
	// NMEA sentences usually start with '$'
	if !strings.HasPrefix(line, "$") {
		return a.current, false
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		return a.current, false
	}
	return a.Apply(sentence)
}

// Apply folds a parsed sentence into the fix.
func (a *Assembler) Apply(sentence nmea.Sentence) (Fix, bool) {
	switch m := sentence.(type) {
	case nmea.RMC:
		a.current.Time = m.Time.String()
		a.current.Date = m.Date.String()
		a.current.Latitude = m.Latitude
		a.current.Longitude = m.Longitude
		a.current.SpeedKnots = m.Speed
		a.current.CourseDeg = m.Course
		a.current.Validity = string(m.Validity)
		return a.current, true

	case nmea.GGA:
		a.current.Time = m.Time.String()
		a.current.Latitude = m.Latitude
		a.current.Longitude = m.Longitude
		a.current.HDOP = floatPtr(m.HDOP)
		if q, err := strconv.Atoi(m.FixQuality); err == nil {
			a.current.FixQuality = &q
		}
		sats := int(m.NumSatellites)
		a.current.Satellites = &sats
		return a.current, true

	case nmea.GSA:
		a.current.PDOP = floatPtr(m.PDOP)
		a.current.HDOP = floatPtr(m.HDOP)
		a.current.VDOP = floatPtr(m.VDOP)
		return a.current, false

	default:
		// other sentence types (GSV, VTG, ...) are ignored
		return a.current, false
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
