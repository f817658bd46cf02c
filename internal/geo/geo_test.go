package geo

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const tol = 1e-9

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-720, 0},
		{359.5, 359.5},
		{-1e-15, 0},
	}

	for _, tt := range tests {
		got := Normalize(tt.in)
		if !scalar.EqualWithinAbs(got, tt.expected, tol) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.expected)
		}
		if got < 0 || got >= 360 {
			t.Errorf("Normalize(%v) = %v, out of [0, 360)", tt.in, got)
		}
	}
}

func TestBearing(t *testing.T) {
	origin := Coordinate{Lat: 0, Lng: 0}

	tests := []struct {
		name     string
		to       Coordinate
		expected float64
	}{
		{"along +lng", Coordinate{Lat: 0, Lng: 1}, 0},
		{"diagonal", Coordinate{Lat: 10, Lng: 10}, 45},
		{"along +lat", Coordinate{Lat: 1, Lng: 0}, 90},
		{"along -lng", Coordinate{Lat: 0, Lng: -1}, 180},
		{"along -lat", Coordinate{Lat: -1, Lng: 0}, 270},
		{"third quadrant", Coordinate{Lat: -1, Lng: -1}, 225},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if !scalar.EqualWithinAbs(got, tt.expected, tol) {
				t.Errorf("Bearing = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBearingSamePoint(t *testing.T) {
	points := []Coordinate{
		{0, 0},
		{37.96668393, -122.07071872},
		{-89.9, 179.9},
	}
	for _, p := range points {
		got := Bearing(p, p)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("Bearing(%v, %v) = %v, want finite", p, p, got)
		}
		if got != 0 {
			t.Errorf("Bearing(%v, %v) = %v, want 0", p, p, got)
		}
	}
}

func TestCoordinateValidate(t *testing.T) {
	valid := []Coordinate{{0, 0}, {51.5, -0.12}, {-90, 180}}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%v) = %v, want nil", c, err)
		}
	}

	invalid := []Coordinate{
		{math.NaN(), 0},
		{0, math.NaN()},
		{math.Inf(1), 0},
		{0, math.Inf(-1)},
	}
	for _, c := range invalid {
		err := c.Validate()
		if !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Validate(%v) = %v, want ErrInvalidCoordinate", c, err)
		}
	}

	if _, err := NewCoordinate(math.NaN(), 1); err == nil {
		t.Error("NewCoordinate accepted NaN latitude")
	}
}

func TestCoincident(t *testing.T) {
	a := Coordinate{Lat: 10, Lng: 20}
	if !Coincident(a, Coordinate{Lat: 10 + 1e-10, Lng: 20}, 1e-9) {
		t.Error("expected points within eps to be coincident")
	}
	if Coincident(a, Coordinate{Lat: 10.001, Lng: 20}, 1e-9) {
		t.Error("expected distant points not to be coincident")
	}
}
