// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package waypoint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/rover_nav/internal/geo"
)

// Route is the YAML route file layout:
//
//	waypoints:
//	  - {lat: 37.9667, lng: -122.0707}
//	  - {lat: 37.9670, lng: -122.0702}
type Route struct {
	Waypoints []geo.Coordinate `yaml:"waypoints"`
}

// routeRow is one line of a CSV route file with a "lat,lng" header.
type routeRow struct {
	Lat float64 `csv:"lat"`
	Lng float64 `csv:"lng"`
}

// LoadRoute reads a route file. The format is picked from the extension:
// .csv, or .yaml/.yml.
func LoadRoute(path string) ([]geo.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("unsupported route file extension %q", filepath.Ext(path))
	}
}

// ParseCSV reads waypoints from CSV with "lat" and "lng" columns.
func ParseCSV(r io.Reader) ([]geo.Coordinate, error) {
	var rows []routeRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("route csv: %w", err)
	}
	wps := make([]geo.Coordinate, 0, len(rows))
	for i, row := range rows {
		wp, err := geo.NewCoordinate(row.Lat, row.Lng)
		if err != nil {
			return nil, fmt.Errorf("route csv row %d: %w", i+1, err)
		}
		wps = append(wps, wp)
	}
	return wps, nil
}

// ParseYAML reads waypoints from a YAML route document.
func ParseYAML(r io.Reader) ([]geo.Coordinate, error) {
	var route Route
	if err := yaml.NewDecoder(r).Decode(&route); err != nil {
		return nil, fmt.Errorf("route yaml: %w", err)
	}
	for i, wp := range route.Waypoints {
		if err := wp.Validate(); err != nil {
			return nil, fmt.Errorf("route yaml waypoint %d: %w", i, err)
		}
	}
	return route.Waypoints, nil
}
