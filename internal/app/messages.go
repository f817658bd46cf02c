package app

import (
	"time"

	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/nav"
)

// WaypointList is the payload of the waypoints topic and POST /api/waypoints.
// Clear empties the queue before the waypoints are appended.
type WaypointList struct {
	Waypoints []geo.Coordinate `json:"waypoints"`
	Clear     bool             `json:"clear"`
}

// NavCommand is the payload of the nav command topic.
type NavCommand struct {
	Action string `json:"action"` // start, cancel
}

// Arrival is published each time the rover is aligned with a waypoint.
// Heading is omitted when no orientation sample had been seen yet.
type Arrival struct {
	Waypoint geo.Coordinate `json:"waypoint"`
	Heading  *float64       `json:"heading,omitempty"`
	Time     time.Time      `json:"time"`
}

// StatusView is the navigator status together with the latest telemetry.
// The ages are how long ago each sample was received.
type StatusView struct {
	nav.Status
	Heading       *float64        `json:"heading,omitempty"`
	HeadingAgeMs  *int64          `json:"heading_age_ms,omitempty"`
	Position      *geo.Coordinate `json:"position,omitempty"`
	PositionAgeMs *int64          `json:"position_age_ms,omitempty"`
}

// WebSocket message types
type WSMessage struct {
	Action    string           `json:"action"` // start, cancel, waypoints
	Waypoints []geo.Coordinate `json:"waypoints,omitempty"`
	Clear     bool             `json:"clear,omitempty"`
}

type WSResponse struct {
	Type    string      `json:"type"` // status, arrival, ack, error
	Status  *StatusView `json:"status,omitempty"`
	Arrival *Arrival    `json:"arrival,omitempty"`
	Added   int         `json:"added,omitempty"`
	Message string      `json:"message,omitempty"`
}
