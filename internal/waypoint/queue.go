// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package waypoint holds the ordered list of target coordinates the rover
// should visit, and loaders for route files.
package waypoint

import (
	"fmt"

	"github.com/relabs-tech/rover_nav/internal/geo"
)

// Queue is an ordered list of waypoints. It is FIFO by convention but
// supports indexed insert and removal. Not safe for concurrent use.
type Queue struct {
	items []geo.Coordinate
}

// NewQueue creates a queue holding the given waypoints in order.
// Invalid coordinates are rejected and the first error is returned
// alongside the queue holding the valid ones.
func NewQueue(wps ...geo.Coordinate) (*Queue, error) {
	q := &Queue{}
	var firstErr error
	for i, wp := range wps {
		if err := q.Append(wp); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	return q, firstErr
}

// Insert stores wp at index. An index outside [0, Len()) appends.
// Non-finite coordinates are rejected and never stored.
func (q *Queue) Insert(wp geo.Coordinate, index int) error {
	if err := wp.Validate(); err != nil {
		return err
	}
	if index < 0 || index >= len(q.items) {
		q.items = append(q.items, wp)
		return nil
	}
	q.items = append(q.items, geo.Coordinate{})
	copy(q.items[index+1:], q.items[index:])
	q.items[index] = wp
	return nil
}

// Append stores wp at the back of the queue.
func (q *Queue) Append(wp geo.Coordinate) error {
	return q.Insert(wp, -1)
}

// Pop removes and returns the waypoint at index. It returns false and
// leaves the queue untouched when index is out of range.
func (q *Queue) Pop(index int) (geo.Coordinate, bool) {
	if index < 0 || index >= len(q.items) {
		return geo.Coordinate{}, false
	}
	wp := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return wp, true
}

// PopFront removes and returns the first waypoint.
func (q *Queue) PopFront() (geo.Coordinate, bool) {
	return q.Pop(0)
}

// Peek returns the waypoint at index without removing it.
func (q *Queue) Peek(index int) (geo.Coordinate, bool) {
	if index < 0 || index >= len(q.items) {
		return geo.Coordinate{}, false
	}
	return q.items[index], true
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.items = q.items[:0]
}

// Len returns the number of queued waypoints.
func (q *Queue) Len() int {
	return len(q.items)
}

// Snapshot returns a copy of the queued waypoints in order.
func (q *Queue) Snapshot() []geo.Coordinate {
	out := make([]geo.Coordinate, len(q.items))
	copy(out, q.items)
	return out
}
