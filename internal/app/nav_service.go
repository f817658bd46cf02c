// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/nav"
	"github.com/relabs-tech/rover_nav/internal/telemetry"
)

var errServiceStopped = errors.New("navigator service stopped")

// navRequest is work for the control goroutine. done is closed once fn
// has run and the resulting status is published.
type navRequest struct {
	fn   func(*nav.Navigator)
	done chan struct{}
}

// navService owns one Navigator on a single control goroutine (run).
// Transport handlers hand work to that goroutine through reqs and read
// status from an atomic cell, so the navigator itself is never shared.
type navService struct {
	nav  *nav.Navigator
	sink nav.CommandSink

	pos *telemetry.Position
	hdg *telemetry.Orientation

	reqs chan navRequest
	done chan struct{}

	status    telemetry.Cell[nav.Status]
	last      nav.Status
	published bool

	hub  *hub
	warn *rate.Limiter

	// publish sends v as JSON to an MQTT topic. Nil disables MQTT output.
	publish      func(topic string, v any)
	statusTopic  string
	arrivalTopic string
}

func newNavService(n *nav.Navigator, sink nav.CommandSink) *navService {
	s := &navService{
		nav:  n,
		sink: sink,
		pos:  &telemetry.Position{},
		hdg:  &telemetry.Orientation{},
		reqs: make(chan navRequest),
		done: make(chan struct{}),
		hub:  newHub(),
		warn: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	n.OnArrive = s.onArrive
	s.status.Store(n.Status(), time.Now())
	return s
}

// run is the control loop. It returns after ctx is done, stopping any
// running session first.
func (s *navService) run(ctx context.Context, ticks <-chan time.Time) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			if s.nav.Active() {
				log.Println("navigator: stopping session")
			}
			s.nav.Stop()
			s.publishStatus(time.Now())
			return
		case req := <-s.reqs:
			req.fn(s.nav)
			s.publishStatus(time.Now())
			close(req.done)
		case now := <-ticks:
			s.nav.Tick(now)
			s.publishStatus(now)
		}
	}
}

// do runs fn on the control goroutine and waits for it to finish.
func (s *navService) do(ctx context.Context, fn func(*nav.Navigator)) error {
	req := navRequest{fn: fn, done: make(chan struct{})}
	select {
	case s.reqs <- req:
	case <-s.done:
		return errServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

func (s *navService) start(ctx context.Context) error {
	var err error
	if derr := s.do(ctx, func(n *nav.Navigator) {
		err = n.Start(s.pos, s.hdg, s.sink)
	}); derr != nil {
		return derr
	}
	return err
}

// cancel does not go through the control goroutine; the navigator
// observes the request at the top of its next tick.
func (s *navService) cancel() {
	s.nav.Cancel()
}

func (s *navService) enqueue(ctx context.Context, list WaypointList) (int, error) {
	var (
		added int
		err   error
	)
	if derr := s.do(ctx, func(n *nav.Navigator) {
		added, err = n.EnqueueWaypoints(list.Waypoints, list.Clear)
	}); derr != nil {
		return 0, derr
	}
	if added > 0 || list.Clear {
		log.Printf("navigator: queued %d waypoints (clear=%v)", added, list.Clear)
	}
	return added, err
}

func (s *navService) waypoints(ctx context.Context) ([]geo.Coordinate, error) {
	var wps []geo.Coordinate
	if err := s.do(ctx, func(n *nav.Navigator) {
		wps = n.Waypoints()
	}); err != nil {
		return nil, err
	}
	return wps, nil
}

// command runs a start/cancel action from any transport.
func (s *navService) command(ctx context.Context, action string) error {
	switch action {
	case "start":
		return s.start(ctx)
	case "cancel":
		s.cancel()
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// view returns the latest status with the latest telemetry and its age.
func (s *navService) view() StatusView {
	now := time.Now()
	st, _, _ := s.status.Load()
	v := StatusView{Status: st}
	if h := s.hdg.Current(); geo.Finite(h) {
		age := s.hdg.Age(now).Milliseconds()
		v.Heading, v.HeadingAgeMs = &h, &age
	}
	if p := s.pos.Current(); p.Validate() == nil {
		age := s.pos.Age(now).Milliseconds()
		v.Position, v.PositionAgeMs = &p, &age
	}
	return v
}

// publishStatus stores the status for readers and sends it out when it
// changed. Only called from run.
func (s *navService) publishStatus(now time.Time) {
	st := s.nav.Status()
	s.status.Store(st, now)
	if s.published && sameStatus(st, s.last) {
		return
	}
	if st.Phase.Terminal() && st.Phase != s.last.Phase {
		log.Printf("navigator: session %s", st)
	}
	s.last = st
	s.published = true

	if s.publish != nil {
		s.publish(s.statusTopic, st)
	}
	v := s.view()
	s.hub.broadcast(WSResponse{Type: "status", Status: &v})
}

func (s *navService) onArrive(wp geo.Coordinate, heading float64) {
	a := Arrival{Waypoint: wp, Time: time.Now()}
	if geo.Finite(heading) {
		a.Heading = &heading
	}
	if s.publish != nil {
		s.publish(s.arrivalTopic, a)
	}
	s.hub.broadcast(WSResponse{Type: "arrival", Arrival: &a})
}

// warnf logs telemetry problems at most once every few seconds.
func (s *navService) warnf(format string, args ...any) {
	if s.warn.Allow() {
		log.Printf(format, args...)
	}
}

func sameStatus(a, b nav.Status) bool {
	if (a.Waypoint == nil) != (b.Waypoint == nil) {
		return false
	}
	if a.Waypoint != nil && *a.Waypoint != *b.Waypoint {
		return false
	}
	a.Waypoint, b.Waypoint = nil, nil
	return a == b
}
