// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nav orchestrates waypoint-by-waypoint navigation: it takes the
// front waypoint, computes the bearing from the live position, and drives
// the heading controller until the rover faces it.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/heading"
	"github.com/relabs-tech/rover_nav/internal/waypoint"
)

// ErrInvalidState is returned on API misuse, such as starting a session
// while one is running.
var ErrInvalidState = errors.New("invalid navigator state")

// DefaultArrivalEpsilon is the distance in degrees under which the rover
// is considered to already be at a waypoint.
const DefaultArrivalEpsilon = 1e-7

// Config tunes a Navigator.
type Config struct {
	Heading        heading.Config
	ArrivalEpsilon float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Heading:        heading.DefaultConfig(),
		ArrivalEpsilon: DefaultArrivalEpsilon,
	}
}

// Navigator owns the waypoint queue and the heading controller for one
// session at a time. It must be driven from a single goroutine; only
// Cancel may be called from elsewhere.
type Navigator struct {
	cfg   Config
	queue *waypoint.Queue
	ctrl  *heading.Controller

	pos  PositionSource
	hdg  HeadingSource
	sink CommandSink

	active    bool
	status    Status
	current   geo.Coordinate // waypoint the controller is aligning to
	waitTicks int
	cancel    atomic.Bool

	warn *rate.Limiter

	// OnArrive is called after the rover is aligned with a waypoint and it
	// has been removed from the queue. heading is NaN when the rover was
	// already on the waypoint before any orientation sample arrived.
	OnArrive func(wp geo.Coordinate, heading float64)
}

// New creates an idle navigator with an empty queue.
func New(cfg Config) *Navigator {
	if cfg.ArrivalEpsilon <= 0 {
		cfg.ArrivalEpsilon = DefaultArrivalEpsilon
	}
	ctrl := heading.NewController(cfg.Heading)
	cfg.Heading = ctrl.Config()
	return &Navigator{
		cfg:   cfg,
		queue: &waypoint.Queue{},
		ctrl:  ctrl,
		warn:  rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// EnqueueWaypoints appends wps to the queue, optionally clearing it first.
// Invalid coordinates are skipped; the count of stored waypoints is returned
// together with the joined validation errors.
func (n *Navigator) EnqueueWaypoints(wps []geo.Coordinate, clearExisting bool) (int, error) {
	if clearExisting {
		n.queue.Clear()
	}
	var errs []error
	added := 0
	for i, wp := range wps {
		if err := n.queue.Append(wp); err != nil {
			errs = append(errs, fmt.Errorf("waypoint %d: %w", i, err))
			continue
		}
		added++
	}
	n.status.Remaining = n.queue.Len()
	return added, errors.Join(errs...)
}

// Waypoints returns a copy of the queued waypoints.
func (n *Navigator) Waypoints() []geo.Coordinate {
	return n.queue.Snapshot()
}

// Active reports whether a session is running.
func (n *Navigator) Active() bool {
	return n.active
}

// Status returns the latest status snapshot.
func (n *Navigator) Status() Status {
	s := n.status
	s.Remaining = n.queue.Len()
	s.Active = n.active
	return s
}

// Start begins a session. An empty queue completes the session at once
// with target heading 0 and no drive command.
func (n *Navigator) Start(pos PositionSource, hdg HeadingSource, sink CommandSink) error {
	if n.active {
		return fmt.Errorf("%w: session already active", ErrInvalidState)
	}
	if pos == nil || hdg == nil || sink == nil {
		return fmt.Errorf("%w: nil position source, heading source or sink", ErrInvalidState)
	}

	n.pos, n.hdg, n.sink = pos, hdg, sink
	n.cancel.Store(false)
	n.waitTicks = 0
	n.status = Status{Phase: PhaseIdle}

	if n.queue.Len() == 0 {
		log.Println("nav: no waypoints queued")
		n.status.Phase = PhaseCompleted
		return nil
	}

	n.active = true
	log.Printf("nav: session started with %d waypoints", n.queue.Len())
	return nil
}

// Cancel asks the running session to stop. The request is observed at the
// top of the next tick. Safe to call from any goroutine.
func (n *Navigator) Cancel() {
	n.cancel.Store(true)
}

// Stop ends the running session immediately, emitting a stop command.
func (n *Navigator) Stop() Status {
	if !n.active {
		return n.Status()
	}
	n.cancel.Store(false)
	n.abort(PhaseCancelled, n.ctrl.Cancel())
	return n.Status()
}

// Run ticks the session on every value from ticks until it ends or ctx is
// done. Cancelling ctx stops the session.
func (n *Navigator) Run(ctx context.Context, ticks <-chan time.Time) Status {
	for n.active {
		select {
		case <-ctx.Done():
			return n.Stop()
		case now := <-ticks:
			n.Tick(now)
		}
	}
	return n.Status()
}

// Tick runs one control step of the session at time now.
func (n *Navigator) Tick(now time.Time) Status {
	if !n.active {
		return n.Status()
	}

	if n.cancel.Swap(false) {
		log.Println("nav: session cancelled")
		n.abort(PhaseCancelled, n.ctrl.Cancel())
		return n.Status()
	}

	if n.queue.Len() == 0 {
		if step := n.ctrl.Cancel(); step.Command != nil {
			n.send(*step.Command)
		}
		n.finish(PhaseCompleted)
		return n.Status()
	}

	pos := n.pos.Current()
	posErr := pos.Validate()
	if posErr != nil {
		n.warnf("nav: ignoring position: %v", posErr)
	}

	if posErr == nil {
		wp, ok := n.skipReached(pos)
		if !ok {
			if step := n.ctrl.Cancel(); step.Command != nil {
				n.send(*step.Command)
			}
			n.finish(PhaseCompleted)
			return n.Status()
		}

		target := geo.Bearing(pos, wp)
		if n.ctrl.State() == heading.Aligning && wp != n.current {
			// The queue front changed under us; realign to the new one.
			n.ctrl.Cancel()
		}
		if n.ctrl.State() == heading.Idle {
			if err := n.ctrl.Begin(target); err != nil {
				n.warnf("nav: begin alignment: %v", err)
				return n.Status()
			}
			n.current = wp
			n.waitTicks = 0
			log.Printf("nav: aligning to %s, bearing %.1f°", wp, target)
		} else if err := n.ctrl.Retarget(target); err != nil {
			n.warnf("nav: retarget: %v", err)
		}
		n.status.Phase = PhaseAligning
		n.status.TargetHeading = n.ctrl.Target()
		cur := n.current
		n.status.Waypoint = &cur
	}

	if n.ctrl.State() != heading.Aligning {
		// No usable position yet and nothing to align to.
		n.waitTicks++
		if n.waitTicks >= n.cfg.Heading.MaxTicks {
			log.Printf("nav: no valid position after %d ticks", n.waitTicks)
			n.send(drive.Stop)
			n.finish(PhaseTimedOut)
		}
		return n.Status()
	}

	h := n.hdg.Current()
	step, err := n.ctrl.Tick(now, h)
	if err != nil {
		n.warnf("nav: ignoring heading: %v", err)
	}
	if step.Command != nil {
		n.send(*step.Command)
	}

	switch step.State {
	case heading.Settled:
		n.arrive(h)
	case heading.Aborted:
		log.Printf("nav: alignment to %s aborted after %d ticks: %v", n.current, n.ctrl.Ticks(), step.Err)
		phase := PhaseTimedOut
		if errors.Is(step.Err, heading.ErrCancelled) {
			phase = PhaseCancelled
		}
		n.finish(phase)
	}
	return n.Status()
}

// skipReached drops waypoints the rover is already standing on and returns
// the first one that still needs a bearing.
func (n *Navigator) skipReached(pos geo.Coordinate) (geo.Coordinate, bool) {
	for {
		wp, ok := n.queue.Peek(0)
		if !ok {
			return geo.Coordinate{}, false
		}
		if !geo.Coincident(pos, wp, n.cfg.ArrivalEpsilon) {
			return wp, true
		}
		n.queue.PopFront()
		n.status.Reached++
		log.Printf("nav: already at waypoint %s", wp)
		if n.OnArrive != nil {
			n.OnArrive(wp, n.hdg.Current())
		}
	}
}

func (n *Navigator) arrive(h float64) {
	wp := n.current
	if front, ok := n.queue.Peek(0); ok && front == wp {
		n.queue.PopFront()
	}
	n.status.Reached++
	log.Printf("nav: aligned with waypoint %s at heading %.1f°", wp, h)
	if n.OnArrive != nil {
		n.OnArrive(wp, h)
	}

	if n.queue.Len() == 0 {
		n.finish(PhaseCompleted)
		return
	}
	n.status.Phase = PhaseIdle
	n.status.Waypoint = nil
}

func (n *Navigator) abort(phase Phase, step heading.Step) {
	stop := drive.Stop
	if step.Command != nil {
		stop = *step.Command
	}
	n.send(stop)
	n.finish(phase)
}

func (n *Navigator) finish(phase Phase) {
	n.active = false
	n.status.Phase = phase
	if phase == PhaseCompleted {
		n.status.Waypoint = nil
	}
	log.Printf("nav: session ended: %s", phase)
}

func (n *Navigator) send(c drive.Command) {
	if err := n.sink.Send(c); err != nil {
		n.warnf("nav: drive command dropped: %v", err)
	}
}

func (n *Navigator) warnf(format string, args ...any) {
	if n.warn.Allow() {
		log.Printf(format, args...)
	}
}
