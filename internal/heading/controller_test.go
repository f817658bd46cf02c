package heading

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func tick(i int) time.Time {
	return t0.Add(time.Duration(i) * 100 * time.Millisecond)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name            string
		current, target float64
		state           State
		turn            float64
	}{
		{"on target", 45, 45, Settled, 0},
		{"inside tolerance", 40, 45, Settled, 0},
		{"edge of tolerance", 38.5, 45, Settled, 0},
		{"clockwise", 0, 90, Aligning, 15},
		{"counterclockwise", 90, 45, Aligning, -15},
		{"wraps clockwise", 350, 20, Aligning, 15},
		{"tie goes clockwise", 0, 180, Aligning, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, cmd, _ := Evaluate(tt.current, tt.target, DefaultTolerance, DefaultTurnRate)
			if state != tt.state {
				t.Errorf("state = %v, want %v", state, tt.state)
			}
			if cmd.Turn != tt.turn || cmd.Forward != 0 {
				t.Errorf("command = %v, want turn %v", cmd, tt.turn)
			}
		})
	}
}

func TestController_SettlesImmediatelyOnTarget(t *testing.T) {
	c := NewController(DefaultConfig())
	if err := c.Begin(123); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	step, err := c.Tick(tick(0), 123)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if step.State != Settled {
		t.Fatalf("state = %v, want Settled", step.State)
	}
	if step.Command == nil || !step.Command.IsStop() {
		t.Errorf("command = %v, want stop", step.Command)
	}
	if c.State() != Idle {
		t.Errorf("controller state = %v after settling, want Idle", c.State())
	}
}

func TestController_AlignsCounterClockwise(t *testing.T) {
	// Target 45°, heading starts at 90° and moves 5° per tick toward it.
	c := NewController(DefaultConfig())
	if err := c.Begin(45); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	heading := 90.0
	var last Step
	for i := 0; i < 20; i++ {
		step, err := c.Tick(tick(i), heading)
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		last = step
		if step.State == Settled {
			break
		}
		if step.Command.Turn != -DefaultTurnRate {
			t.Fatalf("tick %d: command %v, want counterclockwise turn", i, step.Command)
		}
		if step.Turn.Direction != geo.CounterClockwise {
			t.Fatalf("tick %d: direction %v", i, step.Turn.Direction)
		}
		heading -= 5
	}

	if last.State != Settled {
		t.Fatalf("never settled, last heading %v", heading)
	}
	if math.Abs(heading-45) > DefaultTolerance {
		t.Errorf("settled at %v, outside tolerance of 45", heading)
	}
	if !last.Command.IsStop() {
		t.Errorf("settling command = %v, want stop", last.Command)
	}
}

func TestController_TickBudget(t *testing.T) {
	c := NewController(Config{MaxTicks: 5})
	if err := c.Begin(180); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	var step Step
	var err error
	for i := 0; i < 5; i++ {
		step, err = c.Tick(tick(i), 0)
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		if step.State != Aligning {
			t.Fatalf("tick %d: state %v, want Aligning", i, step.State)
		}
	}

	step, err = c.Tick(tick(5), 0)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if step.State != Aborted || !errors.Is(step.Err, ErrTimeout) {
		t.Fatalf("step = %+v, want Aborted with ErrTimeout", step)
	}
	if step.Command == nil || !step.Command.IsStop() {
		t.Errorf("abort command = %v, want stop", step.Command)
	}
	if c.State() != Idle {
		t.Errorf("controller state = %v, want Idle", c.State())
	}
}

func TestController_WallClockBudget(t *testing.T) {
	c := NewController(Config{MaxTicks: 1000, Timeout: time.Second})
	if err := c.Begin(180); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if step, _ := c.Tick(t0, 0); step.State != Aligning {
		t.Fatalf("first tick state = %v", step.State)
	}
	if step, _ := c.Tick(t0.Add(time.Second), 0); step.State != Aligning {
		t.Fatalf("tick at budget state = %v", step.State)
	}
	step, _ := c.Tick(t0.Add(1500*time.Millisecond), 0)
	if step.State != Aborted || !errors.Is(step.Err, ErrTimeout) {
		t.Errorf("step = %+v, want timeout abort", step)
	}
}

func TestController_Cancel(t *testing.T) {
	c := NewController(DefaultConfig())

	if step := c.Cancel(); step.State != Idle || step.Command != nil {
		t.Errorf("Cancel on idle = %+v, want no-op", step)
	}

	if err := c.Begin(90); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	step := c.Cancel()
	if step.State != Aborted || !errors.Is(step.Err, ErrCancelled) {
		t.Errorf("Cancel = %+v, want Aborted/ErrCancelled", step)
	}
	if step.Command == nil || *step.Command != drive.Stop {
		t.Errorf("Cancel command = %v, want stop", step.Command)
	}
	if c.State() != Idle {
		t.Errorf("state after cancel = %v", c.State())
	}
}

func TestController_RejectsInvalidInput(t *testing.T) {
	c := NewController(Config{MaxTicks: 3})

	if err := c.Begin(math.NaN()); !errors.Is(err, ErrInvalidHeading) {
		t.Errorf("Begin(NaN) = %v, want ErrInvalidHeading", err)
	}
	if c.State() != Idle {
		t.Fatalf("state after rejected Begin = %v", c.State())
	}

	if err := c.Begin(10); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := c.Begin(20); !errors.Is(err, ErrBusy) {
		t.Errorf("second Begin = %v, want ErrBusy", err)
	}

	for i := 0; i < 3; i++ {
		step, err := c.Tick(tick(i), math.Inf(1))
		if !errors.Is(err, ErrInvalidHeading) {
			t.Fatalf("Tick(Inf) err = %v", err)
		}
		if step.Command != nil {
			t.Errorf("Tick(Inf) emitted %v", step.Command)
		}
	}
	step, _ := c.Tick(tick(3), math.Inf(1))
	if step.State != Aborted {
		t.Errorf("garbage headings never timed out: %+v", step)
	}
}

func TestController_Correction(t *testing.T) {
	c := NewController(Config{Correction: -10})
	if err := c.Begin(80); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	// Raw 90° corrected to 80° is on target.
	step, err := c.Tick(tick(0), 90)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if step.State != Settled {
		t.Errorf("state = %v, want Settled with correction applied", step.State)
	}
}

func TestController_Retarget(t *testing.T) {
	c := NewController(DefaultConfig())
	if err := c.Begin(0); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := c.Retarget(-90); err != nil {
		t.Fatalf("Retarget: %v", err)
	}
	if c.Target() != 270 {
		t.Errorf("Target = %v, want 270", c.Target())
	}
	if err := c.Retarget(math.NaN()); !errors.Is(err, ErrInvalidHeading) {
		t.Errorf("Retarget(NaN) = %v", err)
	}
}
