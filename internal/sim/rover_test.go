package sim

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/heading"
	"github.com/relabs-tech/rover_nav/internal/orientation"
)

var _ orientation.Source = (*Rover)(nil)

func TestRover_Turn(t *testing.T) {
	r := New(Config{TurnSpeed: 90}, geo.Coordinate{}, 350)

	r.Send(drive.Command{Turn: 100})
	r.Step(200 * time.Millisecond)
	if got := r.Heading(); !scalar.EqualWithinAbs(got, 8, 1e-9) {
		t.Errorf("heading after clockwise turn = %v, want 8", got)
	}

	r.Send(drive.Command{Turn: -50})
	r.Step(time.Second)
	if got := r.Heading(); !scalar.EqualWithinAbs(got, 323, 1e-9) {
		t.Errorf("heading after counterclockwise turn = %v, want 323", got)
	}

	r.Send(drive.Stop)
	r.Step(time.Hour)
	if got := r.Heading(); !scalar.EqualWithinAbs(got, 323, 1e-9) {
		t.Errorf("heading drifted while stopped: %v", got)
	}
}

func TestRover_DrivesAlongBearing(t *testing.T) {
	start := geo.Coordinate{Lat: 10, Lng: 20}
	r := New(Config{DriveSpeed: 1}, start, 90)

	r.Send(drive.Command{Forward: 100})
	r.Step(time.Second)

	got := r.Position()
	if !scalar.EqualWithinAbs(got.Lat, 11, 1e-9) || !scalar.EqualWithinAbs(got.Lng, 20, 1e-9) {
		t.Errorf("position = %v, want (11, 20)", got)
	}
	if b := geo.Bearing(start, got); !scalar.EqualWithinAbs(b, 90, 1e-9) {
		t.Errorf("moved along bearing %v, want 90", b)
	}
}

func TestRover_FixAndOrientation(t *testing.T) {
	r := New(DefaultConfig(), geo.Coordinate{Lat: 1, Lng: 2}, 45)
	fix := r.Fix(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	if !fix.HasPosition() || fix.Coordinate() != (geo.Coordinate{Lat: 1, Lng: 2}) {
		t.Errorf("fix = %+v", fix)
	}
	if fix.Time != "05:06:07" || fix.Date != "04/03/26" {
		t.Errorf("fix time/date = %q %q", fix.Time, fix.Date)
	}

	o, err := r.Next()
	if err != nil || !scalar.EqualWithinAbs(o.Heading, 45, 1e-9) {
		t.Errorf("Next = %+v, %v", o, err)
	}
	if o.Roll != 0 || o.Pitch != 0 {
		t.Errorf("level rover reports roll %v pitch %v", o.Roll, o.Pitch)
	}
}

func TestRover_IMUWithDeclination(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Declination = 10
	r := New(cfg, geo.Coordinate{}, 355)
	r.Send(drive.Command{Turn: -50})

	accel, gyro, mag := r.IMU()
	if accel.Z != gravity {
		t.Errorf("accel = %+v", accel)
	}
	if gyro.Z != -45 {
		t.Errorf("gyro z = %v, want -45", gyro.Z)
	}
	// The magnetometer reads the heading shifted by the declination.
	if raw := orientation.HeadingFromMag(mag.X, mag.Y, 0); !scalar.EqualWithinAbs(raw, 5, 1e-9) {
		t.Errorf("uncorrected magnetic heading = %v, want 5", raw)
	}

	o, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !scalar.EqualWithinAbs(o.Heading, 355, 1e-9) || o.Yaw != -45 {
		t.Errorf("Next = %+v, want heading 355 yaw -45", o)
	}
}

// The simulated rover closes the loop with the heading controller: every
// tick the controller's command is applied before the next heading is read.
func TestRover_ClosedLoopWithController(t *testing.T) {
	r := New(DefaultConfig(), geo.Coordinate{}, 90)
	c := heading.NewController(heading.DefaultConfig())
	if err := c.Begin(45); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		step, err := c.Tick(now, r.Heading())
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if step.Command != nil {
			r.Send(*step.Command)
		}
		if step.State == heading.Settled {
			if turn := geo.ShortestTurn(r.Heading(), 45); turn.Magnitude > heading.DefaultTolerance {
				t.Errorf("settled at %v", r.Heading())
			}
			return
		}
		r.Step(100 * time.Millisecond)
		now = now.Add(100 * time.Millisecond)
	}
	t.Fatalf("never settled, heading %v", r.Heading())
}
