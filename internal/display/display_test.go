package display

import (
	"math"
	"strings"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/nav"
)

func litPixels(lines []string) int {
	img := Render(lines)
	n := 0
	for _, p := range img.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

func TestRender(t *testing.T) {
	img := Render(nil)
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Fatalf("bounds = %v", b)
	}
	if n := litPixels(nil); n != 0 {
		t.Errorf("blank panel has %d lit pixels", n)
	}

	one := litPixels([]string{"NAV idle"})
	if one == 0 {
		t.Fatal("text drew nothing")
	}
	if two := litPixels([]string{"NAV idle", "HDG 12.0"}); two <= one {
		t.Errorf("second line drew nothing: %d vs %d", two, one)
	}
}

func TestRender_DropsOverflow(t *testing.T) {
	lines := make([]string, MaxLines)
	for i := range lines {
		lines[i] = "XXXX"
	}
	full := litPixels(lines)
	if over := litPixels(append(lines, "XXXX", "XXXX")); over != full {
		t.Errorf("overflow lines drawn: %d vs %d lit pixels", over, full)
	}
}

func TestStatusLines(t *testing.T) {
	wp := geo.Coordinate{Lat: 1.5, Lng: -2.25}
	lines := StatusLines(nav.Status{
		Phase:         nav.PhaseAligning,
		TargetHeading: 45,
		Waypoint:      &wp,
		Remaining:     2,
		Reached:       1,
	}, 90)

	got := strings.Join(lines, "|")
	for _, want := range []string{"NAV aligning", "HDG  90.0", "TGT  45.0", "1.50000", "-2.25000", "WP 2 left 1 done"} {
		if !strings.Contains(got, want) {
			t.Errorf("lines %q missing %q", got, want)
		}
	}

	lines = StatusLines(nav.Status{Phase: nav.PhaseIdle}, math.NaN())
	if lines[1] != "HDG waiting..." {
		t.Errorf("NaN heading line = %q", lines[1])
	}
}

func TestFrame(t *testing.T) {
	lines := []string{"NAV aligning", "HDG  90.0"}
	gray := Render(lines)
	frame := Frame(lines)
	if frame.Bounds() != gray.Bounds() {
		t.Fatalf("bounds = %v, want %v", frame.Bounds(), gray.Bounds())
	}
	lit := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			on := frame.At(x, y) == image1bit.On
			if on != (gray.GrayAt(x, y).Y >= 0x80) {
				t.Fatalf("pixel (%d,%d) on=%v, gray %d", x, y, on, gray.GrayAt(x, y).Y)
			}
			if on {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("frame is blank")
	}
}
