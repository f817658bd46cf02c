// Package display renders navigation status as text on a small
// monochrome panel, sized like the 128x64 SSD1306 OLED.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/rover_nav/internal/nav"
)

const (
	Width      = 128
	Height     = 64
	lineHeight = 13
)

// MaxLines is how many text lines fit on the panel.
const MaxLines = Height / lineHeight

// Render draws lines top to bottom in white on black. Lines past MaxLines
// are dropped.
func Render(lines []string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if i >= MaxLines {
			break
		}
		drawer.Dot = fixed.P(0, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return img
}

// Frame renders lines in the SSD1306's native 1-bit page layout.
func Frame(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), Render(lines), image.Point{}, draw.Src)
	return img
}

// StatusLines formats a navigator status and the latest heading for the
// panel. A NaN heading shows as waiting.
func StatusLines(s nav.Status, heading float64) []string {
	lines := []string{fmt.Sprintf("NAV %s", s.Phase)}

	if math.IsNaN(heading) {
		lines = append(lines, "HDG waiting...")
	} else {
		lines = append(lines, fmt.Sprintf("HDG %5.1f", heading))
	}

	if s.Phase == nav.PhaseAligning {
		lines = append(lines, fmt.Sprintf("TGT %5.1f", s.TargetHeading))
	}
	if s.Waypoint != nil {
		lines = append(lines, fmt.Sprintf("%.5f", s.Waypoint.Lat), fmt.Sprintf("%.5f", s.Waypoint.Lng))
	}
	lines = append(lines, fmt.Sprintf("WP %d left %d done", s.Remaining, s.Reached))
	return lines
}
