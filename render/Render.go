// Package render draws evaluation trajectories of goal-reaching
// environments on the unit square
package render

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

// Trajectory is a sequence of observations visited in an episode
// together with the goal of the episode. Observations of dimension 1
// are drawn on the horizontal centre line.
type Trajectory struct {
	Observations [][]float64
	Goal         []float64
	Success      bool
}

var (
	background = color.RGBA{0xf5, 0xf5, 0xf0, 0xff}
	border     = color.RGBA{0x33, 0x33, 0x33, 0xff}
	success    = color.RGBA{0x2c, 0x7f, 0xb8, 0xff}
	failure    = color.RGBA{0xd9, 0x5f, 0x0e, 0xff}
	goal       = color.RGBA{0x31, 0xa3, 0x54, 0xff}
)

// Canvas draws trajectories on a square image
type Canvas struct {
	size   int
	margin float64
	dc     *gg.Context
}

// NewCanvas returns a new Canvas of size × size pixels
func NewCanvas(size int) (*Canvas, error) {
	if size < 16 {
		return nil, fmt.Errorf("newCanvas: canvas too small\n\twant(>=16)"+
			"\n\thave(%v)", size)
	}

	c := &Canvas{size: size, margin: float64(size) / 20}
	c.Clear()
	return c, nil
}

// Clear erases all trajectories drawn on the Canvas
func (c *Canvas) Clear() {
	c.dc = gg.NewContext(c.size, c.size)
	c.dc.SetColor(background)
	c.dc.Clear()

	side := float64(c.size) - 2*c.margin
	c.dc.DrawRectangle(c.margin, c.margin, side, side)
	c.dc.SetColor(border)
	c.dc.SetLineWidth(2.0)
	c.dc.Stroke()
}

// pixel returns the pixel coordinates of a point of the unit square.
// The y axis points up.
func (c *Canvas) pixel(point []float64) (float64, float64) {
	x, y := point[0], 0.5
	if len(point) > 1 {
		y = point[1]
	}
	side := float64(c.size) - 2*c.margin
	return c.margin + x*side, c.margin + (1-y)*side
}

// Draw draws a trajectory on the Canvas
func (c *Canvas) Draw(t Trajectory) {
	if len(t.Goal) > 0 {
		gx, gy := c.pixel(t.Goal)
		c.dc.DrawCircle(gx, gy, c.margin/2)
		c.dc.SetColor(goal)
		c.dc.Fill()
	}

	if len(t.Observations) == 0 {
		return
	}

	c.dc.ClearPath()
	for _, obs := range t.Observations {
		x, y := c.pixel(obs)
		c.dc.LineTo(x, y)
	}
	if t.Success {
		c.dc.SetColor(success)
	} else {
		c.dc.SetColor(failure)
	}
	c.dc.SetLineWidth(1.5)
	c.dc.Stroke()

	sx, sy := c.pixel(t.Observations[0])
	c.dc.DrawCircle(sx, sy, c.margin/4)
	c.dc.Fill()
}

// SavePNG saves the Canvas to a PNG file
func (c *Canvas) SavePNG(filename string) error {
	return c.dc.SavePNG(filename)
}

// Trajectories draws all trajectories on a new Canvas of size × size
// pixels and saves it to filename
func Trajectories(filename string, size int, ts []Trajectory) error {
	c, err := NewCanvas(size)
	if err != nil {
		return fmt.Errorf("trajectories: %v", err)
	}
	for _, t := range ts {
		c.Draw(t)
	}
	if err := c.SavePNG(filename); err != nil {
		return fmt.Errorf("trajectories: could not save %v: %v", filename,
			err)
	}
	return nil
}
