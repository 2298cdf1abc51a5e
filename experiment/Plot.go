package experiment

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotScores saves the evaluation success rates and the loss of each
// epoch as a line plot to filename
func PlotScores(filename string, scores []Score) error {
	p := plot.New()

	p.Title.Text = "Learning Progress"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Value"

	curves := []struct {
		name  string
		value func(Score) float64
	}{
		{"Success", func(s Score) float64 { return s.EvalSuccess }},
		{"Success (GPI)", func(s Score) float64 { return s.GPISuccess }},
		{"Distance", func(s Score) float64 { return s.EvalDistance }},
		{"Loss", func(s Score) float64 { return s.Loss }},
	}

	for i, curve := range curves {
		// Epochs without updates have no loss
		pts := make(plotter.XYs, 0, len(scores))
		for _, s := range scores {
			if y := curve.value(s); !math.IsNaN(y) && !math.IsInf(y, 0) {
				pts = append(pts, plotter.XY{X: float64(s.Epoch), Y: y})
			}
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "plotScores: could not create %v line",
				curve.name)
		}
		line.Color = plotutil.Color(i)

		p.Add(line)
		p.Legend.Add(curve.name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return errors.Wrap(err, "plotScores: could not save plot")
	}
	return nil
}
