package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WritePNG renders the class histogram of s with gonum/plot. The image
// format follows the extension of path. A summary without classes renders
// an empty chart.
func WritePNG(s *Summary, path string) error {
	if len(s.Classes) == 0 {
		p := plot.New()
		p.Title.Text = "Output classification (no classified points)"
		p.X.Label.Text = "class"
		p.Y.Label.Text = "points"
		if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("save plot %s: %w", path, err)
		}
		return nil
	}

	values := make(plotter.Values, len(s.Classes))
	for i, c := range s.Classes {
		values[i] = float64(c.Points)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Output classification (%d points)", s.Points)
	p.X.Label.Text = "class"
	p.Y.Label.Text = "points"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(s.names()...)

	width := vg.Length(len(s.Classes))*vg.Inch + 2*vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
