package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EchartsAssetsHost overrides where the HTML report loads the echarts
// scripts from. Empty keeps the go-echarts default.
var EchartsAssetsHost = ""

// WriteHTML renders the class histogram of s as a standalone HTML page.
func WriteHTML(s *Summary, path string) error {
	y := make([]opts.BarData, len(s.Classes))
	for i, c := range s.Classes {
		y[i] = opts.BarData{Value: c.Points}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "setlabel " + s.RunID, Width: "100%", Height: "600px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title: "Output classification",
			Subtitle: fmt.Sprintf("%s: %d points, %d labeled, %d kept, entropy %.3f bits",
				s.InputPath, s.Points, s.Labeled, s.AlreadyClassified, s.Entropy),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "class"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(s.names()).
		AddSeries("points", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	if EchartsAssetsHost != "" {
		page.SetAssetsHost(EchartsAssetsHost)
	}
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
