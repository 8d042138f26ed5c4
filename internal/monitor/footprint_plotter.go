// Package monitor writes optional per-round diagnostics. The plots
// make seam/contour problems visible without loading clouds into a
// viewer: each round gets a PNG of the accumulated footprint with the
// extracted contour on top.
package monitor

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ecopia-map/cloud_accumulator/internal/contour"
	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

// cap the scatter so late rounds with millions of points stay cheap
const maxFootprintSamples = 20000

// FootprintPlotter renders round snapshots into outputDir. A disabled
// plotter ignores every call.
type FootprintPlotter struct {
	enabled   bool
	outputDir string
}

func NewFootprintPlotter(enabled bool, outputDir string) *FootprintPlotter {
	return &FootprintPlotter{enabled: enabled, outputDir: outputDir}
}

// PlotRound writes the footprint/contour snapshot for one merge round.
// Plot failures are logged, never propagated: diagnostics must not
// abort a reconstruction.
func (fp *FootprintPlotter) PlotRound(round int, acc *data.WeightedCloud, poly *contour.Polygon) {
	if !fp.enabled || poly == nil {
		return
	}
	if err := os.MkdirAll(fp.outputDir, 0777); err != nil {
		log.Printf("[monitor] cannot create plot directory: %v", err)
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("accumulated footprint, round %d", round)
	p.X.Label.Text = "x [m]"
	p.Y.Label.Text = "y [m]"

	step := 1
	if acc.Len() > maxFootprintSamples {
		step = acc.Len() / maxFootprintSamples
	}
	footprint := make(plotter.XYs, 0, maxFootprintSamples)
	for i := 0; i < acc.Len(); i += step {
		footprint = append(footprint, plotter.XY{X: acc.Points[i].X, Y: acc.Points[i].Y})
	}

	scatter, err := plotter.NewScatter(footprint)
	if err != nil {
		log.Printf("[monitor] cannot build footprint scatter: %v", err)
		return
	}
	scatter.GlyphStyle.Radius = vg.Points(0.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	p.Add(scatter)

	ring := make(plotter.XYs, 0, poly.Len()+1)
	for _, c := range poly.Points {
		ring = append(ring, plotter.XY{X: c.X, Y: c.Y})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	line, err := plotter.NewLine(ring)
	if err != nil {
		log.Printf("[monitor] cannot build contour line: %v", err)
		return
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 200, A: 255}
	p.Add(line)

	file := filepath.Join(fp.outputDir, fmt.Sprintf("round_%03d_footprint.png", round))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		log.Printf("[monitor] cannot save footprint plot: %v", err)
	}
}
