package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"trapcam/internal/domain"
	"trapcam/pkg/utils"
)

const (
	EmptinessChart = "empty_vs_nonempty.png"
	QualityChart   = "quality_distribution.png"

	chartWidth  = 600
	chartHeight = 600
)

// Artifacts lists the files a report run must leave in the output directory.
var Artifacts = []string{EmptinessChart, QualityChart}

// ChartRenderer draws the report charts into dir.
type ChartRenderer interface {
	Render(dir string, s domain.Summary) error
}

var palette = []string{"#4C78A8", "#F58518", "#54A24B", "#E45756"}

type GGRenderer struct{}

func NewGGRenderer() *GGRenderer {
	return &GGRenderer{}
}

func (r *GGRenderer) Render(dir string, s domain.Summary) error {
	pie := drawPie("Empty vs non-empty images", s.Emptiness)
	if err := savePNG(pie, dir, EmptinessChart); err != nil {
		return err
	}

	bar := drawBar("Quality distribution", "Type", "Count", s.Quality)
	return savePNG(bar, dir, QualityChart)
}

func savePNG(dc *gg.Context, dir, name string) error {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if _, err := utils.WriteFileAtomic(dir, name, &buf); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return nil
}

func newCanvas(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(title, chartWidth/2, 30, 0.5, 0.5)
	return dc
}

func drawPie(title string, counts []domain.Count) *gg.Context {
	dc := newCanvas(title)

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	cx, cy, radius := float64(chartWidth)/2, float64(chartHeight)/2, 200.0
	if total == 0 {
		dc.SetHexColor("#DDDDDD")
		dc.DrawCircle(cx, cy, radius)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored("no results", cx, cy, 0.5, 0.5)
		drawLegend(dc, counts)
		return dc
	}

	angle := -math.Pi / 2
	for i, c := range counts {
		if c.Count == 0 {
			continue
		}
		sweep := 2 * math.Pi * float64(c.Count) / float64(total)
		dc.SetHexColor(palette[i%len(palette)])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.Fill()

		mid := angle + sweep/2
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(percent(c.Count, total),
			cx+0.65*radius*math.Cos(mid), cy+0.65*radius*math.Sin(mid), 0.5, 0.5)
		angle += sweep
	}
	// donut hole
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(cx, cy, radius*0.3)
	dc.Fill()

	drawLegend(dc, counts)
	return dc
}

func drawLegend(dc *gg.Context, counts []domain.Count) {
	y := float64(chartHeight) - 60
	for i, c := range counts {
		dc.SetHexColor(palette[i%len(palette)])
		dc.DrawRectangle(40, y-8, 14, 14)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%s: %d", c.Label, c.Count), 62, y, 0, 0.5)
		y += 20
	}
}

func drawBar(title, xTitle, yTitle string, counts []domain.Count) *gg.Context {
	dc := newCanvas(title)

	left, right, top, bottom := 70.0, float64(chartWidth)-30, 70.0, float64(chartHeight)-90
	maxCount := 0
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, right, bottom)
	dc.DrawLine(left, top, left, bottom)
	dc.Stroke()
	dc.DrawStringAnchored(xTitle, (left+right)/2, bottom+50, 0.5, 0.5)
	dc.DrawStringAnchored(yTitle, 20, (top+bottom)/2, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprint(maxCount), left-8, top, 1, 0.5)
	dc.DrawStringAnchored("0", left-8, bottom, 1, 0.5)

	if len(counts) == 0 {
		return dc
	}

	slot := (right - left) / float64(len(counts))
	barWidth := slot * 0.6
	for i, c := range counts {
		x := left + slot*float64(i) + (slot-barWidth)/2
		height := 0.0
		if maxCount > 0 {
			height = (bottom - top) * float64(c.Count) / float64(maxCount)
		}

		dc.SetHexColor(palette[i%len(palette)])
		dc.DrawRectangle(x, bottom-height, barWidth, height)
		dc.Fill()

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprint(c.Count), x+barWidth/2, bottom-height-10, 0.5, 0.5)
		dc.DrawStringAnchored(c.Label, x+barWidth/2, bottom+20, 0.5, 0.5)
	}

	return dc
}

func percent(n, total int) string {
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
