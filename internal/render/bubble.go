package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	minBubble = 3  // points
	maxBubble = 30 // points
)

// BubbleRadius maps a total onto a marker radius. Area grows linearly with
// the total, so the radius grows with its square root. The result is
// monotonic in total and lies in [minBubble, maxBubble] points. Non-finite
// inputs get the smallest marker.
func BubbleRadius(total, maxTotal float64) vg.Length {
	if !finite(total) || !finite(maxTotal) || maxTotal <= 0 || total <= 0 {
		return vg.Points(minBubble)
	}
	frac := math.Sqrt(math.Min(total/maxTotal, 1))
	return vg.Points(minBubble + (maxBubble-minBubble)*frac)
}

var bubbleColor = color.RGBA{R: 21, G: 101, B: 192, A: 160}

// bubbleMap places each country at its capital in lon/lat space with a
// marker sized by total usage and a "Country: total" label.
func bubbleMap(spec domain.ChartSpec, points []domain.GeoPoint, year int) (*plot.Plot, error) {
	p := newPlot(spec)
	if year != 0 {
		p.Title.Text = fmt.Sprintf("%s (%d)", spec.Title, year)
	}
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -60, 85
	p.Add(plotter.NewGrid())

	maxTotal := 0.0
	for _, pt := range points {
		if !finite(pt.TotalUsage) {
			return nil, fmt.Errorf("bubble map: %s total usage is not finite", pt.Country)
		}
		maxTotal = math.Max(maxTotal, pt.TotalUsage)
	}

	xys := make(plotter.XYs, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
		labels[i] = pt.Country + ": " + formatKWh(pt.TotalUsage)
	}

	bubbles, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("bubbles: %w", err)
	}
	bubbles.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  bubbleColor,
			Radius: BubbleRadius(points[i].TotalUsage, maxTotal),
			Shape:  draw.CircleGlyph{},
		}
	}

	names, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("bubble labels: %w", err)
	}
	for i := range names.TextStyle {
		names.TextStyle[i].Font.Size = vg.Points(7)
		names.TextStyle[i].XAlign = draw.XCenter
	}
	names.Offset = vg.Point{Y: vg.Points(maxBubble / 2)}

	p.Add(bubbles, names)
	return p, nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

var printer = message.NewPrinter(language.English)

func formatKWh(v float64) string {
	return printer.Sprintf("%.0f kWh", v)
}

func formatAmount(v float64) string {
	return printer.Sprintf("%.2f", v)
}
