package render

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// sourceColors gives each energy source a fixed color across charts.
var sourceColors = map[domain.EnergySource]color.Color{
	domain.SourceSolar:      color.RGBA{R: 244, G: 180, B: 0, A: 255},
	domain.SourceWind:       color.RGBA{R: 66, G: 133, B: 244, A: 255},
	domain.SourceHydro:      color.RGBA{R: 0, G: 172, B: 193, A: 255},
	domain.SourceBiomass:    color.RGBA{R: 124, G: 179, B: 66, A: 255},
	domain.SourceGeothermal: color.RGBA{R: 219, G: 68, B: 55, A: 255},
}

func sourceColor(s domain.EnergySource, fallback int) color.Color {
	if c, ok := sourceColors[s]; ok {
		return c
	}
	return plotutil.Color(fallback)
}

var barColor = color.RGBA{R: 46, G: 125, B: 50, A: 255}

// barChart draws one horizontal bar per source. Rows arrive sorted by
// descending mean; they are plotted bottom-up so the largest bar is on top.
func barChart(spec domain.ChartSpec, rows []domain.SourceSavings) (*plot.Plot, error) {
	p := newPlot(spec)

	n := len(rows)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, r := range rows {
		values[n-1-i] = r.MeanSavings
		names[n-1-i] = r.Source.Label()
	}

	bars, err := plotter.NewBarChart(values, vg.Points(22))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(plotter.NewGrid(), bars)
	p.NominalY(names...)

	labels := make([]string, n)
	xys := make(plotter.XYs, n)
	for i, v := range values {
		xys[i] = plotter.XY{X: v, Y: float64(i)}
		labels[i] = formatAmount(v)
	}
	valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	valueLabels.Offset = vg.Point{X: vg.Points(4), Y: -vg.Points(4)}
	p.Add(valueLabels)
	return p, nil
}

// lineChart draws mean usage over years with one line per source, in
// canonical source order.
func lineChart(spec domain.ChartSpec, rows []domain.YearSourceUsage) (*plot.Plot, error) {
	p := newPlot(spec)
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	bySource := make(map[domain.EnergySource]plotter.XYs)
	years := make(map[int]bool)
	for _, r := range rows {
		bySource[r.Source] = append(bySource[r.Source], plotter.XY{X: float64(r.Year), Y: r.MeanUsage})
		years[r.Year] = true
	}

	for i, src := range domain.EnergySources {
		xys, ok := bySource[src]
		if !ok {
			continue
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", src, err)
		}
		c := sourceColor(src, i)
		line.Color = c
		line.Width = vg.Points(2)
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(3)
		p.Add(line, points)
		p.Legend.Add(src.Label(), line, points)
	}

	p.X.Tick.Marker = yearTicks(years)
	return p, nil
}

func yearTicks(years map[int]bool) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, 0, len(years))
	for y := domain.MinYear; y <= domain.MaxYear; y++ {
		if years[y] {
			ticks = append(ticks, plot.Tick{Value: float64(y), Label: strconv.Itoa(y)})
		}
	}
	return ticks
}

// boxChart draws one box per household size.
func boxChart(spec domain.ChartSpec, rows []domain.UsageDistribution) (*plot.Plot, error) {
	p := newPlot(spec)
	p.Add(plotter.NewGrid())

	names := make([]string, len(rows))
	for i, r := range rows {
		box, err := plotter.NewBoxPlot(vg.Points(28), float64(i), plotter.Values(r.Values))
		if err != nil {
			return nil, fmt.Errorf("box for size %d: %w", r.HouseholdSize, err)
		}
		box.FillColor = color.RGBA{R: 144, G: 202, B: 249, A: 255}
		p.Add(box)
		names[i] = strconv.Itoa(r.HouseholdSize)
	}
	p.NominalX(names...)
	return p, nil
}

// meanWithCI pairs the plotted means with their distance to each CI bound.
type meanWithCI struct {
	plotter.XYs
	plotter.YErrors
}

// errorBarChart draws the mean of each household size with a bar spanning
// its 95% confidence interval.
func errorBarChart(spec domain.ChartSpec, rows []domain.UsageInterval) (*plot.Plot, error) {
	p := newPlot(spec)
	p.Add(plotter.NewGrid())

	data := meanWithCI{
		XYs:     make(plotter.XYs, len(rows)),
		YErrors: make(plotter.YErrors, len(rows)),
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		data.XYs[i] = plotter.XY{X: float64(i), Y: r.MeanUsage}
		data.YErrors[i].Low = r.MeanUsage - r.CILower
		data.YErrors[i].High = r.CIUpper - r.MeanUsage
		names[i] = strconv.Itoa(r.HouseholdSize)
	}

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return nil, fmt.Errorf("error bars: %w", err)
	}
	bars.LineStyle.Width = vg.Points(1.5)
	bars.CapWidth = vg.Points(8)

	points, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return nil, fmt.Errorf("means: %w", err)
	}
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(4)
	points.Color = color.RGBA{R: 198, G: 40, B: 40, A: 255}

	p.Add(bars, points)
	p.NominalX(names...)
	return p, nil
}
