package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"gopkg.in/yaml.v3"
)

// chartFile is the YAML layout of a chart spec override file.
type chartFile struct {
	Charts []domain.ChartSpec `yaml:"charts"`
}

// LoadCharts returns the chart specs to render. An empty path yields the
// built-in charts. In a file, a chart whose id matches a built-in chart
// inherits every field it leaves unset.
func LoadCharts(path string) ([]domain.ChartSpec, error) {
	if path == "" {
		return domain.DefaultChartSpecs(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart specs: %w", err)
	}
	return ParseCharts(data)
}

// ParseCharts decodes and validates a chart spec document.
func ParseCharts(data []byte) ([]domain.ChartSpec, error) {
	var file chartFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse chart specs: %w", err)
	}

	defaults := make(map[string]domain.ChartSpec)
	for _, s := range domain.DefaultChartSpecs() {
		defaults[s.ID] = s
	}

	specs := make([]domain.ChartSpec, len(file.Charts))
	for i, s := range file.Charts {
		if base, ok := defaults[s.ID]; ok {
			s = inherit(s, base)
		}
		specs[i] = s
	}

	if err := domain.ValidateChartSpecs(specs); err != nil {
		return nil, fmt.Errorf("invalid chart specs: %w", err)
	}
	return specs, nil
}

func inherit(s, base domain.ChartSpec) domain.ChartSpec {
	if s.Kind == "" {
		s.Kind = base.Kind
	}
	if s.Title == "" {
		s.Title = base.Title
	}
	if s.XLabel == "" {
		s.XLabel = base.XLabel
	}
	if s.YLabel == "" {
		s.YLabel = base.YLabel
	}
	if s.File == "" {
		s.File = base.File
	}
	if s.WidthIn == 0 {
		s.WidthIn = base.WidthIn
	}
	if s.HeightIn == 0 {
		s.HeightIn = base.HeightIn
	}
	if s.Year == 0 {
		s.Year = base.Year
	}
	return s
}
