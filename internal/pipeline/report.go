package pipeline

import (
	"time"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

// ChartStatus is the outcome of one chart in a run.
type ChartStatus string

const (
	StatusRendered    ChartStatus = "rendered"
	StatusPlaceholder ChartStatus = "placeholder"
	StatusFailed      ChartStatus = "failed"
)

// ChartResult summarizes one chart of a run.
type ChartResult struct {
	ID         string           `json:"id"`
	Kind       domain.ChartKind `json:"kind"`
	Status     ChartStatus      `json:"status"`
	Path       string           `json:"path,omitempty"`
	Rows       int              `json:"rows"`
	Omitted    []string         `json:"omitted,omitempty"`
	Unresolved []string         `json:"unresolved,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// SinkResult summarizes one sink delivery.
type SinkResult struct {
	Name      string `json:"name"`
	Delivered int    `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Records    int           `json:"records"`
	Charts     []ChartResult `json:"charts"`
	Sinks      []SinkResult  `json:"sinks,omitempty"`
}

// Failed returns the number of charts that are not fully rendered.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Charts {
		if c.Status != StatusRendered {
			n++
		}
	}
	return n
}

// Unresolved returns every country dropped from a map chart, in chart order.
func (r Report) Unresolved() []string {
	var out []string
	for _, c := range r.Charts {
		out = append(out, c.Unresolved...)
	}
	return out
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
