package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/speedtype/internal/model"
)

// DashboardSize is the number of recent results the dashboard averages.
const DashboardSize = 10

// ResultLister loads stored results.
type ResultLister interface {
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.StoredResult, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Results   []model.StoredResult
	Dashboard Dashboard
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src ResultLister, cfg model.StatsConfig) (Report, error) {
	results, err := src.ListResults(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Results:   results,
		Dashboard: BuildDashboard(results, DashboardSize),
	}, nil
}

// Render writes the full stats report.
func (r Report) Render(w io.Writer, curveWindow, totalWidth int) error {
	if err := RenderSummary(w, r.Results); err != nil {
		return err
	}
	if err := RenderDashboard(w, r.Dashboard); err != nil {
		return err
	}
	if err := RenderCurve(w, r.Results, curveWindow, totalWidth); err != nil {
		return err
	}
	return RenderResults(w, r.Results)
}
