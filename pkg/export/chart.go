package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/rota/core/model"
)

// WriteHTML renders the head count per session as a standalone bar chart page.
func WriteHTML(w io.Writer, rows []model.Row) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Members per session"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Session"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Members"}),
	)

	sessions := make([]string, len(rows))
	counts := make([]opts.BarData, len(rows))
	for i, r := range rows {
		sessions[i] = r.Session
		counts[i] = opts.BarData{Name: r.Session, Value: r.Count}
	}
	bar.SetXAxis(sessions).AddSeries("Members", counts)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
