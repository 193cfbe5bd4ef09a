package export

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rota/core/model"
)

// Summary aggregates an assignment for reporting.
type Summary struct {
	Sessions  int     `json:"sessions"`
	Assigned  int     `json:"assigned"`
	Tentative int     `json:"tentative"`
	Multi     int     `json:"multi"`
	FillMean  float64 `json:"fill_mean"`
	FillStd   float64 `json:"fill_std"`
}

// Summarize counts placements and computes the mean and standard deviation
// of the fill ratio count/max over enabled sessions with a positive max.
func Summarize(a *model.Assignment, s model.Settings) Summary {
	m := a.Matrix()
	out := Summary{Sessions: m.NumSessions(), Assigned: a.Total()}
	for s := 0; s < m.NumSessions(); s++ {
		for _, i := range a.Members(s) {
			if m.Status(s, i) == model.Tentative {
				out.Tentative++
			}
		}
	}
	for i := 0; i < m.NumMembers(); i++ {
		if a.CountOf(i) > 1 {
			out.Multi++
		}
	}
	var ratios []float64
	if len(s.Sessions) == m.NumSessions() {
		for idx, ss := range s.Sessions {
			if _, hi := ss.Bounds(); hi > 0 {
				ratios = append(ratios, float64(a.Count(idx))/float64(hi))
			}
		}
	}
	switch len(ratios) {
	case 0:
	case 1:
		out.FillMean = ratios[0]
	default:
		out.FillMean, out.FillStd = stat.MeanStdDev(ratios, nil)
	}
	return out
}
