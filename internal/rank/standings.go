package rank

import (
	"strconv"

	"leaderboard/internal/metrics"
	"leaderboard/internal/student"
)

// Standings holds the target's rank in each cohort the pages show.
type Standings struct {
	Overall         *int `json:"overall"`
	Batch           *int `json:"batch"`
	Department      *int `json:"department"`
	BatchDepartment *int `json:"batch_department"`
}

// Standings ranks target against the whole cohort, its batch, its
// department, and its batch within its department. Each view is a separate
// filter+sort+locate pass.
func (c Computer) Standings(records []student.Record, target student.Record) Standings {
	return Standings{
		Overall:         c.position("overall", records, target),
		Batch:           c.position("batch", records, target, Equal(Batch, target.Batch)),
		Department:      c.position("department", records, target, Equal(Department, target.Department)),
		BatchDepartment: c.position("batch_department", records, target, Equal(Batch, target.Batch), Equal(Department, target.Department)),
	}
}

func (c Computer) position(view string, records []student.Record, target student.Record, preds ...Predicate) *int {
	metrics.RankComputations.WithLabelValues(view).Inc()
	n, ok := c.Rank(records, target, preds...)
	if !ok {
		return nil
	}
	return &n
}

// Label renders a position as "#n", or "-" when absent.
func Label(p *int) string {
	if p == nil {
		return "-"
	}
	return "#" + strconv.Itoa(*p)
}
