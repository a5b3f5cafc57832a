// Package rank computes a student's ordinal position inside a cohort.
//
// A cohort is narrowed by equality predicates, sorted by score descending with
// a stable sort, and searched for the target's StudentID. Records whose score
// is missing or not a number sort as negative infinity, so they always rank
// last and never outrank a valid score.
package rank

import (
	"cmp"
	"math"
	"slices"

	"leaderboard/internal/student"
)

// Field names a record attribute a predicate can compare.
type Field string

const (
	Batch      Field = "batch"
	Department Field = "department"
	Section    Field = "section"
)

// Predicate keeps records whose Field equals Value, compared trimmed and
// case-insensitively.
type Predicate struct {
	Field Field
	Value string
}

// Equal builds a Predicate.
func Equal(f Field, value string) Predicate {
	return Predicate{Field: f, Value: value}
}

func (p Predicate) holds(r student.Record) bool {
	var v string
	switch p.Field {
	case Batch:
		v = r.Batch
	case Department:
		v = r.Department
	case Section:
		v = r.Section
	default:
		return false
	}
	return student.SameValue(v, p.Value)
}

// ScoreFunc extracts the score a cohort is sorted by. ok is false when the
// record has no usable score.
type ScoreFunc func(r student.Record) (score float64, ok bool)

// ByResult scores records by their scholastic result.
func ByResult(r student.Record) (float64, bool) {
	if r.Result == nil || math.IsNaN(*r.Result) {
		return 0, false
	}
	return *r.Result, true
}

// Computer ranks records. The zero value scores by result.
type Computer struct {
	Score ScoreFunc
}

func (c Computer) key(r student.Record) float64 {
	score := c.Score
	if score == nil {
		score = ByResult
	}
	v, ok := score(r)
	if !ok || math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

// Sorted returns the records satisfying every predicate, best score first.
// records is not modified.
func (c Computer) Sorted(records []student.Record, preds ...Predicate) []student.Record {
	type keyed struct {
		rec   student.Record
		score float64
	}
	cohort := make([]keyed, 0, len(records))
next:
	for _, r := range records {
		for _, p := range preds {
			if !p.holds(r) {
				continue next
			}
		}
		cohort = append(cohort, keyed{rec: r, score: c.key(r)})
	}
	slices.SortStableFunc(cohort, func(a, b keyed) int {
		return cmp.Compare(b.score, a.score)
	})
	out := make([]student.Record, len(cohort))
	for i, k := range cohort {
		out[i] = k.rec
	}
	return out
}

// Rank returns the 1-based position of target within the filtered, sorted
// cohort. ok is false when target is not part of it.
func (c Computer) Rank(records []student.Record, target student.Record, preds ...Predicate) (int, bool) {
	for i, r := range c.Sorted(records, preds...) {
		if r.StudentID == target.StudentID {
			return i + 1, true
		}
	}
	return 0, false
}

// Rank uses the zero Computer.
func Rank(records []student.Record, target student.Record, preds ...Predicate) (int, bool) {
	return Computer{}.Rank(records, target, preds...)
}
