package rank

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard/internal/student"
)

func score(v float64) *float64 { return &v }

func rec(id string, result *float64, batch, dept string) student.Record {
	return student.Record{StudentID: id, Result: result, Batch: batch, Department: dept}
}

func ids(recs []student.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.StudentID
	}
	return out
}

func exampleCohort() []student.Record {
	return []student.Record{
		rec("A", score(3.5), "2020", "CSE"),
		rec("B", score(3.9), "2021", "CSE"),
		rec("C", score(2.0), "2021", "EEE"),
	}
}

func TestRankOverall(t *testing.T) {
	cohort := exampleCohort()
	n, ok := Rank(cohort, student.Record{StudentID: "A"})
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestRankAbsentTarget(t *testing.T) {
	n, ok := Rank(exampleCohort(), student.Record{StudentID: "D"})
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestRankEmptyCohort(t *testing.T) {
	_, ok := Rank(nil, student.Record{StudentID: "A"})
	assert.False(t, ok)
	_, ok = Rank([]student.Record{}, student.Record{StudentID: "A"})
	assert.False(t, ok)
}

func TestRankWithBatchPredicate(t *testing.T) {
	n, ok := Rank(exampleCohort(), student.Record{StudentID: "B"}, Equal(Batch, "2021"))
	require.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = Rank(exampleCohort(), student.Record{StudentID: "A"}, Equal(Batch, "2021"))
	assert.False(t, ok, "A is filtered out of the 2021 cohort")
}

func TestRankMissingScoreSortsLast(t *testing.T) {
	cohort := []student.Record{
		rec("X", nil, "", ""),
		rec("A", score(0.5), "", ""),
		rec("N", score(math.NaN()), "", ""),
		rec("B", score(0), "", ""),
	}
	got := Computer{}.Sorted(cohort)
	assert.Equal(t, []string{"A", "B", "X", "N"}, ids(got))

	n, ok := Rank(cohort, student.Record{StudentID: "X"})
	require.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestRankStableTies(t *testing.T) {
	cohort := []student.Record{
		rec("first", score(3.0), "", ""),
		rec("top", score(3.8), "", ""),
		rec("second", score(3.0), "", ""),
		rec("third", score(3.0), "", ""),
	}
	got := Computer{}.Sorted(cohort)
	if diff := cmp.Diff([]string{"top", "first", "second", "third"}, ids(got)); diff != "" {
		t.Fatalf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	cohort := exampleCohort()
	before := ids(cohort)
	_ = Computer{}.Sorted(cohort)
	assert.Equal(t, before, ids(cohort))
}

func TestRankDeterministic(t *testing.T) {
	cohort := exampleCohort()
	first, _ := Rank(cohort, cohort[2], Equal(Batch, "2021"))
	for i := 0; i < 10; i++ {
		again, _ := Rank(cohort, cohort[2], Equal(Batch, "2021"))
		assert.Equal(t, first, again)
	}
}

func TestPredicateFolding(t *testing.T) {
	cohort := []student.Record{
		rec("A", score(3.1), " cse ", ""),
		rec("B", score(3.4), "CSE", ""),
		rec("C", score(3.9), "", ""),
	}
	got := Computer{}.Sorted(cohort, Equal(Batch, "Cse"))
	assert.Equal(t, []string{"B", "A"}, ids(got))
}

func TestPredicateEmptyStoredValueNeverMatches(t *testing.T) {
	cohort := []student.Record{rec("A", score(3.1), "", "")}
	_, ok := Rank(cohort, cohort[0], Equal(Batch, ""))
	assert.False(t, ok)
}

func TestUnknownFieldMatchesNothing(t *testing.T) {
	got := Computer{}.Sorted(exampleCohort(), Equal(Field("colour"), "red"))
	assert.Empty(t, got)
}

func TestCustomScore(t *testing.T) {
	byNameLength := Computer{Score: func(r student.Record) (float64, bool) {
		return float64(len(r.Name)), r.Name != ""
	}}
	cohort := []student.Record{
		{StudentID: "1", Name: "Al"},
		{StudentID: "2", Name: "Beatrice"},
		{StudentID: "3"},
	}
	n, ok := byNameLength.Rank(cohort, cohort[1])
	require.True(t, ok)
	assert.Equal(t, 1, n)
	n, _ = byNameLength.Rank(cohort, cohort[2])
	assert.Equal(t, 3, n)
}

func TestRankBounds(t *testing.T) {
	cohort := []student.Record{
		rec("a", score(1.2), "x", "d1"),
		rec("b", score(3.3), "y", "d1"),
		rec("c", nil, "x", "d2"),
		rec("d", score(2.2), "x", "d1"),
		rec("e", score(3.3), "y", "d2"),
	}
	for _, target := range cohort {
		overall, ok := Rank(cohort, target)
		require.True(t, ok)
		assert.GreaterOrEqual(t, overall, 1)
		assert.LessOrEqual(t, overall, len(cohort))

		preds := []Predicate{Equal(Batch, target.Batch)}
		filtered := Computer{}.Sorted(cohort, preds...)
		assert.LessOrEqual(t, len(filtered), len(cohort))

		within, ok := Rank(cohort, target, preds...)
		require.True(t, ok)
		assert.LessOrEqual(t, within, overall, "filtering cannot worsen %s", target.StudentID)
	}
}

func TestStandings(t *testing.T) {
	cohort := []student.Record{
		rec("A", score(3.5), "2020", "CSE"),
		rec("B", score(3.9), "2021", "CSE"),
		rec("C", score(2.0), "2021", "EEE"),
		rec("D", score(3.6), "2021", "cse"),
	}
	got := Computer{}.Standings(cohort, cohort[3])
	assert.Equal(t, "#2", Label(got.Overall))
	assert.Equal(t, "#2", Label(got.Batch))
	assert.Equal(t, "#2", Label(got.Department))
	assert.Equal(t, "#2", Label(got.BatchDepartment))

	got = Computer{}.Standings(cohort, cohort[2])
	assert.Equal(t, "#4", Label(got.Overall))
	assert.Equal(t, "#3", Label(got.Batch))
	assert.Equal(t, "#1", Label(got.Department))
	assert.Equal(t, "#1", Label(got.BatchDepartment))

	missing := Computer{}.Standings(cohort, student.Record{StudentID: "Z", Batch: "2021"})
	assert.Nil(t, missing.Overall)
	assert.Nil(t, missing.Batch)
	assert.Equal(t, "-", Label(missing.BatchDepartment))
}
