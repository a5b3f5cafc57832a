package student

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// EventUpdated is published after a record has been overwritten.
const EventUpdated = "student.updated"

// Record is a student document as held by the backing database.
type Record struct {
	ID              string   `json:"id"`
	StudentID       string   `json:"student_id"`
	Name            string   `json:"name"`
	Batch           string   `json:"batch"`
	Section         string   `json:"section"`
	Department      string   `json:"department"`
	Result          *float64 `json:"result"`
	Achievements    string   `json:"achievements"`
	Cocurricular    string   `json:"cocurricular"`
	Extracurricular string   `json:"extracurricular"`
	ProfileLocked   bool     `json:"profile_locked"`
}

// Fields is the writable part of a Record. Update overwrites all of them.
type Fields struct {
	StudentID       string
	Department      string
	Name            string
	Batch           string
	Section         string
	Result          *float64
	Achievements    string
	Cocurricular    string
	Extracurricular string
}

// Fields returns the writable part of r.
func (r Record) Fields() Fields {
	return Fields{
		StudentID:       r.StudentID,
		Department:      r.Department,
		Name:            r.Name,
		Batch:           r.Batch,
		Section:         r.Section,
		Result:          r.Result,
		Achievements:    r.Achievements,
		Cocurricular:    r.Cocurricular,
		Extracurricular: r.Extracurricular,
	}
}

// Apply overwrites the writable fields of r. ID and ProfileLocked are kept.
func (r *Record) Apply(f Fields) {
	r.StudentID = f.StudentID
	r.Department = f.Department
	r.Name = f.Name
	r.Batch = f.Batch
	r.Section = f.Section
	r.Result = f.Result
	r.Achievements = f.Achievements
	r.Cocurricular = f.Cocurricular
	r.Extracurricular = f.Extracurricular
}

// DisplayName hides the name of locked profiles.
func (r Record) DisplayName() string {
	if r.ProfileLocked {
		return "Anonymous"
	}
	return r.Name
}

// Filter narrows a collection fetch. The zero value selects every record.
type Filter struct {
	Batch      string
	Department string
}

// Matches reports whether r satisfies every non-blank field of f.
func (f Filter) Matches(r Record) bool {
	if Normalize(f.Batch) != "" && !SameValue(r.Batch, f.Batch) {
		return false
	}
	if Normalize(f.Department) != "" && !SameValue(r.Department, f.Department) {
		return false
	}
	return true
}

func (f Filter) apply(records []Record) []Record {
	if f == (Filter{}) {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Normalize trims surrounding whitespace and case-folds s.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameValue compares two stored strings the way cohort filters do. An empty
// stored value never matches anything.
func SameValue(stored, expected string) bool {
	a := Normalize(stored)
	if a == "" {
		return false
	}
	return a == Normalize(expected)
}

// ParseResult converts a loosely typed stored score into a float. Anything
// that is not a finite number yields nil.
func ParseResult(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// FormatResult renders a score with two decimals, or "-" when it is missing.
func FormatResult(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
