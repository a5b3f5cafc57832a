package view

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"leaderboard/internal/auth"
	"leaderboard/internal/metrics"
	"leaderboard/internal/student"
)

// Form is the faculty edit form. Result stays text until Save validates it.
type Form struct {
	StudentID       string `form:"student_id" json:"student_id" binding:"required"`
	Department      string `form:"department" json:"department" binding:"required"`
	Name            string `form:"name" json:"name"`
	Batch           string `form:"batch" json:"batch"`
	Section         string `form:"section" json:"section"`
	Result          string `form:"result" json:"result"`
	Achievements    string `form:"achievements" json:"achievements"`
	Cocurricular    string `form:"cocurricular" json:"cocurricular"`
	Extracurricular string `form:"extracurricular" json:"extracurricular"`
}

func formFrom(r student.Record) Form {
	result := ""
	if r.Result != nil {
		result = strconv.FormatFloat(*r.Result, 'f', -1, 64)
	}
	return Form{
		StudentID:       r.StudentID,
		Department:      r.Department,
		Name:            r.Name,
		Batch:           r.Batch,
		Section:         r.Section,
		Result:          result,
		Achievements:    r.Achievements,
		Cocurricular:    r.Cocurricular,
		Extracurricular: r.Extracurricular,
	}
}

// Editor drives the two-step update flow: look a record up by ID and
// department, then overwrite it.
type Editor struct {
	students student.Gateway
	log      *zap.Logger
}

// NewEditor creates an Editor.
func NewEditor(students student.Gateway, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{students: students, log: log}
}

// Fetch returns the form filled with the stored record. The department must
// match the stored one after trimming and case folding.
func (e *Editor) Fetch(ctx context.Context, studentID, department string) (Form, error) {
	rec, err := e.students.FetchByID(ctx, strings.TrimSpace(studentID))
	if abandoned(ctx) {
		return Form{}, auth.ErrUnauthenticated
	}
	switch {
	case errors.Is(err, student.ErrNotFound):
		return Form{}, e.fail(newError(ValidationMismatch, msgLookupMismatch, err))
	case err != nil:
		return Form{}, e.fail(newError(TransportFailure, msgLookupFailed, err))
	}
	if !student.SameValue(rec.Department, department) {
		return Form{}, e.fail(newError(ValidationMismatch, msgLookupMismatch, nil))
	}
	return formFrom(rec), nil
}

// Save re-fetches the record named by form.StudentID and overwrites every
// writable field with the form's values.
func (e *Editor) Save(ctx context.Context, form Form) error {
	result, err := parseCGPA(form.Result)
	if err != nil {
		return e.fail(newError(ValidationMismatch, msgBadResult, err))
	}

	studentID := strings.TrimSpace(form.StudentID)
	rec, err := e.students.FetchByID(ctx, studentID)
	switch {
	case errors.Is(err, student.ErrNotFound):
		return e.fail(newError(NotFound, msgNotFound, err))
	case err != nil:
		return e.fail(newError(TransportFailure, msgUpdateFailed, err))
	}
	if abandoned(ctx) {
		return auth.ErrUnauthenticated
	}

	fields := student.Fields{
		StudentID:       studentID,
		Department:      strings.TrimSpace(form.Department),
		Name:            strings.TrimSpace(form.Name),
		Batch:           strings.TrimSpace(form.Batch),
		Section:         strings.TrimSpace(form.Section),
		Result:          &result,
		Achievements:    form.Achievements,
		Cocurricular:    form.Cocurricular,
		Extracurricular: form.Extracurricular,
	}
	if err := e.students.Update(ctx, rec.ID, fields); err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return e.fail(newError(NotFound, msgNotFound, err))
		}
		return e.fail(newError(TransportFailure, msgUpdateFailed, err))
	}
	e.log.Info("student updated", zap.String("student_id", studentID))
	return nil
}

var errResultRange = errors.New("result out of range")

func parseCGPA(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < 0 || v > 4 {
		return 0, errResultRange
	}
	return v, nil
}

func (e *Editor) fail(err *Error) error {
	metrics.PageErrors.WithLabelValues(err.Kind.String()).Inc()
	if err.Kind == TransportFailure {
		e.log.Warn("student gateway failed", zap.Error(err.Err))
	}
	return err
}
