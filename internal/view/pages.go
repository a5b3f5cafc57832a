// Package view assembles what the profile, placement, leaderboard and update
// pages show. It talks to the student gateway and the rank computer and turns
// every failure into a plain-text Error.
package view

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leaderboard/internal/auth"
	"leaderboard/internal/metrics"
	"leaderboard/internal/rank"
	"leaderboard/internal/student"
)

// ProfilePage is the detailed view of one student.
type ProfilePage struct {
	StudentID       string         `json:"student_id"`
	DisplayName     string         `json:"display_name"`
	Batch           string         `json:"batch"`
	Section         string         `json:"section"`
	Department      string         `json:"department"`
	Achievements    string         `json:"achievements"`
	Cocurricular    string         `json:"cocurricular"`
	Extracurricular string         `json:"extracurricular"`
	CGPA            string         `json:"cgpa"`
	Ranks           rank.Standings `json:"ranks"`
}

// PlacementPage is the compact rank card.
type PlacementPage struct {
	StudentID       string `json:"student_id"`
	CGPA            string `json:"cgpa"`
	Overall         *int   `json:"overall"`
	BatchDepartment *int   `json:"batch_department"`
}

// LeaderboardEntry is one row of a cohort table.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"student_id"`
	DisplayName string `json:"display_name"`
	Batch       string `json:"batch"`
	Department  string `json:"department"`
	CGPA        string `json:"cgpa"`
}

// Pages builds page models.
type Pages struct {
	students student.Gateway
	ranks    rank.Computer
	log      *zap.Logger
}

// NewPages creates the page builder.
func NewPages(students student.Gateway, log *zap.Logger) *Pages {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pages{students: students, log: log}
}

// Profile loads a student and ranks them overall, in their batch, in their
// department, and in their batch within the department.
func (p *Pages) Profile(ctx context.Context, studentID string) (ProfilePage, error) {
	target, cohort, err := p.load(ctx, studentID, msgProfileNotFound)
	if err != nil {
		return ProfilePage{}, err
	}
	return ProfilePage{
		StudentID:       target.StudentID,
		DisplayName:     target.DisplayName(),
		Batch:           target.Batch,
		Section:         target.Section,
		Department:      target.Department,
		Achievements:    target.Achievements,
		Cocurricular:    target.Cocurricular,
		Extracurricular: target.Extracurricular,
		CGPA:            student.FormatResult(target.Result),
		Ranks:           p.ranks.Standings(cohort, target),
	}, nil
}

// Placement loads a student's overall and batch+department rank.
func (p *Pages) Placement(ctx context.Context, studentID string) (PlacementPage, error) {
	target, cohort, err := p.load(ctx, studentID, msgNotFound)
	if err != nil {
		return PlacementPage{}, err
	}
	s := p.ranks.Standings(cohort, target)
	return PlacementPage{
		StudentID:       target.StudentID,
		CGPA:            student.FormatResult(target.Result),
		Overall:         s.Overall,
		BatchDepartment: s.BatchDepartment,
	}, nil
}

// Leaderboard lists the best limit students of the cohort selected by filter.
// limit <= 0 lists everyone.
func (p *Pages) Leaderboard(ctx context.Context, filter student.Filter, limit int) ([]LeaderboardEntry, error) {
	recs, err := p.students.FetchCollection(ctx, filter)
	if err != nil {
		return nil, p.fail(newError(TransportFailure, msgFetchFailed, err))
	}
	if abandoned(ctx) {
		return nil, auth.ErrUnauthenticated
	}
	sorted := p.ranks.Sorted(recs)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]LeaderboardEntry, len(sorted))
	for i, r := range sorted {
		out[i] = LeaderboardEntry{
			Rank:        i + 1,
			StudentID:   r.StudentID,
			DisplayName: r.DisplayName(),
			Batch:       r.Batch,
			Department:  r.Department,
			CGPA:        student.FormatResult(r.Result),
		}
	}
	return out, nil
}

// load fetches the target and the full cohort concurrently.
func (p *Pages) load(ctx context.Context, studentID, notFoundMsg string) (student.Record, []student.Record, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return student.Record{}, nil, p.fail(newError(NotFound, msgIDMismatch, nil))
	}

	var (
		target student.Record
		cohort []student.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := p.students.FetchByID(gctx, studentID)
		if err != nil {
			if errors.Is(err, student.ErrNotFound) {
				return newError(NotFound, notFoundMsg, err)
			}
			return newError(TransportFailure, msgFetchFailed, err)
		}
		target = rec
		return nil
	})
	g.Go(func() error {
		recs, err := p.students.FetchCollection(gctx, student.Filter{})
		if err != nil {
			return newError(TransportFailure, msgFetchFailed, err)
		}
		cohort = recs
		return nil
	})
	err := g.Wait()
	if abandoned(ctx) {
		return student.Record{}, nil, auth.ErrUnauthenticated
	}
	if err != nil {
		return student.Record{}, nil, p.fail(err)
	}
	return target, cohort, nil
}

func (p *Pages) fail(err error) error {
	if ve, ok := AsError(err); ok {
		metrics.PageErrors.WithLabelValues(ve.Kind.String()).Inc()
		if ve.Kind == TransportFailure {
			p.log.Warn("student gateway failed", zap.Error(ve.Err))
		}
	}
	return err
}
