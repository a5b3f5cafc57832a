package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SQLRepository persists students through database/sql. The queries use
// $n placeholders, which both the pgx and sqlite3 drivers accept.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repo.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

var studentSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id              TEXT PRIMARY KEY,
		student_id      TEXT NOT NULL UNIQUE,
		name            TEXT NOT NULL DEFAULT '',
		batch           TEXT NOT NULL DEFAULT '',
		section         TEXT NOT NULL DEFAULT '',
		department      TEXT NOT NULL DEFAULT '',
		result          DOUBLE PRECISION,
		achievements    TEXT NOT NULL DEFAULT '',
		cocurricular    TEXT NOT NULL DEFAULT '',
		extracurricular TEXT NOT NULL DEFAULT '',
		profile_locked  BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_cohort ON students (batch, department)`,
}

const selectStudent = `SELECT id, student_id, name, batch, section, department, result,
	achievements, cocurricular, extracurricular, profile_locked FROM students`

// Migrate creates the students table when missing.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range studentSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate students: %w", err)
		}
	}
	return nil
}

// Create inserts a new student row.
func (r *SQLRepository) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.StudentID == "" {
		return Record{}, errors.New("student id required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, student_id, name, batch, section, department, result,
			achievements, cocurricular, extracurricular, profile_locked)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, rec.ID, rec.StudentID, rec.Name, rec.Batch, rec.Section, rec.Department, nullFloat(rec.Result),
		rec.Achievements, rec.Cocurricular, rec.Extracurricular, rec.ProfileLocked)
	if err != nil {
		return Record{}, fmt.Errorf("insert student %s: %w", rec.StudentID, err)
	}
	return rec, nil
}

// FetchByID returns a single student by business id.
func (r *SQLRepository) FetchByID(ctx context.Context, studentID string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectStudent+` WHERE student_id = $1`, studentID)
	rec, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// FetchCollection returns every student matching filter. Matching happens
// here rather than in SQL so folding rules are identical across backends.
func (r *SQLRepository) FetchCollection(ctx context.Context, filter Filter) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectStudent+` ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return filter.apply(res), nil
}

// Update overwrites every writable column of row id. Placeholders appear in
// ascending order because sqlite3 binds them by position.
func (r *SQLRepository) Update(ctx context.Context, id string, f Fields) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET student_id = $1, department = $2, name = $3, batch = $4, section = $5,
			result = $6, achievements = $7, cocurricular = $8, extracurricular = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
	`, f.StudentID, f.Department, f.Name, f.Batch, f.Section, nullFloat(f.Result),
		f.Achievements, f.Cocurricular, f.Extracurricular, id)
	if err != nil {
		return fmt.Errorf("update student %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(s scanner) (Record, error) {
	var rec Record
	var result sql.NullFloat64
	if err := s.Scan(&rec.ID, &rec.StudentID, &rec.Name, &rec.Batch, &rec.Section, &rec.Department,
		&result, &rec.Achievements, &rec.Cocurricular, &rec.Extracurricular, &rec.ProfileLocked); err != nil {
		return Record{}, err
	}
	if result.Valid {
		rec.Result = ParseResult(result.Float64)
	}
	return rec, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
