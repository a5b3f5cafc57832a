package student

import (
	"context"
	"errors"
)

// ErrNotFound signals that no record matched the lookup.
var ErrNotFound = errors.New("student not found")

// Gateway is the read/overwrite surface the pages depend on.
type Gateway interface {
	// FetchByID looks a record up by its business StudentID.
	FetchByID(ctx context.Context, studentID string) (Record, error)
	// FetchCollection materializes the cohort selected by filter.
	FetchCollection(ctx context.Context, filter Filter) ([]Record, error)
	// Update overwrites the writable fields of the record with document key id.
	Update(ctx context.Context, id string, fields Fields) error
}

// Store is a Gateway that can also create records and prepare its schema.
type Store interface {
	Gateway
	Create(ctx context.Context, rec Record) (Record, error)
	Migrate(ctx context.Context) error
}
