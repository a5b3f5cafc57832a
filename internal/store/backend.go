package store

import (
	"context"
	"fmt"

	"leaderboard/internal/account"
	"leaderboard/internal/config"
	"leaderboard/internal/student"
)

// Backend bundles the stores selected by DB_BACKEND.
type Backend struct {
	Name     string
	Students student.Store
	Accounts account.Store

	healthy func(ctx context.Context) bool
	close   func() error
}

// Open connects the configured backend: postgres, sqlite, mongo or memory.
func Open(ctx context.Context, cfg config.App) (*Backend, error) {
	switch cfg.DBBackend {
	case "postgres":
		db, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return sqlBackend("postgres", db), nil
	case "sqlite":
		db, err := NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlBackend("sqlite", db), nil
	case "mongo":
		m, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:     "mongo",
			Students: student.NewMongoRepository(m.Database),
			Accounts: account.NewMongoStore(m.Database),
			healthy:  m.Healthy,
			close:    m.Close,
		}, nil
	case "memory":
		return &Backend{
			Name:     "memory",
			Students: student.NewMemoryStore(),
			Accounts: account.NewMemoryStore(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown DB_BACKEND %q", cfg.DBBackend)
	}
}

func sqlBackend(name string, db *DB) *Backend {
	return &Backend{
		Name:     name,
		Students: student.NewSQLRepository(db.Client),
		Accounts: account.NewSQLStore(db.Client),
		healthy:  db.Healthy,
		close:    db.Close,
	}
}

// Migrate prepares the schema of every store.
func (b *Backend) Migrate(ctx context.Context) error {
	if err := b.Students.Migrate(ctx); err != nil {
		return err
	}
	return b.Accounts.Migrate(ctx)
}

// Healthy reports whether the database answers.
func (b *Backend) Healthy(ctx context.Context) bool {
	if b.healthy == nil {
		return true
	}
	return b.healthy(ctx)
}

// Close releases the connection.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}
