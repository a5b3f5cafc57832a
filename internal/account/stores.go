package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemoryStore keeps accounts in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	accts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accts: make(map[string]Account)}
}

func (s *MemoryStore) FindAccount(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accts[NormalizeEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) SaveAccount(_ context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accts[NormalizeEmail(a.Email)] = a
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

// SQLStore keeps accounts in the accounts table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			email         TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			student_id    TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}

func (s *SQLStore) FindAccount(ctx context.Context, email string) (Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, `
		SELECT email, password_hash, role, student_id FROM accounts WHERE email = $1
	`, NormalizeEmail(email)).Scan(&a.Email, &a.PasswordHash, &a.Role, &a.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// SaveAccount creates the account or replaces its password, role and link.
func (s *SQLStore) SaveAccount(ctx context.Context, a Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (email, password_hash, role, student_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			student_id = EXCLUDED.student_id
	`, NormalizeEmail(a.Email), a.PasswordHash, a.Role, a.StudentID)
	return err
}

type accountDocument struct {
	Email        string `bson:"_id"`
	PasswordHash string `bson:"passwordHash"`
	Role         string `bson:"role"`
	StudentID    string `bson:"student-id"`
}

// MongoStore keeps accounts in the accounts collection, keyed by email.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("accounts")}
}

// Migrate is a no-op: _id is already unique.
func (s *MongoStore) Migrate(context.Context) error { return nil }

func (s *MongoStore) FindAccount(ctx context.Context, email string) (Account, error) {
	var doc accountDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": NormalizeEmail(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return Account{Email: doc.Email, PasswordHash: doc.PasswordHash, Role: doc.Role, StudentID: doc.StudentID}, nil
}

func (s *MongoStore) SaveAccount(ctx context.Context, a Account) error {
	doc := accountDocument{
		Email:        NormalizeEmail(a.Email),
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		StudentID:    a.StudentID,
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Email}, doc, options.Replace().SetUpsert(true))
	return err
}
