//go:build integration

package student

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("leaderboard_test_" + time.Now().Format("150405"))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	repo := NewMongoRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	storeContract(t, repo)

	// Scores stored as strings by older tooling still rank.
	_, err = db.Collection("students").InsertOne(ctx, bson.M{"student-id": "S9", "student-result": "3.33"})
	require.NoError(t, err)
	rec, err := repo.FetchByID(ctx, "S9")
	require.NoError(t, err)
	require.NotNil(t, rec.Result)
	require.InDelta(t, 3.33, *rec.Result, 1e-9)
}
