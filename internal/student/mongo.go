package student

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// studentDocument mirrors the document layout the leaderboard has always
// used, hyphenated keys included.
type studentDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	StudentID       string             `bson:"student-id"`
	Name            string             `bson:"student-name"`
	Batch           string             `bson:"student-batch"`
	Section         string             `bson:"student-section"`
	Department      string             `bson:"student-department"`
	Result          any                `bson:"student-result"`
	Achievements    string             `bson:"student-achievements"`
	Cocurricular    string             `bson:"student-cocurricular"`
	Extracurricular string             `bson:"student-extracurricular"`
	ProfileLocked   bool               `bson:"profileLocked"`
}

func (d studentDocument) record() Record {
	return Record{
		ID:              d.ID.Hex(),
		StudentID:       d.StudentID,
		Name:            d.Name,
		Batch:           d.Batch,
		Section:         d.Section,
		Department:      d.Department,
		Result:          ParseResult(d.Result),
		Achievements:    d.Achievements,
		Cocurricular:    d.Cocurricular,
		Extracurricular: d.Extracurricular,
		ProfileLocked:   d.ProfileLocked,
	}
}

func resultValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// MongoRepository persists students in a Mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository uses the "students" collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection("students")}
}

// Migrate ensures student-id is unique.
func (r *MongoRepository) Migrate(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student-id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure student index: %w", err)
	}
	return nil
}

// Create inserts rec; the document key is assigned by Mongo.
func (r *MongoRepository) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.StudentID == "" {
		return Record{}, errors.New("student id required")
	}
	doc := studentDocument{
		StudentID:       rec.StudentID,
		Name:            rec.Name,
		Batch:           rec.Batch,
		Section:         rec.Section,
		Department:      rec.Department,
		Result:          resultValue(rec.Result),
		Achievements:    rec.Achievements,
		Cocurricular:    rec.Cocurricular,
		Extracurricular: rec.Extracurricular,
		ProfileLocked:   rec.ProfileLocked,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return Record{}, fmt.Errorf("insert student %s: %w", rec.StudentID, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

// FetchByID returns the document whose student-id equals studentID.
func (r *MongoRepository) FetchByID(ctx context.Context, studentID string) (Record, error) {
	var doc studentDocument
	err := r.coll.FindOne(ctx, bson.M{"student-id": studentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return doc.record(), nil
}

// FetchCollection reads the whole collection and applies filter.
func (r *MongoRepository) FetchCollection(ctx context.Context, filter Filter) ([]Record, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "student-id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []studentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return filter.apply(out), nil
}

// Update sets every writable key of document id. profileLocked is untouched.
func (r *MongoRepository) Update(ctx context.Context, id string, f Fields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"student-id":              f.StudentID,
		"student-department":      f.Department,
		"student-name":            f.Name,
		"student-batch":           f.Batch,
		"student-section":         f.Section,
		"student-result":          resultValue(f.Result),
		"student-achievements":    f.Achievements,
		"student-cocurricular":    f.Cocurricular,
		"student-extracurricular": f.Extracurricular,
	}})
	if err != nil {
		return fmt.Errorf("update student %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
