package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/qbank-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepository handles question document access. Each kind lives in
// its own collection.
type QuestionRepository struct {
	db *mongo.Database
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// EnsureIndexes creates the createdAt index on every question collection.
func (r *QuestionRepository) EnsureIndexes(ctx context.Context) error {
	for _, kind := range model.Kinds() {
		_, err := r.db.Collection(kind.Collection()).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", kind.Collection(), err)
		}
	}
	return nil
}

// Insert stores a new document and sets its generated ID.
func (r *QuestionRepository) Insert(ctx context.Context, doc model.QuestionDocument) error {
	res, err := r.db.Collection(doc.Kind().Collection()).InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.SetDocumentID(oid)
	}
	return nil
}

// Sample returns one random document of the given kind matching filter.
// It returns mongo.ErrNoDocuments when nothing matches.
func (r *QuestionRepository) Sample(ctx context.Context, kind model.QuestionKind, filter model.RandomQuestionFilter) (model.QuestionDocument, error) {
	cur, err := r.db.Collection(kind.Collection()).Aggregate(ctx, SamplePipeline(filter))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return nil, mongo.ErrNoDocuments
	}

	doc := kind.NewDocument()
	if err := cur.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode %s question: %w", kind, err)
	}
	return doc, nil
}

// SamplePipeline builds [{$match: filter}, {$sample: {size: 1}}].
func SamplePipeline(filter model.RandomQuestionFilter) mongo.Pipeline {
	match := bson.D{}
	if len(filter.Exclude) > 0 {
		match = append(match, bson.E{Key: "_id", Value: bson.D{{Key: "$nin", Value: filter.Exclude}}})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}
}
