package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/insyd/notify/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contentSequence = "content_id"

// MongoContentRepository implements ContentRepository for MongoDB.
// Integer ids come from a counters collection so that events can keep
// referring to content by number.
type MongoContentRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoContentRepository creates a new MongoContentRepository
func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{
		collection: db.Collection("content"),
		counters:   db.Collection("counters"),
	}
}

// EnsureIndexes creates the author/recency index used by list queries
func (r *MongoContentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "_id", Value: -1}},
	})
	return err
}

func (r *MongoContentRepository) nextID(ctx context.Context) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": contentSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next content id: %w", err)
	}
	return uint(counter.Seq), nil
}

// CreateContent creates new content in MongoDB
func (r *MongoContentRepository) CreateContent(ctx context.Context, content *models.Content) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	content.ID = id
	if content.Type == "" {
		content.Type = models.DefaultContentType
	}
	content.LikeCount = 0
	content.CreatedAt = time.Now().UTC()
	_, err = r.collection.InsertOne(ctx, content)
	return err
}

// GetContentByID retrieves content by ID from MongoDB
func (r *MongoContentRepository) GetContentByID(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&content); err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

// GetLatestByAuthorID retrieves the most recent content of an author
func (r *MongoContentRepository) GetLatestByAuthorID(ctx context.Context, authorID uint) (*models.Content, error) {
	var content models.Content
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := r.collection.FindOne(ctx, bson.M{"author_id": authorID}, opts).Decode(&content); err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

// GetContentByAuthorID retrieves an author's content, most recent first
func (r *MongoContentRepository) GetContentByAuthorID(ctx context.Context, authorID uint, limit int) ([]models.Content, error) {
	contents := []models.Content{}
	findOptions := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"author_id": authorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// IncrementLikeCount atomically adds one like and returns the updated content
func (r *MongoContentRepository) IncrementLikeCount(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"like_count": 1}},
		opts,
	).Decode(&content)
	if err != nil {
		return nil, translate(err)
	}
	return &content, nil
}
