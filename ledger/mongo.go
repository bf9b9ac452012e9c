package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raushankrgupta/fitly-tryon/models"
)

const outfitsCollection = "outfits"

type outfitDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           string             `bson:"user_id"`
	PersonImagePath  string             `bson:"man_image_path"`
	GarmentImagePath string             `bson:"cloth_image_path"`
	ResultImagePath  string             `bson:"result_image_path"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func (d outfitDoc) record() models.OutfitRecord {
	return models.OutfitRecord{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		PersonImagePath:  d.PersonImagePath,
		GarmentImagePath: d.GarmentImagePath,
		ResultImagePath:  d.ResultImagePath,
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

// MongoStore persists outfit records in MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// ConnectMongo connects to uri, pings it and ensures the unique triple index.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(outfitsCollection),
		now:        time.Now,
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("Connected to MongoDB!")
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "man_image_path", Value: 1},
				{Key: "cloth_image_path", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("outfit_triple"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("outfit_user_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create outfit indexes: %w", err)
	}
	return nil
}

// Insert upserts on the triple with $setOnInsert so an existing row is never updated.
func (s *MongoStore) Insert(ctx context.Context, rec models.OutfitRecord) (bool, error) {
	if err := validate(rec); err != nil {
		return false, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	filter := bson.M{
		"user_id":          rec.UserID,
		"man_image_path":   rec.PersonImagePath,
		"cloth_image_path": rec.GarmentImagePath,
	}
	update := bson.M{"$setOnInsert": bson.M{
		"result_image_path": rec.ResultImagePath,
		"created_at":        createdAt.UTC(),
	}}

	res, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two concurrent upserts on a missing triple: the loser hits the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("upsert outfit: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

// ListByUser returns the caller's outfits sorted by created_at descending.
func (s *MongoStore) ListByUser(ctx context.Context, userID string, page, limit int) (*models.OutfitPage, error) {
	page, skip := normalizePage(page, limit)
	filter := bson.M{"user_id": userID}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count outfits: %w", err)
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		findOptions.SetSkip(int64(skip))
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find outfits: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []outfitDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode outfits: %w", err)
	}

	outfits := make([]models.OutfitRecord, 0, len(docs))
	for _, d := range docs {
		outfits = append(outfits, d.record())
	}
	return newPage(outfits, total, page, limit), nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
