package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ayush/food-nest/backend/internal/models"
)

const (
	FoodsCollection    = "foods"
	RequestsCollection = "requestedFood"
)

// Connect opens a client pinned to the Stable API v1.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return client, nil
}

// MongoStore handles listing and request documents in MongoDB.
type MongoStore struct {
	foods    *mongo.Collection
	requests *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		foods:    db.Collection(FoodsCollection),
		requests: db.Collection(RequestsCollection),
	}
}

// Ping checks the deployment is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.foods.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	return findListings(ctx, s.foods, bson.M{"status": models.StatusAvailable})
}

func (s *MongoStore) ListByDonor(ctx context.Context, email string) ([]models.Listing, error) {
	return findListings(ctx, s.foods, bson.M{"donor_email": email})
}

// GetListing returns nil without an error when no listing has the id.
func (s *MongoStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var doc models.Listing
	if err := s.foods.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find listing: %w", err)
	}
	return &doc, nil
}

// Featured ranks listings by the integer value of their quantity, highest
// first. A quantity that does not parse as an integer fails the query.
func (s *MongoStore) Featured(ctx context.Context, limit int) ([]models.Listing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.D{{Key: "quantityAsNumber", Value: bson.D{{Key: "$toInt", Value: "$quantity"}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantityAsNumber", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := s.foods.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo aggregate featured: %w", err)
	}
	defer cur.Close(ctx)

	docs := []models.Listing{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) InsertListing(ctx context.Context, doc *models.Listing) (*models.InsertResult, error) {
	return insertOne(ctx, s.foods, doc)
}

// UpdateStatus sets only the status field. A nil status clears it to null.
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status *string) (*models.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	res, err := s.foods.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return nil, fmt.Errorf("mongo update status: %w", err)
	}
	return updateResult(res), nil
}

// UpsertListing sets every field of doc on the listing with the given id,
// creating the listing there if it does not exist.
func (s *MongoStore) UpsertListing(ctx context.Context, id string, doc *models.Listing) (*models.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	fields := *doc
	fields.ID = primitive.NilObjectID

	opts := options.Update().SetUpsert(true)
	res, err := s.foods.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo upsert listing: %w", err)
	}
	return updateResult(res), nil
}

func (s *MongoStore) DeleteListing(ctx context.Context, id string) (*models.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	res, err := s.foods.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("mongo delete listing: %w", err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (s *MongoStore) ListRequests(ctx context.Context) ([]models.FoodRequest, error) {
	return findRequests(ctx, s.requests, bson.M{})
}

func (s *MongoStore) ListRequestsByUser(ctx context.Context, email string) ([]models.FoodRequest, error) {
	return findRequests(ctx, s.requests, bson.M{"user_email": email})
}

func (s *MongoStore) InsertRequest(ctx context.Context, doc *models.FoodRequest) (*models.InsertResult, error) {
	return insertOne(ctx, s.requests, doc)
}

func findListings(ctx context.Context, col *mongo.Collection, filter bson.M) ([]models.Listing, error) {
	cur, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo find listings: %w", err)
	}
	defer cur.Close(ctx)

	docs := []models.Listing{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func findRequests(ctx context.Context, col *mongo.Collection, filter bson.M) ([]models.FoodRequest, error) {
	cur, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo find requests: %w", err)
	}
	defer cur.Close(ctx)

	docs := []models.FoodRequest{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func insertOne(ctx context.Context, col *mongo.Collection, doc any) (*models.InsertResult, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("mongo insert into %s: %w", col.Name(), err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func updateResult(res *mongo.UpdateResult) *models.UpdateResult {
	return &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}
