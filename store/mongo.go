package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stratusdrive/models"
)

// MongoStore is the production backend: a nodes collection plus an
// accounts collection keyed by owner id.
type MongoStore struct {
	nodeCollection    *mongo.Collection
	accountCollection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		nodeCollection:    db.Collection("nodes"),
		accountCollection: db.Collection("accounts"),
	}
}

// EnsureIndexes creates the lookup indexes the listing, search and
// recency paths rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("owner_parent_index"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("owner_name_index"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("owner_updated_desc_index"),
		},
		{
			Keys:    bson.D{{Key: "trashed_at", Value: 1}},
			Options: options.Index().SetName("trashed_at_index").SetSparse(true),
		},
	}

	for _, model := range indexes {
		if _, err := s.nodeCollection.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create node index: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, n *models.Node) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := s.nodeCollection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Node, error) {
	var n models.Node
	err := s.nodeCollection.FindOne(ctx, bson.M{
		"_id":      id,
		"owner_id": owner,
	}).Decode(&n)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &n, nil
}

func (s *MongoStore) Update(ctx context.Context, n *models.Node) error {
	result, err := s.nodeCollection.ReplaceOne(ctx, bson.M{
		"_id":      n.ID,
		"owner_id": n.OwnerID,
	}, n)
	if err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Remove(ctx context.Context, owner, id primitive.ObjectID) error {
	result, err := s.nodeCollection.DeleteOne(ctx, bson.M{
		"_id":      id,
		"owner_id": owner,
	})
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Children(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID) ([]models.Node, error) {
	filter := bson.M{"owner_id": owner}
	if parent != nil {
		filter["parent_id"] = *parent
	} else {
		filter["parent_id"] = nil
	}

	cursor, err := s.nodeCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer cursor.Close(ctx)

	var nodes []models.Node
	if err = cursor.All(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode children: %w", err)
	}
	return nodes, nil
}

func (s *MongoStore) OwnedBy(ctx context.Context, owner primitive.ObjectID) ([]models.Node, error) {
	cursor, err := s.nodeCollection.Find(ctx, bson.M{"owner_id": owner}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer cursor.Close(ctx)

	var nodes []models.Node
	if err = cursor.All(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}
	return nodes, nil
}

func (s *MongoStore) TrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Node, error) {
	filter := bson.M{"trashed_at": bson.M{"$ne": nil, "$lte": cutoff}}
	cursor, err := s.nodeCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired trash: %w", err)
	}
	defer cursor.Close(ctx)

	var nodes []models.Node
	if err = cursor.All(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode expired trash: %w", err)
	}
	return nodes, nil
}

func (s *MongoStore) Search(ctx context.Context, owner primitive.ObjectID, query string) ([]models.Node, error) {
	filter := bson.M{
		"owner_id":   owner,
		"trashed_at": nil,
		"name":       bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}
	cursor, err := s.nodeCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}
	defer cursor.Close(ctx)

	var nodes []models.Node
	if err = cursor.All(ctx, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return nodes, nil
}

func (s *MongoStore) Account(ctx context.Context, owner primitive.ObjectID) (*models.StorageAccount, error) {
	var acct models.StorageAccount
	err := s.accountCollection.FindOne(ctx, bson.M{"_id": owner}).Decode(&acct)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &acct, nil
}

func (s *MongoStore) Ensure(ctx context.Context, owner primitive.ObjectID, limitBytes int64) (*models.StorageAccount, error) {
	update := bson.M{
		"$setOnInsert": bson.M{
			"used_bytes":  int64(0),
			"limit_bytes": limitBytes,
			"updated_at":  time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var acct models.StorageAccount
	err := s.accountCollection.FindOneAndUpdate(ctx, bson.M{"_id": owner}, update, opts).Decode(&acct)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	return &acct, nil
}

// Reserve increments used_bytes only when the result stays within the
// limit. The conditional filter makes the check-and-increment a single
// atomic document update.
func (s *MongoStore) Reserve(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	acct, err := s.Account(ctx, owner)
	if err != nil {
		return err
	}

	result, err := s.accountCollection.UpdateOne(ctx, bson.M{
		"_id":        owner,
		"used_bytes": bson.M{"$lte": acct.LimitBytes - bytes},
	}, bson.M{
		"$inc": bson.M{"used_bytes": bytes},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to reserve quota: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

func (s *MongoStore) Release(ctx context.Context, owner primitive.ObjectID, bytes int64) error {
	result, err := s.accountCollection.UpdateOne(ctx, bson.M{"_id": owner}, bson.M{
		"$inc": bson.M{"used_bytes": -bytes},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to release quota: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	// A release can race a recompute; never let the cache go negative.
	_, err = s.accountCollection.UpdateOne(ctx, bson.M{
		"_id":        owner,
		"used_bytes": bson.M{"$lt": 0},
	}, bson.M{
		"$set": bson.M{"used_bytes": int64(0)},
	})
	if err != nil {
		return fmt.Errorf("failed to clamp quota: %w", err)
	}
	return nil
}

func (s *MongoStore) SetUsed(ctx context.Context, owner primitive.ObjectID, used int64) error {
	result, err := s.accountCollection.UpdateOne(ctx, bson.M{"_id": owner}, bson.M{
		"$set": bson.M{"used_bytes": used, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to set quota usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
