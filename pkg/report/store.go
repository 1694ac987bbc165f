package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
)

const (
	// Database is the MongoDB database runs are stored in.
	Database = "wmt"
	// Collection holds one document per run, with the run id as _id.
	Collection = "runs"
)

// Store persists run results.
type Store interface {
	Save(ctx context.Context, res *check.RunResult) error
	Get(ctx context.Context, id string) (*check.RunResult, error)
	Close(ctx context.Context) error
}

// MongoStore is a [Store] backed by MongoDB.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// ConnectMongo connects to the MongoDB deployment at uri and verifies the
// connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("wmt").
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		runs:   client.Database(Database).Collection(Collection),
	}, nil
}

// Save inserts res. Saving the same run twice replaces the first copy.
func (s *MongoStore) Save(ctx context.Context, res *check.RunResult) error {
	_, err := s.runs.ReplaceOne(ctx, bson.M{"_id": res.ID}, res, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", res.ID, err)
	}
	return nil
}

// Get loads the run with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (*check.RunResult, error) {
	var res check.RunResult
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &res, nil
}

// Close disconnects from the deployment.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
