package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const snapshotCollection = "snapshots"

// snapshotDocument stores one kind's snapshot as a single document, so replacing it is atomic.
type snapshotDocument struct {
	Kind      string    `bson:"_id"`
	Snapshot  []byte    `bson:"snapshot"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend keeps snapshots in a MongoDB collection.
type MongoBackend struct {
	db *mongo.Database
}

func NewMongoBackend(db *mongo.Database) *MongoBackend {
	return &MongoBackend{db: db}
}

// ConnectMongo opens a client and verifies the server is reachable.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}

func (b *MongoBackend) Read(ctx context.Context, kind Kind) ([]byte, error) {
	result := b.db.Collection(snapshotCollection).FindOne(ctx, bson.M{"_id": string(kind)})
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}

		return nil, result.Err()
	}

	var doc snapshotDocument
	if err := result.Decode(&doc); err != nil {
		return nil, err
	}

	return doc.Snapshot, nil
}

func (b *MongoBackend) Write(ctx context.Context, kind Kind, data []byte) error {
	_, err := b.db.Collection(snapshotCollection).ReplaceOne(
		ctx,
		bson.M{"_id": string(kind)},
		snapshotDocument{Kind: string(kind), Snapshot: data, UpdatedAt: time.Now()},
		options.Replace().SetUpsert(true),
	)

	return err
}
