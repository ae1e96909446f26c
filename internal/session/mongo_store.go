package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yelpcamp/apiserver/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSession struct {
	ID      string    `bson:"_id"`
	Session string    `bson:"session"`
	Expires time.Time `bson:"expires"`
}

// MongoStore keeps sessions in a collection with a TTL index on expires.
// The server removes expired documents on its own schedule, so the sweeper
// still calls DeleteExpired. Payloads are encrypted with a key derived from
// the session secret.
type MongoStore struct {
	coll   *mongo.Collection
	cipher *payloadCipher
}

// NewMongoClient connects to MongoDB and verifies the connection.
func NewMongoClient(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// NewMongoStore returns a store over the configured collection and makes
// sure the TTL index exists.
func NewMongoStore(ctx context.Context, client *mongo.Client, cfg config.MongoConfig, secret string) (*MongoStore, error) {
	cipher, err := newPayloadCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("session payload key: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("create session ttl index: %w", err)
	}
	return &MongoStore{coll: coll, cipher: cipher}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	filter := bson.M{"_id": id, "expires": bson.M{"$gt": time.Now()}}

	var doc mongoSession
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	data, err := s.cipher.open(doc.Session)
	if err != nil {
		// Written under another secret; treat as no session.
		return Record{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return Record{ID: doc.ID, Data: data, ExpiresAt: doc.Expires}, nil
}

func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	sealed, err := s.cipher.seal(rec.Data)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}
	doc := mongoSession{ID: rec.ID, Session: sealed, Expires: rec.ExpiresAt}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"expires": expiresAt}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
