package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artgallery/gallery-web/internal/infrastructure/db/localstate"
)

const stateCollection = "local_state"

// Store is a localstate.KeyValue over one MongoDB collection. Documents are
// keyed by "<namespace>:<key>".
type Store struct {
	client    *mongo.Client
	coll      *mongo.Collection
	namespace string
}

func NewStore(client *mongo.Client, db *mongo.Database, namespace string) *Store {
	return &Store{client: client, coll: db.Collection(stateCollection), namespace: namespace}
}

type stateDoc struct {
	ID        string `bson:"_id"`
	Namespace string `bson:"namespace"`
	Key       string `bson:"key"`
	Value     []byte `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc stateDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": s.id(key)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, localstate.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return doc.Value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	doc := stateDoc{
		ID:        s.id(key),
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().Unix(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.id(key)}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) id(key string) string {
	return s.namespace + ":" + key
}
