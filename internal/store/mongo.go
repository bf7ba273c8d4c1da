package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tripflow/tripflow/internal/domain"
)

const mongoCollection = "conversations"

// MongoStore implements Repository on a MongoDB collection, one
// document per session keyed by session_id.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	return &MongoStore{
		client:   client,
		sessions: client.Database(database).Collection(mongoCollection),
	}, nil
}

// Load retrieves a session document by id.
func (s *MongoStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess domain.Session
	err := s.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &sess, nil
}

// Save upserts the full session document.
func (s *MongoStore) Save(ctx context.Context, sess *domain.Session) error {
	_, err := s.sessions.ReplaceOne(ctx,
		bson.M{"session_id": sess.SessionID},
		sess,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a session document; absent ids are a no-op.
func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns all session documents.
func (s *MongoStore) List(ctx context.Context) ([]*domain.Session, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []*domain.Session
	for cursor.Next(ctx) {
		var sess domain.Session
		if err := cursor.Decode(&sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, &sess)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// Ping verifies connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
