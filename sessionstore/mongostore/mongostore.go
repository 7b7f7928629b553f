// Package mongostore is the optional multi-process sessionstore.Store
// backend: an upsert-by-session-id write path and a sorted find for
// listing, built directly on go.mongodb.org/mongo-driver since there is no
// service definition here to generate a client wrapper against — only
// this one store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"codeforge.dev/agentcore/sessionstore"
)

const (
	defaultCollection = "agentcore_sessions"
	defaultOpTimeout  = 5 * time.Second
)

// Store persists session summaries to a MongoDB collection, keyed by
// session_id, for deployments that want multi-process visibility into
// in-flight and historical runs beyond what local JSON files offer.
type Store struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// Options configures the Mongo-backed store.
type Options struct {
	Client     *mongo.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// New builds a Store and ensures the session_id uniqueness index exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collName)

	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctxTimeout, idx); err != nil {
		return nil, fmt.Errorf("mongostore: creating session_id index: %w", err)
	}
	return &Store{coll: coll, timeout: timeout}, nil
}

// Save upserts the summary document for s.SessionID.
func (s *Store) Save(ctx context.Context, summary sessionstore.Summary) error {
	if summary.SessionID == "" {
		return errors.New("mongostore: summary has no session_id")
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	filter := bson.M{"session_id": summary.SessionID}
	_, err := s.coll.ReplaceOne(ctxTimeout, filter, summary, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongostore: upserting session %s: %w", summary.SessionID, err)
	}
	return nil
}

// Load retrieves the summary document for sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (sessionstore.Summary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var summary sessionstore.Summary
	err := s.coll.FindOne(ctxTimeout, bson.M{"session_id": sessionID}).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sessionstore.Summary{}, fmt.Errorf("mongostore: session %s not found", sessionID)
	}
	if err != nil {
		return sessionstore.Summary{}, fmt.Errorf("mongostore: loading session %s: %w", sessionID, err)
	}
	return summary, nil
}

// List returns every known session ID, most recently started first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}).SetProjection(bson.M{"session_id": 1})
	cur, err := s.coll.Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: listing sessions: %w", err)
	}
	defer cur.Close(ctxTimeout)

	var out []string
	for cur.Next(ctxTimeout) {
		var row struct {
			SessionID string `bson:"session_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongostore: decoding session row: %w", err)
		}
		out = append(out, row.SessionID)
	}
	return out, cur.Err()
}
