package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"codeforge.dev/agentcore/sessionstore"
)

// mustTestClient connects to the MongoDB instance named by
// AGENTCORE_TEST_MONGO_URI, skipping the test entirely when it is unset —
// this package has no fake/in-memory Mongo collection, so its tests only
// run against a real server.
func mustTestClient(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("AGENTCORE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("AGENTCORE_TEST_MONGO_URI not set; skipping mongostore integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connecting to %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("pinging %s: %v", uri, err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestSaveLoadRoundTrip(t *testing.T) {
	client := mustTestClient(t)
	store, err := New(context.Background(), Options{Client: client, Database: "agentcore_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary := sessionstore.Summary{SessionID: "mongo-run-1", Success: true, TasksCompleted: []string{"task-001"}}
	if err := store.Save(context.Background(), summary); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(context.Background(), "mongo-run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SessionID != summary.SessionID || !got.Success {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestSaveUpsertsOnRepeatedSessionID(t *testing.T) {
	client := mustTestClient(t)
	store, err := New(context.Background(), Options{Client: client, Database: "agentcore_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id := "mongo-run-upsert"
	if err := store.Save(context.Background(), sessionstore.Summary{SessionID: id, Success: false}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := store.Save(context.Background(), sessionstore.Summary{SessionID: id, Success: true}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Success {
		t.Fatalf("expected the second Save to have overwritten the first, got Success=false")
	}
}
