// Package fsstore is the default sessionstore.Store backend: one JSON file
// per session under a directory, written atomically (temp file + os.Rename)
// the same way resilient.Cache persists its idempotency cache to disk.
package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codeforge.dev/agentcore/sessionstore"
)

// Store writes session summaries as individual JSON files under Dir.
type Store struct {
	Dir string
}

// New constructs a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fsstore: creating %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.Dir, sanitize(sessionID)+".json")
}

// sanitize strips path separators from a session ID so it cannot escape Dir.
func sanitize(sessionID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(sessionID)
}

// Save atomically writes s to Dir/<session_id>.json.
func (s *Store) Save(ctx context.Context, summary sessionstore.Summary) error {
	if summary.SessionID == "" {
		return fmt.Errorf("fsstore: summary has no session_id")
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("fsstore: marshaling summary: %w", err)
	}
	dest := s.path(summary.SessionID)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fsstore: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("fsstore: renaming into place: %w", err)
	}
	return nil
}

// Load reads a previously saved summary.
func (s *Store) Load(ctx context.Context, sessionID string) (sessionstore.Summary, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return sessionstore.Summary{}, fmt.Errorf("fsstore: reading %s: %w", sessionID, err)
	}
	var summary sessionstore.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return sessionstore.Summary{}, fmt.Errorf("fsstore: unmarshaling %s: %w", sessionID, err)
	}
	return summary, nil
}

// List returns every session ID with a saved summary, most recently
// modified first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("fsstore: reading %s: %w", s.Dir, err)
	}
	type named struct {
		id      string
		modTime int64
	}
	var rows []named
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rows = append(rows, named{id: strings.TrimSuffix(e.Name(), ".json"), modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].modTime > rows[j].modTime })
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out, nil
}
