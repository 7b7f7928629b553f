// Package txn implements the Transaction Manager. Rather
// than snapshotting the whole workspace tree for every task, it records a
// per-task mutation log as mutations happen and replays it backwards on
// abort, a derived view recomputed from an append-only log rather than a
// full-tree snapshot. This keeps commit/abort cost proportional to files
// touched, not repository size.
package txn

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Kind is the type of filesystem mutation recorded in the log.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindMoved    Kind = "moved"
	KindDeleted  Kind = "deleted"
)

// Mutation is one entry in the append-only mutation log.
type Mutation struct {
	Kind           Kind
	Path           string
	FromPath       string // set for KindMoved
	PreImage       []byte // captured content before modification/deletion
	PreImageDigest string
	PreImageMode   os.FileMode
}

// State is the transaction's lifecycle state.
type State string

const (
	StateOpen      State = "open"
	StateCommitted State = "committed"
	StateAborted   State = "aborted"
)

// Transaction scopes one task's workspace mutations (task_id, mutations,
// state).
type Transaction struct {
	mu            sync.Mutex
	TaskID        string
	WorkspaceRoot string
	state         State
	mutations     []Mutation
}

// Begin opens a new Transaction for a task.
func Begin(taskID, workspaceRoot string) *Transaction {
	return &Transaction{TaskID: taskID, WorkspaceRoot: workspaceRoot, state: StateOpen}
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Mutations returns a copy of the recorded mutation log.
func (t *Transaction) Mutations() []Mutation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Mutation, len(t.mutations))
	copy(out, t.mutations)
	return out
}

// RecordCreate logs that a new file was created at path. On abort the file
// is removed.
func (t *Transaction) RecordCreate(path string) {
	t.append(Mutation{Kind: KindCreated, Path: path})
}

// RecordModify captures the pre-image of path before it is overwritten, so
// abort can restore the original bytes. preImage is nil if the file
// did not exist before this mutation (treated as a create).
func (t *Transaction) RecordModify(path string, preImage []byte, mode os.FileMode) {
	if preImage == nil {
		t.append(Mutation{Kind: KindCreated, Path: path})
		return
	}
	t.append(Mutation{Kind: KindModified, Path: path, PreImage: preImage, PreImageDigest: digest(preImage), PreImageMode: mode})
}

// RecordMove logs a rename/move from one path to another.
func (t *Transaction) RecordMove(from, to string) {
	t.append(Mutation{Kind: KindMoved, Path: to, FromPath: from})
}

// RecordDelete captures the pre-image of a file before it is deleted, so
// abort can restore it.
func (t *Transaction) RecordDelete(path string, preImage []byte, mode os.FileMode) {
	t.append(Mutation{Kind: KindDeleted, Path: path, PreImage: preImage, PreImageDigest: digest(preImage), PreImageMode: mode})
}

func (t *Transaction) append(m Mutation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutations = append(t.mutations, m)
}

// Commit marks the transaction committed. The task's mutations become
// visible to subsequent tasks (they already are, on disk; commit simply
// closes the transaction so a later abort is no longer possible).
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateOpen {
		return fmt.Errorf("txn: cannot commit transaction in state %s", t.state)
	}
	t.state = StateCommitted
	t.mutations = nil // release pre-image memory; no longer needed
	return nil
}

// Abort replays the mutation log backwards, restoring the workspace to its
// pre-task state, and marks the transaction aborted. Replay order is
// last-mutation-first so a moved-then-modified file is undone correctly.
func (t *Transaction) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateOpen {
		return fmt.Errorf("txn: cannot abort transaction in state %s", t.state)
	}
	var firstErr error
	for i := len(t.mutations) - 1; i >= 0; i-- {
		if err := t.undo(t.mutations[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.state = StateAborted
	t.mutations = nil
	return firstErr
}

func (t *Transaction) undo(m Mutation) error {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(t.WorkspaceRoot, p)
	}
	switch m.Kind {
	case KindCreated:
		return removeIfExists(abs(m.Path))
	case KindModified:
		return restore(abs(m.Path), m.PreImage, m.PreImageMode)
	case KindDeleted:
		return restore(abs(m.Path), m.PreImage, m.PreImageMode)
	case KindMoved:
		// Move the file back to its origin.
		return os.Rename(abs(m.Path), abs(m.FromPath))
	default:
		return fmt.Errorf("txn: unknown mutation kind %q", m.Kind)
	}
}

func restore(path string, content []byte, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".txnrestore.tmp"
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
