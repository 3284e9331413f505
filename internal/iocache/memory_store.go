package iocache

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

type memoryKey struct {
	system string
	rsn    int
}

type memoryEntry struct {
	payload  []byte
	checksum uint64
	written  time.Time
}

// MemoryStore is the snapshot store of the none backend. It keeps the same
// serialized form as the SQL stores so callers never share mutable snapshots.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[memoryKey]memoryEntry
	histories map[string][]byte
}

var _ contract.SnapshotStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[memoryKey]memoryEntry),
		histories: make(map[string][]byte),
	}
}

// Get returns a private copy of the stored snapshot.
func (ms *MemoryStore) Get(system string, rsn int) (*schema.VersionSnapshot, error) {
	ms.mu.RLock()
	entry, ok := ms.snapshots[memoryKey{system, rsn}]
	ms.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s release %d: %w", system, rsn, contract.ErrSnapshotNotFound)
	}
	return decodeSnapshot(system, rsn, entry.payload, entry.checksum)
}

// Exists reports whether a snapshot is stored under the key.
func (ms *MemoryStore) Exists(system string, rsn int) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	_, ok := ms.snapshots[memoryKey{system, rsn}]
	return ok, nil
}

// Put stores a copy of the snapshot.
func (ms *MemoryStore) Put(system string, snapshot *schema.VersionSnapshot) error {
	payload, checksum, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.snapshots[memoryKey{system, snapshot.RSN}] = memoryEntry{payload: payload, checksum: checksum, written: time.Now()}
	return nil
}

// PutHistory stores a copy of the history.
func (ms *MemoryStore) PutHistory(history *schema.EvolutionHistory) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history %s: %w", history.Key, err)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.histories[history.Key] = payload
	return nil
}

// GetHistory returns a private copy of the stored history.
func (ms *MemoryStore) GetHistory(system string) (*schema.EvolutionHistory, error) {
	ms.mu.RLock()
	payload, ok := ms.histories[system]
	ms.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", system, contract.ErrHistoryNotFound)
	}
	return decodeHistory(system, payload)
}

// ListSystems returns the stored history keys in lexical order.
func (ms *MemoryStore) ListSystems() ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return slices.Sorted(maps.Keys(ms.histories)), nil
}

// ListRSNs returns the stored RSNs of a system in ascending order.
func (ms *MemoryStore) ListRSNs(system string) ([]int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var rsns []int
	for key := range ms.snapshots {
		if key.system == system {
			rsns = append(rsns, key.rsn)
		}
	}
	slices.Sort(rsns)
	return rsns, nil
}

// GetStatus reports the in-memory contents.
func (ms *MemoryStore) GetStatus() (schema.StoreStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	status := schema.StoreStatus{
		Backend:        string(schema.NoneBackend),
		Connected:      true,
		TotalSystems:   len(ms.histories),
		TotalSnapshots: len(ms.snapshots),
		TableSizes:     make(map[string]int64),
	}
	for _, entry := range ms.snapshots {
		status.TableSizes[snapshotsTable] += int64(len(entry.payload))
		if entry.written.After(status.LastWriteTime) {
			status.LastWriteTime = entry.written
		}
		if status.OldestWrite.IsZero() || entry.written.Before(status.OldestWrite) {
			status.OldestWrite = entry.written
		}
	}
	for _, payload := range ms.histories {
		status.TableSizes[historiesTable] += int64(len(payload))
	}
	return status, nil
}

// Close drops everything.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	clear(ms.snapshots)
	clear(ms.histories)
	return nil
}
