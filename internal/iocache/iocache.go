// Package iocache persists snapshots, histories and run tracking data.
package iocache

import (
	"sync"

	"github.com/huangsam/classdrift/internal/contract"
)

// StoreManagerImpl holds the snapshot store and the run store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	snapshots    contract.SnapshotStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager wraps already opened stores.
func NewStoreManager(snapshots contract.SnapshotStore, runs contract.RunStore) *StoreManagerImpl {
	return &StoreManagerImpl{snapshots: snapshots, runs: runs}
}

// GetSnapshotStore returns the snapshot store.
func (mgr *StoreManagerImpl) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshots
}

// GetRunStore returns the run store.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
