package iocache

import (
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSnapshotStore implements the StoreManager interface.
func (m *MockStoreManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

// Get implements the SnapshotStore interface.
func (m *MockSnapshotStore) Get(system string, rsn int) (*schema.VersionSnapshot, error) {
	args := m.Called(system, rsn)
	snap, _ := args.Get(0).(*schema.VersionSnapshot)
	return snap, args.Error(1)
}

// Exists implements the SnapshotStore interface.
func (m *MockSnapshotStore) Exists(system string, rsn int) (bool, error) {
	args := m.Called(system, rsn)
	return args.Bool(0), args.Error(1)
}

// Put implements the SnapshotStore interface.
func (m *MockSnapshotStore) Put(system string, snapshot *schema.VersionSnapshot) error {
	args := m.Called(system, snapshot)
	return args.Error(0)
}

// PutHistory implements the SnapshotStore interface.
func (m *MockSnapshotStore) PutHistory(history *schema.EvolutionHistory) error {
	args := m.Called(history)
	return args.Error(0)
}

// GetHistory implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetHistory(system string) (*schema.EvolutionHistory, error) {
	args := m.Called(system)
	hist, _ := args.Get(0).(*schema.EvolutionHistory)
	return hist, args.Error(1)
}

// ListSystems implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListSystems() ([]string, error) {
	args := m.Called()
	systems, _ := args.Get(0).([]string)
	return systems, args.Error(1)
}

// ListRSNs implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListRSNs(system string) ([]int, error) {
	args := m.Called(system)
	rsns, _ := args.Get(0).([]int)
	return rsns, args.Error(1)
}

// GetStatus implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(system string, kind schema.RunKind, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(system, kind, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, totalReleases, totalClasses int) error {
	args := m.Called(runID, endTime, totalReleases, totalClasses)
	return args.Error(0)
}

// RecordReleaseSummary implements the RunStore interface.
func (m *MockRunStore) RecordReleaseSummary(runID int64, summary schema.ReleaseSummary) error {
	args := m.Called(runID, summary)
	return args.Error(0)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetReleaseSummaries implements the RunStore interface.
func (m *MockRunStore) GetReleaseSummaries(runID int64) ([]schema.ReleaseSummary, error) {
	args := m.Called(runID)
	summaries, _ := args.Get(0).([]schema.ReleaseSummary)
	return summaries, args.Error(1)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
