package runstore

import (
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
	"github.com/stretchr/testify/mock"
)

// MockRunManager is a mock implementation of RunManager for testing.
type MockRunManager struct {
	mock.Mock
}

var _ contract.RunManager = &MockRunManager{} // Compile-time check

// GetRunStore implements the RunManager interface.
func (m *MockRunManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(kind schema.RunKind, modelName string, modelState schema.ModelState, startTime time.Time) (int64, error) {
	args := m.Called(kind, modelName, modelState, startTime)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, datasetRows int, accuracy *float64) error {
	args := m.Called(runID, endTime, datasetRows, accuracy)
	return args.Error(0)
}

// RecordPrediction implements the RunStore interface.
func (m *MockRunStore) RecordPrediction(runID int64, report *schema.FileReport) error {
	args := m.Called(runID, report)
	return args.Error(0)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.ModelRunRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.ModelRunRecord)
	return records, args.Error(1)
}

// GetAllPredictions implements the RunStore interface.
func (m *MockRunStore) GetAllPredictions() ([]schema.PredictionEventRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.PredictionEventRecord)
	return records, args.Error(1)
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
