package runstore

import (
	"testing"
	"time"

	"github.com/defectlab/defectscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleReport builds a classified report for store tests.
func sampleReport(path string, label int, probability float64) *schema.FileReport {
	return &schema.FileReport{
		Path:      path,
		Language:  "Go",
		SizeBytes: 512,
		Digest:    "3c89d034f4ad5bad7c16c378ab9c06b52b8ebd46c968b5c0b2c1b0cbbb8e78b7",
		Metrics: schema.MetricsRecord{
			schema.MetricLOC:           42,
			schema.MetricComments:      4,
			schema.MetricFunctions:     3,
			schema.MetricComplexity:    7,
			schema.MetricAvgLineLength: 28.5,
			schema.MetricTodos:         1,
		},
		Prediction: &schema.Prediction{
			Label:       label,
			Probability: probability,
			ModelName:   "saved model (defect_model.bin)",
			ModelState:  schema.ModelLoaded,
		},
	}
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginRun should return 0 for NoneBackend
	runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelLoaded, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	// Other operations should not error
	err = store.EndRun(1, time.Now(), 10, nil)
	assert.NoError(t, err)

	err = store.RecordPrediction(1, sampleReport("test.go", schema.LabelClean, 0.1))
	assert.NoError(t, err)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	err = store.Close()
	assert.NoError(t, err)
}

func TestRunStore_SQLite(t *testing.T) {
	// Use in-memory SQLite for testing
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test BeginRun
	startTime := time.Now()
	runID, err := store.BeginRun(schema.PredictRun, "saved model (defect_model.bin)", schema.ModelLoaded, startTime)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	// Test RecordPrediction
	err = store.RecordPrediction(runID, sampleReport("test/file.go", schema.LabelDefective, 0.83))
	assert.NoError(t, err)

	// Test EndRun
	endTime := time.Now()
	err = store.EndRun(runID, endTime, 1, nil)
	assert.NoError(t, err)
}

func TestRunStore_RecordPredictionRequiresVerdict(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelFallback, time.Now())
	require.NoError(t, err)

	err = store.RecordPrediction(runID, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no prediction")

	report := sampleReport("bare.go", schema.LabelClean, 0.0)
	report.Prediction = nil
	err = store.RecordPrediction(runID, report)
	assert.Error(t, err)
}

func TestRunStore_MultipleRuns(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Create multiple runs
	var runIDs []int64
	for i := range 3 {
		id, err := store.BeginRun(schema.PredictRun, "model", schema.ModelFallback, time.Now())
		require.NoError(t, err)
		runIDs = append(runIDs, id)

		// Record a prediction for each run
		err = store.RecordPrediction(id, sampleReport("test.go", schema.LabelClean, float64(i)/10))
		assert.NoError(t, err)

		err = store.EndRun(id, time.Now(), 1, nil)
		assert.NoError(t, err)
	}

	// Verify all IDs are unique
	assert.Equal(t, 3, len(runIDs))
	assert.NotEqual(t, runIDs[0], runIDs[1])
	assert.NotEqual(t, runIDs[1], runIDs[2])
}

func TestRunStore_RuntimeCapture(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	t.Run("runtime calculation", func(t *testing.T) {
		// Start the run at a known time in the past
		startTime := time.Now().Add(-100 * time.Millisecond)
		runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelLoaded, startTime)
		require.NoError(t, err)

		endTime := time.Now()
		err = store.EndRun(runID, endTime, 1, nil)
		assert.NoError(t, err)

		// Query the database to verify runtime was captured
		db := store.(*RunStoreImpl).db
		var storedStartTime, storedEndTime string
		var storedDurationMs int64

		row := db.QueryRow("SELECT start_time, end_time, run_duration_ms FROM defect_model_runs WHERE run_id = ?", runID)
		err = row.Scan(&storedStartTime, &storedEndTime, &storedDurationMs)
		assert.NoError(t, err)

		// Parse stored times
		storedStart, err := time.Parse(time.RFC3339Nano, storedStartTime)
		assert.NoError(t, err)
		storedEnd, err := time.Parse(time.RFC3339Nano, storedEndTime)
		assert.NoError(t, err)

		// Verify duration calculation: should be approximately end - start
		expectedDurationMs := storedEnd.Sub(storedStart).Milliseconds()
		assert.Equal(t, expectedDurationMs, storedDurationMs)

		// Duration covers at least the initial offset, plus test overhead
		assert.GreaterOrEqual(t, storedDurationMs, int64(100))
		assert.LessOrEqual(t, storedDurationMs, int64(300))
	})

	t.Run("zero duration edge case", func(t *testing.T) {
		// Test with same start and end time
		startTime := time.Now()
		runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelLoaded, startTime)
		require.NoError(t, err)

		// End immediately with same time
		err = store.EndRun(runID, startTime, 1, nil)
		assert.NoError(t, err)

		// Verify duration is 0
		db := store.(*RunStoreImpl).db
		var storedDurationMs int64
		row := db.QueryRow("SELECT run_duration_ms FROM defect_model_runs WHERE run_id = ?", runID)
		err = row.Scan(&storedDurationMs)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), storedDurationMs)
	})
}

func TestRunStore_GetAllRuns(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test empty store
	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	// One completed training run with accuracy
	startTime := time.Now()
	trainID, err := store.BeginRun(schema.TrainRun, "saved model (defect_model.bin)", schema.ModelLoaded, startTime)
	require.NoError(t, err)
	accuracy := 0.91
	err = store.EndRun(trainID, startTime.Add(time.Minute), 4505, &accuracy)
	assert.NoError(t, err)

	// One prediction run that is still in flight
	predictID, err := store.BeginRun(schema.PredictRun, "fallback random-forest (synthetic)", schema.ModelFallback, startTime)
	require.NoError(t, err)

	// Get all runs
	runs, err = store.GetAllRuns()
	assert.NoError(t, err)
	require.Len(t, runs, 2)

	trainRun := runs[0]
	assert.Equal(t, trainID, trainRun.RunID)
	assert.Equal(t, schema.TrainRun, trainRun.Kind)
	assert.Equal(t, "saved model (defect_model.bin)", trainRun.ModelName)
	assert.Equal(t, schema.ModelLoaded, trainRun.ModelState)
	assert.Equal(t, int32(4505), trainRun.DatasetRows)
	require.NotNil(t, trainRun.Accuracy)
	assert.InDelta(t, 0.91, *trainRun.Accuracy, 0.0001)
	require.NotNil(t, trainRun.EndTime)
	require.NotNil(t, trainRun.DurationMs)
	assert.Greater(t, *trainRun.DurationMs, int32(0))

	predictRun := runs[1]
	assert.Equal(t, predictID, predictRun.RunID)
	assert.Equal(t, schema.PredictRun, predictRun.Kind)
	assert.Equal(t, schema.ModelFallback, predictRun.ModelState)
	assert.Equal(t, int32(0), predictRun.DatasetRows)
	assert.Nil(t, predictRun.Accuracy)
	assert.Nil(t, predictRun.EndTime)
	assert.Nil(t, predictRun.DurationMs)
}

func TestRunStore_GetAllPredictions(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Test empty store
	events, err := store.GetAllPredictions()
	assert.NoError(t, err)
	assert.Empty(t, events)

	runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelLoaded, time.Now())
	require.NoError(t, err)

	report := sampleReport("src/main.go", schema.LabelDefective, 0.83)
	err = store.RecordPrediction(runID, report)
	assert.NoError(t, err)

	err = store.RecordPrediction(runID, sampleReport("src/other.go", schema.LabelClean, 0.05))
	assert.NoError(t, err)

	// Get all events
	events, err = store.GetAllPredictions()
	assert.NoError(t, err)
	require.Len(t, events, 2)

	event := events[0]
	assert.Greater(t, event.EventID, int64(0))
	assert.Equal(t, runID, event.RunID)
	assert.Equal(t, "src/main.go", event.FilePath)
	assert.Equal(t, "Go", event.Language)
	assert.Equal(t, report.Digest, event.Digest)
	assert.Equal(t, int32(schema.LabelDefective), event.Label)
	assert.InDelta(t, 0.83, event.Probability, 0.0001)
	assert.WithinDuration(t, time.Now(), event.CreatedTime, time.Minute)

	// Events come back oldest first
	assert.Less(t, events[0].EventID, events[1].EventID)
}

func TestRunStore_GetStatus(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	// Empty store still reports its backend and table sizes
	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, 0, status.TotalPredictions)
	assert.Equal(t, int64(0), status.TableSizes[modelRunsTable])
	assert.Equal(t, int64(0), status.TableSizes[predictionEventsTable])

	// Populate one run with two predictions
	runID, err := store.BeginRun(schema.PredictRun, "model", schema.ModelLoaded, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.RecordPrediction(runID, sampleReport("a.go", schema.LabelClean, 0.2)))
	require.NoError(t, store.RecordPrediction(runID, sampleReport("b.go", schema.LabelDefective, 0.9)))
	require.NoError(t, store.EndRun(runID, time.Now(), 2, nil))

	status, err = store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, 2, status.TotalPredictions)
	assert.Equal(t, runID, status.LastRunID)
	assert.WithinDuration(t, time.Now(), status.LastRunTime, time.Minute)
	assert.WithinDuration(t, time.Now(), status.OldestRunTime, time.Minute)
	assert.Equal(t, int64(1), status.TableSizes[modelRunsTable])
	assert.Equal(t, int64(2), status.TableSizes[predictionEventsTable])
}

func TestRunStore_GetStatusNoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.Empty(t, status.TableSizes)
}

func TestNewRunStoreErrors(t *testing.T) {
	// Unsupported backend
	_, err := NewRunStore(schema.DatabaseBackend("cockroach"), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")

	// SQLite pointed at an unwritable location
	_, err = NewRunStore(schema.SQLiteBackend, "/nonexistent-root-dir/runs.db")
	assert.Error(t, err)
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		name     string
		backend  schema.DatabaseBackend
		expected string
	}{
		{"sqlite uses double quotes", schema.SQLiteBackend, `"defect_model_runs"`},
		{"postgresql uses double quotes", schema.PostgreSQLBackend, `"defect_model_runs"`},
		{"mysql uses backticks", schema.MySQLBackend, "`defect_model_runs`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteTableName(modelRunsTable, tt.backend))
		})
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC)

	// SQLite stores times as RFC3339Nano strings
	formatted := formatTime(ts, schema.SQLiteBackend)
	str, ok := formatted.(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339Nano, str)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	// Native datetime backends receive the time.Time unchanged
	assert.Equal(t, ts, formatTime(ts, schema.MySQLBackend))
	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
}
