package recorder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "gs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func evaluation(symbol string, supported bool) *model.EvaluationResult {
	res := &model.EvaluationResult{
		Symbol:      symbol,
		IsSupported: supported,
		Reason: map[model.Category][]model.FactorResult{
			model.CategoryTechnical: {
				{Factor: "volatility", DisplayName: "波动率", Value: model.Float(0.21), Threshold: "0.05 - 0.50", IsPassed: true},
			},
			model.CategoryFundamental: {
				{Factor: "pe_ratio", DisplayName: "市盈率", Threshold: "< 50", Conclusion: "缺少市盈率数据"},
			},
			model.CategorySentiment: {
				{Factor: "trend", DisplayName: "趋势", Value: model.Float(0.01), IsPassed: true},
			},
		},
	}
	if supported {
		res.GridConfig = &model.GridConfig{LowerBound: 9, UpperBound: 11, GridCount: 20}
	}
	return res
}

func TestSQLiteRecorder_Evaluations(t *testing.T) {
	r := openTemp(t)

	require.NoError(t, r.RecordEvaluation(evaluation("600000", false)))
	require.NoError(t, r.RecordEvaluation(evaluation("000001", true)))
	require.NoError(t, r.RecordEvaluation(evaluation("600000", true)))

	recs, err := r.ListEvaluations("600000", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].IsSupported)
	assert.False(t, recs[1].IsSupported)
	assert.Equal(t, 3, recs[0].Total)
	assert.Equal(t, 2, recs[0].Passed)

	fs := recs[0].Factors
	require.Len(t, fs, 3)
	assert.Equal(t, []string{"volatility", "pe_ratio", "trend"}, []string{fs[0].Factor, fs[1].Factor, fs[2].Factor})
	require.NotNil(t, fs[0].Value)
	assert.Equal(t, 0.21, *fs[0].Value)
	assert.Nil(t, fs[1].Value)
	assert.Equal(t, "缺少市盈率数据", fs[1].Conclusion)
	assert.True(t, fs[0].IsPassed)
	assert.False(t, fs[1].IsPassed)

	all, err := r.ListEvaluations("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := r.ListEvaluations("", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSQLiteRecorder_FillsAndEvents(t *testing.T) {
	r := openTemp(t)
	require.NoError(t, r.RecordFill(&FillEvent{Symbol: "X", OrderID: "a", Side: "buy", Price: 10, Size: 2, Fee: 0.02}))
	require.NoError(t, r.RecordStrategyEvent(&StrategyEvent{EventType: "EXIT", Symbol: "X", Reason: "stop_loss_breakdown"}))

	var fills, events int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM fills`).Scan(&fills))
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM strategy_events WHERE reason = 'stop_loss_breakdown'`).Scan(&events))
	assert.Equal(t, 1, fills)
	assert.Equal(t, 1, events)
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gs.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordEvaluation(evaluation("X", true)))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()
	recs, err := r.ListEvaluations("X", 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordEvaluation(evaluation("X", true)))
	assert.NoError(t, r.RecordFill(&FillEvent{}))
	assert.NoError(t, r.RecordStrategyEvent(&StrategyEvent{}))
	recs, err := r.ListEvaluations("X", 1)
	assert.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, r.Close())
}
