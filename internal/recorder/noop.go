package recorder

import "GridSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(_ *model.EvaluationResult) error { return nil }
func (n *NoopRecorder) RecordFill(_ *FillEvent) error                    { return nil }
func (n *NoopRecorder) RecordStrategyEvent(_ *StrategyEvent) error       { return nil }
func (n *NoopRecorder) ListEvaluations(_ string, _ int) ([]EvaluationRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
