package ledger

import (
	"sync"

	"GridSentinel/internal/model"
)

// Ledger keeps the latest strategy snapshot on disk.
type Ledger struct {
	mu       sync.Mutex
	snap     *model.StrategySnapshot
	filePath string
}

// Open loads the snapshot at filePath, if any.
func Open(filePath string) (*Ledger, error) {
	snap, err := LoadSnapshot(filePath)
	if err != nil {
		return nil, err
	}
	return &Ledger{snap: snap, filePath: filePath}, nil
}

// Latest returns a copy of the stored snapshot. The boolean is false when nothing was saved yet.
func (l *Ledger) Latest() (model.StrategySnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap == nil {
		return model.StrategySnapshot{}, false
	}
	cp := *l.snap
	cp.Lots = append([]model.LotSnapshot(nil), l.snap.Lots...)
	return cp, true
}

// Save replaces the stored snapshot and writes it to disk.
func (l *Ledger) Save(snap model.StrategySnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := SaveSnapshot(l.filePath, &snap); err != nil {
		return err
	}
	l.snap = &snap
	return nil
}

func (l *Ledger) Path() string { return l.filePath }
