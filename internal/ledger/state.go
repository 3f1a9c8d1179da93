package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"GridSentinel/internal/model"
)

// LoadSnapshot reads a strategy snapshot from a JSON file. Returns nil if the file doesn't exist.
func LoadSnapshot(filePath string) (*model.StrategySnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.StrategySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &snap, nil
}

// SaveSnapshot writes the snapshot to a JSON file, replacing it atomically.
func SaveSnapshot(filePath string, snap *model.StrategySnapshot) error {
	snap.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
