package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/model"
)

func TestLedger_SaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "600000.json")

	l, err := Open(path)
	require.NoError(t, err)
	_, ok := l.Latest()
	assert.False(t, ok)

	snap := model.StrategySnapshot{
		Symbol:           "600000",
		Mode:             "RUNNING",
		TickID:           12,
		LastPrice:        10.2,
		CashQuote:        5000,
		InventoryBase:    30,
		RealizedPnLQuote: 12.5,
		Lots:             []model.LotSnapshot{{LevelIdx: 3, Price: 9.8, Size: 30}},
	}
	require.NoError(t, l.Save(snap))

	got, ok := l.Latest()
	require.True(t, ok)
	assert.False(t, got.UpdatedAt.IsZero())
	got.Lots[0].Size = 1
	again, _ := l.Latest()
	assert.Equal(t, 30.0, again.Lots[0].Size)

	reopened, err := Open(path)
	require.NoError(t, err)
	loaded, ok := reopened.Latest()
	require.True(t, ok)
	assert.Equal(t, "600000", loaded.Symbol)
	assert.Equal(t, int64(12), loaded.TickID)
	assert.Equal(t, snap.Lots, loaded.Lots)
	assert.NoFileExists(t, path+".tmp")
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}
