package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-engine/pkg/types"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadData_ParsesValidRows(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,110,95,105,1000
2024-01-02 00:00:00,105,115,100,110,1200
`)

	provider := NewCSVProvider()
	candles, err := provider.LoadData(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 110.0, candles[1].Close)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), candles[1].Timestamp)
}

func TestLoadData_SkipsMalformedRows(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,110,95,105,1000
not-a-date,100,110,95,105,1000
2024-01-02 00:00:00,abc,115,100,110,1200
2024-01-03 00:00:00,105,90,100,110,1200
2024-01-04 00:00:00,110,120,105,115,1300
`)

	candles, err := NewCSVProvider().LoadData(path)
	require.NoError(t, err)

	// Bad timestamp, bad open, and high<low rows are dropped.
	require.Len(t, candles, 2)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 115.0, candles[1].Close)
}

func TestLoadData_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadData(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestValidateData_RejectsOutOfOrderTimestamps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []types.OHLCV{
		{Open: 100, High: 110, Low: 95, Close: 105, Volume: 1, Timestamp: base.AddDate(0, 0, 1)},
		{Open: 105, High: 115, Low: 100, Close: 110, Volume: 1, Timestamp: base},
	}

	err := NewCSVProvider().ValidateData(candles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chronological")
}

func TestValidateData_Empty(t *testing.T) {
	assert.Error(t, NewCSVProvider().ValidateData(nil))
}
