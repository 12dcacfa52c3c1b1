package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svetozar-Technologies/LocalPDF/internal/compressor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(input string, size int64) *compressor.CompressionResult {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &compressor.CompressionResult{
		Status:          compressor.StatusSuccess,
		InputPath:       input,
		OutputPath:      input + ".out",
		TargetBytes:     size / 2,
		OriginalSize:    size,
		CompressedSize:  size / 2,
		PercentageSaved: 50,
		Quality:         40,
		Scale:           1.0,
		Iterations:      5,
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(sampleResult("a.pdf", 10000)))
	require.NoError(t, store.Record(sampleResult("b.pdf", 20000)))

	records, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "b.pdf", records[0].InputPath)
	assert.Equal(t, "a.pdf", records[1].InputPath)

	first := records[1]
	assert.Equal(t, "success", first.Status)
	assert.Equal(t, int64(10000), first.OriginalSize)
	assert.Equal(t, int64(5000), first.CompressedSize)
	assert.Equal(t, 40, first.Quality)
	assert.Equal(t, int64(1500), first.DurationMS)
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(sampleResult("doc.pdf", 1000)))
	}

	records, err := store.Recent(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecordNilResult(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Record(nil))
}
