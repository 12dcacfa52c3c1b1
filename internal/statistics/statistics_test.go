package statistics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndFinalize(t *testing.T) {
	s := NewStatistics()

	for i := 0; i < 4; i++ {
		s.IncrementFilesFound()
	}
	for i := 0; i < 3; i++ {
		s.IncrementFilesProcessed()
	}
	s.IncrementFilesCompressed()
	s.IncrementFilesCompressed()
	s.IncrementFilesAlreadySmall()
	s.IncrementStatus("success")
	s.IncrementStatus("success")
	s.IncrementStatus("already_small")
	s.AddImagesRecoded(7)
	s.AddImagesSkipped(2)
	s.AddBytesOriginal(1000)
	s.AddBytesCompressed(250)

	s.Finalize()

	assert.Equal(t, int64(4), s.TotalFilesFound)
	assert.Equal(t, int64(3), s.GetTotalFilesProcessed())
	assert.Equal(t, int64(2), s.FilesCompressed)
	assert.Equal(t, int64(2), s.StatusCounts["success"])
	assert.Equal(t, int64(1), s.StatusCounts["already_small"])
	assert.Equal(t, int64(750), s.GetBytesSaved())
	assert.InDelta(t, 75.0, s.AverageSavedPercent, 0.01)
	assert.False(t, s.EndTime.IsZero())
	assert.Equal(t, s.Duration, s.GetDuration())
}

func TestGetSummaryContainsCounts(t *testing.T) {
	s := NewStatistics()
	s.IncrementFilesFound()
	s.IncrementFilesFound()
	s.IncrementFilesProcessed()
	s.IncrementFilesCompressed()
	s.AddBytesOriginal(2048)
	s.AddBytesCompressed(1024)
	s.Finalize()

	summary := s.GetSummary()
	assert.Contains(t, summary, "Total Found: 2")
	assert.Contains(t, summary, "Compressed: 1")
	assert.Contains(t, summary, "Original: 2.0 KB")
	assert.Contains(t, summary, "Saved: 50.0%")
}

func TestGetErrorSummary(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, "No errors occurred during processing", s.GetErrorSummary())

	s.AddError("/tmp/a.pdf", "compress", "broken xref")
	s.AddError("/tmp/b.pdf", "compress", "no pages")

	summary := s.GetErrorSummary()
	assert.Contains(t, summary, "Errors (2 total)")
	assert.Contains(t, summary, "compress: /tmp/a.pdf - broken xref")
	assert.Equal(t, int64(0), s.GetFilesFailed())
}

func TestGetErrorSummaryTruncatesLongLists(t *testing.T) {
	s := NewStatistics()
	for i := 0; i < 13; i++ {
		s.AddError(fmt.Sprintf("/tmp/%d.pdf", i), "compress", "bad file")
	}

	summary := s.GetErrorSummary()
	assert.Contains(t, summary, "Errors (13 total)")
	assert.Contains(t, summary, "and 3 more errors")
	require.Len(t, s.Errors, 13)
}

func TestGetBytesSavedNeverNegative(t *testing.T) {
	s := NewStatistics()
	s.AddBytesOriginal(100)
	s.AddBytesCompressed(300)
	assert.Equal(t, int64(0), s.GetBytesSaved())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
