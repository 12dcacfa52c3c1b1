package statistics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a batch compression operation.
type Statistics struct {
	TotalFilesFound     int64
	TotalFilesProcessed int64
	FilesCompressed     int64
	FilesAlreadySmall   int64
	FilesTextOnly       int64
	FilesUnreachable    int64
	FilesFailed         int64

	ImagesRecoded int64
	ImagesSkipped int64

	BytesOriginal   int64
	BytesCompressed int64

	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
	FilesPerSecond      float64
	AverageSavedPercent float64

	Errors []StatError

	mutex sync.RWMutex

	StatusCounts map[string]int64
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:    time.Now(),
		StatusCounts: make(map[string]int64),
		Errors:       make([]StatError, 0),
	}
}

// IncrementFilesFound increases the count of found files by 1.
func (s *Statistics) IncrementFilesFound() {
	atomic.AddInt64(&s.TotalFilesFound, 1)
}

// IncrementFilesProcessed increases the count of processed files by 1.
func (s *Statistics) IncrementFilesProcessed() {
	atomic.AddInt64(&s.TotalFilesProcessed, 1)
}

// IncrementFilesCompressed increases the count of files that produced an
// output within target by 1.
func (s *Statistics) IncrementFilesCompressed() {
	atomic.AddInt64(&s.FilesCompressed, 1)
}

// IncrementFilesAlreadySmall increases the count of files already within
// target by 1.
func (s *Statistics) IncrementFilesAlreadySmall() {
	atomic.AddInt64(&s.FilesAlreadySmall, 1)
}

// IncrementFilesTextOnly increases the count of files without recompressible
// images by 1.
func (s *Statistics) IncrementFilesTextOnly() {
	atomic.AddInt64(&s.FilesTextOnly, 1)
}

// IncrementFilesUnreachable increases the count of files whose target could
// not be reached by 1.
func (s *Statistics) IncrementFilesUnreachable() {
	atomic.AddInt64(&s.FilesUnreachable, 1)
}

// IncrementFilesFailed increases the count of failed files by 1.
func (s *Statistics) IncrementFilesFailed() {
	atomic.AddInt64(&s.FilesFailed, 1)
}

// AddImagesRecoded adds to the count of re-encoded embedded images.
func (s *Statistics) AddImagesRecoded(n int64) {
	atomic.AddInt64(&s.ImagesRecoded, n)
}

// AddImagesSkipped adds to the count of skipped embedded images.
func (s *Statistics) AddImagesSkipped(n int64) {
	atomic.AddInt64(&s.ImagesSkipped, n)
}

// AddBytesOriginal adds the given number of input bytes.
func (s *Statistics) AddBytesOriginal(bytes int64) {
	atomic.AddInt64(&s.BytesOriginal, bytes)
}

// AddBytesCompressed adds the given number of output bytes.
func (s *Statistics) AddBytesCompressed(bytes int64) {
	atomic.AddInt64(&s.BytesCompressed, bytes)
}

// IncrementStatus increases the count for a specific terminal status by 1.
func (s *Statistics) IncrementStatus(status string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.StatusCounts[status]++
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates final statistics such as duration, files per second
// and average savings.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	totalProcessed := atomic.LoadInt64(&s.TotalFilesProcessed)
	original := atomic.LoadInt64(&s.BytesOriginal)
	compressed := atomic.LoadInt64(&s.BytesCompressed)

	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(totalProcessed) / s.Duration.Seconds()
	}
	if original > 0 && compressed > 0 {
		s.AverageSavedPercent = float64(original-compressed) * 100 / float64(original)
	}
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return fmt.Sprintf(`Batch Compression Summary:

Files:
		Total Found: %d
		Total Processed: %d
		Compressed: %d
		Already Small: %d
		Text Only: %d
		Target Unreachable: %d
		Failed: %d

Images:
		Re-encoded: %d
		Skipped: %d

Bytes:
		Original: %s
		Compressed: %s
		Saved: %.1f%%

Performance:
		Duration: %v
		Files/Second: %.2f`,
		atomic.LoadInt64(&s.TotalFilesFound),
		atomic.LoadInt64(&s.TotalFilesProcessed),
		atomic.LoadInt64(&s.FilesCompressed),
		atomic.LoadInt64(&s.FilesAlreadySmall),
		atomic.LoadInt64(&s.FilesTextOnly),
		atomic.LoadInt64(&s.FilesUnreachable),
		atomic.LoadInt64(&s.FilesFailed),
		atomic.LoadInt64(&s.ImagesRecoded),
		atomic.LoadInt64(&s.ImagesSkipped),
		formatBytes(atomic.LoadInt64(&s.BytesOriginal)),
		formatBytes(atomic.LoadInt64(&s.BytesCompressed)),
		s.AverageSavedPercent,
		s.Duration,
		s.FilesPerSecond)
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GetTotalFilesProcessed returns the total number of files processed.
func (s *Statistics) GetTotalFilesProcessed() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.TotalFilesProcessed
}

// GetFilesFailed returns the total number of failed files.
func (s *Statistics) GetFilesFailed() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.FilesFailed
}

// GetBytesSaved returns the difference between original and compressed bytes.
func (s *Statistics) GetBytesSaved() int64 {
	saved := atomic.LoadInt64(&s.BytesOriginal) - atomic.LoadInt64(&s.BytesCompressed)
	if saved < 0 {
		return 0
	}
	return saved
}

// GetDuration returns the total duration of the operation.
func (s *Statistics) GetDuration() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Duration
}
