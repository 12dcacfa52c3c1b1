package history

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Svetozar-Technologies/LocalPDF/internal/compressor"
)

// CompressionRecord is one finished compression run.
type CompressionRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	InputPath       string    `json:"input_path"`
	OutputPath      string    `json:"output_path"`
	Status          string    `json:"status"`
	TargetBytes     int64     `json:"target_bytes"`
	OriginalSize    int64     `json:"original_size"`
	CompressedSize  int64     `json:"compressed_size"`
	PercentageSaved float64   `json:"percentage_saved"`
	Quality         int       `json:"quality"`
	Scale           float64   `json:"scale"`
	Iterations      int       `json:"iterations"`
	DurationMS      int64     `json:"duration_ms"`
}

// Store persists compression runs in a local SQLite database.
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

// Open opens or creates the history database at path and migrates the
// schema.
func Open(path string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.New()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&CompressionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	log.Debugf("History database ready at %s", path)
	return &Store{db: db, log: log}, nil
}

// Record stores a finished compression run.
func (s *Store) Record(res *compressor.CompressionResult) error {
	if res == nil {
		return fmt.Errorf("nil compression result")
	}

	rec := CompressionRecord{
		InputPath:       res.InputPath,
		OutputPath:      res.OutputPath,
		Status:          res.Status.String(),
		TargetBytes:     res.TargetBytes,
		OriginalSize:    res.OriginalSize,
		CompressedSize:  res.CompressedSize,
		PercentageSaved: res.PercentageSaved,
		Quality:         res.Quality,
		Scale:           res.Scale,
		Iterations:      res.Iterations,
		DurationMS:      res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record compression run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first. A non-positive limit
// defaults to 20.
func (s *Store) Recent(limit int) ([]CompressionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []CompressionRecord
	if err := s.db.Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
