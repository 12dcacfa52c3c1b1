package compressor

import (
	"context"
	"encoding/json"
	"time"
)

// Status classifies the terminal state of a compression run. Exactly one
// status holds at completion.
type Status int

const (
	// StatusSuccess means a quality or scale search met the target and the
	// output file was written.
	StatusSuccess Status = iota
	// StatusAlreadySmall means the input already fits the target; no output
	// is written.
	StatusAlreadySmall
	// StatusLosslessSufficient means structural optimization alone met the
	// target and the output file was written.
	StatusLosslessSufficient
	// StatusTextOnly means the document has no recompressible images, so
	// the lossless size is the floor; no output is written.
	StatusTextOnly
	// StatusUnreachable means no quality/scale combination in range meets
	// the target; MinimumBytes reports the achievable floor.
	StatusUnreachable
	// StatusCancelled means the caller cancelled mid-run; no output is
	// written.
	StatusCancelled
	// StatusFailed means an unrecoverable error stopped the run.
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAlreadySmall:
		return "already_small"
	case StatusLosslessSufficient:
		return "lossless_sufficient"
	case StatusTextOnly:
		return "text_only"
	case StatusUnreachable:
		return "unreachable"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ProgressFunc receives a monotonically non-decreasing completion percentage
// out of 100 plus a human-readable phase message.
type ProgressFunc func(percent int, message string)

// CompressionParams defines one target-size compression run.
type CompressionParams struct {
	InputPath   string
	OutputPath  string
	TargetBytes int64
	// Progress is optional; nil disables reporting.
	Progress ProgressFunc
}

// Image actions recorded per embedded image.
const (
	ImageRecoded = "recoded"
	ImageSkipped = "skipped"
)

// ImageRecord describes what happened to one embedded image object in the
// winning pass.
type ImageRecord struct {
	ID            int    `json:"id"`
	Action        string `json:"action"`
	Reason        string `json:"reason,omitempty"`
	OriginalBytes int    `json:"original_bytes"`
	NewBytes      int    `json:"new_bytes,omitempty"`
}

// CompressionResult describes the outcome of compressing a single file.
type CompressionResult struct {
	Status          Status        `json:"status"`
	InputPath       string        `json:"input_path"`
	OutputPath      string        `json:"output_path,omitempty"`
	TargetBytes     int64         `json:"target_bytes"`
	OriginalSize    int64         `json:"original_size"`
	LosslessSize    int64         `json:"lossless_size,omitempty"`
	CompressedSize  int64         `json:"compressed_size,omitempty"`
	MinimumBytes    int64         `json:"minimum_bytes,omitempty"`
	PercentageSaved float64       `json:"percentage_saved"`
	Quality         int           `json:"quality,omitempty"`
	Scale           float64       `json:"scale,omitempty"`
	Iterations      int           `json:"iterations"`
	PageCount       int           `json:"page_count"`
	ImagesTotal     int           `json:"images_total"`
	ImagesRecoded   int           `json:"images_recoded"`
	ImagesSkipped   int           `json:"images_skipped"`
	Images          []ImageRecord `json:"images,omitempty"`
	Message         string        `json:"message"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}

// OK reports whether the run ended in a state that satisfies the target.
func (r *CompressionResult) OK() bool {
	switch r.Status {
	case StatusSuccess, StatusAlreadySmall, StatusLosslessSufficient:
		return true
	}
	return false
}

// Compressor defines the interface for target-size PDF compression.
type Compressor interface {
	// CompressToTarget compresses a single PDF toward params.TargetBytes.
	// The returned result is always non-nil and carries the terminal state;
	// the error is non-nil for input errors, unrecoverable errors and
	// cancellation (context.Canceled).
	CompressToTarget(ctx context.Context, params CompressionParams) (*CompressionResult, error)
}
