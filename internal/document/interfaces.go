package document

import (
	"errors"
	"io"
)

// Sentinel errors for the input validation ladder. Callers match these with
// errors.Is to distinguish user-fixable problems from broken files.
var (
	ErrNotFound  = errors.New("file not found")
	ErrNotPDF    = errors.New("not a PDF file")
	ErrEmptyFile = errors.New("file is empty")
	ErrEncrypted = errors.New("PDF is password-protected")
	ErrNoPages   = errors.New("PDF has no pages")
)

// ObjectID identifies one embedded resource inside a document's object graph.
// It stays stable for the lifetime of an open document.
type ObjectID int

// ColorMode describes the declared pixel layout of an embedded image.
type ColorMode int

const (
	ModeUnknown ColorMode = iota
	ModeGray
	ModeRGB
	ModeCMYK
	ModeIndexed
)

// String returns a human-readable name for the color mode.
func (m ColorMode) String() string {
	switch m {
	case ModeGray:
		return "Gray"
	case ModeRGB:
		return "RGB"
	case ModeCMYK:
		return "CMYK"
	case ModeIndexed:
		return "Indexed"
	default:
		return "Unknown"
	}
}

// StreamEncoding describes how an embedded image payload is encoded.
type StreamEncoding int

const (
	// EncodingJPEG means the payload is a complete JPEG file (DCTDecode).
	EncodingJPEG StreamEncoding = iota
	// EncodingRawPixels means the payload is an uncompressed pixel array
	// (after undoing Flate/LZW style filters) laid out per the declared
	// color mode and bit depth.
	EncodingRawPixels
	// EncodingUnsupported covers payloads this layer cannot decode
	// (JPXDecode, CCITTFaxDecode, JBIG2Decode).
	EncodingUnsupported
)

// String returns a human-readable name for the stream encoding.
func (e StreamEncoding) String() string {
	switch e {
	case EncodingJPEG:
		return "JPEG"
	case EncodingRawPixels:
		return "RawPixels"
	default:
		return "Unsupported"
	}
}

// ImageInfo is the inventory-facing record for one embedded image object.
type ImageInfo struct {
	ID               ObjectID
	RawLength        int
	Width            int
	Height           int
	Mode             ColorMode
	BitsPerComponent int
	IsMask           bool
	SoftMask         ObjectID // 0 = no soft mask reference
}

// ImageStream carries the extracted payload of one embedded image plus the
// metadata needed to decode it.
type ImageStream struct {
	ID               ObjectID
	Data             []byte
	Encoding         StreamEncoding
	Width            int
	Height           int
	Mode             ColorMode
	BitsPerComponent int
	Inverted         bool // Decode array reverses channel polarity
	IsMask           bool
	SoftMask         ObjectID
}

// ImageReplacement describes the new payload written over an image object.
// Data must be a complete JPEG stream; the declared metadata is rewritten to
// match it exactly.
type ImageReplacement struct {
	Data             []byte
	Width            int
	Height           int
	Mode             ColorMode // ModeGray or ModeRGB
	BitsPerComponent int
}

// SaveOptions controls the save pass.
type SaveOptions struct {
	// StructuralCompaction removes unreferenced objects and deduplicates
	// shared resources before writing.
	StructuralCompaction bool
	// RecompressPayloads flate-compresses bare (filterless) non-image
	// streams. Image streams keep their payload bytes exactly as replaced
	// or found.
	RecompressPayloads bool
}

// Document is one open PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Images returns the sorted list of embedded image objects.
	Images() ([]ImageInfo, error)
	// ExtractImage returns the payload and decode metadata for one image.
	ExtractImage(id ObjectID) (*ImageStream, error)
	// ReplaceImageStream overwrites an image object's payload and rewrites
	// its declared filter, dimensions, color space and bit depth.
	ReplaceImageStream(id ObjectID, rep ImageReplacement) error
	// StripMetadata drops the information dictionary and XMP metadata.
	StripMetadata()
	// Save writes the document to w.
	Save(w io.Writer, opts SaveOptions) error
}

// Store opens documents. The byte-stream form exists so that search trials
// can re-open the same in-memory baseline without touching the filesystem.
type Store interface {
	Open(path string) (Document, error)
	OpenBytes(data []byte) (Document, error)
}

// Summary reports document-level metadata for inspection commands.
type Summary struct {
	Version  string
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// Summarizer is implemented by documents that can expose their information
// dictionary.
type Summarizer interface {
	Summary() Summary
}
