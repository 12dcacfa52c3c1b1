package imagecodec

import (
	"image"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

// Codec turns extracted image payloads into pixels and back into JPEG.
type Codec interface {
	// Decode materializes the payload as pixels. JPEG payloads are decoded
	// as-is; raw pixel payloads are assembled per the declared layout.
	Decode(stream *document.ImageStream) (image.Image, error)
	// Normalize maps pixels into a JPEG-encodable space: inverted samples
	// are flipped, CMYK converts to RGB, transparency flattens onto white.
	// The returned mode is the one the replacement must declare.
	Normalize(img image.Image, inverted bool) (image.Image, document.ColorMode)
	// Resample scales to exactly width x height.
	Resample(img image.Image, width, height int) image.Image
	// ToGray coerces pixels to single-channel grayscale. Soft masks must
	// stay single-channel whatever their stored form was.
	ToGray(img image.Image) image.Image
	// EncodeJPEG encodes at the given quality (1-100).
	EncodeJPEG(img image.Image, quality int) ([]byte, error)
}
