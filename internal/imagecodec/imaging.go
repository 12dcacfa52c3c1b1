package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

// imagingCodec implements Codec on top of the imaging package, with Lanczos
// resampling to keep text edges readable at low scale factors.
type imagingCodec struct{}

// New returns the default codec.
func New() Codec {
	return &imagingCodec{}
}

func (c *imagingCodec) Decode(stream *document.ImageStream) (image.Image, error) {
	switch stream.Encoding {
	case document.EncodingJPEG:
		img, err := jpeg.Decode(bytes.NewReader(stream.Data))
		if err != nil {
			return nil, fmt.Errorf("decode JPEG payload: %w", err)
		}
		return img, nil
	case document.EncodingRawPixels:
		return rawImage(stream)
	default:
		return nil, fmt.Errorf("undecodable payload encoding %s", stream.Encoding)
	}
}

// rawImage assembles an uncompressed pixel array into an image. Only 8-bit
// gray, RGB and CMYK layouts are supported; everything else is skipped at
// the call site.
func rawImage(stream *document.ImageStream) (image.Image, error) {
	w, h := stream.Width, stream.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", w, h)
	}
	if stream.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported bit depth %d", stream.BitsPerComponent)
	}

	var channels int
	switch stream.Mode {
	case document.ModeGray:
		channels = 1
	case document.ModeRGB:
		channels = 3
	case document.ModeCMYK:
		channels = 4
	default:
		return nil, fmt.Errorf("unsupported color mode %s", stream.Mode)
	}

	need := w * h * channels
	if len(stream.Data) < need {
		return nil, fmt.Errorf("pixel data truncated: have %d bytes, need %d", len(stream.Data), need)
	}
	pix := stream.Data[:need]
	rect := image.Rect(0, 0, w, h)

	switch channels {
	case 1:
		return &image.Gray{Pix: pix, Stride: w, Rect: rect}, nil
	case 4:
		return &image.CMYK{Pix: pix, Stride: 4 * w, Rect: rect}, nil
	}

	rgba := image.NewNRGBA(rect)
	for i, j := 0, 0; i < need; i, j = i+3, j+4 {
		rgba.Pix[j+0] = pix[i+0]
		rgba.Pix[j+1] = pix[i+1]
		rgba.Pix[j+2] = pix[i+2]
		rgba.Pix[j+3] = 255
	}
	return rgba, nil
}

func (c *imagingCodec) Normalize(img image.Image, inverted bool) (image.Image, document.ColorMode) {
	switch src := img.(type) {
	case *image.CMYK:
		// Inversion must happen on the CMYK samples, before the color
		// conversion, or scanned documents come out with wrong colors.
		if inverted {
			src = &image.CMYK{Pix: invertedCopy(src.Pix), Stride: src.Stride, Rect: src.Rect}
		}
		return imaging.Clone(src), document.ModeRGB
	case *image.Gray:
		if inverted {
			src = &image.Gray{Pix: invertedCopy(src.Pix), Stride: src.Stride, Rect: src.Rect}
		}
		return src, document.ModeGray
	}

	if inverted {
		img = imaging.Invert(img)
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		canvas := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0), document.ModeRGB
	}
	return img, document.ModeRGB
}

func invertedCopy(pix []byte) []byte {
	out := make([]byte, len(pix))
	for i, v := range pix {
		out[i] = 255 - v
	}
	return out
}

func (c *imagingCodec) Resample(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// ToGray returns a true single-channel image. imaging.Grayscale keeps four
// channels, which would encode as a 3-component JPEG, so the conversion goes
// through a draw into an image.Gray instead.
func (c *imagingCodec) ToGray(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

func (c *imagingCodec) EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
