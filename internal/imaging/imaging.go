package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"

	_ "golang.org/x/image/webp"
)

// DecodeError marks bytes that were fetched but are not a valid image. The
// orchestrator treats it as fatal to the job; callers detect it with
// errors.As.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode image: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Frame is a decoded image shared read-only between analyzers.
type Frame struct {
	Image  image.Image
	Format string
	Width  int
	Height int
}

// Decode decodes PNG, JPEG, GIF, BMP and WEBP bytes into a Frame.
func Decode(data []byte) (*Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &DecodeError{Err: errors.New("empty image")}
	}
	return &Frame{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Encode writes img in the requested format and returns the bytes together
// with the format actually used. WEBP has no pure-Go encoder, so it falls
// back to PNG; the caller must derive artifact keys from the returned format.
func Encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	used := format

	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "webp":
		used = "png"
		err = png.Encode(&buf, img)
	default:
		return nil, "", fmt.Errorf("unsupported encode format %q", format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", used, err)
	}
	return buf.Bytes(), used, nil
}

// MIMEForFormat maps a decode format name onto its content type.
func MIMEForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Grayscale converts img into an 8-bit gray buffer using Rec.601 luma.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.SetGray(x, y, color.Gray{Y: uint8(luma + 0.5)})
		}
	}
	return gray
}
