package archive

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultThumbnailWidth is the cover thumbnail width in pixels.
const DefaultThumbnailWidth = 300

const thumbnailQuality = 85

// Thumbnail scales img to width pixels, keeping its aspect ratio, and
// encodes it as JPEG.
func Thumbnail(img image.Image, width int) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() || width <= 0 {
		return nil, errors.New("empty image or width")
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
