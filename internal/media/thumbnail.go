package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"

	"github.com/disintegration/imaging"
)

// RotatedMessage is recorded on assets whose orientation was corrected.
const RotatedMessage = "The asset has been rotated"

// DefaultThumbnailQuality is the JPEG quality of stored thumbnails.
const DefaultThumbnailQuality = 80

// Thumbnail is a rendered thumbnail and the orientation correction applied.
type Thumbnail struct {
	Image           image.Image
	Data            []byte // JPEG encoded
	Width           int
	Height          int
	Rotation        catalog.Rotation
	Rotated         bool
	RotationMessage string
}

// ThumbnailGenerator renders bounded, upright JPEG thumbnails from image bytes.
type ThumbnailGenerator struct {
	quality int
	useVips bool
}

// NewThumbnailGenerator creates a generator. libvips is used only when
// useVips is set and InitVips succeeded.
func NewThumbnailGenerator(useVips bool) *ThumbnailGenerator {
	return &ThumbnailGenerator{
		quality: DefaultThumbnailQuality,
		useVips: useVips,
	}
}

// Generate scales data to fit within maxWidth x maxHeight, preserving aspect
// ratio, and corrects declared EXIF orientation.
func (g *ThumbnailGenerator) Generate(data []byte, maxWidth, maxHeight int) (*Thumbnail, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid thumbnail bounds %dx%d", maxWidth, maxHeight)
	}

	orientation := ReadOrientation(data)
	thumb := &Thumbnail{Rotation: RotationForOrientation(orientation)}
	if orientation != 1 {
		thumb.Rotated = true
		thumb.RotationMessage = RotatedMessage
	}

	backend := "imaging"
	start := time.Now()

	var err error
	if g.useVips && IsVipsAvailable() {
		backend = "vips"
		err = g.renderVips(thumb, data, maxWidth, maxHeight)
		if err != nil {
			logging.Debug("vips thumbnail failed, falling back to imaging: %v", err)
			backend = "imaging"
			err = g.renderImaging(thumb, data, maxWidth, maxHeight)
		}
	} else {
		err = g.renderImaging(thumb, data, maxWidth, maxHeight)
	}
	if err != nil {
		metrics.ThumbnailErrors.Inc()
		return nil, err
	}

	metrics.ThumbnailGenerationDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())

	bounds := thumb.Image.Bounds()
	thumb.Width = bounds.Dx()
	thumb.Height = bounds.Dy()
	return thumb, nil
}

func (g *ThumbnailGenerator) renderVips(thumb *Thumbnail, data []byte, maxWidth, maxHeight int) error {
	out, err := thumbnailWithVips(data, maxWidth, maxHeight, g.quality)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("failed to decode vips output: %w", err)
	}
	thumb.Image = img
	thumb.Data = out
	return nil
}

func (g *ThumbnailGenerator) renderImaging(thumb *Thumbnail, data []byte, maxWidth, maxHeight int) error {
	img, err := DecodeOriented(data)
	if err != nil {
		return err
	}

	b := img.Bounds()
	if w, h, ok := constrainedSize(b.Dx(), b.Dy(), MaxImageDimension, MaxImagePixels); ok {
		logging.Debug("Constraining large image from %dx%d to %dx%d", b.Dx(), b.Dy(), w, h)
		img = imaging.Resize(img, w, h, imaging.Box)
	}

	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: g.quality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumb.Image = fitted
	thumb.Data = buf.Bytes()
	return nil
}
