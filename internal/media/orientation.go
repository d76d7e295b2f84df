package media

import (
	"bytes"

	"media-catalog/internal/catalog"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadOrientation returns the EXIF orientation (1-8) declared by JPEG or TIFF
// bytes. It returns 1 when no valid orientation is present.
func ReadOrientation(data []byte) (orientation int) {
	// Malformed IFDs can panic inside the EXIF decoder.
	defer func() {
		if recover() != nil {
			orientation = 1
		}
	}()

	switch DetectFormat(data) {
	case "jpeg", "tiff":
	default:
		return 1
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := tag.Int(0)
	if err != nil || value < 1 || value > 8 {
		return 1
	}
	return value
}

// RotationForOrientation maps an EXIF orientation to the clockwise rotation
// needed to display the image upright. Mirrored orientations map to the
// rotation of their non-mirrored counterpart.
func RotationForOrientation(orientation int) catalog.Rotation {
	switch orientation {
	case 3, 4:
		return catalog.Rotate180
	case 5, 6:
		return catalog.Rotate90
	case 7, 8:
		return catalog.Rotate270
	default:
		return catalog.Rotate0
	}
}
