package crop

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"euphro-assets/internal/domain"
)

// ParseFormat maps a user supplied format name to an output format. Formats
// that cannot be encoded fall back to PNG.
func ParseFormat(s string) domain.ImageFormat {
	switch strings.ToLower(s) {
	case "jpg", "jpeg":
		return domain.FormatJPEG
	case "gif":
		return domain.FormatGIF
	default:
		return domain.FormatPNG
	}
}

func encode(img image.Image, format domain.ImageFormat, quality int) ([]byte, domain.ImageFormat, error) {
	buf := new(bytes.Buffer)
	var err error

	switch format {
	case domain.FormatJPEG:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: quality})
	case domain.FormatGIF:
		err = gif.Encode(buf, img, nil)
	default:
		err = png.Encode(buf, img)
		format = domain.FormatPNG
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s image: %w", format, err)
	}

	return buf.Bytes(), format, nil
}
