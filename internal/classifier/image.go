package classifier

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register the JPEG decoder.
	_ "image/png"  // Register the PNG decoder.
)

// ErrEmptyImage is returned for an empty image payload.
var ErrEmptyImage = errors.New("empty image")

// DecodeImage decodes a PNG or JPEG payload.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}
