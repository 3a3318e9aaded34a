// Package resize produces small cover thumbnails from whatever image data a
// book's cover binary decodes to.
package resize

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dimensions of the stored cover thumbnail, matching the reference
// implementation's fixed cover size.
const (
	Width  = 96
	Height = 144
)

// Thumbnail decodes raw image bytes and resizes them to the fixed cover
// dimensions using a fast box-filter (area-average) resampler rather than a
// high-quality one: a 96x144 cover thumbnail doesn't benefit from Lanczos
// ringing-control and box filtering is several times cheaper at index-build
// scale. Malformed image data that makes the decoder panic (some corrupt
// JPEGs do) is converted into a plain error so one bad cover can't take
// down an indexing run.
func Thumbnail(raw []byte) (jpegBytes []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resize: panic decoding cover image: %v", r)
		}
	}()

	img, _, decErr := image.Decode(bytes.NewReader(raw))
	if decErr != nil {
		return nil, fmt.Errorf("resize: decode cover: %w", decErr)
	}

	thumb := imaging.Thumbnail(img, Width, Height, imaging.Box)

	var buf bytes.Buffer
	if encErr := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); encErr != nil {
		return nil, fmt.Errorf("resize: encode thumbnail: %w", encErr)
	}
	return buf.Bytes(), nil
}
