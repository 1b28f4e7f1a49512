package content

import (
	"bytes"
	"image"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const (
	thumbnailDim     = 128
	thumbnailQuality = 80
)

// GenerateThumbnail scales image data down to fit 128x128 and encodes it as
// JPEG using Lanczos resampling. Payloads that do not decode as an image
// produce no thumbnail: both return values are nil.
func GenerateThumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	thumb := imaging.Fit(img, thumbnailDim, thumbnailDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, errors.Wrap(err, "encoding thumbnail")
	}
	return buf.Bytes(), nil
}
