package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif" // register decoders for accepted image types
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/localmart/listing-intake/internal/domain"
)

// Encoder turns an accepted file into its durable string-encoded form.
type Encoder interface {
	Encode(ctx context.Context, f File, kind domain.MediaKind) (string, error)
}

// DataURLEncoder produces base64 data URLs. Images are downscaled to
// MaxDimension on their longer side and re-encoded as JPEG at Quality;
// videos pass through unchanged.
type DataURLEncoder struct {
	MaxDimension int // pixels, longer side
	Quality      int // JPEG quality 1–100
}

// NewDataURLEncoder returns an encoder with the listing defaults:
// 1200px longer side, JPEG quality 70.
func NewDataURLEncoder() *DataURLEncoder {
	return &DataURLEncoder{MaxDimension: 1200, Quality: 70}
}

func (e *DataURLEncoder) Encode(ctx context.Context, f File, kind domain.MediaKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if kind == domain.MediaVideo {
		return dataURL(f.ContentType, f.Data), nil
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return "", fmt.Errorf("decode image %q: %w", f.Name, err)
	}

	img = e.downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return "", fmt.Errorf("encode image %q: %w", f.Name, err)
	}
	return dataURL("image/jpeg", buf.Bytes()), nil
}

// downscale bounds the longer side at MaxDimension, preserving aspect
// ratio. Smaller images are returned as-is.
func (e *DataURLEncoder) downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= e.MaxDimension && h <= e.MaxDimension {
		return img
	}

	var tw, th int
	if w >= h {
		tw = e.MaxDimension
		th = h * e.MaxDimension / w
	} else {
		th = e.MaxDimension
		tw = w * e.MaxDimension / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
