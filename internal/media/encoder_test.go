package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmart/listing-intake/internal/domain"
)

func pngFile(t *testing.T, name string, w, h int) File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return File{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func decodeDataURL(t *testing.T, ref, wantPrefix string) []byte {
	t.Helper()
	require.True(t, strings.HasPrefix(ref, wantPrefix), "ref %.40q lacks prefix %q", ref, wantPrefix)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, wantPrefix))
	require.NoError(t, err)
	return raw
}

func TestDataURLEncoder_ImageReencodedAsJPEG(t *testing.T) {
	enc := NewDataURLEncoder()
	f := pngFile(t, "photo.png", 640, 480)

	ref, err := enc.Encode(context.Background(), f, domain.MediaImage)
	require.NoError(t, err)

	raw := decodeDataURL(t, ref, "data:image/jpeg;base64,")
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	// Below the cap, dimensions are untouched.
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestDataURLEncoder_DownscalesLongerSide(t *testing.T) {
	enc := &DataURLEncoder{MaxDimension: 100, Quality: 70}

	wide := pngFile(t, "wide.png", 400, 200)
	ref, err := enc.Encode(context.Background(), wide, domain.MediaImage)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(decodeDataURL(t, ref, "data:image/jpeg;base64,")))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	tall := pngFile(t, "tall.png", 200, 400)
	ref, err = enc.Encode(context.Background(), tall, domain.MediaImage)
	require.NoError(t, err)
	img, err = jpeg.Decode(bytes.NewReader(decodeDataURL(t, ref, "data:image/jpeg;base64,")))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestDataURLEncoder_VideoPassesThrough(t *testing.T) {
	enc := NewDataURLEncoder()
	data := []byte("not really an mp4")
	f := File{Name: "clip.mp4", ContentType: "video/mp4", Data: data}

	ref, err := enc.Encode(context.Background(), f, domain.MediaVideo)
	require.NoError(t, err)
	assert.Equal(t, data, decodeDataURL(t, ref, "data:video/mp4;base64,"))
}

func TestDataURLEncoder_CorruptImageFails(t *testing.T) {
	enc := NewDataURLEncoder()
	f := File{Name: "junk.jpg", ContentType: "image/jpeg", Data: []byte("definitely not jpeg")}

	_, err := enc.Encode(context.Background(), f, domain.MediaImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "junk.jpg")
}

func TestDataURLEncoder_HonorsCanceledContext(t *testing.T) {
	enc := NewDataURLEncoder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enc.Encode(ctx, pngFile(t, "photo.png", 10, 10), domain.MediaImage)
	assert.ErrorIs(t, err, context.Canceled)
}
