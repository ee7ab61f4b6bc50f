package images

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomeryapp/bloomery-admin/internal/errors"
)

func testIngestor(t *testing.T) (*Ingestor, *Registry) {
	t.Helper()
	registry := NewRegistry()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewIngestor(registry, DefaultLimits(), logger), registry
}

// noiseImage produces an image that compresses poorly, so encoded size
// scales with pixel count.
func noiseImage(t *testing.T, w, h int) image.Image {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIngestRejectsOversizedBeforeDecode(t *testing.T) {
	ing, registry := testIngestor(t)

	// 9 MiB of junk: a size violation must win before any decode attempt,
	// so the junk content never matters.
	up := Upload{Name: "huge.jpg", MIME: "image/jpeg", Data: make([]byte, 9<<20)}

	_, err := ing.Ingest(context.Background(), up)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTooLarge)
	assert.Zero(t, registry.Len())
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	ing, _ := testIngestor(t)

	_, err := ing.Ingest(context.Background(), Upload{Name: "notes.txt", MIME: "text/plain", Data: []byte("hello")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
}

func TestIngestSmallPNGSkipsCompression(t *testing.T) {
	ing, _ := testIngestor(t)

	data := encodePNG(t, noiseImage(t, 300, 200))
	require.Less(t, int64(len(data)), DefaultLimits().CompressThreshold)

	asset, err := ing.Ingest(context.Background(), Upload{Name: "bouquet.png", MIME: "image/png", Data: data})
	require.NoError(t, err)
	defer asset.Release()

	// Untouched bytes, but dimensions recovered.
	assert.Equal(t, data, asset.Upload.Data)
	require.NotNil(t, asset.Dimensions)
	assert.Equal(t, 300, asset.Dimensions.Width)
	assert.Equal(t, 200, asset.Dimensions.Height)
	assert.NotEmpty(t, asset.BlurHash)
	assert.NotEmpty(t, asset.Preview.URL())
}

func TestIngestCompressesLargeJPEG(t *testing.T) {
	ing, _ := testIngestor(t)

	data := encodeJPEG(t, noiseImage(t, 2600, 1800), 95)
	require.Greater(t, int64(len(data)), DefaultLimits().CompressThreshold,
		"test image must exceed the compression threshold")
	require.LessOrEqual(t, int64(len(data)), DefaultLimits().MaxBytes,
		"test image must stay within the upload size limit")

	asset, err := ing.Ingest(context.Background(), Upload{Name: "wall.jpg", MIME: "image/jpeg", Data: data})
	require.NoError(t, err)
	defer asset.Release()

	require.NotNil(t, asset.Dimensions)
	assert.LessOrEqual(t, asset.Dimensions.Width, 1920)
	assert.LessOrEqual(t, asset.Dimensions.Height, 1920)
	assert.Equal(t, "image/jpeg", asset.Upload.MIME)
	assert.Less(t, len(asset.Upload.Data), len(data))

	// The compressed bytes decode to the scaled size.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(asset.Upload.Data))
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Width)
}

func TestIngestCompressionFailureFallsBackToOriginal(t *testing.T) {
	ing, _ := testIngestor(t)

	// Valid extension, undecodable content, above the threshold: the
	// compression attempt fails and the original bytes must survive.
	junk := make([]byte, 3<<20)
	up := Upload{Name: "broken.jpg", MIME: "image/jpeg", Data: junk}

	asset, err := ing.Ingest(context.Background(), up)
	require.NoError(t, err)
	defer asset.Release()

	assert.Equal(t, junk, asset.Upload.Data)
	assert.Nil(t, asset.Dimensions)
	assert.Empty(t, asset.BlurHash)
}

func TestIngestCompressionFallbackWithoutLogger(t *testing.T) {
	// A nil logger must not break the fallback path.
	ing := NewIngestor(NewRegistry(), DefaultLimits(), nil)

	junk := make([]byte, 3<<20)
	asset, err := ing.Ingest(context.Background(), Upload{Name: "broken.jpg", MIME: "image/jpeg", Data: junk})
	require.NoError(t, err)
	defer asset.Release()

	assert.Equal(t, junk, asset.Upload.Data)
	assert.Nil(t, asset.Dimensions)
}

func TestIngestCorruptSmallImageFails(t *testing.T) {
	ing, registry := testIngestor(t)

	_, err := ing.Ingest(context.Background(), Upload{Name: "broken.png", MIME: "image/png", Data: []byte("not an image")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDecodeFailed)
	assert.Zero(t, registry.Len())
}

func TestIngestHeicAcceptedWithoutDimensions(t *testing.T) {
	ing, _ := testIngestor(t)

	asset, err := ing.Ingest(context.Background(), Upload{Name: "photo.heic", MIME: "image/heic", Data: []byte("opaque heic bytes")})
	require.NoError(t, err)
	defer asset.Release()

	assert.Nil(t, asset.Dimensions)
	assert.NotNil(t, asset.Preview)
}

func TestSlideLimits(t *testing.T) {
	ing := NewIngestor(NewRegistry(), SlideLimits(), slog.New(slog.NewTextHandler(os.Stderr, nil)))

	_, err := ing.Ingest(context.Background(), Upload{Name: "slide.jpg", MIME: "image/jpeg", Data: make([]byte, 6<<20)})
	assert.ErrorIs(t, err, errors.ErrTooLarge)
}

func TestTypeAllowed(t *testing.T) {
	assert.True(t, TypeAllowed("a.jpeg", ""))
	assert.True(t, TypeAllowed("a.JPG", ""))
	assert.True(t, TypeAllowed("noext", "image/webp"))
	assert.True(t, TypeAllowed("a.heif", ""))
	assert.False(t, TypeAllowed("a.gif", "image/gif"))
	assert.False(t, TypeAllowed("a.pdf", "application/pdf"))
}
