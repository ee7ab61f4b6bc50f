// Package images provides the product image ingestion pipeline: upload
// validation, compression, dimension extraction, preview handles, and
// on-disk storage for saved product images.
package images

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/bloomeryapp/bloomery-admin/internal/errors"
)

// Limits bounds what the ingestion pipeline accepts and produces.
type Limits struct {
	MaxBytes          int64   // Reject anything larger outright
	CompressThreshold int64   // Compress files above this size
	MaxEdge           int     // Longest edge after compression
	Quality           float64 // JPEG re-encode quality (0-1)
}

// DefaultLimits are the product-form upload limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:          8 << 20,
		CompressThreshold: 2 << 20,
		MaxEdge:           1920,
		Quality:           0.85,
	}
}

// SlideLimits are the hero slide upload limits. Same pipeline, tighter
// size ceiling.
func SlideLimits() Limits {
	l := DefaultLimits()
	l.MaxBytes = 5 << 20
	return l
}

// allowedExtensions is the closed set of accepted image types.
// heic/heif pass the gate but have no registered decoder; their
// dimensions stay unknown.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Upload is a user-selected file entering the pipeline.
type Upload struct {
	Name string // Original filename, used for the extension gate
	MIME string // Declared content type, may be empty
	Data []byte
}

// Dimensions are the pixel dimensions of a decoded image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Asset is the result of a successful ingestion. The caller owns the
// preview handle and must Release it when the asset is retired.
type Asset struct {
	Upload     Upload       // Possibly the compressed replacement of the original
	Preview    *Handle      // Revocable preview reference
	Dimensions *Dimensions  // nil when the format could not be decoded
	BlurHash   string       // Placeholder hash, empty on decode failure
}

// Release revokes the asset's preview handle. Safe on nil and safe to
// call more than once.
func (a *Asset) Release() {
	if a == nil || a.Preview == nil {
		return
	}
	a.Preview.Release()
}

// Ingestor validates, compresses, and measures uploaded images.
type Ingestor struct {
	previews *Registry
	limits   Limits
	logger   *slog.Logger
}

// NewIngestor creates an ingestor issuing previews from the given registry.
func NewIngestor(previews *Registry, limits Limits, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		previews: previews,
		limits:   limits,
		logger:   logger,
	}
}

// Ingest runs the pipeline on an upload:
//
//  1. Reject on size or type violation before any decode work.
//  2. Above the compression threshold, decode, scale the longest edge
//     down to the limit, and re-encode; on any compression failure fall
//     back to the original bytes and recover dimensions best-effort.
//  3. At or below the threshold, decode once for dimensions only.
//  4. Issue a revocable preview handle for the resulting bytes.
//
// A decode failure for a decodable format aborts the ingestion without
// touching any previously accepted asset; heic/heif are accepted without
// dimensions since no decoder is registered for them.
func (ing *Ingestor) Ingest(ctx context.Context, up Upload) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if int64(len(up.Data)) > ing.limits.MaxBytes {
		return nil, errors.TooLarge("image exceeds the upload size limit")
	}
	if !TypeAllowed(up.Name, up.MIME) {
		return nil, errors.UnsupportedType("only jpeg, png, webp, and heic images are supported")
	}

	result := up
	var dims *Dimensions
	var hash string

	if int64(len(up.Data)) > ing.limits.CompressThreshold {
		compressed, img, err := compress(up, ing.limits)
		if err != nil {
			// Compression must never block ingestion. Keep the original
			// bytes and try a secondary decode for dimensions only.
			ing.warn("image compression failed, keeping original",
				"name", up.Name,
				"size", len(up.Data),
				"error", err,
			)
			if img2, decodeErr := decodeImage(up.Data); decodeErr == nil {
				dims = boundsOf(img2)
				hash = computeBlurHash(img2)
			}
		} else {
			result = compressed
			dims = boundsOf(img)
			hash = computeBlurHash(img)
			ing.debug("compressed image",
				"name", up.Name,
				"original_size", len(up.Data),
				"compressed_size", len(result.Data),
			)
		}
	} else {
		img, err := decodeImage(up.Data)
		switch {
		case err == nil:
			dims = boundsOf(img)
			hash = computeBlurHash(img)
		case decodable(up.Name, up.MIME):
			return nil, errors.DecodeFailed("image could not be read").WithCause(err)
		default:
			// heic/heif: accepted, dimensions unknown.
			ing.debug("skipping dimension extraction for undecodable format", "name", up.Name)
		}
	}

	preview := ing.previews.Create(result.Data, result.MIME)

	return &Asset{
		Upload:     result,
		Preview:    preview,
		Dimensions: dims,
		BlurHash:   hash,
	}, nil
}

// The logger is optional; callers that only need the pipeline pass nil.
func (ing *Ingestor) warn(msg string, args ...any) {
	if ing.logger != nil {
		ing.logger.Warn(msg, args...)
	}
}

func (ing *Ingestor) debug(msg string, args ...any) {
	if ing.logger != nil {
		ing.logger.Debug(msg, args...)
	}
}

// TypeAllowed reports whether the filename extension or declared MIME
// type is in the accepted set.
func TypeAllowed(name, mime string) bool {
	if allowedMIMEs[strings.ToLower(mime)] {
		return true
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// decodable reports whether a registered decoder exists for the upload's
// format. heic/heif pass the type gate but cannot be decoded.
func decodable(name, mime string) bool {
	lower := strings.ToLower(mime)
	if lower == "image/heic" || lower == "image/heif" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if lower == "" && (ext == ".heic" || ext == ".heif") {
		return false
	}
	return true
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func boundsOf(img image.Image) *Dimensions {
	b := img.Bounds()
	return &Dimensions{Width: b.Dx(), Height: b.Dy()}
}
