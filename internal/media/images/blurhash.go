package images

import (
	"image"

	"github.com/bbrks/go-blurhash"
)

// blurHashSize is the target size for BlurHash computation.
// BlurHash doesn't need high resolution - a small thumbnail produces
// nearly identical results and keeps computation in the milliseconds.
const blurHashSize = 64

// computeBlurHash generates a BlurHash placeholder string from a decoded
// image. 4x3 components keep the hash around 20-30 characters. Returns
// empty string on failure; the placeholder is decorative, never required.
func computeBlurHash(img image.Image) string {
	hash, err := blurhash.Encode(4, 3, thumbnailFor(img))
	if err != nil {
		return ""
	}
	return hash
}

// thumbnailFor creates a small thumbnail suitable for BlurHash
// computation using nearest-neighbor sampling, which is fast and
// sufficient for a low-resolution placeholder.
func thumbnailFor(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	if srcW <= blurHashSize && srcH <= blurHashSize {
		return img
	}

	var dstW, dstH int
	if srcW > srcH {
		dstW = blurHashSize
		dstH = max((srcH*blurHashSize)/srcW, 1)
	} else {
		dstH = blurHashSize
		dstW = max((srcW*blurHashSize)/srcH, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
