package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// compress decodes an oversized upload, scales it so the longest edge is
// at most limits.MaxEdge, and re-encodes it. The original MIME type is
// preserved for jpeg and png; formats without an encoder (webp, gif) are
// re-encoded as jpeg. Returns the decoded (scaled) image so the caller
// can reuse it for dimensions and blurhash.
func compress(up Upload, limits Limits) (Upload, image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return Upload{}, nil, fmt.Errorf("decode for compression: %w", err)
	}

	scaled := scaleDown(img, limits.MaxEdge)

	var buf bytes.Buffer
	outMIME := "image/jpeg"
	switch format {
	case "png":
		if err := png.Encode(&buf, scaled); err != nil {
			return Upload{}, nil, fmt.Errorf("encode png: %w", err)
		}
		outMIME = "image/png"
	default:
		quality := int(limits.Quality * 100)
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
			return Upload{}, nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}

	return Upload{
		Name: compressedName(up.Name, outMIME),
		MIME: outMIME,
		Data: buf.Bytes(),
	}, scaled, nil
}

// scaleDown resizes img proportionally so its longest edge is at most
// maxEdge, using Catmull-Rom interpolation. Images already within the
// limit are returned unchanged.
func scaleDown(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	var dstW, dstH int
	if w >= h {
		dstW = maxEdge
		dstH = (h * maxEdge) / w
		if dstH < 1 {
			dstH = 1
		}
	} else {
		dstH = maxEdge
		dstW = (w * maxEdge) / h
		if dstW < 1 {
			dstW = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// compressedName keeps the original base name but fixes the extension
// when re-encoding changed the format.
func compressedName(name, mime string) string {
	ext := ".jpg"
	if mime == "image/png" {
		ext = ".png"
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name + ext
}
