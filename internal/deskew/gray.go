// Package deskew estimates the rotation of text on a rendered page and
// rotates the page back to horizontal before recognition.
package deskew

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultMaxDimension caps the width and height of a page render before
// skew estimation.
const DefaultMaxDimension = 3000

// areaKernel is a box filter. x/image/draw widens kernel support by the
// scale factor when shrinking, so a box of half-width 0.5 averages exactly
// the source area that lands on each destination pixel.
var areaKernel = &draw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

// ToGray converts img to an 8-bit grayscale image anchored at the origin.
// A *image.Gray already anchored at the origin is returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// LimitSize downsizes img so that neither dimension exceeds limit, keeping the
// aspect ratio. Images already within the cap are returned unchanged.
func LimitSize(img *image.Gray, limit int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	scale := float64(limit) / float64(w)
	if s := float64(limit) / float64(h); s < scale {
		scale = s
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	areaKernel.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
