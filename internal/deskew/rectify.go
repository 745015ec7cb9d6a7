package deskew

import (
	"image"
	"math"
)

// minRotation is the smallest correction worth resampling for.
const minRotation = 0.5

// cubicA is the bicubic convolution coefficient.
const cubicA = -0.75

// Rectify rotates img counter-clockwise by angle degrees about its centre.
// The canvas grows to hold the whole rotated page and is never smaller than
// the original. Pixels sampled from outside the source repeat the nearest
// edge pixel. Angles smaller than half a degree return img unchanged.
//
// To straighten a page, pass the negated EstimateSkew result.
func Rectify(img *image.Gray, angle float64) *image.Gray {
	if math.Abs(angle) < minRotation {
		return img
	}
	src := ToGray(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return img
	}

	rad := angle * math.Pi / 180
	alpha, beta := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2

	nw := int(math.Ceil(float64(h)*math.Abs(beta) + float64(w)*math.Abs(alpha) - 1e-9))
	nh := int(math.Ceil(float64(w)*math.Abs(beta) + float64(h)*math.Abs(alpha) - 1e-9))
	if nw < w {
		nw = w
	}
	if nh < h {
		nh = h
	}

	// Forward map: src -> dst. The translation keeps the page centre at the
	// centre of the enlarged canvas.
	tx := (1-alpha)*cx - beta*cy + float64(nw)/2 - cx
	ty := beta*cx + (1-alpha)*cy + float64(nh)/2 - cy

	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		dy := float64(y) - ty
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < nw; x++ {
			dx := float64(x) - tx
			sx := alpha*dx - beta*dy
			sy := beta*dx + alpha*dy
			row[x] = bicubic(src, sx, sy)
		}
	}
	return dst
}

// bicubic samples src at (x, y) with replicated borders.
func bicubic(src *image.Gray, x, y float64) uint8 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	var wx, wy [4]float64
	cubicWeights(fx, &wx)
	cubicWeights(fy, &wy)

	var acc float64
	for j := 0; j < 4; j++ {
		sy := clamp(iy-1+j, 0, h-1)
		row := src.Pix[sy*src.Stride:]
		var racc float64
		for i := 0; i < 4; i++ {
			racc += wx[i] * float64(row[clamp(ix-1+i, 0, w-1)])
		}
		acc += wy[j] * racc
	}
	return uint8(clampf(float32(acc+0.5), 0, 255))
}

func cubicWeights(t float64, w *[4]float64) {
	w[0] = cubic(t + 1)
	w[1] = cubic(t)
	w[2] = cubic(1 - t)
	w[3] = cubic(2 - t)
}

func cubic(d float64) float64 {
	d = math.Abs(d)
	switch {
	case d <= 1:
		return ((cubicA+2)*d-(cubicA+3))*d*d + 1
	case d < 2:
		return ((cubicA*d-5*cubicA)*d+8*cubicA)*d - 4*cubicA
	default:
		return 0
	}
}
