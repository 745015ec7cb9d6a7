package deskew

import (
	"image"
	"math"
)

const (
	blurSize  = 9
	blurSigma = 1.7 // sigma OpenCV derives for a 9-tap Gaussian when none is given
)

// gaussianBlur applies a separable blurSize x blurSize Gaussian with
// replicated edges.
func gaussianBlur(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(blurSize, blurSigma)
	r := blurSize / 2

	tmp := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var acc float32
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * float32(row[clamp(x+k, 0, w-1)])
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float32
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * tmp[clamp(y+k, 0, h-1)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = uint8(clampf(acc+0.5, 0, 255))
		}
	}
	return dst
}

func gaussianKernel(size int, sigma float64) []float32 {
	r := size / 2
	k := make([]float32, size)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+r] = float32(v)
		sum += v
	}
	for i := range k {
		k[i] = float32(float64(k[i]) / sum)
	}
	return k
}

// otsuThreshold returns the intensity that maximizes between-class variance.
// ok is false when the image holds a single intensity and cannot be split.
func otsuThreshold(img *image.Gray) (t uint8, ok bool) {
	var hist [256]int
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+w] {
			hist[v]++
		}
	}
	total := w * h
	if total == 0 {
		return 0, false
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var (
		sumB    float64
		wB      int
		best    float64 = -1
		classes int
	)
	for i, c := range hist {
		if c > 0 {
			classes++
		}
		wB += c
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * c)
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			t = uint8(i)
		}
	}
	return t, classes > 1
}

// foregroundMask marks pixels at or below the threshold: dark ink on a light
// page becomes foreground.
func foregroundMask(img *image.Gray, t uint8) []bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			mask[y*w+x] = row[x] <= t
		}
	}
	return mask
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
