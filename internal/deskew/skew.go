package deskew

import (
	"image"
	"sort"
)

// minContourArea drops specks and noise whose boundary encloses less than
// this many square pixels.
const minContourArea = 100

// EstimateSkew returns the dominant text rotation of img in degrees within
// (-45, 45]. Positive means the text baseline rises to the right. Blank or
// uniform pages, and pages with no sizeable ink regions, report 0.
func EstimateSkew(img *image.Gray) float64 {
	g := ToGray(img)
	if g.Rect.Dx() < 3 || g.Rect.Dy() < 3 {
		return 0
	}
	blurred := gaussianBlur(g)
	t, ok := otsuThreshold(blurred)
	if !ok {
		return 0
	}
	b := &binaryImage{w: blurred.Rect.Dx(), h: blurred.Rect.Dy(), fg: foregroundMask(blurred, t)}

	var angles []float64
	for _, c := range b.externalContours() {
		if polygonArea(c) < minContourArea {
			continue
		}
		hull := convexHull(c)
		if len(hull) < 3 {
			continue
		}
		angles = append(angles, normalizeAngle(minAreaRectAngle(hull)))
	}
	return median(angles)
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
