package deskew

import (
	"math"
	"sort"
)

type point struct{ x, y int }

// ring lists the 8 neighbours clockwise (on screen) starting at west.
var ring = [8]point{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}}

// binaryImage is a foreground mask with helpers for contour extraction.
type binaryImage struct {
	w, h int
	fg   []bool
}

func (b *binaryImage) at(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.fg[y*b.w+x]
}

// externalContours returns the outer boundary of every 8-connected
// foreground component that is not enclosed by another component. Boundaries
// are ordered pixel positions as produced by Moore-neighbour tracing.
func (b *binaryImage) externalContours() [][]point {
	outside := b.outsideBackground()
	labels := make([]int32, b.w*b.h)
	var contours [][]point
	var next int32
	queue := make([]int, 0, 256)

	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			i := y*b.w + x
			if !b.fg[i] || labels[i] != 0 {
				continue
			}
			next++
			area := b.label(x, y, next, labels, queue[:0])

			// The raster-first pixel of a component is on its outer
			// boundary; the pixel above it decides whether the component
			// sits inside another component's hole.
			if y > 0 && !outside[(y-1)*b.w+x] {
				continue
			}
			contours = append(contours, b.trace(point{x, y}, area))
		}
	}
	return contours
}

// label flood-fills one 8-connected component and returns its pixel count.
func (b *binaryImage) label(x, y int, id int32, labels []int32, queue []int) int {
	start := y*b.w + x
	labels[start] = id
	queue = append(queue, start)
	n := 0
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		n++
		cx, cy := i%b.w, i/b.w
		for _, d := range ring {
			nx, ny := cx+d.x, cy+d.y
			if !b.at(nx, ny) {
				continue
			}
			j := ny*b.w + nx
			if labels[j] == 0 {
				labels[j] = id
				queue = append(queue, j)
			}
		}
	}
	return n
}

// outsideBackground marks background pixels 4-connected to the image border.
func (b *binaryImage) outsideBackground() []bool {
	seen := make([]bool, b.w*b.h)
	var stack []int
	push := func(x, y int) {
		i := y*b.w + x
		if b.fg[i] || seen[i] {
			return
		}
		seen[i] = true
		stack = append(stack, i)
	}
	for x := 0; x < b.w; x++ {
		push(x, 0)
		push(x, b.h-1)
	}
	for y := 0; y < b.h; y++ {
		push(0, y)
		push(b.w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%b.w, i/b.w
		if x > 0 {
			push(x-1, y)
		}
		if x < b.w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < b.h-1 {
			push(x, y+1)
		}
	}
	return seen
}

// trace walks the outer boundary clockwise from start, which must be the
// raster-first pixel of its component (so its west neighbour is background).
func (b *binaryImage) trace(start point, area int) []point {
	contour := []point{start}
	p := start
	back := point{start.x - 1, start.y}
	startBack := back
	limit := 4*area + 8

	for step := 0; step < limit; step++ {
		bi := ringIndex(back.x-p.x, back.y-p.y)
		found := false
		for k := 1; k <= 8; k++ {
			d := ring[(bi+k)%8]
			q := point{p.x + d.x, p.y + d.y}
			if b.at(q.x, q.y) {
				prev := ring[(bi+k-1)%8]
				back = point{p.x + prev.x, p.y + prev.y}
				p = q
				found = true
				break
			}
		}
		if !found {
			// isolated pixel
			return contour
		}
		if p == start && back == startBack {
			return contour
		}
		contour = append(contour, p)
	}
	return contour
}

func ringIndex(dx, dy int) int {
	for i, d := range ring {
		if d.x == dx && d.y == dy {
			return i
		}
	}
	return 0
}

// polygonArea is the shoelace area of a closed polygon.
func polygonArea(pts []point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return math.Abs(float64(sum)) / 2
}

// convexHull returns the hull of pts (monotone chain), without collinear
// points.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return append([]point(nil), pts...)
	}
	sorted := append([]point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})
	cross := func(o, a, b point) int {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}
	hull := make([]point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRectAngle returns the orientation in degrees of the smallest
// rotated rectangle enclosing hull, measured counter-clockwise on screen from
// the x axis. One side of the optimal rectangle is always collinear with a
// hull edge, so every edge direction is tried.
func minAreaRectAngle(hull []point) float64 {
	if len(hull) < 2 {
		return 0
	}
	bestArea := math.Inf(1)
	var best float64
	for i := range hull {
		a, c := hull[i], hull[(i+1)%len(hull)]
		ex, ey := float64(c.x-a.x), float64(c.y-a.y)
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.x), float64(p.y)
			u := px*ux + py*uy
			v := -px*uy + py*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		if area := (maxU - minU) * (maxV - minV); area < bestArea {
			bestArea = area
			// image y grows downward; flip it so positive is counter-clockwise
			best = math.Atan2(-uy, ux) * 180 / math.Pi
		}
	}
	return best
}

// normalizeAngle folds a rectangle orientation into (-45, 45]. Rectangles
// have no preferred axis, so orientations are equivalent modulo 90 degrees.
func normalizeAngle(a float64) float64 {
	for a > 45 {
		a -= 90
	}
	for a <= -45 {
		a += 90
	}
	return a
}
