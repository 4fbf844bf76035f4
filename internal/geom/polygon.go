package geom

import "math"

// Shape kinds understood by ShapePolygon.
const (
	ShapeRectangle = "rectangle"
	ShapeEllipse   = "ellipse"
)

// DefaultEllipseSamples is the vertex count used to approximate an ellipse.
const DefaultEllipseSamples = 64

// Shape is a rotated rectangle or ellipse placed by its center.
type Shape struct {
	Kind   string
	Center Point
	Width  float64
	Height float64
	Angle  float64 // degrees, about Center
}

// Polygon returns the shape boundary in scene space.
func (s Shape) Polygon() []Point {
	return ShapePolygon(s.Kind, s.Center.X, s.Center.Y, s.Width, s.Height, s.Angle, DefaultEllipseSamples)
}

// ShapePolygon samples the boundary of a rectangle (4 corners) or an ellipse
// (samples points), rotated by angleDeg about (cx, cy).
func ShapePolygon(kind string, cx, cy, w, h, angleDeg float64, samples int) []Point {
	var local []Point
	if kind == ShapeEllipse {
		if samples < 8 {
			samples = DefaultEllipseSamples
		}
		rx, ry := w/2, h/2
		local = make([]Point, samples)
		for i := range samples {
			t := 2 * math.Pi * float64(i) / float64(samples)
			local[i] = Point{rx * math.Cos(t), ry * math.Sin(t)}
		}
	} else {
		local = []Point{
			{-w / 2, -h / 2},
			{w / 2, -h / 2},
			{w / 2, h / 2},
			{-w / 2, h / 2},
		}
	}

	m := Translate(cx, cy).Multiply(RotateDegrees(angleDeg))
	out := make([]Point, len(local))
	for i, p := range local {
		out[i] = m.Apply(p)
	}
	return out
}

// SegmentIntersection returns the intersection of segments p1-p2 and p3-p4.
func SegmentIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	diff := p3.Sub(p1)
	t := (diff.X*d2.Y - diff.Y*d2.X) / denom
	u := (diff.X*d1.Y - diff.Y*d1.X) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return p1.Add(d1.Mul(t)), true
}

// SegmentPolygonIntersection intersects segment a-b with the closed polygon
// and returns the hit nearest to b.
func SegmentPolygonIntersection(a, b Point, poly []Point) (Point, bool) {
	var best Point
	found := false
	bestDist := math.Inf(1)
	for i := range poly {
		p, ok := SegmentIntersection(a, b, poly[i], poly[(i+1)%len(poly)])
		if !ok {
			continue
		}
		if d := p.Dist(b); d < bestDist {
			best, bestDist, found = p, d, true
		}
	}
	return best, found
}

// ConnectorEndpoints returns where the straight center-to-center line leaves
// src and enters dst. Either end falls back to its shape's center when the
// line does not cross that boundary (coincident centers, overlaps).
func ConnectorEndpoints(src, dst Shape) (Point, Point) {
	a, b := src.Center, dst.Center
	if a.Near(b, 1e-9) {
		return a, b
	}

	start, ok := SegmentPolygonIntersection(a, b, src.Polygon())
	if !ok || PointInPolygon(b, src.Polygon()) {
		start = a
	}
	end, ok := SegmentPolygonIntersection(b, a, dst.Polygon())
	if !ok || PointInPolygon(a, dst.Polygon()) {
		end = b
	}
	return start, end
}

// PointInPolygon uses the even-odd rule.
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// DistanceToSegment is the shortest distance from p to segment a-b.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Dist(a.Add(ab.Mul(t)))
}
