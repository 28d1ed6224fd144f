package geo

// PointInPolygon reports whether p lies inside the polygon described by
// the ordered vertex list, using the even-odd ray-casting rule. The
// polygon is implicitly closed; the last vertex connects back to the
// first. Fewer than three vertices never contain anything.
func PointInPolygon(p Point, vertices []Point) bool {
	if len(vertices) < 3 {
		return false
	}

	inside := false
	j := len(vertices) - 1
	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			xIntersect := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
