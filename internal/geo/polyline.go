package geo

import "strings"

// Google polyline codec, fixed 5-decimal precision: per-coordinate
// zig-zag-encoded deltas in 5-bit groups with a continuation bit,
// offset by 63.

const polylinePrecision = 1e5

// EncodePolyline encodes an ordered coordinate sequence.
func EncodePolyline(points []Point) string {
	var sb strings.Builder
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(roundHalfAway(p.Lat * polylinePrecision))
		lng := int64(roundHalfAway(p.Lng * polylinePrecision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

// DecodePolyline decodes an encoded polyline back into coordinates.
// Truncated trailing garbage yields the points decoded so far.
func DecodePolyline(encoded string) []Point {
	var points []Point
	var lat, lng int64
	idx := 0

	for idx < len(encoded) {
		dLat, n := decodeValue(encoded[idx:])
		if n == 0 {
			break
		}
		idx += n
		dLng, n := decodeValue(encoded[idx:])
		if n == 0 {
			break
		}
		idx += n

		lat += dLat
		lng += dLng
		points = append(points, Point{
			Lat: float64(lat) / polylinePrecision,
			Lng: float64(lng) / polylinePrecision,
		})
	}
	return points
}

func encodeValue(sb *strings.Builder, v int64) {
	// zig-zag: sign moves to the low bit
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

func decodeValue(s string) (int64, int) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			// undo zig-zag
			if result&1 != 0 {
				return ^(result >> 1), i + 1
			}
			return result >> 1, i + 1
		}
		shift += 5
	}
	return 0, 0
}

func roundHalfAway(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
