package geofence

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	geompkg "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

// Circle is a circular zone shape.
type Circle struct {
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

// Zone is the decoded, in-memory form of a geofence zone. Exactly one
// of Circle or Polygon is set; decodeZone enforces that. Zones are
// served to API clients as-is, hence the JSON tags.
type Zone struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Type string `json:"zone_type"`

	Circle  *Circle     `json:"circle,omitempty"`
	Polygon []geo.Point `json:"polygon,omitempty"`

	NoDelivery    bool                `json:"no_delivery"`
	NoSales       bool                `json:"no_sales"`
	SpeedLimitMPH *float64            `json:"speed_limit_mph,omitempty"`
	TimeWindows   []models.TimeWindow `json:"time_windows,omitempty"`

	AlertEnabled bool `json:"alert_enabled"`
}

// decodeZone parses one stored zone row into its in-memory form. A row
// with neither or both shape representations is a configuration error.
func decodeZone(m models.GeofenceZone) (Zone, error) {
	z := Zone{
		ID:            m.ID,
		Name:          m.Name,
		Type:          m.ZoneType,
		NoDelivery:    m.NoDelivery,
		NoSales:       m.NoSales,
		SpeedLimitMPH: m.SpeedLimitMPH,
		AlertEnabled:  m.AlertEnabled,
	}

	hasCircle := m.CenterLat != nil && m.CenterLng != nil && m.RadiusMeters != nil
	hasPolygon := len(m.Polygon) > 0

	switch {
	case hasCircle && hasPolygon:
		return Zone{}, fmt.Errorf("zone %d (%s): both circle and polygon shapes defined", m.ID, m.Name)
	case !hasCircle && !hasPolygon:
		return Zone{}, fmt.Errorf("zone %d (%s): no shape defined", m.ID, m.Name)
	case hasCircle:
		if *m.RadiusMeters <= 0 {
			return Zone{}, fmt.Errorf("zone %d (%s): non-positive radius", m.ID, m.Name)
		}
		z.Circle = &Circle{
			Center:       geo.Point{Lat: *m.CenterLat, Lng: *m.CenterLng},
			RadiusMeters: *m.RadiusMeters,
		}
	default:
		vertices, err := decodePolygonWKB(m.Polygon)
		if err != nil {
			return Zone{}, fmt.Errorf("zone %d (%s): %w", m.ID, m.Name, err)
		}
		z.Polygon = vertices
	}

	if len(m.TimeWindows) > 0 {
		if err := json.Unmarshal(m.TimeWindows, &z.TimeWindows); err != nil {
			return Zone{}, fmt.Errorf("zone %d (%s): decode time windows: %w", m.ID, m.Name, err)
		}
	}
	return z, nil
}

// decodePolygonWKB extracts the outer-ring vertex list from WKB bytes.
// The closing vertex duplicating the first is dropped; ray casting
// treats the ring as implicitly closed.
func decodePolygonWKB(data []byte) ([]geo.Point, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode polygon WKB: %w", err)
	}
	poly, ok := g.(*geompkg.Polygon)
	if !ok {
		return nil, fmt.Errorf("polygon geometry expected, got %T", g)
	}
	if poly.NumLinearRings() == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}

	ring := poly.LinearRing(0)
	coords := ring.Coords()
	if len(coords) > 1 {
		first, last := coords[0], coords[len(coords)-1]
		if first.X() == last.X() && first.Y() == last.Y() {
			coords = coords[:len(coords)-1]
		}
	}
	if len(coords) < 3 {
		return nil, fmt.Errorf("polygon ring has fewer than 3 distinct vertices")
	}

	vertices := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		// WKB coordinates are (lng, lat) per SRID 4326 axis order.
		vertices = append(vertices, geo.Point{Lat: c.Y(), Lng: c.X()})
	}
	return vertices, nil
}

// EncodePolygonWKB converts a vertex list to WKB for storage, closing
// the ring.
func EncodePolygonWKB(vertices []geo.Point) ([]byte, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(vertices))
	}
	coords := make([]geompkg.Coord, 0, len(vertices)+1)
	for _, v := range vertices {
		coords = append(coords, geompkg.Coord{v.Lng, v.Lat})
	}
	coords = append(coords, geompkg.Coord{vertices[0].Lng, vertices[0].Lat})

	poly := geompkg.NewPolygon(geompkg.XY)
	if _, err := poly.SetCoords([][]geompkg.Coord{coords}); err != nil {
		return nil, fmt.Errorf("build polygon: %w", err)
	}
	poly.SetSRID(4326)
	return wkb.Marshal(poly, binary.LittleEndian)
}

// Contains tests point containment for a zone. Circle containment is
// inclusive at the boundary.
func Contains(p geo.Point, z Zone) bool {
	if z.Circle != nil {
		return geo.Haversine(p, z.Circle.Center) <= z.Circle.RadiusMeters
	}
	return geo.PointInPolygon(p, z.Polygon)
}
