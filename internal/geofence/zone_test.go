package geofence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

func f64(v float64) *float64 { return &v }

func circleZoneRow(name string, lat, lng, radius float64) models.GeofenceZone {
	return models.GeofenceZone{
		Name:         name,
		ZoneType:     models.ZoneTypeRestricted,
		CenterLat:    f64(lat),
		CenterLng:    f64(lng),
		RadiusMeters: f64(radius),
		Active:       true,
	}
}

func polygonZoneRow(t *testing.T, name string, vertices []geo.Point) models.GeofenceZone {
	t.Helper()
	wkbBytes, err := EncodePolygonWKB(vertices)
	require.NoError(t, err)
	return models.GeofenceZone{
		Name:     name,
		ZoneType: models.ZoneTypeDeliveryZone,
		Polygon:  wkbBytes,
		Active:   true,
	}
}

func TestDecodeZoneShapeValidation(t *testing.T) {
	_, err := decodeZone(models.GeofenceZone{Name: "shapeless"})
	assert.ErrorContains(t, err, "no shape")

	row := circleZoneRow("both", -1.28, 36.81, 100)
	row.Polygon = []byte{1, 2, 3}
	_, err = decodeZone(row)
	assert.ErrorContains(t, err, "both circle and polygon")

	row = circleZoneRow("flat", -1.28, 36.81, 0)
	_, err = decodeZone(row)
	assert.ErrorContains(t, err, "non-positive radius")
}

func TestDecodeZonePolygonRoundTrip(t *testing.T) {
	vertices := []geo.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
	}
	z, err := decodeZone(polygonZoneRow(t, "square", vertices))
	require.NoError(t, err)
	require.Nil(t, z.Circle)
	assert.Equal(t, vertices, z.Polygon)
}

func TestZoneJSONUsesSnakeCase(t *testing.T) {
	z, err := decodeZone(circleZoneRow("depot perimeter", -1.28, 36.81, 250))
	require.NoError(t, err)
	z.SpeedLimitMPH = f64(30)

	raw, err := json.Marshal(z)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"id", "name", "zone_type", "circle", "no_delivery", "no_sales", "speed_limit_mph", "alert_enabled"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "Polygon", "unset shape is omitted, not rendered in PascalCase")
	assert.Contains(t, string(fields["circle"]), `"radius_meters"`)
}

func TestCircleContainmentBoundaryInclusive(t *testing.T) {
	center := geo.Point{Lat: -1.28, Lng: 36.81}
	pt := geo.Point{Lat: -1.281, Lng: 36.81}
	exact := geo.Haversine(center, pt)

	inside := Zone{Circle: &Circle{Center: center, RadiusMeters: exact + 1}}
	boundary := Zone{Circle: &Circle{Center: center, RadiusMeters: exact}}
	outside := Zone{Circle: &Circle{Center: center, RadiusMeters: exact - 1}}

	assert.True(t, Contains(pt, inside))
	assert.True(t, Contains(pt, boundary), "boundary containment is inclusive")
	assert.False(t, Contains(pt, outside))
}

func TestPolygonZoneContainment(t *testing.T) {
	z, err := decodeZone(polygonZoneRow(t, "square", []geo.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
	}))
	require.NoError(t, err)

	assert.True(t, Contains(geo.Point{Lat: 0.5, Lng: 0.5}, z))
	assert.False(t, Contains(geo.Point{Lat: 1.5, Lng: 0.5}, z))
}
