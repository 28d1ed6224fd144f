package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference vector from the Google polyline algorithm documentation.
const referenceEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referencePoints = []Point{
	{Lat: 38.5, Lng: -120.2},
	{Lat: 40.7, Lng: -120.95},
	{Lat: 43.252, Lng: -126.453},
}

func TestDecodePolylineReferenceVector(t *testing.T) {
	got := DecodePolyline(referenceEncoded)
	require.Len(t, got, len(referencePoints))
	for i, want := range referencePoints {
		assert.InDelta(t, want.Lat, got[i].Lat, 1e-5)
		assert.InDelta(t, want.Lng, got[i].Lng, 1e-5)
	}
}

func TestEncodePolylineReferenceVector(t *testing.T) {
	assert.Equal(t, referenceEncoded, EncodePolyline(referencePoints))
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []Point{
		{Lat: -1.28639, Lng: 36.81722},
		{Lat: -1.30000, Lng: 36.80000},
		{Lat: -1.29500, Lng: 36.82500},
	}
	decoded := DecodePolyline(EncodePolyline(points))
	require.Len(t, decoded, len(points))
	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestDecodePolylineEmpty(t *testing.T) {
	assert.Empty(t, DecodePolyline(""))
}
