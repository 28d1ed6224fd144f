package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	geompkg "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/geofence"
	"fieldtrack/internal/models"
	"fieldtrack/internal/store"
)

// ZoneController exposes zone CRUD, alert queries, and violation
// acknowledgement.
type ZoneController struct {
	registry   *geofence.ZoneRegistry
	violations geofence.ViolationStore
}

func NewZoneController(registry *geofence.ZoneRegistry, violations geofence.ViolationStore) *ZoneController {
	return &ZoneController{registry: registry, violations: violations}
}

// zoneInput is the API form of a zone. Polygon geometry arrives as a
// GeoJSON Polygon; circles as center plus radius.
type zoneInput struct {
	Name     string `json:"name" binding:"required"`
	ZoneType string `json:"zone_type"`

	CenterLat    *float64        `json:"center_lat"`
	CenterLng    *float64        `json:"center_lng"`
	RadiusMeters *float64        `json:"radius_meters"`
	Polygon      json.RawMessage `json:"polygon"`

	NoDelivery    bool                `json:"no_delivery"`
	NoSales       bool                `json:"no_sales"`
	SpeedLimitMPH *float64            `json:"speed_limit_mph"`
	TimeWindows   []models.TimeWindow `json:"time_windows"`

	AlertEnabled *bool `json:"alert_enabled"`
	Active       *bool `json:"active"`
}

// polygonWKBFromGeoJSON converts a GeoJSON Polygon document to the WKB
// storage form, using the outer ring only.
func polygonWKBFromGeoJSON(raw json.RawMessage) ([]byte, error) {
	var g geompkg.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, errors.New("invalid GeoJSON polygon")
	}
	poly, ok := g.(*geompkg.Polygon)
	if !ok || poly.NumLinearRings() == 0 {
		return nil, errors.New("geometry must be a GeoJSON Polygon")
	}

	coords := poly.LinearRing(0).Coords()
	if len(coords) > 1 {
		first, last := coords[0], coords[len(coords)-1]
		if first.X() == last.X() && first.Y() == last.Y() {
			coords = coords[:len(coords)-1]
		}
	}
	vertices := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		vertices = append(vertices, geo.Point{Lat: c.Y(), Lng: c.X()})
	}
	return geofence.EncodePolygonWKB(vertices)
}

// zoneResponse renders a zone row with its polygon re-encoded as
// GeoJSON.
func zoneResponse(zone models.GeofenceZone) gin.H {
	resp := gin.H{
		"id":              zone.ID,
		"name":            zone.Name,
		"zone_type":       zone.ZoneType,
		"center_lat":      zone.CenterLat,
		"center_lng":      zone.CenterLng,
		"radius_meters":   zone.RadiusMeters,
		"no_delivery":     zone.NoDelivery,
		"no_sales":        zone.NoSales,
		"speed_limit_mph": zone.SpeedLimitMPH,
		"alert_enabled":   zone.AlertEnabled,
		"active":          zone.Active,
	}
	if len(zone.TimeWindows) > 0 {
		var windows []models.TimeWindow
		if err := json.Unmarshal(zone.TimeWindows, &windows); err == nil {
			resp["time_windows"] = windows
		}
	}
	if len(zone.Polygon) > 0 {
		if g, err := wkb.Unmarshal(zone.Polygon); err == nil {
			if doc, err := geojson.Marshal(g); err == nil {
				resp["polygon"] = json.RawMessage(doc)
			}
		}
	}
	return resp
}

func (zc *ZoneController) applyInput(zone *models.GeofenceZone, input zoneInput) error {
	zone.Name = input.Name
	zone.ZoneType = input.ZoneType
	zone.CenterLat = input.CenterLat
	zone.CenterLng = input.CenterLng
	zone.RadiusMeters = input.RadiusMeters
	zone.NoDelivery = input.NoDelivery
	zone.NoSales = input.NoSales
	zone.SpeedLimitMPH = input.SpeedLimitMPH

	zone.Polygon = nil
	if len(input.Polygon) > 0 {
		data, err := polygonWKBFromGeoJSON(input.Polygon)
		if err != nil {
			return err
		}
		zone.Polygon = data
	}

	zone.TimeWindows = nil
	if len(input.TimeWindows) > 0 {
		data, err := json.Marshal(input.TimeWindows)
		if err != nil {
			return err
		}
		zone.TimeWindows = data
	}

	zone.AlertEnabled = true
	if input.AlertEnabled != nil {
		zone.AlertEnabled = *input.AlertEnabled
	}
	zone.Active = true
	if input.Active != nil {
		zone.Active = *input.Active
	}
	return nil
}

// CreateZone registers a new geofence zone.
// POST /zones
func (zc *ZoneController) CreateZone(c *gin.Context) {
	var input zoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var zone models.GeofenceZone
	if err := zc.applyInput(&zone, input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := zc.registry.Create(c.Request.Context(), &zone); err != nil {
		if errors.Is(err, store.ErrZoneNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "zone name already in use"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, zoneResponse(zone))
}

// UpdateZone replaces a zone's definition.
// PUT /zones/:id
func (zc *ZoneController) UpdateZone(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	zone, err := zc.registry.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch zone"})
		return
	}
	if zone == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
		return
	}

	var input zoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := zc.applyInput(zone, input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := zc.registry.Update(c.Request.Context(), zone); err != nil {
		if errors.Is(err, store.ErrZoneNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "zone name already in use"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, zoneResponse(*zone))
}

// DeleteZone removes a zone.
// DELETE /zones/:id
func (zc *ZoneController) DeleteZone(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := zc.registry.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// GetZone returns one zone.
// GET /zones/:id
func (zc *ZoneController) GetZone(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	zone, err := zc.registry.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch zone"})
		return
	}
	if zone == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
		return
	}
	c.JSON(http.StatusOK, zoneResponse(*zone))
}

// ListZones returns the active zone cache.
// GET /zones
func (zc *ZoneController) ListZones(c *gin.Context) {
	zones := zc.registry.ActiveZones()
	c.JSON(http.StatusOK, gin.H{"count": len(zones), "zones": zones})
}

// GetActiveAlerts returns unresolved compliance violations.
// GET /alerts
func (zc *ZoneController) GetActiveAlerts(c *gin.Context) {
	violations, err := zc.violations.ListUnresolved(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list unresolved violations.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(violations), "alerts": violations})
}

// AcknowledgeAlert resolves a violation with a note.
// POST /alerts/:id/ack
func (zc *ZoneController) AcknowledgeAlert(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var input struct {
		ResolvedBy string `json:"resolved_by" binding:"required"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := zc.violations.Acknowledge(c.Request.Context(), id, input.ResolvedBy, input.Notes)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetComplianceViolations lists violations filtered by query
// parameters.
// GET /violations?user_id=&zone_id=&severity=&resolved=&start=&end=
func (zc *ZoneController) GetComplianceViolations(c *gin.Context) {
	var filters geofence.ViolationFilters
	if v, ok := queryUint(c, "user_id"); ok {
		filters.UserID = v
	}
	if v, ok := queryUint(c, "zone_id"); ok {
		filters.ZoneID = v
	}
	filters.Severity = c.Query("severity")
	if s := c.Query("resolved"); s != "" {
		resolved := s == "true"
		filters.Resolved = &resolved
	}
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
			return
		}
		filters.Start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
			return
		}
		filters.End = t
	}

	violations, err := zc.violations.List(c.Request.Context(), filters)
	if err != nil {
		logrus.WithError(err).Error("Failed to list violations.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch violations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(violations), "violations": violations})
}
