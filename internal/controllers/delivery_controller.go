package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fieldtrack/internal/delivery"
	"fieldtrack/internal/models"
)

// DeliveryController exposes the route and stop lifecycle.
type DeliveryController struct {
	svc *delivery.Service
}

func NewDeliveryController(svc *delivery.Service) *DeliveryController {
	return &DeliveryController{svc: svc}
}

type createRouteInput struct {
	DriverID       uint      `json:"driver_id" binding:"required"`
	Date           time.Time `json:"date"`
	ManifestNumber string    `json:"manifest_number"`
	Stops          []struct {
		BusinessName string  `json:"business_name" binding:"required"`
		OrderID      *uint   `json:"order_id"`
		Latitude     float64 `json:"latitude"`
		Longitude    float64 `json:"longitude"`
		Address      string  `json:"address"`
	} `json:"stops" binding:"required,min=1"`
}

// CreateRoute registers a planned route with its stops.
// POST /routes
func (dc *DeliveryController) CreateRoute(c *gin.Context) {
	var input createRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	route := models.DeliveryRoute{
		DriverID:       input.DriverID,
		Date:           input.Date,
		ManifestNumber: input.ManifestNumber,
	}
	stops := make([]models.DeliveryStop, 0, len(input.Stops))
	for _, s := range input.Stops {
		stops = append(stops, models.DeliveryStop{
			BusinessName: s.BusinessName,
			OrderID:      s.OrderID,
			Latitude:     s.Latitude,
			Longitude:    s.Longitude,
			Address:      s.Address,
		})
	}

	created, err := dc.svc.CreateRoute(c.Request.Context(), &route, stops)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRoute returns one route.
// GET /routes/:id
func (dc *DeliveryController) GetRoute(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	route, err := dc.svc.GetRoute(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch route"})
		return
	}
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}
	c.JSON(http.StatusOK, route)
}

// GetStops returns a route's stops in stop-number order.
// GET /routes/:id/stops
func (dc *DeliveryController) GetStops(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	stops, err := dc.svc.GetStops(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch stops"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route_id": id, "count": len(stops), "stops": stops})
}

// ActiveRoutes returns a driver's planned and in-progress routes.
// GET /drivers/:driver_id/routes?date=RFC3339
func (dc *DeliveryController) ActiveRoutes(c *gin.Context) {
	driverID, ok := paramUint(c, "driver_id")
	if !ok {
		return
	}
	var date time.Time
	if s := c.Query("date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = t
	}
	routes, err := dc.svc.ActiveRoutes(c.Request.Context(), driverID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver_id": driverID, "count": len(routes), "routes": routes})
}

// StartRoute moves a planned route to in_progress.
// POST /routes/:id/start
func (dc *DeliveryController) StartRoute(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	route, err := dc.svc.StartRoute(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, route)
}

// OptimizeRoute reorders the route's open stops via the directions
// provider.
// POST /routes/:id/optimize
func (dc *DeliveryController) OptimizeRoute(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	route, changed, err := dc.svc.OptimizeRoute(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route, "changed": changed})
}

// CompleteRoute finalizes an in-progress route.
// POST /routes/:id/complete
func (dc *DeliveryController) CompleteRoute(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	route, err := dc.svc.CompleteRoute(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, route)
}

// CancelRoute cancels a planned or in-progress route.
// POST /routes/:id/cancel
func (dc *DeliveryController) CancelRoute(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	route, err := dc.svc.CancelRoute(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, route)
}

// CompleteStop finalizes a stop with proof of delivery.
// POST /stops/:id/complete
func (dc *DeliveryController) CompleteStop(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var proof delivery.Proof
	if err := c.ShouldBindJSON(&proof); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proof payload"})
		return
	}
	stop, err := dc.svc.CompleteStop(c.Request.Context(), id, proof)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stop)
}

type stopReasonInput struct {
	Reason string `json:"reason" binding:"required"`
}

// FailStop finalizes a stop as failed.
// POST /stops/:id/fail
func (dc *DeliveryController) FailStop(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var input stopReasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	stop, err := dc.svc.FailStop(c.Request.Context(), id, input.Reason)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stop)
}

// SkipStop skips a pending stop without visiting it.
// POST /stops/:id/skip
func (dc *DeliveryController) SkipStop(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var input stopReasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	stop, err := dc.svc.SkipStop(c.Request.Context(), id, input.Reason)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stop)
}
