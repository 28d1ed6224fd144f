package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fieldtrack/internal/models"
)

// Envelope is the wire frame for every live-channel message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Envelope types.
const (
	TypeRegister       = "register"
	TypeLocationUpdate = "location_update"
	TypeGeofenceAlert  = "geofence_alert"
	TypeTrackingError  = "tracking_error"
)

// Per-connection send queue depth and write deadline. A watcher that
// cannot drain its queue loses messages; one that cannot accept a
// write within the deadline is dropped entirely.
const (
	watcherQueueSize = 32
	writeWait        = 10 * time.Second
)

// LocationUpdate is the payload broadcast for each published sample.
type LocationUpdate struct {
	UserID    uint      `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Activity  string    `json:"activity"`
	Timestamp time.Time `json:"timestamp"`
}

// GeofenceAlert is the payload broadcast when a zone event fires.
type GeofenceAlert struct {
	UserID    uint   `json:"user_id"`
	ZoneID    uint   `json:"zone_id"`
	ZoneName  string `json:"zone_name"`
	EventType string `json:"event_type"`
}

// TrackingError is the payload broadcast when a position source reports
// a problem for a tracked user.
type TrackingError struct {
	UserID  uint   `json:"user_id"`
	Message string `json:"message"`
}

// watcherConn pairs a connection with its send queue. All writes to the
// connection go through the queue's single writer goroutine; gorilla
// connections allow only one concurrent writer.
type watcherConn struct {
	conn      *websocket.Conn
	send      chan Envelope
	closeOnce sync.Once
}

func (w *watcherConn) close() {
	w.closeOnce.Do(func() { close(w.send) })
}

// Hub manages watcher WebSocket connections and fans published messages
// out to them. Watchers are keyed by their own user id; a user may hold
// several connections.
type Hub struct {
	watchers  map[uint]map[*websocket.Conn]*watcherConn
	broadcast chan Envelope
	mu        sync.Mutex
}

// NewHub creates a Hub and starts its broadcast loop.
func NewHub() *Hub {
	hub := &Hub{
		watchers:  make(map[uint]map[*websocket.Conn]*watcherConn),
		broadcast: make(chan Envelope, 100),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for env := range h.broadcast {
		h.mu.Lock()
		for watcherID, conns := range h.watchers {
			for _, wc := range conns {
				select {
				case wc.send <- env:
				default:
					logrus.WithFields(logrus.Fields{
						"watcher_id": watcherID,
						"type":       env.Type,
					}).Warn("Watcher send queue full, dropping message.")
				}
			}
		}
		h.mu.Unlock()
	}
}

// writeLoop is the sole writer for one connection. It exits when the
// send queue closes or a write fails.
func (h *Hub) writeLoop(watcherID uint, wc *watcherConn) {
	for env := range wc.send {
		wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := wc.conn.WriteJSON(env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"watcher_id": watcherID,
					"conn_ptr":   fmt.Sprintf("%p", wc.conn),
				}).Info("Watcher connection closed during broadcast, unregistering.")
			} else {
				logrus.WithError(err).WithFields(logrus.Fields{
					"watcher_id": watcherID,
					"conn_ptr":   fmt.Sprintf("%p", wc.conn),
				}).Warn("Failed to write to watcher, unregistering.")
			}
			h.Unregister(watcherID, wc.conn)
			return
		}
	}
}

// Register adds a watcher connection to the hub and starts its writer.
func (h *Hub) Register(watcherID uint, conn *websocket.Conn) {
	wc := &watcherConn{conn: conn, send: make(chan Envelope, watcherQueueSize)}

	h.mu.Lock()
	if _, ok := h.watchers[watcherID]; !ok {
		h.watchers[watcherID] = make(map[*websocket.Conn]*watcherConn)
	}
	h.watchers[watcherID][conn] = wc
	h.mu.Unlock()

	go h.writeLoop(watcherID, wc)
	logrus.WithFields(logrus.Fields{
		"watcher_id": watcherID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}).Info("Watcher registered with live hub.")
}

// Unregister removes a watcher connection from the hub and stops its
// writer. Safe to call more than once for the same connection.
func (h *Hub) Unregister(watcherID uint, conn *websocket.Conn) {
	h.mu.Lock()
	var wc *watcherConn
	if conns, ok := h.watchers[watcherID]; ok {
		wc = conns[conn]
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.watchers, watcherID)
		}
	}
	h.mu.Unlock()
	if wc == nil {
		return
	}

	wc.close()
	logrus.WithFields(logrus.Fields{
		"watcher_id": watcherID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}).Info("Watcher unregistered from live hub.")
}

func (h *Hub) publish(env Envelope) {
	select {
	case h.broadcast <- env:
	default:
		logrus.WithField("type", env.Type).Warn("Live broadcast channel full, dropping message.")
	}
}

// PublishLocation broadcasts a location sample to all watchers.
func (h *Hub) PublishLocation(userID uint, sample models.LocationSample) {
	h.publish(Envelope{Type: TypeLocationUpdate, Data: LocationUpdate{
		UserID:    userID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Speed:     sample.Speed,
		Heading:   sample.Heading,
		Activity:  sample.Activity,
		Timestamp: sample.Timestamp,
	}})
}

// PublishTrackingError broadcasts a position-source failure.
func (h *Hub) PublishTrackingError(userID uint, message string) {
	h.publish(Envelope{Type: TypeTrackingError, Data: TrackingError{
		UserID:  userID,
		Message: message,
	}})
}

// PublishGeofenceAlert broadcasts a zone transition or violation event.
func (h *Hub) PublishGeofenceAlert(userID, zoneID uint, zoneName, eventType string) {
	h.publish(Envelope{Type: TypeGeofenceAlert, Data: GeofenceAlert{
		UserID:    userID,
		ZoneID:    zoneID,
		ZoneName:  zoneName,
		EventType: eventType,
	}})
}
