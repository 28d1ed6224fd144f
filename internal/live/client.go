package live

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fieldtrack/internal/models"
)

// ReconnectInterval is the fixed wait between live-channel dial
// attempts. Reconnection continues as long as the session context is
// alive.
const ReconnectInterval = 5 * time.Second

// Client maintains an outbound live-channel connection for a tracked
// user, forwarding published messages and redialing on failure. It
// satisfies the same publisher contracts as the in-process Hub, so a
// tracking session can stream to a remote hub instead.
type Client struct {
	url    string
	userID uint
	dialer *websocket.Dialer
	out    chan Envelope

	reconnectWait time.Duration
}

func NewClient(url string, userID uint) *Client {
	return &Client{
		url:           url,
		userID:        userID,
		dialer:        websocket.DefaultDialer,
		out:           make(chan Envelope, 100),
		reconnectWait: ReconnectInterval,
	}
}

// Run dials the live channel and pumps queued envelopes until ctx is
// cancelled. Dial failures and dropped connections retry after the
// fixed reconnect interval.
func (c *Client) Run(ctx context.Context) {
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).WithField("url", c.url).Warn("Live channel dial failed, retrying.")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.reconnectWait):
			}
			continue
		}

		logrus.WithFields(logrus.Fields{
			"url":     c.url,
			"user_id": c.userID,
		}).Info("Live channel connected.")
		if err := conn.WriteJSON(Envelope{Type: TypeRegister, Data: map[string]uint{"user_id": c.userID}}); err != nil {
			logrus.WithError(err).Warn("Live channel registration failed, reconnecting.")
			conn.Close()
			continue
		}

		err = c.pump(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		logrus.WithError(err).Warn("Live channel connection lost, reconnecting.")
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectWait):
		}
	}
}

func (c *Client) pump(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return ctx.Err()
		case env := <-c.out:
			if err := conn.WriteJSON(env); err != nil {
				return err
			}
		}
	}
}

func (c *Client) enqueue(env Envelope) {
	select {
	case c.out <- env:
	default:
		logrus.WithField("type", env.Type).Warn("Live client queue full, dropping message.")
	}
}

func (c *Client) PublishLocation(userID uint, sample models.LocationSample) {
	c.enqueue(Envelope{Type: TypeLocationUpdate, Data: LocationUpdate{
		UserID:    userID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Speed:     sample.Speed,
		Heading:   sample.Heading,
		Activity:  sample.Activity,
		Timestamp: sample.Timestamp,
	}})
}

func (c *Client) PublishTrackingError(userID uint, message string) {
	c.enqueue(Envelope{Type: TypeTrackingError, Data: TrackingError{
		UserID:  userID,
		Message: message,
	}})
}
