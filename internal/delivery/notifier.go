package delivery

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier records notification requests in the log. Actual delivery
// (push, SMS, email) is an external concern.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, req NotificationRequest) {
	logrus.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"kind":     req.Kind,
		"route_id": req.RouteID,
		"stop_id":  req.StopID,
	}).Info(req.Title + ": " + req.Body)
}
