// Package tasks runs named periodic background activities with per-cycle
// failure isolation: an error or panic in one cycle is logged and never
// cancels the owning loop.
package tasks

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Run invokes fn every interval until ctx is cancelled. Blocks.
func Run(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	RunTriggered(ctx, name, interval, nil, fn)
}

// RunTriggered is Run with an extra trigger channel that forces an
// immediate out-of-cycle invocation.
func RunTriggered(ctx context.Context, name string, interval time.Duration, trigger <-chan struct{}, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCycle(ctx, name, fn)
		case <-trigger:
			runCycle(ctx, name, fn)
		}
	}
}

func runCycle(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"task":  name,
				"panic": r,
			}).Error("Periodic task cycle panicked.")
		}
	}()
	if err := fn(ctx); err != nil {
		logrus.WithError(err).WithField("task", name).Error("Periodic task cycle failed.")
	}
}
