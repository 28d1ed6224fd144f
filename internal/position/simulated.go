package position

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SimulatedSource replays a scripted sample sequence on a fixed cadence.
// Used by tests and local development in place of a device GPS adapter.
// After the script is exhausted the last sample repeats, mimicking a
// stationary device.
type SimulatedSource struct {
	Samples  []Sample
	Interval time.Duration
	// Errs are injected onto the error callback interleaved with samples;
	// key is the sample index before which the error fires.
	Errs map[int]error
}

type simulatedSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *simulatedSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *SimulatedSource) Subscribe(ctx context.Context, onSample SampleFunc, onError ErrorFunc) (Subscription, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &simulatedSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		idx := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err, ok := s.Errs[idx]; ok && onError != nil {
					onError(err)
				}
				if len(s.Samples) == 0 {
					continue
				}
				i := idx
				if i >= len(s.Samples) {
					i = len(s.Samples) - 1
				}
				sample := s.Samples[i]
				if sample.Timestamp.IsZero() {
					sample.Timestamp = time.Now()
				}
				onSample(sample)
				idx++
			}
		}
	}()

	logrus.WithField("samples", len(s.Samples)).Debug("Simulated position source subscribed.")
	return sub, nil
}
