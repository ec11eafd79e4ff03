package notification

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Channel is one way of putting an alert in front of the user.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert Alert) error
}

// Dispatcher handles sending alerts to every configured channel
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

// NewDispatcher creates a new alert dispatcher. Nil channels are skipped.
func NewDispatcher(logger *zap.Logger, channels ...Channel) *Dispatcher {
	d := &Dispatcher{logger: logger.Named("dispatcher")}
	for _, ch := range channels {
		if ch != nil {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// availability is implemented by channels that can be configured yet have
// nobody to deliver to, like the desktop channel with no client connected.
type availability interface {
	Available() bool
}

// Supported reports whether any configured channel can deliver right now.
func (d *Dispatcher) Supported() bool {
	for _, ch := range d.channels {
		if a, ok := ch.(availability); !ok || a.Available() {
			return true
		}
	}
	return false
}

func (d *Dispatcher) ChannelNames() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Dispatch delivers the alert on all channels concurrently, skipping the
// excluded names. One failing channel does not stop the others; the first
// error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert, exclude ...string) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(d.channels))

	for _, ch := range d.channels {
		if slices.Contains(exclude, ch.Name()) {
			continue
		}
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()

			if err := ch.Deliver(ctx, alert); err != nil {
				errs <- err
				d.logger.Warn("Failed to deliver alert",
					zap.String("channel", ch.Name()),
					zap.Stringer("reminder_id", alert.Tag),
					zap.Error(err))
			}
		}(ch)
	}

	wg.Wait()
	close(errs)

	var firstErr error
	for err := range errs {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
