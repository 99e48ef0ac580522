package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

// Sink builds one alert per order and hands it to every channel. Channels
// are isolated from each other and nothing is retried.
type Sink struct {
	channels []Channel
	clock    clock.Clock
	display  time.Duration
	log      logger.Logger
}

func NewSink(clk clock.Clock, log logger.Logger, display time.Duration, channels ...Channel) *Sink {
	if display <= 0 {
		display = DefaultDisplay
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Sink{channels: channels, clock: clk, display: display, log: log}
}

// Dispatch returns the combined channel errors for diagnostics only.
func (s *Sink) Dispatch(ctx context.Context, o orders.Order) error {
	expiresAt, _ := o.ExpiresAt()
	a := NewExpiryAlert(o, expiresAt, s.clock.Now(), s.display)
	ctx = logger.WithOrderID(ctx, o.ID)

	var errs error
	for _, ch := range s.channels {
		if err := s.deliver(ctx, ch, a); err != nil {
			s.log.Warnf(ctx, "[Sink] channel %s failed for alert %s: %v", ch.Name(), a.ID, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errs
}

func (s *Sink) deliver(ctx context.Context, ch Channel, a Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Deliver(ctx, a)
}
