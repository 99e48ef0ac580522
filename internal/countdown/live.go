package countdown

import (
	"context"
	"time"

	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

// MaxTick bounds the recompute cadence; slower ticks make the seconds digit stale.
const MaxTick = time.Second

// Watch emits the order's view immediately and then on every tick until ctx
// is done or a terminal view has been emitted.
func Watch(ctx context.Context, clk clock.Clock, o orders.Order, every time.Duration, fn func(View)) {
	if every <= 0 || every > MaxTick {
		every = MaxTick
	}

	v := Compute(o, clk.Now())
	fn(v)
	if v.Terminal() {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v := Compute(o, clk.Now())
			fn(v)
			if v.Terminal() {
				return
			}
		}
	}
}
