package alert

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/logger"
)

const (
	BannerShown     = "shown"
	BannerDismissed = "dismissed"

	ReasonTimeout = "timeout"
	ReasonUser    = "user"
)

// Banner is an in-app alert currently on screen.
type Banner struct {
	Alert
	ShownAt   time.Time `json:"shown_at"`
	DismissAt time.Time `json:"dismiss_at"`
}

// BannerEvent is published whenever the board changes.
type BannerEvent struct {
	Type    string    `json:"type"`
	AlertID string    `json:"alert_id"`
	OrderID string    `json:"order_id"`
	Reason  string    `json:"reason,omitempty"`
	Banner  *Banner   `json:"banner,omitempty"`
	At      time.Time `json:"at"`
}

// Broadcaster fans board changes out to connected UIs.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev BannerEvent) error
}

type entry struct {
	banner Banner
	timer  clock.Timer
}

// Board is the in-app channel: it keeps banners up for their display
// duration, then removes them. Several banners may be up at once.
type Board struct {
	mu      sync.Mutex
	clock   clock.Clock
	banners map[string]*entry
	bc      Broadcaster
	log     logger.Logger
	closed  atomic.Bool
}

type BoardOption func(*Board)

func WithBroadcaster(bc Broadcaster) BoardOption {
	return func(b *Board) { b.bc = bc }
}

func NewBoard(clk clock.Clock, log logger.Logger, opts ...BoardOption) *Board {
	if log == nil {
		log = logger.NewNop()
	}
	b := &Board{clock: clk, banners: make(map[string]*entry), log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Name() string { return "in_app" }

func (b *Board) Deliver(ctx context.Context, a Alert) error {
	return b.Show(ctx, a)
}

// Show puts the banner up and schedules its removal after a.Duration.
func (b *Board) Show(ctx context.Context, a Alert) error {
	if b.closed.Load() {
		return ErrBoardClosed
	}
	if a.Duration <= 0 {
		a.Duration = DefaultDisplay
	}
	now := b.clock.Now()
	banner := Banner{Alert: a, ShownAt: now, DismissAt: now.Add(a.Duration)}

	b.mu.Lock()
	if old, ok := b.banners[a.ID]; ok {
		old.timer.Stop()
	}
	id := a.ID
	e := &entry{banner: banner}
	e.timer = b.clock.AfterFunc(a.Duration, func() { b.expire(e) })
	b.banners[id] = e
	b.mu.Unlock()

	b.broadcast(ctx, BannerEvent{Type: BannerShown, AlertID: id, OrderID: a.OrderID, Banner: &banner, At: now})
	return nil
}

// Dismiss removes a banner before its timer fires. False means it was not up.
func (b *Board) Dismiss(ctx context.Context, id string) bool {
	return b.remove(ctx, id, ReasonUser)
}

// expire only removes the entry it was scheduled for, so a replaced banner
// keeps its own timer.
func (b *Board) expire(e *entry) {
	b.mu.Lock()
	cur, ok := b.banners[e.banner.ID]
	if !ok || cur != e {
		b.mu.Unlock()
		return
	}
	delete(b.banners, e.banner.ID)
	b.mu.Unlock()
	ctx := context.Background()
	b.broadcast(ctx, BannerEvent{Type: BannerDismissed, AlertID: e.banner.ID, OrderID: e.banner.OrderID, Reason: ReasonTimeout, At: b.clock.Now()})
}

func (b *Board) remove(ctx context.Context, id, reason string) bool {
	b.mu.Lock()
	e, ok := b.banners[id]
	if ok {
		delete(b.banners, id)
		e.timer.Stop()
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	b.broadcast(ctx, BannerEvent{Type: BannerDismissed, AlertID: id, OrderID: e.banner.OrderID, Reason: reason, At: b.clock.Now()})
	return true
}

// Active lists banners on screen, oldest first.
func (b *Board) Active() []Banner {
	b.mu.Lock()
	out := make([]Banner, 0, len(b.banners))
	for _, e := range b.banners {
		out = append(out, e.banner)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShownAt.Equal(out[j].ShownAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ShownAt.Before(out[j].ShownAt)
	})
	return out
}

// Close takes every banner down and cancels pending timers. Later Show
// calls fail with ErrBoardClosed.
func (b *Board) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	for id, e := range b.banners {
		e.timer.Stop()
		delete(b.banners, id)
	}
	b.mu.Unlock()
}

func (b *Board) broadcast(ctx context.Context, ev BannerEvent) {
	if b.bc == nil {
		return
	}
	if err := b.bc.Broadcast(ctx, ev); err != nil {
		b.log.Warnf(ctx, "[Board] broadcast %s %s: %v", ev.Type, ev.AlertID, err)
	}
}

// RedisBroadcaster publishes board events on a Redis pub/sub channel.
type RedisBroadcaster struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBroadcaster(rdb *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb, channel: channel}
}

func (r *RedisBroadcaster) Broadcast(ctx context.Context, ev BannerEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, b).Err()
}

// Subscribe decodes events from the channel until ctx is done.
func (r *RedisBroadcaster) Subscribe(ctx context.Context, fn func(BannerEvent)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev BannerEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			fn(ev)
		}
	}
}
