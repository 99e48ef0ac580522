// Package watcher periodically scans active orders and alerts, once per
// order, when an unused voucher enters the expiry window.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

const (
	DefaultInterval  = 60 * time.Second
	DefaultThreshold = 3 * time.Hour
)

var ErrAlreadyRunning = errors.New("watcher already running")

// Dispatcher delivers the alert for one order. Errors are logged, never retried.
type Dispatcher interface {
	Dispatch(ctx context.Context, o orders.Order) error
}

// Report summarises one scan.
type Report struct {
	ScanID    string    `json:"scan_id"`
	At        time.Time `json:"at"`
	Listed    int       `json:"listed"`
	Evaluated int       `json:"evaluated"`
	Alerted   int       `json:"alerted"`
	Malformed int       `json:"malformed"`
	Failed    int       `json:"failed"`
}

type Watcher struct {
	src       orders.Source
	sink      Dispatcher
	clock     clock.Clock
	log       logger.Logger
	interval  time.Duration
	threshold time.Duration
	notified  NotifiedSet

	scanMu   sync.Mutex
	scanning atomic.Bool

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Watcher)

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithThreshold(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.threshold = d
		}
	}
}

func WithNotifiedSet(s NotifiedSet) Option {
	return func(w *Watcher) {
		if s != nil {
			w.notified = s
		}
	}
}

func New(src orders.Source, sink Dispatcher, clk clock.Clock, log logger.Logger, opts ...Option) *Watcher {
	if log == nil {
		log = logger.NewNop()
	}
	w := &Watcher{
		src:       src,
		sink:      sink,
		clock:     clk,
		log:       log,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.notified == nil {
		w.notified = NewMemoryNotifiedSet()
	}
	return w
}

func (w *Watcher) Interval() time.Duration  { return w.interval }
func (w *Watcher) Threshold() time.Duration { return w.threshold }

// Scanning reports whether a scan is in progress.
func (w *Watcher) Scanning() bool { return w.scanning.Load() }

// Running reports whether the periodic loop is active.
func (w *Watcher) Running() bool { return w.running.Load() }

// Start runs one scan immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
	w.log.Infof(ctx, "[Watcher] started interval=%s threshold=%s", w.interval, w.threshold)
	return nil
}

// Stop cancels the loop and waits for an in-flight scan to finish. No alert
// is dispatched after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.running.Store(false)
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	w.runScan(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Infof(context.Background(), "[Watcher] stopped")
			return
		case <-ticker.C:
			w.runScan(ctx)
		}
	}
}

func (w *Watcher) runScan(ctx context.Context) {
	if _, err := w.Scan(ctx); err != nil && ctx.Err() == nil {
		w.log.Errorf(ctx, "[Watcher] scan failed: %v", err)
	}
}

// Scan evaluates every active order once. Scans never overlap; a failing
// order is skipped without affecting the others.
func (w *Watcher) Scan(ctx context.Context) (Report, error) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	w.scanning.Store(true)
	defer w.scanning.Store(false)

	rep := Report{ScanID: uuid.NewString(), At: w.clock.Now()}
	ctx = logger.WithScanID(ctx, rep.ScanID)

	list, err := w.src.ListActive(ctx)
	if err != nil {
		return rep, fmt.Errorf("list active orders: %w", err)
	}
	rep.Listed = len(list)

	for _, o := range list {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if !o.IsExpirable() {
			continue
		}
		rep.Evaluated++
		w.evaluate(logger.WithOrderID(ctx, o.ID), o, rep.At, &rep)
	}

	if rep.Alerted > 0 || rep.Malformed > 0 || rep.Failed > 0 {
		w.log.Infof(ctx, "[Watcher] scan listed=%d evaluated=%d alerted=%d malformed=%d failed=%d",
			rep.Listed, rep.Evaluated, rep.Alerted, rep.Malformed, rep.Failed)
	}
	return rep, nil
}

func (w *Watcher) evaluate(ctx context.Context, o orders.Order, now time.Time, rep *Report) {
	defer func() {
		if r := recover(); r != nil {
			rep.Failed++
			w.log.Errorf(ctx, "[Watcher] order %s panicked: %v", o.ID, r)
		}
	}()

	exp, err := o.ExpiresAt()
	if err != nil {
		rep.Malformed++
		w.log.Warnf(ctx, "[Watcher] skip order %s: %v", o.ID, err)
		return
	}

	diff := exp.Sub(now)
	if diff <= 0 || diff > w.threshold {
		return
	}

	added, err := w.notified.Add(ctx, o.ID)
	if err != nil {
		rep.Failed++
		w.log.Warnf(ctx, "[Watcher] notified set unavailable for %s: %v", o.ID, err)
		return
	}
	if !added {
		return
	}

	rep.Alerted++
	if err := w.sink.Dispatch(ctx, o); err != nil {
		w.log.Warnf(ctx, "[Watcher] alert for %s partially failed: %v", o.ID, err)
	}
}
