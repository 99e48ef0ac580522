// Package alertlog consumes order.expiring events and keeps an audit trail
// of every expiry alert that was dispatched.
package alertlog

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/findme-orders/internal/kafka"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
	"github.com/ariefcatur/findme-orders/internal/redisx"
)

// Deduper guards against redelivered events.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Recorder persists alert records. Inserting a known event id is a no-op.
type Recorder interface {
	RecordAlert(ctx context.Context, rec orders.ExpiryAlertRecord) (bool, error)
}

type RedisDeduper struct {
	rdb     *redis.Client
	service string
}

func NewRedisDeduper(rdb *redis.Client, service string) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, service: service}
}

func (d *RedisDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return redisx.Claim(ctx, d.rdb, fmt.Sprintf(redisx.KeyDedup, d.service, eventID), redisx.TTLDedup)
}

func (d *RedisDeduper) Release(ctx context.Context, eventID string) error {
	return redisx.Release(ctx, d.rdb, fmt.Sprintf(redisx.KeyDedup, d.service, eventID))
}

type Service struct {
	Dedup Deduper
	Repo  Recorder
	Log   logger.Logger
}

// HandleOrderExpiring is installed as the consumer handler. A returned error
// leaves the offset uncommitted so the event is redelivered.
func (s *Service) HandleOrderExpiring(ctx context.Context, m kafkago.Message) error {
	log := s.Log
	if log == nil {
		log = logger.NewNop()
	}

	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		// poison message: commit it away
		log.Warnf(ctx, "[AlertLog] drop undecodable message at offset %d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != orders.EventOrderExpiring {
		return nil
	}
	ctx = logger.WithTraceID(logger.WithOrderID(ctx, env.CorrelationID), env.TraceID)

	if s.Dedup != nil {
		fresh, err := s.Dedup.Claim(ctx, env.EventID)
		if err != nil {
			// the insert is idempotent, carry on without the fast path
			log.Warnf(ctx, "[AlertLog] dedup unavailable for %s: %v", env.EventID, err)
		} else if !fresh {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderExpiringPayload](env.Payload)
	if err != nil {
		log.Warnf(ctx, "[AlertLog] drop event %s with bad payload: %v", env.EventID, err)
		return nil
	}

	inserted, err := s.Repo.RecordAlert(ctx, orders.ExpiryAlertRecord{
		EventID:    env.EventID,
		AlertID:    p.AlertID,
		OrderID:    p.OrderID,
		Title:      p.Title,
		Body:       p.Body,
		ExpiresAt:  p.ExpiresAt,
		OccurredAt: env.OccurredAt,
	})
	if err != nil {
		if s.Dedup != nil {
			if rerr := s.Dedup.Release(ctx, env.EventID); rerr != nil {
				log.Warnf(ctx, "[AlertLog] release %s: %v", env.EventID, rerr)
			}
		}
		return err
	}
	if inserted {
		log.Infof(ctx, "[AlertLog] recorded alert %s for order %s", p.AlertID, p.OrderID)
	}
	return nil
}
