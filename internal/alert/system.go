package alert

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/findme-orders/internal/kafka"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

// PlatformNotifier shows a platform-level notification.
type PlatformNotifier interface {
	Notify(ctx context.Context, a Alert) error
}

// SystemChannel forwards to the platform notifier only when permission was
// granted at startup. It never prompts for permission.
type SystemChannel struct {
	perm     Permission
	notifier PlatformNotifier
	log      logger.Logger
}

func NewSystemChannel(perm Permission, n PlatformNotifier, log logger.Logger) *SystemChannel {
	if log == nil {
		log = logger.NewNop()
	}
	return &SystemChannel{perm: perm, notifier: n, log: log}
}

func (c *SystemChannel) Name() string { return "system" }

func (c *SystemChannel) Deliver(ctx context.Context, a Alert) error {
	if c.perm != PermissionGranted || c.notifier == nil {
		c.log.Debugf(ctx, "[System] permission %s, skip alert %s", c.perm, a.ID)
		return nil
	}
	return c.notifier.Notify(ctx, a)
}

// Publisher is the non-blocking side of kafkax.Producer.
type Publisher interface {
	TryPublish(key, value []byte, headers ...kafkago.Header) error
}

// PushNotifier hands alerts to the push gateway through the order.expiring topic.
type PushNotifier struct {
	pub     Publisher
	service string
}

func NewPushNotifier(pub Publisher, service string) *PushNotifier {
	return &PushNotifier{pub: pub, service: service}
}

func (n *PushNotifier) Notify(ctx context.Context, a Alert) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderExpiring,
		EventVersion:  1,
		OccurredAt:    a.CreatedAt.UTC(),
		Producer:      n.service,
		CorrelationID: a.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderExpiringPayload{
			AlertID:   a.ID,
			OrderID:   a.OrderID,
			ShopName:  a.ShopName,
			DealTitle: a.DealTitle,
			Title:     a.Title,
			Body:      a.Body,
			ExpiresAt: a.ExpiresAt,
		}),
	}
	return n.pub.TryPublish(orders.PartitionKey(a.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderExpiring)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
