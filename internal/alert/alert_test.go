package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/findme-orders/internal/clock"
	kafkax "github.com/ariefcatur/findme-orders/internal/kafka"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func expiringOrder(id string) orders.Order {
	return orders.Order{
		ID:         id,
		Status:     orders.StatusUnused,
		ExpireTime: now.Add(2 * time.Hour).Format(time.RFC3339),
		ShopName:   "老王火锅",
		DealTitle:  "双人套餐",
	}
}

type recordingChannel struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Alert
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Deliver(_ context.Context, a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, a)
	return c.err
}

type panickyChannel struct{}

func (panickyChannel) Name() string                         { return "panicky" }
func (panickyChannel) Deliver(context.Context, Alert) error { panic("boom") }

func TestNewExpiryAlertBody(t *testing.T) {
	o := expiringOrder("o1")
	exp := now.Add(2 * time.Hour)
	a := NewExpiryAlert(o, exp, now, 0)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "o1", a.OrderID)
	assert.Equal(t, "订单即将过期", a.Title)
	assert.Contains(t, a.Body, "老王火锅")
	assert.Contains(t, a.Body, "双人套餐")
	assert.Contains(t, a.Body, "05-01 14:00")

	noTime := NewExpiryAlert(o, time.Time{}, now, 0)
	assert.Contains(t, noTime.Body, "即将过期")
	assert.NotEqual(t, a.ID, noTime.ID)
}

func TestSinkDeliversToEveryChannel(t *testing.T) {
	sys := &recordingChannel{name: "system"}
	app := &recordingChannel{name: "in_app"}
	s := NewSink(clock.NewFixed(now), nil, 5*time.Second, sys, app)

	require.NoError(t, s.Dispatch(context.Background(), expiringOrder("o1")))

	require.Len(t, sys.got, 1)
	require.Len(t, app.got, 1)
	assert.Equal(t, sys.got[0].ID, app.got[0].ID, "one alert per dispatch")
	assert.Equal(t, 5*time.Second, app.got[0].Duration)
	assert.Equal(t, now, app.got[0].CreatedAt)
}

func TestSinkIsolatesChannelFailures(t *testing.T) {
	bad := &recordingChannel{name: "system", err: errors.New("host refused")}
	app := &recordingChannel{name: "in_app"}
	s := NewSink(clock.NewFixed(now), nil, 0, bad, panickyChannel{}, app)

	err := s.Dispatch(context.Background(), expiringOrder("o1"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "host refused")
	assert.ErrorContains(t, err, "panicky")
	assert.Len(t, app.got, 1, "later channels still run")
	assert.Equal(t, DefaultDisplay, app.got[0].Duration)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, a Alert) error {
	return m.Called(ctx, a).Error(0)
}

func TestSystemChannelRequiresGrantedPermission(t *testing.T) {
	a := NewExpiryAlert(expiringOrder("o1"), now, now, 0)

	for _, p := range []Permission{PermissionDefault, PermissionDenied} {
		n := &mockNotifier{}
		require.NoError(t, NewSystemChannel(p, n, nil).Deliver(context.Background(), a))
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	}

	n := &mockNotifier{}
	n.On("Notify", mock.Anything, a).Return(nil).Once()
	require.NoError(t, NewSystemChannel(PermissionGranted, n, nil).Deliver(context.Background(), a))
	n.AssertExpectations(t)
}

func TestSystemChannelWithoutNotifierIsNoop(t *testing.T) {
	assert.NoError(t, NewSystemChannel(PermissionGranted, nil, nil).Deliver(context.Background(), Alert{}))
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("granted")
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, p)

	_, err = ParsePermission("maybe")
	assert.Error(t, err)
}

type slowSource struct{ release chan struct{} }

func (s slowSource) Permission(ctx context.Context) (Permission, error) {
	select {
	case <-s.release:
		return PermissionGranted, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type failingSource struct{}

func (failingSource) Permission(context.Context) (Permission, error) {
	return "", errors.New("no notification api")
}

func TestResolvePermission(t *testing.T) {
	ctx := context.Background()

	p, err := ResolvePermission(ctx, StaticPermission(PermissionDenied), time.Second)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, p)

	p, err = ResolvePermission(ctx, failingSource{}, time.Second)
	assert.ErrorIs(t, err, ErrPermissionUnavailable)
	assert.Equal(t, PermissionDefault, p)

	p, err = ResolvePermission(ctx, slowSource{release: make(chan struct{})}, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrPermissionUnavailable)
	assert.Equal(t, PermissionDefault, p)

	p, err = ResolvePermission(ctx, nil, time.Second)
	assert.ErrorIs(t, err, ErrPermissionUnavailable)
	assert.Equal(t, PermissionDefault, p)
}

type fakePublisher struct {
	key, value []byte
	headers    []kafkago.Header
	err        error
}

func (f *fakePublisher) TryPublish(key, value []byte, headers ...kafkago.Header) error {
	f.key, f.value, f.headers = key, value, headers
	return f.err
}

func TestPushNotifierPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	exp := now.Add(2 * time.Hour)
	a := NewExpiryAlert(expiringOrder("o1"), exp, now, 0)

	require.NoError(t, NewPushNotifier(pub, "findme-orders").Notify(context.Background(), a))
	assert.Equal(t, "o1", string(pub.key))
	assert.Equal(t, orders.EventOrderExpiring, string(pub.headers[0].Value))

	var env orders.Envelope
	require.NoError(t, kafkax.UnmarshalEnvelope(pub.value, &env))
	assert.Equal(t, orders.EventOrderExpiring, env.EventType)
	assert.Equal(t, "findme-orders", env.Producer)
	assert.Equal(t, "o1", env.CorrelationID)

	p, err := kafkax.UnwrapPayload[orders.OrderExpiringPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.AlertID)
	assert.True(t, exp.Equal(p.ExpiresAt))
}

func TestPushNotifierSurfacesFullInbox(t *testing.T) {
	pub := &fakePublisher{err: kafkax.ErrInboxFull}
	err := NewPushNotifier(pub, "svc").Notify(context.Background(), Alert{OrderID: "o1"})
	assert.ErrorIs(t, err, kafkax.ErrInboxFull)
}
