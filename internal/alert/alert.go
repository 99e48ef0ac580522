// Package alert fans expiry alerts out to the system notification channel
// and the in-app banner board.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/findme-orders/internal/orders"
)

var (
	ErrPermissionUnavailable = errors.New("notification permission unavailable")
	ErrBoardClosed           = errors.New("banner board closed")
)

// DefaultDisplay is how long a banner stays up unless dismissed.
const DefaultDisplay = 5 * time.Second

const expiryTitle = "订单即将过期"

// Alert is the descriptor handed to every channel.
type Alert struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"order_id"`
	ShopName  string        `json:"shop_name"`
	DealTitle string        `json:"deal_title"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	ExpiresAt time.Time     `json:"expires_at"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewExpiryAlert renders the alert for an order about to expire. A zero
// expiresAt leaves the deadline out of the body.
func NewExpiryAlert(o orders.Order, expiresAt, now time.Time, display time.Duration) Alert {
	body := fmt.Sprintf("%s「%s」即将过期，请尽快使用", o.ShopName, o.DealTitle)
	if !expiresAt.IsZero() {
		body = fmt.Sprintf("%s「%s」将于 %s 过期，请尽快使用", o.ShopName, o.DealTitle, expiresAt.Format("01-02 15:04"))
	}
	return Alert{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		ShopName:  o.ShopName,
		DealTitle: o.DealTitle,
		Title:     expiryTitle,
		Body:      body,
		ExpiresAt: expiresAt,
		Duration:  display,
		CreatedAt: now,
	}
}

// Channel delivers an alert. Deliver must not block on user interaction.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, a Alert) error
}
