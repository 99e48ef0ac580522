package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrNoExpiry        = errors.New("order has no expire time")
	ErrMalformedExpiry = errors.New("malformed expire time")
)

// Order is a purchased deal voucher. Records are produced by order
// placement elsewhere and are read-only here.
type Order struct {
	ID         string          `json:"id"`
	Status     Status          `json:"status"`
	ExpireTime string          `json:"expireTime,omitempty"` // raw, as supplied by the order source
	ShopName   string          `json:"shopName"`
	DealTitle  string          `json:"dealTitle"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	VerifyCode string          `json:"verifyCode,omitempty"`
	QRCodeURL  string          `json:"qrCodeUrl,omitempty"`
	CreatedAt  time.Time       `json:"createTime"`
}

// IsExpirable holds when the order is unused and carries an expire time.
func (o Order) IsExpirable() bool {
	return o.Status == StatusUnused && hasExpiry(o.ExpireTime)
}

// ExpiresAt parses ExpireTime in the local zone.
func (o Order) ExpiresAt() (time.Time, error) {
	return ParseExpiry(o.ExpireTime, nil)
}

// HasCredentials reports whether redemption credentials are expected.
func (o Order) HasCredentials() bool {
	return o.Status == StatusUnused || o.Status == StatusUsed
}

// Filter narrows ListOrders. Zero value lists everything.
type Filter struct {
	Status Status
}

func (f Filter) match(o Order) bool {
	return f.Status == "" || o.Status == f.Status
}
