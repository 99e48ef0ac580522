// Package countdown derives the live "time remaining" shown next to an order.
package countdown

import (
	"fmt"
	"time"

	"github.com/ariefcatur/findme-orders/internal/orders"
)

// UrgentWindow is the remaining time below which a countdown is displayed.
const UrgentWindow = 24 * time.Hour

const ExpiredLabel = "已过期"

type Kind int

const (
	NotApplicable Kind = iota
	Expired
	Urgent
	Normal
)

func (k Kind) String() string {
	switch k {
	case Expired:
		return "expired"
	case Urgent:
		return "urgent"
	case Normal:
		return "normal"
	default:
		return "not_applicable"
	}
}

// View is the derived timing state of one order at one instant.
type View struct {
	Kind       Kind
	Remaining  time.Duration
	Hours      int
	Minutes    int
	Seconds    int
	IsExpiring bool
}

// Text is the display string: the expired label, HH:MM:SS while urgent, empty otherwise.
func (v View) Text() string {
	switch v.Kind {
	case Expired:
		return ExpiredLabel
	case Urgent:
		return fmt.Sprintf("%02d:%02d:%02d", v.Hours, v.Minutes, v.Seconds)
	default:
		return ""
	}
}

// Terminal reports whether recomputing later can no longer change the view.
func (v View) Terminal() bool {
	return v.Kind == Expired || v.Kind == NotApplicable
}

// Compute returns the countdown for an unused order. Other statuses and
// missing or unparsable expire times yield NotApplicable.
func Compute(o orders.Order, now time.Time) View {
	if !o.IsExpirable() {
		return View{Kind: NotApplicable}
	}
	expiresAt, err := o.ExpiresAt()
	if err != nil {
		return View{Kind: NotApplicable}
	}
	return Remaining(expiresAt, now)
}

// Remaining is the status-agnostic part of Compute, also used for payment deadlines.
func Remaining(expiresAt, now time.Time) View {
	diff := expiresAt.Sub(now)
	if diff <= 0 {
		return View{Kind: Expired, Remaining: diff}
	}
	if diff >= UrgentWindow {
		return View{Kind: Normal, Remaining: diff}
	}

	secs := int64(diff / time.Second)
	return View{
		Kind:       Urgent,
		Remaining:  diff,
		Hours:      int(secs / 3600),
		Minutes:    int(secs % 3600 / 60),
		Seconds:    int(secs % 60),
		IsExpiring: true,
	}
}
