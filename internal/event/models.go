package event

import "time"

// Canonical event type names. The producers use two interchangeable
// names for cart additions; both are kept here so filters match either.
const (
	TypeUserProfile = "user_profile"
	TypeOrderPaid   = "order_paid"
	TypePageView    = "page_view"
	TypeCartAdd     = "cart_add"
	TypeAddToCart   = "add_to_cart"
)

// Event is one normalized row of the behavioral event table. Attributes are
// sparse: a nil pointer or empty string means the producer did not send the
// field, which is meaningful and never an error.
type Event struct {
	// Seq is a monotonically increasing sequence assigned at load time.
	// It breaks event_time ties deterministically, so most-recent-wins
	// resolution does not depend on how the table was partitioned.
	Seq  int64
	Time time.Time
	// Date is the calendar date of Time in the timestamp's own offset,
	// stored as a UTC midnight so day arithmetic is exact.
	Date   time.Time
	Type   string
	UserID *int64

	// user_profile attributes
	Gender             string
	Birthdate          *time.Time
	CreatedAt          *time.Time
	NumInterests       *int
	InterestCategories string

	// order_paid attributes
	OrderID        string
	RequestID      string
	EventID        string
	ItemsCount     *float64
	Price          *float64
	ShippingFee    *float64
	ItemsTotal     *float64
	UsedCouponCode string
	CouponCode     string
	CouponID       string
}

// DaysBetween returns the whole days from b to a. Both arguments are UTC
// midnights, so the division is exact.
func DaysBetween(a, b time.Time) int {
	return int(a.Sub(b) / (24 * time.Hour))
}

// Amount resolves the order amount by source priority: explicit total,
// then price plus shipping fee when both are present, then price alone.
// The first available source wins; sources are never summed together.
func (e Event) Amount() *float64 {
	if e.ItemsTotal != nil {
		return e.ItemsTotal
	}
	if e.Price != nil && e.ShippingFee != nil {
		v := *e.Price + *e.ShippingFee
		return &v
	}
	return e.Price
}

// OrderKey resolves the dedup key by priority: order id, request id, raw
// event id. The same order can appear in the log more than once, so order
// counting is a distinct count on this key.
func (e Event) OrderKey() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	if e.RequestID != "" {
		return e.RequestID
	}
	return e.EventID
}

// CouponUsed reports whether any of the alternate coupon reference fields
// is non-empty on this order row.
func (e Event) CouponUsed() bool {
	return e.UsedCouponCode != "" || e.CouponCode != "" || e.CouponID != ""
}
