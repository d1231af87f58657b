package engagement

import (
	"time"

	"github.com/ecpslabs/featuremart/internal/event"
)

// Stats is the per-user engagement aggregate. Users without a single
// page_view never appear here; the assembler fills the sentinel downstream.
type Stats struct {
	UserID               int64
	DaysSinceLastSession int
	HasSession           bool
	CartAdditionsLast30d int
}

// Accumulator tracks session recency and recent cart adds. Max-of-dates and
// counter addition are associative, so partitioned accumulators merge without
// ordering concerns.
type Accumulator struct {
	asof        time.Time
	lastSession map[int64]time.Time
	cartAdds    map[int64]int
}

func NewAccumulator(asof time.Time) *Accumulator {
	return &Accumulator{
		asof:        asof,
		lastSession: make(map[int64]time.Time),
		cartAdds:    make(map[int64]int),
	}
}

func (a *Accumulator) Add(e event.Event) {
	if e.UserID == nil {
		return
	}
	uid := *e.UserID

	switch e.Type {
	case event.TypePageView:
		if e.Date.After(a.lastSession[uid]) {
			a.lastSession[uid] = e.Date
		}
	case event.TypeCartAdd, event.TypeAddToCart:
		// Raw row count, not deduplicated.
		lower := a.asof.AddDate(0, 0, -30)
		if !e.Date.Before(lower) && !e.Date.After(a.asof) {
			a.cartAdds[uid]++
		}
	}
}

func (a *Accumulator) Merge(o *Accumulator) {
	for uid, d := range o.lastSession {
		if d.After(a.lastSession[uid]) {
			a.lastSession[uid] = d
		}
	}
	for uid, n := range o.cartAdds {
		a.cartAdds[uid] += n
	}
}

// Stats finalizes the engagement aggregates.
func (a *Accumulator) Stats() map[int64]Stats {
	out := make(map[int64]Stats, len(a.lastSession))
	for uid, last := range a.lastSession {
		days := event.DaysBetween(a.asof, last)
		if days < 0 {
			days = 0
		}
		out[uid] = Stats{
			UserID:               uid,
			DaysSinceLastSession: days,
			HasSession:           true,
			CartAdditionsLast30d: a.cartAdds[uid],
		}
	}
	for uid, n := range a.cartAdds {
		if _, ok := out[uid]; ok {
			continue
		}
		out[uid] = Stats{UserID: uid, CartAdditionsLast30d: n}
	}
	return out
}
