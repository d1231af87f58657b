package order

import (
	"sort"
	"time"

	"github.com/ecpslabs/featuremart/internal/event"
)

// Stats is the per-user order aggregate. Zero-order users never appear here;
// the assembler fills their defaults instead.
type Stats struct {
	UserID            int64
	LastOrderDate     time.Time
	OrderCount        int
	TotalSpend        float64
	AvgOrderValue     float64
	AvgItemsPerOrder  float64
	CouponUsageRate   float64
	DaysBetweenOrders float64
	FrequencyLast30d  int
	FrequencyLast90d  int
}

type row struct {
	seq    int64
	date   time.Time
	amount *float64
	items  *float64
	coupon bool
	key    string
}

// Accumulator collects order_paid rows per user. Rows are kept raw until
// Stats so that merged accumulators finalize exactly like a single pass:
// all reductions run in load-sequence order.
type Accumulator struct {
	asof time.Time
	rows map[int64][]row
}

func NewAccumulator(asof time.Time) *Accumulator {
	return &Accumulator{asof: asof, rows: make(map[int64][]row)}
}

func (a *Accumulator) Add(e event.Event) {
	if e.Type != event.TypeOrderPaid || e.UserID == nil {
		return
	}
	a.rows[*e.UserID] = append(a.rows[*e.UserID], row{
		seq:    e.Seq,
		date:   e.Date,
		amount: e.Amount(),
		items:  e.ItemsCount,
		coupon: e.CouponUsed(),
		key:    e.OrderKey(),
	})
}

func (a *Accumulator) Merge(o *Accumulator) {
	for uid, rows := range o.rows {
		a.rows[uid] = append(a.rows[uid], rows...)
	}
}

// Stats finalizes every user's aggregate.
func (a *Accumulator) Stats() map[int64]Stats {
	out := make(map[int64]Stats, len(a.rows))
	for uid, rows := range a.rows {
		out[uid] = a.finalize(uid, rows)
	}
	return out
}

func (a *Accumulator) finalize(uid int64, rows []row) Stats {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	st := Stats{UserID: uid}

	var (
		keys       = make(map[string]struct{})
		dates      = make(map[time.Time]struct{})
		sumAmt     float64
		cntAmt     int
		sumItems   float64
		cntItems   int
		couponRows int
	)
	lower30 := a.asof.AddDate(0, 0, -30)
	lower90 := a.asof.AddDate(0, 0, -90)

	for _, r := range rows {
		keys[r.key] = struct{}{}
		dates[r.date] = struct{}{}
		if r.date.After(st.LastOrderDate) {
			st.LastOrderDate = r.date
		}
		if r.amount != nil {
			sumAmt += *r.amount
			cntAmt++
		}
		if r.items != nil {
			sumItems += *r.items
			cntItems++
		}
		if r.coupon {
			couponRows++
		}
		if !r.date.Before(lower30) && !r.date.After(a.asof) {
			st.FrequencyLast30d++
		}
		if !r.date.Before(lower90) && !r.date.After(a.asof) {
			st.FrequencyLast90d++
		}
	}

	st.OrderCount = len(keys)
	st.TotalSpend = sumAmt
	if cntAmt > 0 {
		st.AvgOrderValue = sumAmt / float64(cntAmt)
	}
	if cntItems > 0 {
		st.AvgItemsPerOrder = sumItems / float64(cntItems)
	}
	if len(rows) > 0 {
		st.CouponUsageRate = float64(couponRows) / float64(len(rows))
	}
	st.DaysBetweenOrders = meanGapDays(dates)
	return st
}

// meanGapDays averages the day gaps between consecutive distinct order
// dates. With one order date or fewer the gap is undefined and reported
// as zero.
func meanGapDays(dates map[time.Time]struct{}) float64 {
	if len(dates) <= 1 {
		return 0
	}
	sorted := make([]time.Time, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var total int
	for i := 1; i < len(sorted); i++ {
		total += event.DaysBetween(sorted[i], sorted[i-1])
	}
	return float64(total) / float64(len(sorted)-1)
}
