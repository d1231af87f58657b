package order

import (
	"testing"
	"time"

	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/stretchr/testify/assert"
)

var asof = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func orderEvent(seq int64, uid int64, day time.Time, key string, amount float64, items float64, coupon string) event.Event {
	return event.Event{
		Seq:        seq,
		Time:       day,
		Date:       day,
		Type:       event.TypeOrderPaid,
		UserID:     &uid,
		OrderID:    key,
		ItemsTotal: &amount,
		ItemsCount: &items,
		CouponCode: coupon,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOrderCountIsDistinctOnKey(t *testing.T) {
	acc := NewAccumulator(asof)
	// The same order appears twice in the log.
	acc.Add(orderEvent(1, 1, day(2024, 6, 1), "ORD-1", 100, 2, ""))
	acc.Add(orderEvent(2, 1, day(2024, 6, 1), "ORD-1", 100, 2, ""))
	acc.Add(orderEvent(3, 1, day(2024, 6, 10), "ORD-2", 50, 1, ""))

	st := acc.Stats()[1]
	assert.Equal(t, 2, st.OrderCount)
	// Sums and rates still run over raw rows.
	assert.Equal(t, 250.0, st.TotalSpend)
	assert.InDelta(t, 250.0/3, st.AvgOrderValue, 1e-9)
}

func TestWindowedFrequencies(t *testing.T) {
	acc := NewAccumulator(asof)
	acc.Add(orderEvent(1, 1, day(2024, 6, 25), "a", 10, 1, "")) // inside 30d
	acc.Add(orderEvent(2, 1, day(2024, 5, 31), "b", 10, 1, "")) // exactly 30 days back
	acc.Add(orderEvent(3, 1, day(2024, 4, 15), "c", 10, 1, "")) // inside 90d only
	acc.Add(orderEvent(4, 1, day(2024, 1, 1), "d", 10, 1, ""))  // outside both
	acc.Add(orderEvent(5, 1, day(2024, 7, 5), "e", 10, 1, ""))  // after asof

	st := acc.Stats()[1]
	assert.Equal(t, 2, st.FrequencyLast30d)
	assert.Equal(t, 3, st.FrequencyLast90d)
}

func TestCouponUsageRate(t *testing.T) {
	acc := NewAccumulator(asof)
	acc.Add(orderEvent(1, 1, day(2024, 6, 1), "a", 10, 1, "WELCOME"))
	acc.Add(orderEvent(2, 1, day(2024, 6, 2), "b", 10, 1, ""))

	st := acc.Stats()[1]
	assert.Equal(t, 0.5, st.CouponUsageRate)
}

func TestMeanGapOverDistinctDates(t *testing.T) {
	acc := NewAccumulator(asof)
	acc.Add(orderEvent(1, 1, day(2024, 6, 1), "a", 10, 1, ""))
	acc.Add(orderEvent(2, 1, day(2024, 6, 1), "b", 10, 1, "")) // same date, no gap
	acc.Add(orderEvent(3, 1, day(2024, 6, 3), "c", 10, 1, ""))
	acc.Add(orderEvent(4, 1, day(2024, 6, 7), "d", 10, 1, ""))

	st := acc.Stats()[1]
	// Gaps 2 and 4 over distinct dates 1, 3, 7.
	assert.Equal(t, 3.0, st.DaysBetweenOrders)
}

func TestSingleDateHasZeroGap(t *testing.T) {
	acc := NewAccumulator(asof)
	acc.Add(orderEvent(1, 1, day(2024, 6, 1), "a", 10, 1, ""))

	assert.Equal(t, 0.0, acc.Stats()[1].DaysBetweenOrders)
}

func TestMissingAmountsExcludedFromAverages(t *testing.T) {
	uid := int64(1)
	acc := NewAccumulator(asof)
	acc.Add(orderEvent(1, uid, day(2024, 6, 1), "a", 100, 2, ""))
	acc.Add(event.Event{
		Seq:     2,
		Date:    day(2024, 6, 2),
		Type:    event.TypeOrderPaid,
		UserID:  &uid,
		OrderID: "b",
	})

	st := acc.Stats()[uid]
	assert.Equal(t, 100.0, st.TotalSpend)
	assert.Equal(t, 100.0, st.AvgOrderValue)
	assert.Equal(t, 2.0, st.AvgItemsPerOrder)
}

func TestSingleRecentOrder(t *testing.T) {
	uid := int64(1)
	total := 50000.0
	acc := NewAccumulator(asof)
	acc.Add(event.Event{
		Seq:        1,
		Date:       asof.AddDate(0, 0, -5),
		Type:       event.TypeOrderPaid,
		UserID:     &uid,
		OrderID:    "o1",
		ItemsTotal: &total,
	})

	st := acc.Stats()[uid]
	assert.Equal(t, 1, st.OrderCount)
	assert.Equal(t, 50000.0, st.TotalSpend)
	assert.Equal(t, 50000.0, st.AvgOrderValue)
	assert.Equal(t, 0.0, st.DaysBetweenOrders)
	assert.Equal(t, 1, st.FrequencyLast30d)
	assert.Equal(t, 1, st.FrequencyLast90d)
	assert.Equal(t, asof.AddDate(0, 0, -5), st.LastOrderDate)
}

func TestMergeMatchesSinglePass(t *testing.T) {
	events := []event.Event{
		orderEvent(1, 1, day(2024, 6, 1), "a", 10.1, 1, ""),
		orderEvent(2, 2, day(2024, 6, 2), "b", 20.2, 2, "c1"),
		orderEvent(3, 1, day(2024, 6, 5), "c", 30.3, 3, ""),
		orderEvent(4, 2, day(2024, 6, 9), "d", 40.4, 4, ""),
		orderEvent(5, 1, day(2024, 6, 9), "e", 50.5, 5, "c2"),
	}

	single := NewAccumulator(asof)
	for _, e := range events {
		single.Add(e)
	}

	left, right := NewAccumulator(asof), NewAccumulator(asof)
	right.Add(events[3])
	right.Add(events[0])
	left.Add(events[4])
	left.Add(events[1])
	left.Add(events[2])
	left.Merge(right)

	assert.Equal(t, single.Stats(), left.Stats())
}
