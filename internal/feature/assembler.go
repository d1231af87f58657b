package feature

import (
	"github.com/ecpslabs/featuremart/internal/engagement"
	"github.com/ecpslabs/featuremart/internal/order"
	"github.com/ecpslabs/featuremart/internal/profile"
	"github.com/ecpslabs/featuremart/internal/rfm"
)

// Session recency sentinel for users never seen on a page_view.
const NeverSeenDays = 9999

// Assemble left-joins every per-user sub-aggregate onto the universe of
// user IDs and fills documented defaults where a user is absent from a
// sub-table. The universe must already be sorted; one row comes out per
// entry, in order.
func Assemble(
	universe []int64,
	profiles map[int64]profile.Snapshot,
	orders map[int64]order.Stats,
	sessions map[int64]engagement.Stats,
	scores map[int64]rfm.Scores,
) []Row {
	rows := make([]Row, 0, len(universe))
	for _, uid := range universe {
		r := Row{
			UserID:               uid,
			RecencyScore:         1,
			FrequencyScore:       1,
			MonetaryScore:        1,
			DaysSinceLastSession: NeverSeenDays,
		}

		if p, ok := profiles[uid]; ok {
			r.Age = p.Age
			r.Gender = p.Gender
			r.TenureDays = p.TenureDays
			r.NumInterests = p.NumInterests
		}
		if st, ok := orders[uid]; ok {
			// avg_order_value travels under its downstream name.
			r.MonetaryAvgOrder = st.AvgOrderValue
			r.AvgItemsPerOrder = st.AvgItemsPerOrder
			r.FrequencyLast30d = st.FrequencyLast30d
			r.FrequencyLast90d = st.FrequencyLast90d
			r.DaysBetweenOrders = st.DaysBetweenOrders
			r.CouponUsageRate = st.CouponUsageRate
		}
		if s, ok := sessions[uid]; ok {
			if s.HasSession {
				r.DaysSinceLastSession = s.DaysSinceLastSession
			}
			r.CartAdditionsLast30d = s.CartAdditionsLast30d
		}
		if sc, ok := scores[uid]; ok {
			r.RecencyScore = sc.Recency
			r.FrequencyScore = sc.Frequency
			r.MonetaryScore = sc.Monetary
		}

		rows = append(rows, r)
	}
	return rows
}
