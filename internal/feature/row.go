package feature

import "strconv"

// Row is one line of the output feature table. Field order mirrors the
// output schema; downstream consumers depend on these exact column names.
type Row struct {
	UserID               int64
	Age                  int
	Gender               string
	TenureDays           int
	NumInterests         int
	RecencyScore         int
	FrequencyScore       int
	MonetaryScore        int
	MonetaryAvgOrder     float64
	AvgItemsPerOrder     float64
	FrequencyLast30d     int
	FrequencyLast90d     int
	DaysBetweenOrders    float64
	CouponUsageRate      float64
	DaysSinceLastSession int
	CartAdditionsLast30d int
	Churn                int
}

// Columns is the fixed output column order.
func Columns() []string {
	return []string{
		"user_id", "age", "gender", "tenure_days", "num_interests",
		"recency_score", "frequency_score", "monetary_score",
		"monetary_avg_order", "avg_items_per_order",
		"frequency_last_30d", "frequency_last_90d", "days_between_orders",
		"coupon_usage_rate", "days_since_last_session", "cart_additions_last_30d",
		"churn",
	}
}

// Strings renders the row for delimited output. Formatting is fixed so the
// same input always produces byte-identical lines.
func (r Row) Strings() []string {
	return []string{
		strconv.FormatInt(r.UserID, 10),
		strconv.Itoa(r.Age),
		r.Gender,
		strconv.Itoa(r.TenureDays),
		strconv.Itoa(r.NumInterests),
		strconv.Itoa(r.RecencyScore),
		strconv.Itoa(r.FrequencyScore),
		strconv.Itoa(r.MonetaryScore),
		formatFloat(r.MonetaryAvgOrder),
		formatFloat(r.AvgItemsPerOrder),
		strconv.Itoa(r.FrequencyLast30d),
		strconv.Itoa(r.FrequencyLast90d),
		formatFloat(r.DaysBetweenOrders),
		formatFloat(r.CouponUsageRate),
		strconv.Itoa(r.DaysSinceLastSession),
		strconv.Itoa(r.CartAdditionsLast30d),
		strconv.Itoa(r.Churn),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
