package feature

import (
	"testing"

	"github.com/ecpslabs/featuremart/internal/engagement"
	"github.com/ecpslabs/featuremart/internal/order"
	"github.com/ecpslabs/featuremart/internal/profile"
	"github.com/ecpslabs/featuremart/internal/rfm"
	"github.com/stretchr/testify/assert"
)

func TestAssembleDefaults(t *testing.T) {
	rows := Assemble(
		[]int64{42},
		map[int64]profile.Snapshot{},
		map[int64]order.Stats{},
		map[int64]engagement.Stats{},
		map[int64]rfm.Scores{},
	)

	assert.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, int64(42), r.UserID)
	assert.Equal(t, 1, r.RecencyScore)
	assert.Equal(t, 1, r.FrequencyScore)
	assert.Equal(t, 1, r.MonetaryScore)
	assert.Equal(t, NeverSeenDays, r.DaysSinceLastSession)
	assert.Equal(t, "", r.Gender)
	assert.Equal(t, 0.0, r.MonetaryAvgOrder)
}

func TestAssembleJoinsSubAggregates(t *testing.T) {
	rows := Assemble(
		[]int64{1, 2},
		map[int64]profile.Snapshot{
			1: {UserID: 1, Age: 30, Gender: "female", TenureDays: 100, NumInterests: 4},
		},
		map[int64]order.Stats{
			1: {UserID: 1, AvgOrderValue: 55.5, AvgItemsPerOrder: 2, FrequencyLast30d: 1, FrequencyLast90d: 3, DaysBetweenOrders: 4.5, CouponUsageRate: 0.25},
		},
		map[int64]engagement.Stats{
			1: {UserID: 1, DaysSinceLastSession: 2, HasSession: true, CartAdditionsLast30d: 6},
			2: {UserID: 2, CartAdditionsLast30d: 1}, // cart adds without a session
		},
		map[int64]rfm.Scores{
			1: {Recency: 4, Frequency: 3, Monetary: 5},
		},
	)

	assert.Equal(t, Row{
		UserID:               1,
		Age:                  30,
		Gender:               "female",
		TenureDays:           100,
		NumInterests:         4,
		RecencyScore:         4,
		FrequencyScore:       3,
		MonetaryScore:        5,
		MonetaryAvgOrder:     55.5,
		AvgItemsPerOrder:     2,
		FrequencyLast30d:     1,
		FrequencyLast90d:     3,
		DaysBetweenOrders:    4.5,
		CouponUsageRate:      0.25,
		DaysSinceLastSession: 2,
		CartAdditionsLast30d: 6,
	}, rows[0])

	// The sentinel survives when the user has cart adds but no page views.
	assert.Equal(t, NeverSeenDays, rows[1].DaysSinceLastSession)
	assert.Equal(t, 1, rows[1].CartAdditionsLast30d)
}

func TestApplyChurn(t *testing.T) {
	rows := []Row{
		{UserID: 1, FrequencyLast90d: 0, DaysSinceLastSession: 31},
		{UserID: 2, FrequencyLast90d: 1, DaysSinceLastSession: 31},
		{UserID: 3, FrequencyLast90d: 0, DaysSinceLastSession: 30},
		{UserID: 4, FrequencyLast90d: 0, DaysSinceLastSession: NeverSeenDays},
	}
	ApplyChurn(rows)

	assert.Equal(t, 1, rows[0].Churn)
	assert.Equal(t, 0, rows[1].Churn)
	assert.Equal(t, 0, rows[2].Churn)
	assert.Equal(t, 1, rows[3].Churn)
}

func TestRowStringsFormatting(t *testing.T) {
	r := Row{UserID: 7, MonetaryAvgOrder: 55.5, DaysBetweenOrders: 1.0 / 3}
	got := r.Strings()

	assert.Len(t, got, len(Columns()))
	assert.Equal(t, "7", got[0])
	assert.Equal(t, "55.5", got[8])
	assert.Equal(t, "0.3333333333333333", got[12])
}
