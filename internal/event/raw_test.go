package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromRaw_NormalizesRecord(t *testing.T) {
	raw := Raw{
		"event_time":  "2024-05-01T10:30:00",
		"event_name":  "Order_Paid",
		"user_id":     "user_123",
		"order_id":    "ORD-1",
		"price":       "12,500원",
		"items_count": "3",
		"coupon_code": "WELCOME",
	}

	ev, ok := FromRaw(raw)
	assert.True(t, ok)
	assert.Equal(t, "order_paid", ev.Type)
	assert.NotNil(t, ev.UserID)
	assert.Equal(t, int64(123), *ev.UserID)
	assert.Equal(t, "ORD-1", ev.OrderID)
	assert.NotNil(t, ev.Price)
	assert.Equal(t, 12500.0, *ev.Price)
	assert.NotNil(t, ev.ItemsCount)
	assert.Equal(t, 3.0, *ev.ItemsCount)
	assert.True(t, ev.CouponUsed())

	wantDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDate, ev.Date)
}

func TestFromRaw_RejectsMissingEventTime(t *testing.T) {
	_, ok := FromRaw(Raw{"event_name": "page_view", "user_id": "1"})
	assert.False(t, ok)

	_, ok = FromRaw(Raw{"event_time": "not a timestamp", "user_id": "1"})
	assert.False(t, ok)
}

func TestFromRaw_TypeFallsBackToLogType(t *testing.T) {
	ev, ok := FromRaw(Raw{"event_time": "2024-05-01T00:00:00", "log_type": "PAGE_VIEW"})
	assert.True(t, ok)
	assert.Equal(t, "page_view", ev.Type)
}

func TestFromRaw_InterestListKeepsJSONForm(t *testing.T) {
	ev, ok := FromRaw(Raw{
		"event_time":          "2024-05-01T00:00:00",
		"event_name":          "user_profile",
		"user_id":             "7",
		"interest_categories": []any{"shoes", "bags"},
	})
	assert.True(t, ok)
	assert.Equal(t, `["shoes","bags"]`, ev.InterestCategories)
}

func TestExtractUserID(t *testing.T) {
	cases := []struct {
		in   string
		want *int64
	}{
		{"123", ptr(int64(123))},
		{"user_456", ptr(int64(456))},
		{"u-78-90", ptr(int64(78))},
		{"no digits", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := ExtractUserID(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, tc.in)
			continue
		}
		if assert.NotNil(t, got, tc.in) {
			assert.Equal(t, *tc.want, *got, tc.in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1250.5, *ParseAmount("1,250.5"))
	assert.Equal(t, -3.0, *ParseAmount("-3"))
	assert.Equal(t, 990.0, *ParseAmount("990원"))
	assert.Nil(t, ParseAmount(""))
	assert.Nil(t, ParseAmount("krw"))
	assert.Nil(t, ParseAmount("1.2.3.4-"))
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "order_paid", NormalizeType("", "Order_Paid", "something"))
	assert.Equal(t, "", NormalizeType("", " ", ""))
}

func ptr[T any](v T) *T { return &v }
