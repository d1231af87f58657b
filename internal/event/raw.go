package event

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Raw is the sparse attribute bag of one producer record, as decoded from a
// log line or read back from the catalog.
type Raw map[string]any

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FromRaw normalizes a raw record into an Event. It returns false when the
// record has no parsable event_time; such records are excluded, not defaulted.
func FromRaw(raw Raw) (Event, bool) {
	t, ok := ParseTime(asString(raw["event_time"]))
	if !ok {
		return Event{}, false
	}

	e := Event{
		Time:               t,
		Date:               DateOf(t),
		Type:               NormalizeType(asString(raw["event_name"]), asString(raw["event_type"]), asString(raw["log_type"])),
		UserID:             ExtractUserID(asString(raw["user_id"])),
		Gender:             asString(raw["gender"]),
		Birthdate:          parseDate(asString(raw["birthdate"])),
		CreatedAt:          parseDate(asString(raw["created_at"])),
		NumInterests:       asInt(raw["num_interests"]),
		InterestCategories: asJSONString(raw["interest_categories"]),
		OrderID:            asString(raw["order_id"]),
		RequestID:          asString(raw["request_id"]),
		EventID:            asString(raw["event_id"]),
		ItemsCount:         ParseAmount(asString(raw["items_count"])),
		Price:              ParseAmount(asString(raw["price"])),
		ShippingFee:        ParseAmount(asString(raw["shipping_fee"])),
		ItemsTotal:         ParseAmount(asString(raw["items_total"])),
		UsedCouponCode:     asString(raw["used_coupon_code"]),
		CouponCode:         asString(raw["coupon_code"]),
		CouponID:           asString(raw["coupon_id"]),
	}
	return e, true
}

// NormalizeType picks the first non-empty candidate name and lower-cases it.
func NormalizeType(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" {
			return strings.ToLower(c)
		}
	}
	return ""
}

// ParseTime parses an ISO-8601-ish timestamp.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOf reduces a timestamp to its calendar date in its own offset,
// represented as a UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExtractUserID takes the first maximal run of digits found anywhere in the
// raw identifier, which handles producer formats like "user_123". Values
// without digits become nil.
func ExtractUserID(s string) *int64 {
	start, end := -1, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			end = i + 1
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}
	v, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseAmount coerces an amount-like field to a number, stripping any
// non-numeric characters first. Unparsable values become nil, never zero.
func ParseAmount(s string) *float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(s string) *time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return nil
	}
	d := DateOf(t)
	return &d
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

// asJSONString keeps list-valued fields as their JSON text form, since some
// producers send the interest list as a string and others as a real array.
func asJSONString(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case []any:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return asString(v)
	}
}

func asInt(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int64:
		i := int(n)
		return &i
	case int:
		i := n
		return &i
	case json.Number:
		if parsed, err := n.Int64(); err == nil {
			i := int(parsed)
			return &i
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &parsed
		}
	}
	return nil
}
