package profile

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ecpslabs/featuremart/internal/event"
)

// Snapshot is a user's latest demographic state as of the reference date.
type Snapshot struct {
	UserID       int64
	Age          int
	Gender       string
	TenureDays   int
	NumInterests int
}

// Accumulator keeps the most recent user_profile event per user. Users edit
// and re-register, so the canonical snapshot is always the latest event;
// ties on event_time resolve by load sequence.
type Accumulator struct {
	latest map[int64]event.Event
}

func NewAccumulator() *Accumulator {
	return &Accumulator{latest: make(map[int64]event.Event)}
}

func (a *Accumulator) Add(e event.Event) {
	if e.Type != event.TypeUserProfile || e.UserID == nil {
		return
	}
	uid := *e.UserID
	cur, ok := a.latest[uid]
	if !ok || newer(e, cur) {
		a.latest[uid] = e
	}
}

// Merge folds another accumulator in. Latest-of-latests is the same event
// regardless of how the inputs were split, so merging commutes.
func (a *Accumulator) Merge(o *Accumulator) {
	for uid, e := range o.latest {
		cur, ok := a.latest[uid]
		if !ok || newer(e, cur) {
			a.latest[uid] = e
		}
	}
}

// Snapshots materializes the per-user demographic snapshot.
func (a *Accumulator) Snapshots(asof time.Time) map[int64]Snapshot {
	out := make(map[int64]Snapshot, len(a.latest))
	for uid, e := range a.latest {
		out[uid] = Snapshot{
			UserID:       uid,
			Age:          age(asof, e.Birthdate),
			Gender:       NormalizeGender(e.Gender),
			TenureDays:   tenureDays(asof, e.CreatedAt),
			NumInterests: interestCount(e),
		}
	}
	return out
}

func newer(a, b event.Event) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.After(b.Time)
	}
	return a.Seq > b.Seq
}

// NormalizeGender lower-cases the producer value, strips the enum qualifier
// some producers leak, and maps onto the closed vocabulary. Anything else
// becomes the empty string.
func NormalizeGender(raw string) string {
	g := strings.ToLower(strings.TrimSpace(raw))
	g = strings.TrimPrefix(g, "genderenum.")
	switch g {
	case "male", "female", "other":
		return g
	default:
		return ""
	}
}

func age(asof time.Time, birthdate *time.Time) int {
	if birthdate == nil {
		return 0
	}
	years := monthsBetween(asof, *birthdate) / 12
	if years < 0 {
		return 0
	}
	return years
}

func tenureDays(asof time.Time, createdAt *time.Time) int {
	if createdAt == nil {
		return 0
	}
	days := event.DaysBetween(asof, *createdAt)
	if days < 0 {
		return 0
	}
	return days
}

func monthsBetween(a, b time.Time) int {
	months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
	if a.Day() < b.Day() {
		months--
	}
	return months
}

func interestCount(e event.Event) int {
	if e.NumInterests != nil {
		if *e.NumInterests < 0 {
			return 0
		}
		return *e.NumInterests
	}
	if e.InterestCategories == "" {
		return 0
	}
	var list []any
	if err := json.Unmarshal([]byte(e.InterestCategories), &list); err != nil {
		return 0
	}
	return len(list)
}
