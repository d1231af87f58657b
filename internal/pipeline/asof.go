package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecpslabs/featuremart/internal/clock"
	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event"
)

// As-of resolution modes used when no explicit date is configured.
const (
	AsOfModeRun       = "run"
	AsOfModeYesterday = "yesterday"
	AsOfModeDataMax   = "data_max"
)

// ErrAsOfUnresolvable is the one fatal configuration error of the core:
// no explicit as-of date, data-derived mode, and an empty event table leave
// nothing meaningful to default to.
var ErrAsOfUnresolvable = errors.New("as-of date unresolvable: no explicit date and no events")

// ResolveAsOf determines the reference date for a run. An explicit AsOf
// value always wins; otherwise the mode decides, with "run"/"yesterday"
// evaluated in the configured time zone and "data_max" derived from the
// maximum event date observed.
func ResolveAsOf(cfg config.PipelineConfig, clk clock.Clock, events []event.Event) (time.Time, error) {
	if cfg.AsOf != "" {
		raw := cfg.AsOf
		if len(raw) > 10 {
			raw = raw[:10]
		}
		asof, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid as-of date %q: %w", cfg.AsOf, err)
		}
		return asof, nil
	}

	switch cfg.AsOfMode {
	case AsOfModeRun:
		return localDate(clk.Now(), cfg.Timezone), nil
	case AsOfModeYesterday:
		return localDate(clk.Now(), cfg.Timezone).AddDate(0, 0, -1), nil
	case AsOfModeDataMax, "":
		var max time.Time
		for _, e := range events {
			if e.Date.After(max) {
				max = e.Date
			}
		}
		if max.IsZero() {
			return time.Time{}, ErrAsOfUnresolvable
		}
		return max, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported as-of mode %q", cfg.AsOfMode)
	}
}

func localDate(now time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return event.DateOf(now.In(loc))
}
