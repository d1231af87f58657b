package loader

import (
	"context"
	"fmt"

	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/observability"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogSource reads normalized event rows back out of the analytics_events
// table. Rows are ordered by (event_time, id) so sequence numbers reproduce
// ingest order.
type CatalogSource struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewCatalogSource(db *gorm.DB, log *zap.Logger, metrics *observability.Metrics) *CatalogSource {
	return &CatalogSource{
		db:      db,
		log:     log.Named("loader.catalog"),
		metrics: metrics,
	}
}

func (s *CatalogSource) Load(ctx context.Context) ([]event.Event, error) {
	var records []event.Record
	if err := s.db.WithContext(ctx).
		Order("event_time ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read event catalog: %w", err)
	}

	var (
		events  []event.Event
		dropped int64
	)
	for _, rec := range records {
		ev, ok := event.FromRaw(rec.ToRaw())
		if !ok {
			dropped++
			continue
		}
		ev.Seq = int64(len(events) + 1)
		events = append(events, ev)
	}

	s.metrics.RecordEventsLoaded(ctx, "catalog", int64(len(events)))
	s.metrics.RecordEventsDropped(ctx, "unparsable", dropped)
	s.log.Info("loaded events from catalog",
		zap.Int("events", len(events)),
		zap.Int64("dropped", dropped),
	)
	return events, nil
}
