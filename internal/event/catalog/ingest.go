package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/observability"
	"github.com/ecpslabs/featuremart/pkg/db"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ingestBatchSize = 500
	maxLineBytes    = 4 * 1024 * 1024
)

// Ingestor parses line-delimited JSON event logs into analytics_events rows.
// This is the step that turns the transported log file into the catalog the
// distributed path reads.
type Ingestor struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	metrics *observability.Metrics
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Metrics *observability.Metrics
}

// Module provides the catalog ingestor.
var Module = fx.Module("event.catalog",
	fx.Provide(NewIngestor),
)

func NewIngestor(p Params) *Ingestor {
	return &Ingestor{
		db:      p.DB,
		log:     p.Log.Named("event.catalog"),
		genID:   p.GenID,
		metrics: p.Metrics,
	}
}

// IngestFile reads one event log file and appends its records to the
// catalog. Malformed lines are skipped; a record whose event_id already
// exists is left untouched, which makes re-ingesting a file safe.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var (
		batch   []event.Record
		stored  int
		skipped int64
		now     = time.Now().UTC()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := i.db.WithContext(ctx).CreateInBatches(batch, ingestBatchSize).Error
		if err != nil && !db.IsDuplicateKeyErr(err) {
			return fmt.Errorf("insert catalog batch: %w", err)
		}
		stored += len(batch)
		batch = batch[:0]
		return nil
	}

	reader := bufio.NewReaderSize(f, maxLineBytes)
	for {
		line, err := reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// One oversized record does not fail the file.
			skipped++
			for err == bufio.ErrBufferFull {
				_, err = reader.ReadSlice('\n')
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return stored, fmt.Errorf("read log file: %w", err)
			}
			continue
		}
		if err != nil && err != io.EOF {
			return stored, fmt.Errorf("read log file: %w", err)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var raw event.Raw
			if jsonErr := json.Unmarshal(trimmed, &raw); jsonErr != nil {
				skipped++
			} else if ev, ok := event.FromRaw(raw); !ok {
				skipped++
			} else {
				eventID := ev.EventID
				if eventID == "" {
					eventID = uuid.NewString()
				}

				batch = append(batch, event.Record{
					ID:        i.genID.Generate(),
					EventTime: ev.Time,
					EventName: event.NormalizeType(asRawString(raw["event_name"]), asRawString(raw["event_type"])),
					LogType:   event.NormalizeType(asRawString(raw["log_type"])),
					EventID:   eventID,
					UserID:    ev.UserID,
					Attrs:     map[string]any(raw),
					CreatedAt: now,
				})
				if len(batch) >= ingestBatchSize {
					if flushErr := flush(); flushErr != nil {
						return stored, flushErr
					}
				}
			}
		}

		if err == io.EOF {
			break
		}
	}
	if err := flush(); err != nil {
		return stored, err
	}

	i.metrics.RecordEventsLoaded(ctx, "ingest", int64(stored))
	i.metrics.RecordEventsDropped(ctx, "unparsable", skipped)
	i.log.Info("ingested log file",
		zap.String("path", path),
		zap.Int("stored", stored),
		zap.Int64("skipped", skipped),
	)
	return stored, nil
}

func asRawString(v any) string {
	s, _ := v.(string)
	return s
}
