package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/observability"
	"go.uber.org/zap"
)

const maxLineBytes = 4 * 1024 * 1024

// FileSource reads line-delimited JSON event records. Malformed, untimed and
// oversized lines are skipped, not surfaced: ingestion is best-effort by
// design.
type FileSource struct {
	path    string
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewFileSource(path string, log *zap.Logger, metrics *observability.Metrics) *FileSource {
	return &FileSource{
		path:    path,
		log:     log.Named("loader.file"),
		metrics: metrics,
	}
}

func (s *FileSource) Load(ctx context.Context) ([]event.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var (
		events  []event.Event
		dropped int64
	)

	reader := bufio.NewReaderSize(f, maxLineBytes)
	for {
		line, err := reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// A line past the cap is one bad record, not a bad file:
			// discard its remainder and keep going.
			dropped++
			for err == bufio.ErrBufferFull {
				_, err = reader.ReadSlice('\n')
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read events file: %w", err)
			}
			continue
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read events file: %w", err)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var raw event.Raw
			if jsonErr := json.Unmarshal(trimmed, &raw); jsonErr != nil {
				dropped++
			} else if ev, ok := event.FromRaw(raw); !ok {
				dropped++
			} else {
				ev.Seq = int64(len(events) + 1)
				events = append(events, ev)
			}
		}

		if err == io.EOF {
			break
		}
	}

	s.metrics.RecordEventsLoaded(ctx, "file", int64(len(events)))
	s.metrics.RecordEventsDropped(ctx, "unparsable", dropped)
	s.log.Info("loaded events",
		zap.String("path", s.path),
		zap.Int("events", len(events)),
		zap.Int64("dropped", dropped),
	)
	return events, nil
}
