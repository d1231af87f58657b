package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ecpslabs/featuremart/internal/engagement"
	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/feature"
	"github.com/ecpslabs/featuremart/internal/order"
	"github.com/ecpslabs/featuremart/internal/profile"
	"github.com/ecpslabs/featuremart/internal/rfm"
	"go.uber.org/zap"
)

// Engine names an execution strategy. Both must produce identical tables
// for identical input; the partitioned engine only changes how the per-user
// accumulation is scheduled.
type Engine string

const (
	EngineLocal       Engine = "local"
	EnginePartitioned Engine = "partitioned"
)

// Pipeline computes the per-user feature table for one as-of date.
type Pipeline struct {
	log        *zap.Logger
	partitions int
}

func New(log *zap.Logger, partitions int) *Pipeline {
	if partitions <= 0 {
		partitions = 1
	}
	return &Pipeline{
		log:        log.Named("pipeline"),
		partitions: partitions,
	}
}

// partial is the mergeable state produced from one event shard.
type partial struct {
	profiles   *profile.Accumulator
	orders     *order.Accumulator
	engagement *engagement.Accumulator
	users      map[int64]struct{}
}

func newPartial(asof time.Time) *partial {
	return &partial{
		profiles:   profile.NewAccumulator(),
		orders:     order.NewAccumulator(asof),
		engagement: engagement.NewAccumulator(asof),
		users:      make(map[int64]struct{}),
	}
}

func (p *partial) add(e event.Event) {
	if e.UserID != nil {
		p.users[*e.UserID] = struct{}{}
	}
	p.profiles.Add(e)
	p.orders.Add(e)
	p.engagement.Add(e)
}

func (p *partial) merge(o *partial) {
	p.profiles.Merge(o.profiles)
	p.orders.Merge(o.orders)
	p.engagement.Merge(o.engagement)
	for uid := range o.users {
		p.users[uid] = struct{}{}
	}
}

// Run executes one full computation: accumulate per-user aggregates, score
// the order population, assemble and label. The universe is every distinct
// user seen anywhere in the event table, not just in orders.
func (p *Pipeline) Run(ctx context.Context, events []event.Event, asof time.Time, engine Engine) ([]feature.Row, error) {
	var agg *partial
	switch engine {
	case EngineLocal, "":
		agg = p.runLocal(events, asof)
	case EnginePartitioned:
		agg = p.runPartitioned(ctx, events, asof)
	default:
		return nil, fmt.Errorf("unsupported engine %q", engine)
	}

	universe := make([]int64, 0, len(agg.users))
	for uid := range agg.users {
		universe = append(universe, uid)
	}
	sort.Slice(universe, func(i, j int) bool { return universe[i] < universe[j] })

	orders := agg.orders.Stats()
	scores := rfm.Score(orders, asof)

	rows := feature.Assemble(
		universe,
		agg.profiles.Snapshots(asof),
		orders,
		agg.engagement.Stats(),
		scores,
	)
	feature.ApplyChurn(rows)

	p.log.Debug("computed feature table",
		zap.String("engine", string(engine)),
		zap.Time("asof", asof),
		zap.Int("users", len(rows)),
		zap.Int("scored", len(scores)),
	)
	return rows, nil
}

func (p *Pipeline) runLocal(events []event.Event, asof time.Time) *partial {
	agg := newPartial(asof)
	for _, e := range events {
		agg.add(e)
	}
	return agg
}

// runPartitioned splits the event table into contiguous shards, accumulates
// each independently, and merges. Per-user aggregates depend only on that
// user's events plus the as-of date, so shards need no coordination; the
// population-wide steps (scoring, universe) run on the merged view.
func (p *Pipeline) runPartitioned(ctx context.Context, events []event.Event, asof time.Time) *partial {
	_ = ctx

	shards := p.partitions
	if shards > len(events) {
		shards = len(events)
	}
	if shards <= 1 {
		return p.runLocal(events, asof)
	}

	chunkSize := (len(events) + shards - 1) / shards

	// Rounding up the chunk size can exhaust the input before the requested
	// shard count is reached, so shards are cut by offset, not by index.
	var (
		wg       sync.WaitGroup
		partials []*partial
	)
	for lo := 0; lo < len(events); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(events) {
			hi = len(events)
		}

		part := newPartial(asof)
		partials = append(partials, part)

		wg.Add(1)
		go func(part *partial, chunk []event.Event) {
			defer wg.Done()
			for _, e := range chunk {
				part.add(e)
			}
		}(part, events[lo:hi])
	}
	wg.Wait()

	agg := partials[0]
	for _, part := range partials[1:] {
		agg.merge(part)
	}
	return agg
}
