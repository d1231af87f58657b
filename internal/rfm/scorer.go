package rfm

import (
	"math"
	"sort"
	"time"

	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/order"
)

const tiles = 5

// Scores holds the ordinal 1..5 recency/frequency/monetary scores.
type Scores struct {
	Recency   int
	Frequency int
	Monetary  int
}

// Score buckets every user with at least one order into equal-frequency
// quintiles per magnitude. Recency is inverted: fewer days since the last
// order means a higher score. Zero-order users are not part of the scoring
// population; they receive the default score downstream, not a computed one.
func Score(stats map[int64]order.Stats, asof time.Time) map[int64]Scores {
	if len(stats) == 0 {
		return map[int64]Scores{}
	}

	users := make([]int64, 0, len(stats))
	for uid := range stats {
		users = append(users, uid)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	recency := make([]float64, len(users))
	frequency := make([]float64, len(users))
	monetary := make([]float64, len(users))
	for i, uid := range users {
		st := stats[uid]
		recency[i] = float64(event.DaysBetween(asof, st.LastOrderDate))
		frequency[i] = float64(st.OrderCount)
		monetary[i] = st.TotalSpend
	}

	r := bucketize(recency, true)
	f := bucketize(frequency, false)
	m := bucketize(monetary, false)

	out := make(map[int64]Scores, len(users))
	for i, uid := range users {
		out[uid] = Scores{Recency: r[i], Frequency: f[i], Monetary: m[i]}
	}
	return out
}

// bucketize assigns each value a bucket in [1,tiles], ascending with the
// magnitude. Quantile cuts are the primary method; when ties collapse the
// boundaries, the rank fallback takes over. Inversion happens last so both
// methods share it.
func bucketize(values []float64, invert bool) []int {
	buckets, ok := quantileBuckets(values)
	if !ok {
		buckets = rankBuckets(values)
	}
	if invert {
		for i := range buckets {
			buckets[i] = tiles + 1 - buckets[i]
		}
	}
	return buckets
}

// quantileBuckets cuts the population at linearly interpolated quantiles.
// It reports false when the cut points are not strictly increasing, which
// happens whenever a large share of users ties on the same magnitude.
func quantileBuckets(values []float64) ([]int, bool) {
	n := len(values)
	if n == 0 {
		return nil, true
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, tiles+1)
	for i := 0; i <= tiles; i++ {
		edges[i] = quantile(sorted, float64(i)/tiles)
	}
	for i := 1; i <= tiles; i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, false
		}
	}

	// Intervals are right-closed with the lowest edge inclusive.
	inner := edges[1:tiles]
	buckets := make([]int, n)
	for i, v := range values {
		b := sort.SearchFloat64s(inner, v) + 1
		if b > tiles {
			b = tiles
		}
		buckets[i] = b
	}
	return buckets, true
}

// rankBuckets is the degenerate-distribution fallback: stable 1-based ranks
// divided into five even slices. Ties take consecutive ranks in input order,
// which is ascending user id, so even a fully tied population still spreads
// across all five buckets with cardinalities within one of n/5. The rank
// order is fixed by the sorted user universe, never by partitioning.
func rankBuckets(values []float64) []int {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	buckets := make([]int, n)
	for pos, i := range idx {
		rank := float64(pos + 1)
		b := int(math.Ceil(rank * tiles / float64(n)))
		if b < 1 {
			b = 1
		}
		if b > tiles {
			b = tiles
		}
		buckets[i] = b
	}
	return buckets
}

// quantile linearly interpolates the p-quantile of sorted values.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
