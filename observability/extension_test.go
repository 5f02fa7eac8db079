package observability_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/edition"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/observability"
	"github.com/xraph/edition/plugin"
)

func TestMetricsExtension(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	ctx := context.Background()

	_ = m.OnEditionsMinted(ctx, &plugin.MintEvent{Range: lane.Range{First: 0, Count: 3}, Elapsed: 2 * time.Millisecond})
	_ = m.OnEditionsMinted(ctx, &plugin.MintEvent{Range: lane.Range{First: 3, Count: 2}})
	_ = m.OnOperationRejected(ctx, &plugin.RejectEvent{Err: fmt.Errorf("mint: %w", edition.ErrConflict)})
	_ = m.OnOperationRejected(ctx, &plugin.RejectEvent{Err: edition.ErrLaneFull})
	_ = m.OnOperationRejected(ctx, &plugin.RejectEvent{Err: edition.ErrCapacityExhausted})
	_ = m.OnLanesReclaimed(ctx, &plugin.ReclaimEvent{Reclaimed: 15, Remaining: 85})

	tests := []struct {
		name string
		c    observability.Counter
		want float64
	}{
		{"batches", m.MintBatches, 2},
		{"editions", m.EditionsMinted, 5},
		{"conflicts", m.MintConflicts, 1},
		{"lane full", m.LaneFull, 1},
		{"exhausted", m.Exhausted, 1},
		{"lanes reclaimed", m.LanesReclaimed, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testutil.ToFloat64(tt.c.(prometheus.Counter))
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(reg, "edition_mint_batch_size"); n != 1 {
		t.Errorf("batch size histograms = %d, want 1", n)
	}
}

func TestPrometheusFactoryReusesMetrics(t *testing.T) {
	f := observability.NewPrometheusFactory(prometheus.NewRegistry())
	a := f.Counter("edition.test.count")
	b := f.Counter("edition.test.count")
	a.Inc()
	b.Inc()
	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 2 {
		t.Errorf("count = %v, want 2", got)
	}
}
