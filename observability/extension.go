// Package observability provides a metrics extension for the edition engine
// that records event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/edition"
	"github.com/xraph/edition/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnInstanceDeployed      = (*MetricsExtension)(nil)
	_ plugin.OnEditionsMinted        = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected     = (*MetricsExtension)(nil)
	_ plugin.OnMetadataMutated       = (*MetricsExtension)(nil)
	_ plugin.OnEditionBurned         = (*MetricsExtension)(nil)
	_ plugin.OnPaymentTableUpdated   = (*MetricsExtension)(nil)
	_ plugin.OnLanesReclaimed        = (*MetricsExtension)(nil)
	_ plugin.OnPaymentTableReclaimed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records engine metrics.
// Register it as an engine plugin to track issuance automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Instance metrics
	InstancesDeployed Counter

	// Issuance metrics
	MintBatches    Counter
	EditionsMinted Counter
	MintBatchSize  Histogram
	MintLatency    Histogram

	// Contention metrics
	MintConflicts Counter
	LaneFull      Counter
	Exhausted     Counter

	// Metadata metrics
	MetadataMutations Counter
	EditionsBurned    Counter

	// Administration metrics
	PaymentTableUpdates   Counter
	LanesReclaimed        Counter
	PaymentTableReclaimed Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Instance metrics
		InstancesDeployed: factory.Counter("edition.instance.deployed"),

		// Issuance metrics
		MintBatches:    factory.Counter("edition.mint.batches"),
		EditionsMinted: factory.Counter("edition.mint.editions"),
		MintBatchSize:  factory.Histogram("edition.mint.batch.size"),
		MintLatency:    factory.Histogram("edition.mint.latency_ms"),

		// Contention metrics
		MintConflicts: factory.Counter("edition.mint.conflicts"),
		LaneFull:      factory.Counter("edition.mint.lane_full"),
		Exhausted:     factory.Counter("edition.mint.exhausted"),

		// Metadata metrics
		MetadataMutations: factory.Counter("edition.metadata.mutations"),
		EditionsBurned:    factory.Counter("edition.editions.burned"),

		// Administration metrics
		PaymentTableUpdates:   factory.Counter("edition.payment_table.updates"),
		LanesReclaimed:        factory.Counter("edition.lanes.reclaimed"),
		PaymentTableReclaimed: factory.Counter("edition.payment_table.reclaimed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnInstanceDeployed implements plugin.OnInstanceDeployed.
func (m *MetricsExtension) OnInstanceDeployed(_ context.Context, _ *plugin.DeployEvent) error {
	m.InstancesDeployed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnEditionsMinted implements plugin.OnEditionsMinted.
func (m *MetricsExtension) OnEditionsMinted(_ context.Context, ev *plugin.MintEvent) error {
	m.MintBatches.Inc()
	m.EditionsMinted.Add(float64(ev.Range.Count))
	m.MintBatchSize.Observe(float64(ev.Range.Count))
	m.MintLatency.Observe(float64(ev.Elapsed.Milliseconds()))
	return nil
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, ev *plugin.RejectEvent) error {
	switch {
	case errors.Is(ev.Err, edition.ErrCapacityExhausted):
		m.Exhausted.Inc()
	case errors.Is(ev.Err, edition.ErrLaneFull):
		m.LaneFull.Inc()
	case edition.IsConflict(ev.Err):
		m.MintConflicts.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Metadata hooks
// ──────────────────────────────────────────────────

// OnMetadataMutated implements plugin.OnMetadataMutated.
func (m *MetricsExtension) OnMetadataMutated(_ context.Context, _ *plugin.MetadataEvent) error {
	m.MetadataMutations.Inc()
	return nil
}

// OnEditionBurned implements plugin.OnEditionBurned.
func (m *MetricsExtension) OnEditionBurned(_ context.Context, _ *plugin.BurnEvent) error {
	m.EditionsBurned.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnPaymentTableUpdated implements plugin.OnPaymentTableUpdated.
func (m *MetricsExtension) OnPaymentTableUpdated(_ context.Context, _ *plugin.PaymentTableEvent) error {
	m.PaymentTableUpdates.Inc()
	return nil
}

// OnLanesReclaimed implements plugin.OnLanesReclaimed.
func (m *MetricsExtension) OnLanesReclaimed(_ context.Context, ev *plugin.ReclaimEvent) error {
	m.LanesReclaimed.Add(float64(ev.Reclaimed))
	return nil
}

// OnPaymentTableReclaimed implements plugin.OnPaymentTableReclaimed.
func (m *MetricsExtension) OnPaymentTableReclaimed(_ context.Context, _ *plugin.PaymentTableEvent) error {
	m.PaymentTableReclaimed.Inc()
	return nil
}
