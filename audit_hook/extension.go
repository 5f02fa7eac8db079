// Package audithook bridges edition engine events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/edition"
	"github.com/xraph/edition/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnInstanceDeployed      = (*Extension)(nil)
	_ plugin.OnEditionsMinted        = (*Extension)(nil)
	_ plugin.OnOperationRejected     = (*Extension)(nil)
	_ plugin.OnMetadataMutated       = (*Extension)(nil)
	_ plugin.OnEditionBurned         = (*Extension)(nil)
	_ plugin.OnPaymentTableUpdated   = (*Extension)(nil)
	_ plugin.OnLanesReclaimed        = (*Extension)(nil)
	_ plugin.OnPaymentTableReclaimed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges engine events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Instance hooks
// ──────────────────────────────────────────────────

// OnInstanceDeployed implements plugin.OnInstanceDeployed.
func (e *Extension) OnInstanceDeployed(ctx context.Context, ev *plugin.DeployEvent) error {
	return e.record(ctx, ActionInstanceDeployed, SeverityInfo, OutcomeSuccess,
		ResourceInstance, ev.Identity, CategoryAdministration, nil,
		"operation_id", ev.Operation.String(),
		"commit", ev.Commit.String(),
		"name", ev.Name,
		"lanes", ev.Lanes,
		"total_supply", ev.TotalSupply,
	)
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnEditionsMinted implements plugin.OnEditionsMinted.
func (e *Extension) OnEditionsMinted(ctx context.Context, ev *plugin.MintEvent) error {
	return e.record(ctx, ActionEditionsMinted, SeverityInfo, OutcomeSuccess,
		ResourceEdition, fmt.Sprintf("%d-%d", ev.Range.First, ev.Range.End()-1), CategoryIssuance, nil,
		"operation_id", ev.Operation.String(),
		"instance", ev.Identity,
		"commit", ev.Commit.String(),
		"lane", ev.Lane,
		"first_id", ev.Range.First,
		"count", ev.Range.Count,
		"unit", ev.Unit.String(),
		"paid", ev.Paid.String(),
	)
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (e *Extension) OnOperationRejected(ctx context.Context, ev *plugin.RejectEvent) error {
	action, severity := ActionMintConflict, SeverityWarning
	switch {
	case errors.Is(ev.Err, edition.ErrCapacityExhausted):
		action, severity = ActionMintExhausted, SeverityCritical
	case errors.Is(ev.Err, edition.ErrLaneFull):
		action = ActionMintLaneFull
	}

	return e.record(ctx, action, severity, OutcomeFailure,
		ResourceLane, "", CategoryIssuance, ev.Err,
		"operation_id", ev.Operation.String(),
		"instance", ev.Identity,
		"action", ev.Action,
	)
}

// ──────────────────────────────────────────────────
// Metadata hooks
// ──────────────────────────────────────────────────

// OnMetadataMutated implements plugin.OnMetadataMutated.
func (e *Extension) OnMetadataMutated(ctx context.Context, ev *plugin.MetadataEvent) error {
	return e.record(ctx, ActionMetadataMutated, SeverityInfo, OutcomeSuccess,
		ResourceEdition, fmt.Sprint(ev.EditionID), CategoryMetadata, nil,
		"operation_id", ev.Operation.String(),
		"instance", ev.Identity,
		"commit", ev.Commit.String(),
		"version", ev.Version,
		"authority", ev.Authority,
	)
}

// OnEditionBurned implements plugin.OnEditionBurned.
func (e *Extension) OnEditionBurned(ctx context.Context, ev *plugin.BurnEvent) error {
	return e.record(ctx, ActionEditionBurned, SeverityWarning, OutcomeSuccess,
		ResourceEdition, fmt.Sprint(ev.EditionID), CategoryMetadata, nil,
		"operation_id", ev.Operation.String(),
		"instance", ev.Identity,
		"commit", ev.Commit.String(),
	)
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnPaymentTableUpdated implements plugin.OnPaymentTableUpdated.
func (e *Extension) OnPaymentTableUpdated(ctx context.Context, ev *plugin.PaymentTableEvent) error {
	return e.record(ctx, ActionPaymentTableUpdated, SeverityInfo, OutcomeSuccess,
		ResourcePaymentTable, ev.Identity, CategoryPayment, nil,
		"operation_id", ev.Operation.String(),
		"commit", ev.Commit.String(),
		"version", ev.Version,
		"entries", ev.Entries,
	)
}

// OnLanesReclaimed implements plugin.OnLanesReclaimed.
func (e *Extension) OnLanesReclaimed(ctx context.Context, ev *plugin.ReclaimEvent) error {
	return e.record(ctx, ActionLanesReclaimed, SeverityWarning, OutcomeSuccess,
		ResourceLane, ev.Identity, CategoryAdministration, nil,
		"operation_id", ev.Operation.String(),
		"commit", ev.Commit.String(),
		"reclaimed", ev.Reclaimed,
		"remaining", ev.Remaining,
	)
}

// OnPaymentTableReclaimed implements plugin.OnPaymentTableReclaimed.
func (e *Extension) OnPaymentTableReclaimed(ctx context.Context, ev *plugin.PaymentTableEvent) error {
	return e.record(ctx, ActionPaymentTableReclaimed, SeverityWarning, OutcomeSuccess,
		ResourcePaymentTable, ev.Identity, CategoryAdministration, nil,
		"operation_id", ev.Operation.String(),
		"commit", ev.Commit.String(),
		"version", ev.Version,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
