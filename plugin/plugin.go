// Package plugin provides the hook system of the edition engine.
// Plugins implement any subset of the hook interfaces below; the registry
// discovers them at registration and calls them after each operation.
// Hook failures are logged and never fail the operation.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Instance hooks
// ──────────────────────────────────────────────────

// OnInstanceDeployed is called after a deploy commits.
type OnInstanceDeployed interface {
	Plugin
	OnInstanceDeployed(ctx context.Context, ev *DeployEvent) error
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnEditionsMinted is called after a batch of editions commits.
type OnEditionsMinted interface {
	Plugin
	OnEditionsMinted(ctx context.Context, ev *MintEvent) error
}

// OnOperationRejected is called when an operation fails with a retryable
// or capacity error: a commit conflict, a full lane, or exhausted supply.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, ev *RejectEvent) error
}

// ──────────────────────────────────────────────────
// Metadata hooks
// ──────────────────────────────────────────────────

// OnMetadataMutated is called after a metadata record is replaced.
type OnMetadataMutated interface {
	Plugin
	OnMetadataMutated(ctx context.Context, ev *MetadataEvent) error
}

// OnEditionBurned is called after an edition is burned.
type OnEditionBurned interface {
	Plugin
	OnEditionBurned(ctx context.Context, ev *BurnEvent) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnPaymentTableUpdated is called after the payment table is published or
// replaced.
type OnPaymentTableUpdated interface {
	Plugin
	OnPaymentTableUpdated(ctx context.Context, ev *PaymentTableEvent) error
}

// OnLanesReclaimed is called after a batch of lanes is reclaimed.
type OnLanesReclaimed interface {
	Plugin
	OnLanesReclaimed(ctx context.Context, ev *ReclaimEvent) error
}

// OnPaymentTableReclaimed is called after the payment table is retired.
type OnPaymentTableReclaimed interface {
	Plugin
	OnPaymentTableReclaimed(ctx context.Context, ev *PaymentTableEvent) error
}
