package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches hooks to them.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onInstanceDeployed      []OnInstanceDeployed
	onEditionsMinted        []OnEditionsMinted
	onOperationRejected     []OnOperationRejected
	onMetadataMutated       []OnMetadataMutated
	onEditionBurned         []OnEditionBurned
	onPaymentTableUpdated   []OnPaymentTableUpdated
	onLanesReclaimed        []OnLanesReclaimed
	onPaymentTableReclaimed []OnPaymentTableReclaimed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnInstanceDeployed); ok {
		r.onInstanceDeployed = append(r.onInstanceDeployed, v)
	}
	if v, ok := p.(OnEditionsMinted); ok {
		r.onEditionsMinted = append(r.onEditionsMinted, v)
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onOperationRejected = append(r.onOperationRejected, v)
	}
	if v, ok := p.(OnMetadataMutated); ok {
		r.onMetadataMutated = append(r.onMetadataMutated, v)
	}
	if v, ok := p.(OnEditionBurned); ok {
		r.onEditionBurned = append(r.onEditionBurned, v)
	}
	if v, ok := p.(OnPaymentTableUpdated); ok {
		r.onPaymentTableUpdated = append(r.onPaymentTableUpdated, v)
	}
	if v, ok := p.(OnLanesReclaimed); ok {
		r.onLanesReclaimed = append(r.onLanesReclaimed, v)
	}
	if v, ok := p.(OnPaymentTableReclaimed); ok {
		r.onPaymentTableReclaimed = append(r.onPaymentTableReclaimed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnInstanceDeployed", reflect.TypeOf((*OnInstanceDeployed)(nil)).Elem()},
	{"OnEditionsMinted", reflect.TypeOf((*OnEditionsMinted)(nil)).Elem()},
	{"OnOperationRejected", reflect.TypeOf((*OnOperationRejected)(nil)).Elem()},
	{"OnMetadataMutated", reflect.TypeOf((*OnMetadataMutated)(nil)).Elem()},
	{"OnEditionBurned", reflect.TypeOf((*OnEditionBurned)(nil)).Elem()},
	{"OnPaymentTableUpdated", reflect.TypeOf((*OnPaymentTableUpdated)(nil)).Elem()},
	{"OnLanesReclaimed", reflect.TypeOf((*OnLanesReclaimed)(nil)).Elem()},
	{"OnPaymentTableReclaimed", reflect.TypeOf((*OnPaymentTableReclaimed)(nil)).Elem()},
}

func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitInstanceDeployed emits a deploy event.
func (r *Registry) EmitInstanceDeployed(ctx context.Context, ev *DeployEvent) {
	emit(ctx, r, "OnInstanceDeployed", snapshot(r, &r.onInstanceDeployed), func(p OnInstanceDeployed) error {
		return p.OnInstanceDeployed(ctx, ev)
	})
}

// EmitEditionsMinted emits a mint event.
func (r *Registry) EmitEditionsMinted(ctx context.Context, ev *MintEvent) {
	emit(ctx, r, "OnEditionsMinted", snapshot(r, &r.onEditionsMinted), func(p OnEditionsMinted) error {
		return p.OnEditionsMinted(ctx, ev)
	})
}

// EmitOperationRejected emits a rejection event.
func (r *Registry) EmitOperationRejected(ctx context.Context, ev *RejectEvent) {
	emit(ctx, r, "OnOperationRejected", snapshot(r, &r.onOperationRejected), func(p OnOperationRejected) error {
		return p.OnOperationRejected(ctx, ev)
	})
}

// EmitMetadataMutated emits a metadata mutation event.
func (r *Registry) EmitMetadataMutated(ctx context.Context, ev *MetadataEvent) {
	emit(ctx, r, "OnMetadataMutated", snapshot(r, &r.onMetadataMutated), func(p OnMetadataMutated) error {
		return p.OnMetadataMutated(ctx, ev)
	})
}

// EmitEditionBurned emits a burn event.
func (r *Registry) EmitEditionBurned(ctx context.Context, ev *BurnEvent) {
	emit(ctx, r, "OnEditionBurned", snapshot(r, &r.onEditionBurned), func(p OnEditionBurned) error {
		return p.OnEditionBurned(ctx, ev)
	})
}

// EmitPaymentTableUpdated emits a payment-table event.
func (r *Registry) EmitPaymentTableUpdated(ctx context.Context, ev *PaymentTableEvent) {
	emit(ctx, r, "OnPaymentTableUpdated", snapshot(r, &r.onPaymentTableUpdated), func(p OnPaymentTableUpdated) error {
		return p.OnPaymentTableUpdated(ctx, ev)
	})
}

// EmitLanesReclaimed emits a lane reclaim event.
func (r *Registry) EmitLanesReclaimed(ctx context.Context, ev *ReclaimEvent) {
	emit(ctx, r, "OnLanesReclaimed", snapshot(r, &r.onLanesReclaimed), func(p OnLanesReclaimed) error {
		return p.OnLanesReclaimed(ctx, ev)
	})
}

// EmitPaymentTableReclaimed emits a payment-table retirement event.
func (r *Registry) EmitPaymentTableReclaimed(ctx context.Context, ev *PaymentTableEvent) {
	emit(ctx, r, "OnPaymentTableReclaimed", snapshot(r, &r.onPaymentTableReclaimed), func(p OnPaymentTableReclaimed) error {
		return p.OnPaymentTableReclaimed(ctx, ev)
	})
}

func snapshot[T Plugin](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), (*list)...)
}

func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, call func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block issuance.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
