package audithook_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/edition"
	audithook "github.com/xraph/edition/audit_hook"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

func collect(events *[]*audithook.AuditEvent) audithook.RecorderFunc {
	return func(_ context.Context, ev *audithook.AuditEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func TestMintedEvent(t *testing.T) {
	var events []*audithook.AuditEvent
	ext := audithook.New(collect(&events))

	err := ext.OnEditionsMinted(context.Background(), &plugin.MintEvent{
		Operation: id.NewOperationID(),
		Identity:  "inst",
		Commit:    "bafy",
		Lane:      4,
		Range:     lane.Range{First: 400, Count: 3},
		Unit:      types.Native,
		Paid:      types.Of(types.Native, 6),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Action != audithook.ActionEditionsMinted || ev.ResourceID != "400-402" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Metadata["count"] != int64(3) || ev.Metadata["instance"] != "inst" {
		t.Errorf("metadata = %v", ev.Metadata)
	}
}

func TestRejectedEventClassification(t *testing.T) {
	tests := []struct {
		err      error
		action   string
		severity string
	}{
		{fmt.Errorf("mint: %w", edition.ErrConflict), audithook.ActionMintConflict, audithook.SeverityWarning},
		{edition.ErrLaneFull, audithook.ActionMintLaneFull, audithook.SeverityWarning},
		{edition.ErrCapacityExhausted, audithook.ActionMintExhausted, audithook.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			var events []*audithook.AuditEvent
			ext := audithook.New(collect(&events))

			if err := ext.OnOperationRejected(context.Background(), &plugin.RejectEvent{Action: "mint", Err: tt.err}); err != nil {
				t.Fatal(err)
			}
			if len(events) != 1 {
				t.Fatalf("events = %d", len(events))
			}
			ev := events[0]
			if ev.Action != tt.action || ev.Severity != tt.severity || ev.Outcome != audithook.OutcomeFailure {
				t.Errorf("event = %+v", ev)
			}
			if ev.Reason != tt.err.Error() {
				t.Errorf("reason = %q", ev.Reason)
			}
		})
	}
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	burn := &plugin.BurnEvent{EditionID: 7}
	reclaim := &plugin.ReclaimEvent{Reclaimed: 15, Remaining: 85}

	t.Run("enabled", func(t *testing.T) {
		var events []*audithook.AuditEvent
		ext := audithook.New(collect(&events), audithook.WithEnabledActions(audithook.ActionEditionBurned))
		_ = ext.OnEditionBurned(ctx, burn)
		_ = ext.OnLanesReclaimed(ctx, reclaim)
		if len(events) != 1 || events[0].ResourceID != "7" {
			t.Fatalf("events = %+v", events)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		var events []*audithook.AuditEvent
		ext := audithook.New(collect(&events), audithook.WithDisabledActions(audithook.ActionEditionBurned))
		_ = ext.OnEditionBurned(ctx, burn)
		_ = ext.OnLanesReclaimed(ctx, reclaim)
		if len(events) != 1 || events[0].Action != audithook.ActionLanesReclaimed {
			t.Fatalf("events = %+v", events)
		}
	})
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	if err := ext.OnEditionBurned(context.Background(), &plugin.BurnEvent{EditionID: 1}); err != nil {
		t.Fatalf("hook returned %v", err)
	}
}
