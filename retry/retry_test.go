package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/edition"
	"github.com/xraph/edition/retry"
)

var fast = retry.Policy{
	MaxAttempts:     4,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func TestDoRetriesRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"conflict", fmt.Errorf("mint: %w", edition.ErrConflict)},
		{"lane full", edition.ErrLaneFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notified []int
			got, err := retry.Do(context.Background(), fast, func(_ context.Context, attempt int) (int, error) {
				if attempt < 3 {
					return 0, tt.err
				}
				return attempt, nil
			}, func(attempt int, _ error, _ time.Duration) {
				notified = append(notified, attempt)
			})
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if got != 3 {
				t.Errorf("attempts = %d, want 3", got)
			}
			if len(notified) != 2 {
				t.Errorf("notify calls = %v, want 2", notified)
			}
		})
	}
}

func TestDoStopsOnTerminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"exhausted", edition.ErrCapacityExhausted},
		{"unauthorized", edition.ErrNotHolder},
		{"not found", edition.ErrRecordNotFound},
		{"precondition", edition.ErrLanesStillActive},
		{"lane full without a fresh nonce", fmt.Errorf("%w: %w", edition.ErrLaneFull, edition.ErrNoFreshNonce)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := retry.Do(context.Background(), fast, func(context.Context, int) (struct{}, error) {
				calls++
				return struct{}{}, tt.err
			}, nil)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
		})
	}
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fast, func(context.Context, int) (int, error) {
		calls++
		return 0, edition.ErrConflict
	}, nil)
	if !edition.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if calls != int(fast.MaxAttempts) {
		t.Errorf("calls = %d, want %d", calls, fast.MaxAttempts)
	}
}
