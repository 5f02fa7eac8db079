// Package retry runs engine operations under a bounded backoff policy.
//
// The engine never retries on its own: a conflicted or lane-full mint
// returns to the caller. Do is the caller-side loop. It retries only errors
// that a fresh attempt can fix (edition.IsRetryable) and returns every
// other error at once. Each attempt calls op again, so the engine samples
// new inputs and lands on a new lane.
//
// Resampling needs more than one object in the actor's wallet. With a single
// object every attempt draws the same nonce and therefore the same lane, so
// a full lane fails at once with edition.ErrNoFreshNonce instead of using up
// the attempts. Fund the actor with several objects to spread mints.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/xraph/edition"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts     uint          `json:"max_attempts" mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialInterval time.Duration `json:"initial_interval" mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `json:"max_interval" mapstructure:"max_interval" yaml:"max_interval"`
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     8,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Notify is called before each wait with the attempt that failed.
type Notify func(attempt int, err error, wait time.Duration)

// Do calls op until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. attempt counts from 1.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error), notify Notify) (T, error) {
	maxTries := p.MaxAttempts
	if maxTries == 0 {
		maxTries = DefaultPolicy().MaxAttempts
	}

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op(ctx, attempt)
		if err != nil && !edition.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if notify != nil {
				notify(attempt, err, wait)
			}
		}),
	)
}

// Mint issues payloads on e, retrying conflicts and full lanes.
func Mint(ctx context.Context, e *edition.Engine, p Policy, unit edition.Unit, payloads ...edition.Payload) (*edition.Minted, error) {
	return Do(ctx, p, func(ctx context.Context, _ int) (*edition.Minted, error) {
		return e.Mint(ctx, unit, payloads...)
	}, nil)
}
