package caption

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Orchestration defaults.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// State is one phase of a generation request's lifecycle, logged on every
// transition.
type State string

const (
	StatePending       State = "pending"
	StateSubmitted     State = "submitted"
	StateValidated     State = "validated"
	StateParseFallback State = "parse_fallback"
	StateRetrying      State = "retrying"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

// Orchestrator drives a Generator until it yields a schema-valid caption
// set or the attempt budget is exhausted.
//
// Each attempt is strict-decoded first. A decode failure triggers one
// loose parse of the same response (fence stripping plus JSON repair); a
// fallback success completes the attempt without touching the retry
// budget, and a fallback failure ends the run. Only transport errors are
// retried, separated by exponential backoff capped at DefaultMaxDelay.
type Orchestrator struct {
	gen         Generator
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.maxAttempts = n }
}

// WithBaseDelay overrides the first backoff delay. Later delays double
// from it.
func WithBaseDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.baseDelay = d }
}

// WithSleep replaces the backoff sleeper (used in tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator over gen.
func NewOrchestrator(gen Generator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gen:         gen,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		sleep:       sleepCtx,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes one generation request for exactly slots captions and
// returns them sanitized, in slot order.
//
// A slot count outside 1..MaxSlots fails immediately without calling the
// generator. Transport errors are retried up to the attempt budget with
// the last error surfaced; a response that survives neither strict decode
// nor the loose parse fails the run without further attempts.
func (o *Orchestrator) Run(ctx context.Context, req *SchemaRequest, slots int) ([]string, error) {
	if slots < 1 || slots > MaxSlots {
		return nil, fmt.Errorf("caption: slot count %d out of range [1, %d]", slots, MaxSlots)
	}

	id := uuid.NewString()
	logger := o.logger.With("request", id, "slots", slots)
	logger.Debug("generation starting", "state", StatePending)

	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := o.backoff(attempt - 1)
			logger.Info("generation retrying", "state", StateRetrying, "attempt", attempt, "delay", delay)
			if err := o.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		logger.Debug("generation submitted", "state", StateSubmitted, "attempt", attempt)
		res, err := o.gen.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Warn("generation attempt failed", "attempt", attempt, "err", err)
			continue
		}

		captions, err := Decode([]byte(res.JSON), slots)
		if err != nil {
			logger.Debug("strict decode failed, trying loose parse", "state", StateParseFallback, "attempt", attempt, "err", err)
			captions, err = parseLoose(res.JSON, slots)
			if err != nil {
				// The model answered but not with the requested shape, and
				// the loose parse could not recover it. Retrying would
				// resend the same prompt for the same class of answer, so
				// this is terminal.
				logger.Error("generation failed", "state", StateFailed, "attempt", attempt, "err", err)
				return nil, fmt.Errorf("caption: unrecoverable response: %w", err)
			}
		}

		logger.Debug("generation validated", "state", StateValidated, "attempt", attempt)
		for i, c := range captions {
			captions[i] = Sanitize(c)
		}
		logger.Info("generation succeeded", "state", StateSucceeded, "attempt", attempt)
		return captions, nil
	}

	logger.Error("generation failed", "state", StateFailed, "attempts", o.maxAttempts, "err", lastErr)
	return nil, fmt.Errorf("caption: %d attempts exhausted: %w", o.maxAttempts, lastErr)
}

// backoff returns the delay before attempt n+1: base, 2*base, 4*base, ...
// capped at maxDelay.
func (o *Orchestrator) backoff(n int) time.Duration {
	d := o.baseDelay << (n - 1)
	if d > o.maxDelay || d <= 0 {
		return o.maxDelay
	}
	return d
}
