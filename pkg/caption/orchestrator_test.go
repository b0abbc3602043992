package caption_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DiscountLegolas/memegen/pkg/caption"
)

// scriptedGenerator replays a fixed sequence of outcomes.
type scriptedGenerator struct {
	calls   int
	outputs []string // one per call; "" means transport error
}

func (g *scriptedGenerator) Generate(_ context.Context, _ *caption.SchemaRequest) (*caption.Result, error) {
	g.calls++
	if g.calls > len(g.outputs) {
		return nil, fmt.Errorf("unscripted call %d", g.calls)
	}
	out := g.outputs[g.calls-1]
	if out == "" {
		return nil, fmt.Errorf("simulated transport error")
	}
	return &caption.Result{JSON: out}, nil
}

// recordSleep collects backoff delays instead of sleeping.
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRunFirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{`{"caption1": "top", "caption2": "bottom"}`}}
	var delays []time.Duration
	o := caption.NewOrchestrator(gen, caption.WithSleep(recordSleep(&delays)))

	got, err := o.Run(context.Background(), &caption.SchemaRequest{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "top" || got[1] != "bottom" {
		t.Errorf("captions = %v", got)
	}
	if len(delays) != 0 {
		t.Errorf("delays = %v, want none", delays)
	}
}

func TestRunRetriesAfterFailure(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"", `{"caption1": "second try"}`}}
	var delays []time.Duration
	o := caption.NewOrchestrator(gen,
		caption.WithBaseDelay(time.Second),
		caption.WithSleep(recordSleep(&delays)),
	)

	got, err := o.Run(context.Background(), &caption.SchemaRequest{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "second try" {
		t.Errorf("caption = %q", got[0])
	}
	if gen.calls != 2 {
		t.Errorf("calls = %d, want 2", gen.calls)
	}
	if len(delays) != 1 || delays[0] != time.Second {
		t.Errorf("delays = %v, want [1s]", delays)
	}
}

func TestRunExhaustsAttemptsWithBackoff(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"", "", "", "", ""}}
	var delays []time.Duration
	o := caption.NewOrchestrator(gen,
		caption.WithBaseDelay(time.Second),
		caption.WithSleep(recordSleep(&delays)),
	)

	if _, err := o.Run(context.Background(), &caption.SchemaRequest{}, 1); err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if gen.calls != 5 {
		t.Errorf("calls = %d, want 5", gen.calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRunFallbackParseDoesNotRetry(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"```json\n{\"caption1\": \"fenced\"}\n```"}}
	var delays []time.Duration
	o := caption.NewOrchestrator(gen, caption.WithSleep(recordSleep(&delays)))

	got, err := o.Run(context.Background(), &caption.SchemaRequest{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "fenced" {
		t.Errorf("caption = %q", got[0])
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1: fallback parse must not consume attempts", gen.calls)
	}
	if len(delays) != 0 {
		t.Errorf("delays = %v, want none", delays)
	}
}

func TestRunUnparseableResponseFailsWithoutRetry(t *testing.T) {
	// The second scripted output is valid, but it must never be reached:
	// a response that fails both strict decode and loose parse is a model
	// answer of the wrong shape, not a transient fault.
	gen := &scriptedGenerator{outputs: []string{
		"I cannot produce JSON",
		`{"caption1": "recovered"}`,
	}}
	var delays []time.Duration
	o := caption.NewOrchestrator(gen, caption.WithSleep(recordSleep(&delays)))

	_, err := o.Run(context.Background(), &caption.SchemaRequest{}, 1)
	if err == nil {
		t.Fatal("expected terminal error for unparseable response")
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1: unparseable responses must not retry", gen.calls)
	}
	if len(delays) != 0 {
		t.Errorf("delays = %v, want none", delays)
	}
}

func TestRunSanitizesOutput(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{`{"caption1": "**bold claim**", "caption2": "\"quoted\""}`}}
	o := caption.NewOrchestrator(gen, caption.WithSleep(recordSleep(new([]time.Duration))))

	got, err := o.Run(context.Background(), &caption.SchemaRequest{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "bold claim" || got[1] != "quoted" {
		t.Errorf("captions = %v, want sanitized", got)
	}
}

func TestRunSlotCountOutOfRange(t *testing.T) {
	gen := &scriptedGenerator{}
	o := caption.NewOrchestrator(gen)
	for _, slots := range []int{0, -1, 6} {
		if _, err := o.Run(context.Background(), &caption.SchemaRequest{}, slots); err == nil {
			t.Errorf("slots=%d: expected error", slots)
		}
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for invalid slot counts", gen.calls)
	}
}

func TestRunContextCancelledDuringBackoff(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"", "", "", "", ""}}
	ctx, cancel := context.WithCancel(context.Background())
	o := caption.NewOrchestrator(gen, caption.WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := o.Run(ctx, &caption.SchemaRequest{}, 1)
	if err == nil {
		t.Fatal("expected context error")
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1 before cancellation", gen.calls)
	}
}
