package resilience_test

import (
	"errors"
	"testing"

	"github.com/lachiem1/estoque/internal/resilience"
)

var errDown = errors.New("connection refused")

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := resilience.NewCircuitBreaker("estoque-api", nil)

	for i := 0; i < 5; i++ {
		if err := b.Execute(func() error { return errDown }); !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected errDown, got %v", i, err)
		}
	}

	calls := 0
	err := b.Execute(func() error {
		calls++
		return nil
	})
	var open *resilience.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected fn not to run while open, ran %d times", calls)
	}
	if b.State() != "open" {
		t.Errorf("State() = %q, want open", b.State())
	}
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	errBadInput := errors.New("400")
	b := resilience.NewCircuitBreaker("estoque-api", func(err error) bool {
		return !errors.Is(err, errBadInput)
	})

	for i := 0; i < 10; i++ {
		_ = b.Execute(func() error { return errBadInput })
	}
	if b.State() != "closed" {
		t.Fatalf("State() = %q, want closed", b.State())
	}
}

func TestNilBreakerRunsDirectly(t *testing.T) {
	var b *resilience.Breaker
	calls := 0
	if err := b.Execute(func() error { calls++; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if b.State() != "disabled" {
		t.Fatalf("State() = %q, want disabled", b.State())
	}
}
