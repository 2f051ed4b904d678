package registry

import (
	"testing"

	"github.com/cocol-go/cocol"
)

func TestResolve_CreatesOnceAndReusesAfter(t *testing.T) {
	r := New(0, 0)
	defer r.Close()

	calls := 0
	ch1, err := cocol.ResolveChannel[int](r, "nums", cocol.WithBuffer(1))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_ = calls

	ch2, err := cocol.ResolveChannel[int](r, "nums")
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if ch1 != ch2 {
		t.Fatalf("expected the same channel instance on second Resolve")
	}
}

func TestResolve_TypeMismatchIsRejected(t *testing.T) {
	r := New(0, 0)
	defer r.Close()

	if _, err := cocol.ResolveChannel[int](r, "x"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := cocol.ResolveChannel[string](r, "x"); err != cocol.ErrTypeMismatch {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestResolve_NotFoundWithoutFactory(t *testing.T) {
	r := New(0, 0)
	defer r.Close()

	_, err := r.Resolve("missing", "int", nil)
	if err != cocol.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClose_RejectsFurtherResolve(t *testing.T) {
	r := New(0, 0)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := cocol.ResolveChannel[int](r, "y")
	if err != cocol.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
