package printer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type stubSource struct {
	mu       sync.Mutex
	printers []string
	err      error
	calls    int
}

func (s *stubSource) Printers(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]string{}, s.printers...), nil
}

func (s *stubSource) set(printers ...string) {
	s.mu.Lock()
	s.printers = printers
	s.mu.Unlock()
}

func TestRegistry_ResolveFirstDiscovered(t *testing.T) {
	src := &stubSource{printers: []string{"Kitchen-1", "Bar"}}
	r := NewRegistry(src, "", zap.NewNop())

	name, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if name != "Kitchen-1" {
		t.Errorf("Expected Kitchen-1, got %s", name)
	}
	if r.Selected() != "" {
		t.Errorf("Implicit default must not become the selection, got %s", r.Selected())
	}
}

func TestRegistry_ResolveOrder(t *testing.T) {
	src := &stubSource{printers: []string{"Kitchen-1"}}
	r := NewRegistry(src, "Counter", zap.NewNop())

	if name, _ := r.Resolve(context.Background()); name != "Counter" {
		t.Errorf("Expected preferred printer, got %s", name)
	}

	r.Select("Bar")
	if name, _ := r.Resolve(context.Background()); name != "Bar" {
		t.Errorf("Expected selected printer, got %s", name)
	}

	if src.calls != 0 {
		t.Errorf("Expected no discovery when a printer is known, got %d calls", src.calls)
	}
}

func TestRegistry_ResolveEmpty(t *testing.T) {
	r := NewRegistry(&stubSource{}, "", zap.NewNop())

	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoPrinterAvailable) {
		t.Errorf("Expected ErrNoPrinterAvailable, got %v", err)
	}
}

func TestRegistry_DiscoverError(t *testing.T) {
	boom := errors.New("bridge unavailable")
	r := NewRegistry(&stubSource{err: boom}, "", zap.NewNop())

	if _, err := r.Resolve(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected discovery error, got %v", err)
	}
}

func TestRegistry_SelectUnknownName(t *testing.T) {
	r := NewRegistry(&stubSource{printers: []string{"Kitchen-1"}}, "", zap.NewNop())

	r.Select("Not-Discovered")
	if r.Selected() != "Not-Discovered" {
		t.Errorf("Expected selection to be accepted as-is, got %s", r.Selected())
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry(&stubSource{printers: []string{"Kitchen-1"}}, "Counter", zap.NewNop())

	if _, err := r.Discover(context.Background()); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	r.Select("Kitchen-1")
	r.Reset()

	if r.Selected() != "" || len(r.Available()) != 0 {
		t.Errorf("Expected empty state, got selected=%q available=%v", r.Selected(), r.Available())
	}
	if r.Preferred() != "Counter" {
		t.Errorf("Expected preferred printer to survive reset, got %q", r.Preferred())
	}
}

func TestRegistry_AvailableIsCopy(t *testing.T) {
	r := NewRegistry(&stubSource{printers: []string{"Kitchen-1"}}, "", zap.NewNop())
	r.Discover(context.Background())

	list := r.Available()
	list[0] = "changed"

	if r.Available()[0] != "Kitchen-1" {
		t.Error("Available must return a copy")
	}
}
