// Package printer handles printer discovery and selection through the bridge
package printer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNoPrinterAvailable is returned by Resolve when nothing is selected and discovery is empty
var ErrNoPrinterAvailable = errors.New("no printer available")

// Source lists printer names known to the bridge daemon
type Source interface {
	Printers(ctx context.Context) ([]string, error)
}

// Registry tracks the discovered printers and the operator's selection
type Registry struct {
	source    Source
	preferred string
	logger    *zap.Logger

	mu        sync.RWMutex
	available []string
	selected  string
}

// NewRegistry creates a Registry. preferred is an out-of-band printer name
// used when nothing has been selected; it survives channel loss.
func NewRegistry(source Source, preferred string, logger *zap.Logger) *Registry {
	return &Registry{
		source:    source,
		preferred: preferred,
		logger:    logger,
		available: []string{},
	}
}

// Discover asks the daemon for printers and stores the result. An empty list is valid.
func (r *Registry) Discover(ctx context.Context) ([]string, error) {
	printers, err := r.source.Printers(ctx)
	if err != nil {
		return nil, err
	}

	list := append([]string{}, printers...)

	r.mu.Lock()
	r.available = list
	r.mu.Unlock()

	r.logger.Debug("printers discovered", zap.Strings("printers", list))
	return append([]string{}, list...), nil
}

// Select records the operator's choice. The name is not checked against discovery.
func (r *Registry) Select(name string) {
	r.mu.Lock()
	r.selected = name
	r.mu.Unlock()

	r.logger.Info("printer selected", zap.String("printer", name))
}

// Selected returns the explicit selection, empty if none
func (r *Registry) Selected() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// Available returns the last discovered printers
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.available...)
}

// Preferred returns the configured printer name
func (r *Registry) Preferred() string {
	return r.preferred
}

// Resolve picks the printer for the next job: the selection, then the
// preferred printer, then the first discovered one. The implicit default is
// not stored as the selection.
func (r *Registry) Resolve(ctx context.Context) (string, error) {
	if selected := r.Selected(); selected != "" {
		return selected, nil
	}
	if r.preferred != "" {
		return r.preferred, nil
	}

	printers, err := r.Discover(ctx)
	if err != nil {
		return "", err
	}
	if len(printers) == 0 {
		return "", ErrNoPrinterAvailable
	}
	return printers[0], nil
}

// Reset clears the selection and the discovered list
func (r *Registry) Reset() {
	r.mu.Lock()
	r.selected = ""
	r.available = []string{}
	r.mu.Unlock()

	r.logger.Debug("printer selection cleared")
}
