package printer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor periodically re-discovers printers and reports changes
type Monitor struct {
	registry *Registry
	interval time.Duration
	logger   *zap.Logger

	mu               sync.Mutex
	onPrinterAdded   []func(string)
	onPrinterRemoved []func(string)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a new printer monitor
func NewMonitor(registry *Registry, interval time.Duration, logger *zap.Logger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		registry: registry,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnPrinterAdded registers a callback for newly discovered printers
func (m *Monitor) OnPrinterAdded(fn func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPrinterAdded = append(m.onPrinterAdded, fn)
}

// OnPrinterRemoved registers a callback for printers that disappeared
func (m *Monitor) OnPrinterRemoved(fn func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPrinterRemoved = append(m.onPrinterRemoved, fn)
}

// Start begins polling. A non-positive interval disables the monitor.
func (m *Monitor) Start() {
	if m.interval <= 0 {
		return
	}

	previous := make(map[string]struct{})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkChanges(previous)
			}
		}
	}()
}

// Stop stops the monitor
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) checkChanges(previous map[string]struct{}) {
	ctx, cancel := context.WithTimeout(m.ctx, m.interval)
	defer cancel()

	printers, err := m.registry.Discover(ctx)
	if err != nil {
		m.logger.Debug("printer discovery failed", zap.Error(err))
		return
	}

	current := make(map[string]struct{}, len(printers))
	for _, name := range printers {
		current[name] = struct{}{}
	}

	m.mu.Lock()
	added := append([]func(string){}, m.onPrinterAdded...)
	removed := append([]func(string){}, m.onPrinterRemoved...)
	m.mu.Unlock()

	// discovery order for additions
	for _, name := range printers {
		if _, ok := previous[name]; ok {
			continue
		}
		m.logger.Info("printer added", zap.String("printer", name))
		for _, fn := range added {
			fn(name)
		}
	}

	for name := range previous {
		if _, ok := current[name]; ok {
			continue
		}
		m.logger.Info("printer removed", zap.String("printer", name))
		for _, fn := range removed {
			fn(name)
		}
	}

	clear(previous)
	for name := range current {
		previous[name] = struct{}{}
	}
}
