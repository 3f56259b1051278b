package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a Manager
type Options struct {
	Credentials Credentials
	// Retries is the number of extra dial attempts inside one Connect
	Retries    int
	RetryDelay time.Duration
	// DialTimeout bounds each dial attempt including the handshake calls.
	// Zero leaves attempts bounded only by the caller's context.
	DialTimeout time.Duration
}

// Manager owns the single channel to the daemon
type Manager struct {
	dialer Dialer
	opts   Options
	logger *zap.Logger

	mu           sync.Mutex
	state        State
	session      Session
	inflight     *attempt
	onDisconnect []func()
}

// attempt is a handshake shared by every concurrent Connect caller
type attempt struct {
	done chan struct{}
	err  error
}

// NewManager creates a disconnected Manager
func NewManager(dialer Dialer, opts Options, logger *zap.Logger) *Manager {
	if opts.Credentials.Certificate == nil || opts.Credentials.Signer == nil {
		trusted := TrustedCredentials()
		if opts.Credentials.Certificate == nil {
			opts.Credentials.Certificate = trusted.Certificate
		}
		if opts.Credentials.Signer == nil {
			opts.Credentials.Signer = trusted.Signer
		}
	}

	return &Manager{
		dialer: dialer,
		opts:   opts,
		logger: logger,
		state:  Disconnected,
	}
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnDisconnect registers a callback fired whenever an established channel
// drops or is closed
func (m *Manager) OnDisconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = append(m.onDisconnect, fn)
}

// Connect establishes the channel if needed. While connected it returns nil
// without a second handshake. Concurrent callers share one handshake.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == Connected {
		m.mu.Unlock()
		return nil
	}
	if a := m.inflight; a != nil {
		m.mu.Unlock()
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrBridgeUnavailable, ctx.Err())
		}
	}

	a := &attempt{done: make(chan struct{})}
	m.inflight = a
	m.state = Handshaking
	m.mu.Unlock()

	session, err := m.dial(ctx)

	m.mu.Lock()
	abandoned := m.inflight != a
	if !abandoned {
		m.inflight = nil
	}
	switch {
	case err != nil:
		if !abandoned {
			m.state = Disconnected
		}
		a.err = fmt.Errorf("%w: %w", ErrBridgeUnavailable, err)
	case abandoned:
		a.err = fmt.Errorf("%w: disconnected during handshake", ErrBridgeUnavailable)
	default:
		m.state = Connected
		m.session = session
	}
	close(a.done)
	m.mu.Unlock()

	if err == nil && abandoned {
		m.logger.Info("closing session from abandoned handshake")
		_ = session.Close()
		return a.err
	}

	if err != nil {
		m.logger.Warn("bridge connect failed", zap.Error(err))
		return a.err
	}

	m.logger.Info("bridge connected")
	go m.watch(session)
	return nil
}

func (m *Manager) dial(ctx context.Context) (Session, error) {
	var lastErr error

	for i := 0; i <= m.opts.Retries; i++ {
		if i > 0 {
			m.logger.Debug("retrying bridge connect",
				zap.Int("attempt", i+1),
				zap.Duration("delay", m.opts.RetryDelay),
				zap.Error(lastErr))

			select {
			case <-time.After(m.opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		session, err := m.dialOnce(ctx)
		if err == nil {
			return session, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (m *Manager) dialOnce(ctx context.Context) (Session, error) {
	if m.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.DialTimeout)
		defer cancel()
	}
	return m.dialer.Dial(ctx, m.opts.Credentials)
}

// watch resets the manager when the session drops
func (m *Manager) watch(session Session) {
	<-session.Done()

	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.state = Disconnected
	callbacks := append([]func(){}, m.onDisconnect...)
	m.mu.Unlock()

	m.logger.Warn("bridge channel lost")
	for _, fn := range callbacks {
		fn()
	}
}

// Disconnect closes the channel. Safe in any state. A handshake still in
// flight is abandoned and its session closed when it completes.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.inflight = nil
	m.state = Disconnected
	callbacks := append([]func(){}, m.onDisconnect...)
	m.mu.Unlock()

	if session == nil {
		return nil
	}

	m.logger.Info("bridge disconnected")
	err := session.Close()
	for _, fn := range callbacks {
		fn()
	}
	return err
}

func (m *Manager) current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Printers connects if needed and asks the daemon for its printer names
func (m *Manager) Printers(ctx context.Context) ([]string, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	session := m.current()
	if session == nil {
		return nil, fmt.Errorf("%w: %w", ErrBridgeUnavailable, ErrSessionClosed)
	}

	printers, err := session.FindPrinters(ctx)
	if err != nil {
		return nil, fmt.Errorf("find printers: %w", err)
	}
	return printers, nil
}

// Transmit connects if needed and sends one raw print job
func (m *Manager) Transmit(ctx context.Context, cfg PrintConfig, data []byte) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}

	session := m.current()
	if session == nil {
		return fmt.Errorf("%w: %w", ErrTransmissionFailed, ErrSessionClosed)
	}

	if err := session.Print(ctx, cfg, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransmissionFailed, cfg.Printer, err)
	}
	return nil
}
