// Package bridge manages the channel to the local printer bridge daemon.
//
// Every print and discovery request goes through a Manager, which owns the
// connection state machine (Disconnected, Handshaking, Connected) and the
// two-step certificate/signature handshake. The wire channel itself sits
// behind the Dialer and Session interfaces; WSDialer is the websocket
// implementation used in production.
package bridge

import (
	"context"
	"errors"
)

var (
	// ErrBridgeUnavailable means the daemon could not be reached or refused the handshake
	ErrBridgeUnavailable = errors.New("bridge unavailable")
	// ErrTransmissionFailed means a print request did not complete
	ErrTransmissionFailed = errors.New("transmission failed")
	// ErrSessionClosed is returned for requests on a dropped channel
	ErrSessionClosed = errors.New("bridge session closed")
)

// State is the connection state of a Manager
type State int

const (
	Disconnected State = iota
	Handshaking
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// PrintConfig addresses a raw print job to a printer
type PrintConfig struct {
	Printer string
	JobName string
}

// Dialer opens a channel to the daemon and completes the handshake
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Session, error)
}

// Session is an established, handshaken channel
type Session interface {
	FindPrinters(ctx context.Context) ([]string, error)
	Print(ctx context.Context, cfg PrintConfig, data []byte) error
	Close() error
	// Done is closed when the channel drops or is closed
	Done() <-chan struct{}
}
