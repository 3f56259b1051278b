// Package dispatch turns an order into a printed ticket, falling back from the
// bridge printer to the host print surface and finally to a logged mock. Print
// never fails; the outcome says which tier delivered the ticket.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/kot-bridge/internal/bridge"
	"github.com/thereceipt/kot-bridge/internal/hostprint"
	"github.com/thereceipt/kot-bridge/internal/renderer"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
	"go.uber.org/zap"
)

// DeviceCopies is the number of identical streams sent to the printer per ticket
const DeviceCopies = 2

// Tier is the delivery path that completed a print
type Tier string

const (
	TierDevice   Tier = "delivered-to-device"
	TierFallback Tier = "delivered-to-fallback"
	TierMock     Tier = "recorded-as-mock"
)

// Outcome describes one Print call
type Outcome struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	OrderNumber string        `json:"order_number,omitempty"`
	Tier        Tier          `json:"tier"`
	Printer     string        `json:"printer,omitempty"`
	Copies      int           `json:"copies"`
	Absorbed    []string      `json:"absorbed,omitempty"`
	Rendered    string        `json:"rendered,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Bridge is the subset of bridge.Manager the dispatcher needs
type Bridge interface {
	Connect(ctx context.Context) error
	Transmit(ctx context.Context, cfg bridge.PrintConfig, data []byte) error
}

// Printers resolves the target printer
type Printers interface {
	Resolve(ctx context.Context) (string, error)
}

// Formatter renders receipts
type Formatter interface {
	DeviceStream(r kotformat.Receipt) []byte
	FallbackDocument(r kotformat.Receipt) ([]byte, error)
}

// Sink receives every outcome
type Sink interface {
	Record(o Outcome)
}

// Options configures a Dispatcher
type Options struct {
	Receipt         kotformat.Options
	TransmitTimeout time.Duration
	// DiscoverTimeout bounds printer resolution when nothing is selected
	DiscoverTimeout time.Duration
	// FallbackTimeout bounds rendering and spooling on the host surface
	FallbackTimeout time.Duration
	FallbackCopies  int
}

// Dispatcher serializes print requests through the delivery tiers
type Dispatcher struct {
	bridge    Bridge
	printers  Printers
	formatter Formatter
	surface   hostprint.Surface
	opts      Options
	logger    *zap.Logger

	mu sync.Mutex

	sinksMu sync.RWMutex
	sinks   []Sink
}

// New creates a Dispatcher
func New(b Bridge, p Printers, f Formatter, s hostprint.Surface, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.FallbackCopies < 1 {
		opts.FallbackCopies = 1
	}

	return &Dispatcher{
		bridge:    b,
		printers:  p,
		formatter: f,
		surface:   s,
		opts:      opts,
		logger:    logger,
	}
}

// AddSink registers an outcome sink
func (d *Dispatcher) AddSink(s Sink) {
	d.sinksMu.Lock()
	defer d.sinksMu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Print renders the order and delivers it through the first tier that works.
// Failures are absorbed into the outcome. Cancelling ctx does not abort a
// print once it started; only the configured timeouts do.
func (d *Dispatcher) Print(ctx context.Context, order kotformat.Order) Outcome {
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	out := Outcome{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		StartedAt: time.Now(),
	}

	d.deliver(ctx, order, &out)

	out.Duration = time.Since(out.StartedAt)
	d.emit(out)
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, order kotformat.Order, out *Outcome) {
	receipt, err := kotformat.FromOrder(order, d.opts.Receipt)
	if err != nil {
		d.mock(out, fmt.Errorf("build receipt: %w", err), "")
		return
	}
	out.OrderNumber = receipt.OrderNumber

	if !order.TotalAmount.IsZero() && !order.TotalAmount.Round(2).Equal(receipt.Total) {
		d.logger.Warn("order total differs from computed total",
			zap.String("order_id", order.ID),
			zap.String("order_total", order.TotalAmount.StringFixed(2)),
			zap.String("computed_total", receipt.Total.StringFixed(2)))
	}

	stream := d.formatter.DeviceStream(receipt)
	text := renderer.StripControlCodes(stream)

	if err := d.bridge.Connect(ctx); err != nil {
		d.mock(out, err, text)
		return
	}

	printer, err := d.resolve(ctx)
	if err != nil {
		d.mock(out, fmt.Errorf("resolve printer: %w", err), text)
		return
	}
	out.Printer = printer

	err = d.transmitPair(ctx, printer, receipt.OrderNumber, stream)
	if err == nil {
		out.Tier = TierDevice
		out.Copies = DeviceCopies
		return
	}
	out.Absorbed = append(out.Absorbed, err.Error())
	d.logger.Warn("device print failed, using fallback", zap.String("printer", printer), zap.Error(err))

	doc, err := d.formatter.FallbackDocument(receipt)
	if err != nil {
		d.mock(out, fmt.Errorf("render fallback: %w", err), text)
		return
	}

	job := hostprint.Job{
		Name:     "KOT " + receipt.OrderNumber,
		Document: doc,
		Copies:   d.opts.FallbackCopies,
	}
	if err := d.printFallback(ctx, job); err != nil {
		d.mock(out, fmt.Errorf("fallback print: %w", err), text)
		return
	}

	out.Tier = TierFallback
	out.Copies = d.opts.FallbackCopies
}

func (d *Dispatcher) resolve(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, d.opts.DiscoverTimeout)
	defer cancel()
	return d.printers.Resolve(ctx)
}

func (d *Dispatcher) printFallback(ctx context.Context, job hostprint.Job) error {
	ctx, cancel := withTimeout(ctx, d.opts.FallbackTimeout)
	defer cancel()
	return d.surface.Print(ctx, job)
}

// withTimeout leaves ctx unbounded for a non-positive timeout
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// transmitPair sends both copies under one deadline. Any failure fails the pair.
func (d *Dispatcher) transmitPair(ctx context.Context, printer, orderNumber string, stream []byte) error {
	ctx, cancel := withTimeout(ctx, d.opts.TransmitTimeout)
	defer cancel()

	cfg := bridge.PrintConfig{Printer: printer, JobName: "KOT " + orderNumber}
	for i := 0; i < DeviceCopies; i++ {
		if err := d.bridge.Transmit(ctx, cfg, stream); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("copy %d/%d timed out: %w", i+1, DeviceCopies, err)
			}
			return fmt.Errorf("copy %d/%d: %w", i+1, DeviceCopies, err)
		}
	}
	return nil
}

func (d *Dispatcher) mock(out *Outcome, err error, text string) {
	out.Tier = TierMock
	out.Copies = 1
	out.Rendered = text
	out.Absorbed = append(out.Absorbed, err.Error())
}

func (d *Dispatcher) emit(out Outcome) {
	d.sinksMu.RLock()
	sinks := append([]Sink{}, d.sinks...)
	d.sinksMu.RUnlock()

	for _, s := range sinks {
		s.Record(out)
	}
}
