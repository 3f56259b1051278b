package dispatch

import (
	"github.com/thereceipt/kot-bridge/internal/bridge"
	"github.com/thereceipt/kot-bridge/internal/config"
	"github.com/thereceipt/kot-bridge/internal/hostprint"
	"github.com/thereceipt/kot-bridge/internal/printer"
	"github.com/thereceipt/kot-bridge/internal/renderer"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"dispatch",
		fx.Provide(func(cfg config.Config) *renderer.Formatter {
			return renderer.New(renderer.Layout{Currency: cfg.Currency})
		}),
		fx.Provide(func(cfg config.Config) *Journal {
			return NewJournal(cfg.JournalSize)
		}),
		fx.Provide(newDispatcher),
	)
}

func newDispatcher(
	cfg config.Config,
	m *bridge.Manager,
	r *printer.Registry,
	f *renderer.Formatter,
	s hostprint.Surface,
	j *Journal,
	logger *zap.Logger,
) (*Dispatcher, error) {
	rate, err := cfg.Tax()
	if err != nil {
		return nil, err
	}

	d := New(m, r, f, s, Options{
		Receipt: kotformat.Options{
			StoreName: cfg.StoreName,
			TaxRate:   rate,
		},
		TransmitTimeout: cfg.TransmitTimeout,
		DiscoverTimeout: cfg.BridgeDialTimeout,
		FallbackTimeout: cfg.FallbackTimeout,
		FallbackCopies:  cfg.FallbackCopies,
	}, logger.Named("dispatch"))

	d.AddSink(NewLogSink(logger.Named("dispatch")))
	d.AddSink(j)
	return d, nil
}
