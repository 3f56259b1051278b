package printer

import (
	"context"

	"github.com/thereceipt/kot-bridge/internal/bridge"
	"github.com/thereceipt/kot-bridge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"printer",
		fx.Provide(func(m *bridge.Manager, cfg config.Config, logger *zap.Logger) *Registry {
			r := NewRegistry(m, cfg.Printer, logger.Named("printer"))
			m.OnDisconnect(r.Reset)
			return r
		}),
		fx.Provide(func(r *Registry, cfg config.Config, logger *zap.Logger) *Monitor {
			return NewMonitor(r, cfg.PrinterPollInterval, logger.Named("monitor"))
		}),
		fx.Invoke(func(lc fx.Lifecycle, mon *Monitor) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					mon.Start()
					return nil
				},
				OnStop: func(_ context.Context) error {
					mon.Stop()
					return nil
				},
			})
		}),
	)
}
