package orders

import (
	"github.com/thereceipt/kot-bridge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"orders",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) *Client {
			return NewClient(cfg.OrdersAPIURL, cfg.OrdersTimeout, logger.Named("orders"))
		}),
	)
}
