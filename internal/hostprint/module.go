package hostprint

import (
	"github.com/thereceipt/kot-bridge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"hostprint",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) Surface {
			if !cfg.FallbackEnabled {
				return Disabled{Reason: "fallback printing disabled"}
			}
			return NewChromeSurface(ChromeOptions{
				ExecPath:    cfg.ChromePath,
				SpoolDir:    cfg.FallbackSpoolDir,
				Command:     cfg.FallbackCommand,
				SettleDelay: cfg.FallbackSettleDelay,
			}, logger.Named("hostprint"))
		}),
	)
}
