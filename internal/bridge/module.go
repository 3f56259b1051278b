package bridge

import (
	"context"

	"github.com/thereceipt/kot-bridge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"bridge",
		fx.Provide(newCredentials),
		fx.Provide(func(cfg config.Config, logger *zap.Logger) Dialer {
			return &WSDialer{
				URL:              cfg.BridgeURL,
				HandshakeTimeout: cfg.BridgeDialTimeout,
				Logger:           logger.Named("bridge"),
			}
		}),
		fx.Provide(func(dialer Dialer, creds Credentials, cfg config.Config, logger *zap.Logger) *Manager {
			return NewManager(dialer, Options{
				Credentials: creds,
				Retries:     cfg.ConnectRetries,
				RetryDelay:  cfg.ConnectRetryDelay,
				DialTimeout: cfg.BridgeDialTimeout,
			}, logger.Named("bridge"))
		}),
		fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return m.Disconnect()
				},
			})
		}),
	)
}

func newCredentials(cfg config.Config) (Credentials, error) {
	if cfg.SecurityMode == config.SecurityProduction {
		return ProductionCredentials(cfg.CertificateFile, cfg.PrivateKeyFile)
	}
	return TrustedCredentials(), nil
}
