package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/kot-bridge/internal/config"
	"github.com/thereceipt/kot-bridge/internal/printer"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"api",
		fx.Decorate(func(cfg config.Config, logger *zap.Logger) *zap.Logger {
			if !cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			return logger.Named("api")
		}),
		fx.Provide(NewServer),
		fx.Invoke(func(srv *Server, mon *printer.Monitor) {
			mon.OnPrinterAdded(srv.Hub().BroadcastPrinterAdded)
			mon.OnPrinterRemoved(srv.Hub().BroadcastPrinterRemoved)
		}),
		fx.Invoke(func(lc fx.Lifecycle, srv *Server, cfg config.Config, logger *zap.Logger) {
			httpSrv := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: srv.Handler(),
			}

			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					ln, err := net.Listen("tcp", cfg.HTTPAddr)
					if err != nil {
						return err
					}
					logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

					go func() {
						if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
							logger.Error("http server stopped", zap.Error(err))
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return httpSrv.Shutdown(ctx)
				},
			})
		}),
	)
}
