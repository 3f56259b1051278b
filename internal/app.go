package internal

import (
	"github.com/go-core-fx/logger"
	"github.com/thereceipt/kot-bridge/internal/api"
	"github.com/thereceipt/kot-bridge/internal/bridge"
	"github.com/thereceipt/kot-bridge/internal/config"
	"github.com/thereceipt/kot-bridge/internal/dispatch"
	"github.com/thereceipt/kot-bridge/internal/hostprint"
	"github.com/thereceipt/kot-bridge/internal/logging"
	"github.com/thereceipt/kot-bridge/internal/orders"
	"github.com/thereceipt/kot-bridge/internal/printer"
	"go.uber.org/fx"
)

// Options returns every module of the bridge service
func Options() fx.Option {
	return fx.Options(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		bridge.Module(),
		printer.Module(),
		hostprint.Module(),
		orders.Module(),
		dispatch.Module(),
		api.Module(),
	)
}

// Run starts the service and blocks until SIGINT or SIGTERM
func Run() error {
	app := fx.New(Options())
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}
