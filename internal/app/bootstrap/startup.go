package bootstrap

import (
	"context"

	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after the backend is connected and before the handler is
// built. It applies the configured request deadlines.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})
	cur := timeouts.Current()
	logger.Info("request deadlines configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium))
	return nil
}
