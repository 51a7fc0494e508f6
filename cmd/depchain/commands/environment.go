// Package commands implements CLI command handlers for depchain.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sumatoshi-tech/depchain/internal/observability"
	"github.com/Sumatoshi-tech/depchain/pkg/cache"
	"github.com/Sumatoshi-tech/depchain/pkg/config"
	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/imports"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
	"github.com/Sumatoshi-tech/depchain/pkg/version"
)

const logFormatJSON = "json"

// environment bundles what every command needs: settings, telemetry and a
// cached extractor. Close releases it in reverse order of setup.
type environment struct {
	cfg       *config.Config
	providers observability.Providers
	extractor *imports.Extractor
	closers   []func(context.Context) error
}

func newEnvironment(cfg *config.Config, mode observability.AppMode, logOut io.Writer) (*environment, error) {
	providers, err := observability.InitWithWriter(observabilityConfig(cfg, mode), logOut)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	env := &environment{cfg: cfg, providers: providers}
	env.closers = append(env.closers, providers.Shutdown)

	err = env.startMetricsServer()
	if err != nil {
		env.Close(context.Background())

		return nil, err
	}

	err = env.buildExtractor()
	if err != nil {
		env.Close(context.Background())

		return nil, err
	}

	return env, nil
}

func observabilityConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.PrometheusEnabled = cfg.Observability.MetricsAddr != ""
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, logFormatJSON) || mode == observability.ModeMCP

	return obsCfg
}

func (env *environment) startMetricsServer() error {
	if env.providers.MetricsHandler == nil {
		return nil
	}

	server, err := observability.NewMetricsServer(env.cfg.Observability.MetricsAddr,
		env.providers.MetricsHandler, env.providers.Tracer, env.providers.Logger)
	if err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	server.Start()
	env.closers = append(env.closers, server.Stop)

	return nil
}

func (env *environment) buildExtractor() error {
	host, err := syntax.NewHost(env.cfg.Grammars())
	if err != nil {
		return fmt.Errorf("create parser host: %w", err)
	}

	if !env.cfg.Cache.Enabled {
		env.extractor = imports.NewExtractor(host)

		return nil
	}

	store, err := env.buildCache()
	if err != nil {
		return err
	}

	env.extractor = imports.NewExtractor(host, imports.WithCache(store))

	reg, err := observability.ObserveCache(env.providers.Meter, env.extractor.CacheStats)
	if err != nil {
		return fmt.Errorf("observe cache: %w", err)
	}

	env.closers = append(env.closers, func(context.Context) error { return reg.Unregister() })

	return nil
}

// buildCache layers an LRU over the on-disk store when a directory is set.
// The disk store is pruned to cache.max_size on Close.
func (env *environment) buildCache() (cache.Store[importmodel.File], error) {
	mem, err := cache.NewMemory[importmodel.File](env.cfg.Cache.MaxEntries)
	if err != nil {
		return nil, err
	}

	if env.cfg.Cache.Directory == "" {
		return mem, nil
	}

	disk, err := cache.NewDisk[importmodel.File](env.cfg.Cache.Directory)
	if err != nil {
		return nil, err
	}

	maxBytes, err := env.cfg.CacheMaxBytes()
	if err != nil {
		return nil, err
	}

	env.closers = append(env.closers, func(ctx context.Context) error {
		removed, pruneErr := disk.Prune(maxBytes)
		if removed > 0 {
			env.providers.Logger.DebugContext(ctx, "pruned extraction cache", "dir", disk.Dir(), "removed", removed)
		}

		return pruneErr
	})

	return cache.NewTiered[importmodel.File](mem, disk), nil
}

// Close runs the registered closers last to first and logs their failures.
func (env *environment) Close(ctx context.Context) {
	var errs []error

	for i := len(env.closers) - 1; i >= 0; i-- {
		err := env.closers[i](ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		env.providers.Logger.WarnContext(ctx, "shutdown incomplete", "error", err)
	}
}
