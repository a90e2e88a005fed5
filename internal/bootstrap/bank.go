package bootstrap

import (
	"context"
	"fmt"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/database"
	"github.com/pablogaravito/psm1-exam-simulator/internal/repository"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/rs/zerolog"
)

// BankService wires the configured bank source and cache into a
// BankService. The returned cleanup closes any connections opened here.
func BankService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*service.BankService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var loader bank.Loader
	switch cfg.BankSource {
	case config.BankSourceFile:
		loader = bank.NewFileLoader(cfg.BankPath)
	case config.BankSourceHTTP:
		loader = bank.NewHTTPLoader(cfg.BankPath, nil)
	case config.BankSourcePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, cleanup, fmt.Errorf("%w: %w", service.ErrBankUnavailable, err)
		}
		closers = append(closers, pool.Close)
		loader = bank.NewStoreLoader(pool.Config().ConnConfig.Database, repository.NewQuestionRepository(pool))
	default:
		return nil, cleanup, fmt.Errorf("unknown BANK_SOURCE %q", cfg.BankSource)
	}

	var cache bank.Cache
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Redis unavailable, using in-process bank cache")
		cache = bank.NewMemoryCache()
	case rdb == nil:
		cache = bank.NewMemoryCache()
	default:
		closers = append(closers, func() { _ = rdb.Close() })
		cache = bank.NewRedisCache(rdb)
	}

	log.Info().
		Str("source", cfg.BankSource).
		Str("loader", loader.Source()).
		Msg("Question bank configured")

	return service.NewBankService(loader, cache, cfg.BankCacheTTL, log), cleanup, nil
}
