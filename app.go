package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"qbank/cache"
	"qbank/config"
	"qbank/resolver"
	"qbank/services"
	"qbank/store"
	"qbank/store/mongostore"
	"qbank/store/pgstore"
)

// app holds the backends selected by configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	guard   *resolver.Guard
	migrate func(context.Context) error
	closers []func(context.Context) error
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		migrate: func(context.Context) error { return nil },
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := config.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		pg := pgstore.New(db)
		a.store, a.migrate = pg, pg.Migrate
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	case config.BackendMongo:
		client, err := config.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		ms := mongostore.New(client.Database(cfg.MongoDB))
		a.store, a.migrate = ms, ms.Migrate
		a.closers = append(a.closers, client.Disconnect)
	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on exit", "event_type", "memory_store")
		a.store = store.NewMemory()
	default:
		return nil, fmt.Errorf("store backend: unsupported value %q", cfg.StoreBackend)
	}

	a.guard = resolver.NewGuard(a.store, cfg.Tuning.MaxSlugAttempts)
	return a, nil
}

// newResolver builds the strategy chain. A nil healer disables self-heal.
func (a *app) newResolver(h resolver.Healer) *resolver.Resolver {
	opts := []resolver.Option{
		resolver.WithTuning(a.cfg.Tuning),
		resolver.WithLogger(a.logger),
	}
	if h != nil {
		opts = append(opts, resolver.WithHealer(h))
	}
	return resolver.New(a.store, opts...)
}

func (a *app) newCache() cache.Store[services.QuestionView] {
	if a.cfg.CacheBackend == config.BackendRedis {
		client := config.InitRedis(a.cfg)
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return cache.NewRedis[services.QuestionView](client, a.cfg.CachePrefix, a.cfg.CacheTTL, a.logger)
	}
	return cache.NewMemory[services.QuestionView](cache.MemoryOptions{
		TTL:      a.cfg.CacheTTL,
		Capacity: a.cfg.CacheCapacity,
	})
}

func (a *app) newService(h resolver.Healer) *services.QuestionService {
	return services.NewQuestionService(a.store, a.newResolver(h), a.guard, a.newCache(), a.logger)
}

// Close releases backends in reverse order of opening.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
