package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/enrich"
	"github.com/leadscout/leadscout/internal/pipeline"
	"github.com/leadscout/leadscout/internal/search"
	"github.com/leadscout/leadscout/internal/store"
	"github.com/leadscout/leadscout/pkg/customsearch"
	"github.com/leadscout/leadscout/pkg/profiledata"
	"github.com/leadscout/leadscout/pkg/serper"
)

// env bundles the wired pipeline and its owned resources.
type env struct {
	Store    store.Store
	Resolver *pipeline.Resolver

	fanout *enrich.FanOut
}

func (e *env) Close() {
	if e.fanout != nil {
		e.fanout.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "leadscout.db"
		}
		return store.NewSQLite(path)
	case "badger":
		return store.NewBadger(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initProviders() ([]search.Provider, error) {
	reg := search.DefaultRegistry()
	if cfg.Search.ProvidersFile != "" {
		loaded, err := search.LoadRegistry(cfg.Search.ProvidersFile)
		if err != nil {
			return nil, err
		}
		reg = loaded
	}

	var providers []search.Provider
	for _, name := range reg.Enabled() {
		switch name {
		case "serper":
			if cfg.Serper.Key == "" {
				zap.L().Warn("provider enabled but not configured, skipping", zap.String("provider", name))
				continue
			}
			client := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
			providers = append(providers, search.NewSerperProvider(client))
		case "customsearch":
			if cfg.CustomSearch.Key == "" || cfg.CustomSearch.EngineID == "" {
				zap.L().Warn("provider enabled but not configured, skipping", zap.String("provider", name))
				continue
			}
			client := customsearch.NewClient(cfg.CustomSearch.Key, cfg.CustomSearch.EngineID,
				customsearch.WithBaseURL(cfg.CustomSearch.BaseURL))
			providers = append(providers, search.NewCustomSearchProvider(client))
		default:
			return nil, eris.Errorf("unknown search provider: %s", name)
		}
	}

	if len(providers) == 0 {
		return nil, eris.New("no search providers configured")
	}
	return providers, nil
}

// initEnv wires the store, providers, and enrichment fan-out into a Resolver.
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	providers, err := initProviders()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	orch := search.NewOrchestrator(providers,
		search.WithProviderTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second))

	backend := profiledata.NewClient(cfg.ProfileData.Key,
		profiledata.WithBaseURL(cfg.ProfileData.BaseURL),
		profiledata.WithRateLimit(cfg.ProfileData.RequestsPerSecond))
	enricher := enrich.NewClient(backend,
		enrich.WithCallTimeout(time.Duration(cfg.Enrich.TimeoutSecs)*time.Second))

	fanout, err := enrich.NewFanOut(enricher, cfg.Enrich.Workers)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Strings("providers", orch.Providers()),
		zap.Int("workers", cfg.Enrich.Workers),
	)

	return &env{
		Store:    st,
		Resolver: pipeline.New(st, orch, fanout),
		fanout:   fanout,
	}, nil
}
