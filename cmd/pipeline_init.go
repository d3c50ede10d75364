package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealerpulse/reviews-cli/internal/enrich"
	"github.com/dealerpulse/reviews-cli/internal/pipeline"
	"github.com/dealerpulse/reviews-cli/internal/store"
	"github.com/dealerpulse/reviews-cli/pkg/apify"
	"github.com/dealerpulse/reviews-cli/pkg/sentiment"
)

// pipelineEnv holds the initialized store, clients, worker pool, and
// orchestrator shared by the scrape and serve commands.
type pipelineEnv struct {
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
	Pool         *enrich.Pool
}

// Close drains the enrichment pool and releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Pool != nil {
		pe.Pool.Shutdown(30 * time.Second)
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline wires the scraper, sentiment client, enrichment pool, and
// orchestrator. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("scrape"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	scraper := apify.NewClient(cfg.Apify.Token,
		apify.WithBaseURL(cfg.Apify.BaseURL),
		apify.WithActor(cfg.Apify.Actor),
		apify.WithTimeout(time.Duration(cfg.Apify.TimeoutSecs)*time.Second),
	)

	var pool *enrich.Pool
	if cfg.Sentiment.BaseURL != "" {
		analyzer := sentiment.NewClient(cfg.Sentiment.BaseURL, cfg.Sentiment.Key,
			sentiment.WithTimeout(time.Duration(cfg.Sentiment.TimeoutSecs)*time.Second),
			sentiment.WithRateLimit(cfg.Sentiment.RatePerSec),
		)
		runner := enrich.NewRunner(st, analyzer, cfg.Enrich.BatchSize, cfg.Sentiment.MaxRetries)
		pool = enrich.NewPool(runner, cfg.Enrich.Workers, cfg.Enrich.QueueSize)
		pool.Start(ctx)
	}

	limits := pipeline.Limits{
		DefaultMaxReviews: cfg.Scrape.DefaultMaxReviews,
		MaxReviewsCap:     cfg.Scrape.MaxReviewsCap,
		DefaultLanguage:   cfg.Scrape.DefaultLanguage,
	}

	var scheduler pipeline.Scheduler
	if pool != nil {
		scheduler = pool
	}

	return &pipelineEnv{
		Store:        st,
		Orchestrator: pipeline.NewOrchestrator(st, scraper, scheduler, limits),
		Pool:         pool,
	}, nil
}
