package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/saruni-spec/GRA/internal/api"
	"github.com/saruni-spec/GRA/internal/cache"
	"github.com/saruni-spec/GRA/internal/classify"
	"github.com/saruni-spec/GRA/internal/config"
	"github.com/saruni-spec/GRA/internal/phone"
	"github.com/saruni-spec/GRA/internal/pipeline"
	"github.com/saruni-spec/GRA/internal/score"
	"github.com/saruni-spec/GRA/internal/scraper"
	"github.com/saruni-spec/GRA/internal/store"
)

func main() {
	cfg := config.FromEnv()

	logger, err := newLogger(cfg.LogLevel, cfg.Dev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg); err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return err
	}
	policy, err := phone.ParsePolicy(cfg.DedupPolicy)
	if err != nil {
		return err
	}

	// ─── Redis ────────────────────────────────────────────────────────────────
	var redisClient *cache.Client
	rc := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RunCacheTTL)
	ctx5s, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rc.Ping(ctx5s); err != nil {
		zap.L().Warn("redis not available, runs will not be cached", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
	} else {
		redisClient = rc
		zap.L().Info("redis connected", zap.String("addr", cfg.RedisAddr))
		defer redisClient.Close()
	}
	cancel()

	// ─── MongoDB ──────────────────────────────────────────────────────────────
	var mongoClient *store.Client
	ctx10s, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	mc, err := store.New(ctx10s, cfg.MongoURI, cfg.MongoDB)
	cancel2()
	if err != nil {
		zap.L().Warn("mongodb not available, scrape runs and lead listing are disabled", zap.Error(err))
	} else {
		mongoClient = mc
		zap.L().Info("mongodb connected", zap.String("db", cfg.MongoDB))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = mc.Disconnect(ctx)
			cancel()
		}()
	}

	// ─── Pipeline ─────────────────────────────────────────────────────────────
	validator := phone.NewValidator(rules.Phone)
	classifier := classify.New(rules.Classifier)

	opts := scraper.DefaultOptions()
	opts.MaxResults = cfg.Scraper.MaxResults
	opts.LaunchTimeout = cfg.Scraper.LaunchTimeout
	opts.NavTimeout = cfg.Scraper.NavTimeout
	opts.ScrollPasses = cfg.Scraper.ScrollPasses
	opts.ScrollPause = cfg.Scraper.ScrollPause
	opts.DetailLimit = cfg.Scraper.DetailLimit
	extractor := scraper.New(scraper.NewChromeLauncher(cfg.Scraper.Headless, cfg.Scraper.ChromePath), opts)

	pcfg := pipeline.Config{
		Extractor:  extractor,
		Validator:  validator,
		Classifier: classifier,
		Scorer:     score.New(rules.Scoring),
		MaxResults: cfg.Scraper.MaxResults,
	}
	deps := api.Deps{
		Phones:     validator,
		Categories: classifier.Categories(),
	}
	if mongoClient != nil {
		pcfg.Leads = mongoClient
		pcfg.Runs = mongoClient
		pcfg.Dedup = phone.NewDuplicateChecker(mongoClient, policy)
		deps.Leads = mongoClient
	}
	if redisClient != nil {
		pcfg.Cache = redisClient
		deps.Cache = redisClient
	}
	deps.Pipeline = pcfg

	// ─── HTTP server ──────────────────────────────────────────────────────────
	srv := api.NewServer(cfg.Addr, api.NewHandler(deps))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	zap.L().Info("bye")
	return nil
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
