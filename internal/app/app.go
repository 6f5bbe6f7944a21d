package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/httpapi"
	"NewsBrief/internal/infrastructure/breaker"
	"NewsBrief/internal/infrastructure/cache"
	"NewsBrief/internal/infrastructure/feed"
	"NewsBrief/internal/infrastructure/imaging"
	"NewsBrief/internal/infrastructure/llm"
	"NewsBrief/internal/infrastructure/objectstore"
	"NewsBrief/internal/infrastructure/parser"
	"NewsBrief/internal/infrastructure/queue"
	"NewsBrief/internal/infrastructure/scheduler"
	"NewsBrief/internal/infrastructure/storage"
	"NewsBrief/internal/infrastructure/telegram"
	"NewsBrief/internal/infrastructure/tts"
	"NewsBrief/internal/infrastructure/vectorindex"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
	"NewsBrief/internal/scanner"
	"NewsBrief/internal/usecase"
	"NewsBrief/internal/worker"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *storage.Store
	closers []io.Closer

	Pipeline    *usecase.Pipeline
	Dispatcher  *usecase.Dispatcher
	Recommender *usecase.Recommender
	Indexer     *usecase.Indexer
	Articles    *usecase.ArticleQueries
	Preferences *usecase.CachedPreferences
	Users       *usecase.UserSettings
	Chat        *usecase.ChatService

	jobs     ports.JobQueue
	results  ports.TaskResults
	handlers []worker.Handler
	inMemory bool
}

// New connects every backend named by cfg. Empty cache, queue and vector
// store addresses select in-process implementations.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}
	a := &Application{cfg: cfg, logger: baseLogger, metrics: metrics.New(nil)}
	loc := cfg.Location()

	dialect := storage.Dialect(cfg.Database.Driver)
	db, err := storage.Open(ctx, dialect, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	a.store = storage.NewStore(db, dialect, loc)

	cacheStore, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	jobs, err := a.openQueue()
	if err != nil {
		a.Close()
		return nil, err
	}
	index, err := a.openIndex()
	if err != nil {
		a.Close()
		return nil, err
	}
	uploader, err := objectstore.NewUploader(cfg.Storage, baseLogger)
	if err != nil {
		a.Close()
		return nil, err
	}

	bs := breaker.Settings{OnStateChange: func(name string, _, to gobreaker.State) {
		a.metrics.BreakerOpen(name, to == gobreaker.StateOpen)
	}}
	openai := llm.NewClient(cfg.OpenAI, bs, baseLogger)
	embedder := llm.NewEmbedder(openai, cfg.OpenAI)

	a.jobs = jobs
	a.results = queue.NewResults(cacheStore, cfg.Enrichment.ResultTTL)
	a.Dispatcher = usecase.NewDispatcher(jobs, a.results, baseLogger)
	a.Preferences = usecase.NewCachedPreferences(a.store, cacheStore, cfg.Recommend.PreferenceTTL, baseLogger)

	a.Pipeline = a.buildPipeline(openai)
	a.Indexer = usecase.NewIndexer(a.Preferences, a.store, embedder, index, loc, a.metrics, baseLogger)
	a.Recommender = usecase.NewRecommender(usecase.RecommenderDeps{
		Preferences: a.Preferences,
		Articles:    a.store,
		Embeddings:  usecase.NewEmbeddingCache(cacheStore, embedder, cfg.Recommend.EmbeddingTTL, a.metrics, baseLogger),
		Index:       index,
		Metrics:     a.metrics,
		Logger:      baseLogger,
	}, cfg.Recommend)
	a.Articles = usecase.NewArticleQueries(a.store, a.Preferences, cacheStore, cfg.Recommend.RecentTTL, loc, baseLogger)
	a.Users = usecase.NewUserSettings(a.Preferences, a.store, cacheStore, cfg.Recommend.PreferenceTTL, baseLogger)
	a.Chat = usecase.NewChatService(usecase.ChatDeps{
		Articles:   a.store,
		Publishers: a.store,
		Completer:  llm.NewChat(openai, cfg.OpenAI),
		Cache:      cacheStore,
		Logger:     baseLogger,
	}, cfg.Chat.HistoryTTL, cfg.Chat.MaxMessageLen, loc)

	thumbnailer := imaging.NewThumbnailer(imaging.Options{
		Width:     cfg.Enrichment.ThumbnailWidth,
		Quality:   cfg.Enrichment.ThumbnailQuality,
		Timeout:   cfg.Enrichment.ImageTimeout,
		UserAgent: cfg.Crawl.UserAgent,
	})
	a.handlers = []worker.Handler{
		usecase.NewSpeechJob(a.store, tts.NewGoogleClient(cfg.TTS, bs, baseLogger), uploader,
			cfg.Enrichment.SoftDeleteOnSpeechFailure, loc, baseLogger),
		usecase.NewThumbnailJob(a.store, thumbnailer, uploader, cfg.Enrichment.FallbackBucket, baseLogger),
	}

	return a, nil
}

func (a *Application) openCache(ctx context.Context) (ports.CacheStore, error) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Info("using in-process cache")
		return cache.NewMemory(), nil
	}
	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r)
	return r, nil
}

func (a *Application) openQueue() (ports.JobQueue, error) {
	if a.cfg.RabbitMQ.URL == "" {
		a.logger.Info("using in-process work queues; enrichment runs inside this process")
		a.inMemory = true
		return queue.NewMemory(), nil
	}
	q, err := queue.NewRabbitMQ(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.Prefetch, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, q)
	return q, nil
}

func (a *Application) openIndex() (ports.VectorIndex, error) {
	if a.cfg.Qdrant.Host == "" {
		a.logger.Info("using in-process vector index")
		return vectorindex.NewMemory(domain.EmbeddingDimension), nil
	}
	q, err := vectorindex.NewQdrant(vectorindex.QdrantConfig{
		Host:       a.cfg.Qdrant.Host,
		Port:       a.cfg.Qdrant.Port,
		APIKey:     a.cfg.Qdrant.APIKey,
		UseTLS:     a.cfg.Qdrant.UseTLS,
		Collection: a.cfg.Qdrant.Collection,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, q)
	return q, nil
}

func (a *Application) buildPipeline(openai *llm.Client) *usecase.Pipeline {
	cfg := a.cfg
	pageClient := &http.Client{Timeout: cfg.Crawl.RequestTimeout}
	registry := scanner.NewRegistry(
		parser.NewSBSExtractor(pageClient, cfg.Crawl.UserAgent),
		parser.NewHankyungExtractor(pageClient, cfg.Crawl.UserAgent),
		parser.NewMaeilExtractor(pageClient, cfg.Crawl.UserAgent),
	)

	crawler := usecase.NewCrawler(usecase.CrawlerDeps{
		Feeds:    feed.NewFetcher(&http.Client{Timeout: cfg.Crawl.FeedTimeout}, cfg.Crawl.UserAgent),
		Registry: registry,
		Known:    a.store,
		Metrics:  a.metrics,
		Logger:   a.logger,
	}, cfg.Crawl.PolitenessDelay)

	deps := usecase.PipelineDeps{
		Crawler:    crawler,
		Gate:       usecase.NewGate(a.store, cfg.Location(), a.metrics, a.logger),
		Dispatcher: a.Dispatcher,
		Targets:    parser.Targets(cfg.Sites, a.logger),
		Logger:     a.logger,
	}
	if cfg.Crawl.Summarize && cfg.OpenAI.APIKey != "" {
		deps.Summarizer = llm.NewSummarizer(openai, cfg.OpenAI)
	}
	if n := telegram.NewNotifier(cfg.Telegram); n != nil {
		deps.Notifier = n
	}

	return usecase.NewPipeline(deps, usecase.PipelineOptions{
		Concurrency:        cfg.Crawl.MaxConcurrency,
		DispatchEnrichment: cfg.Crawl.DispatchEnrichment,
	})
}

// Migrate creates the relational schema.
func (a *Application) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// Follow records a user's interests. Publishers and categories are given by
// name and created when unseen. Cached preferences are dropped afterwards.
func (a *Application) Follow(ctx context.Context, userID string, keywords, publishers, categories []string) error {
	for _, kw := range keywords {
		if err := a.store.AddKeyword(ctx, userID, kw); err != nil {
			return err
		}
	}
	for _, name := range publishers {
		p, err := a.store.ResolvePublisher(ctx, name)
		if err != nil {
			return err
		}
		if err := a.store.AddPreferredPublisher(ctx, userID, p.ID); err != nil {
			return err
		}
	}
	for _, name := range categories {
		c, err := a.store.ResolveCategory(ctx, name)
		if err != nil {
			return err
		}
		if err := a.store.AddPreferredCategory(ctx, userID, c.ID); err != nil {
			return err
		}
	}
	return a.Preferences.Invalidate(ctx, userID)
}

// Crawl performs a single pipeline execution. With in-process queues the
// dispatched enrichment jobs are drained before returning.
func (a *Application) Crawl(ctx context.Context) (usecase.RunReport, error) {
	if !a.inMemory {
		return a.Pipeline.Run(ctx, time.Now().In(a.cfg.Location()))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := a.workerPool().ServeBackground(ctx)

	report, err := a.Pipeline.Run(ctx, time.Now().In(a.cfg.Location()))
	if err == nil {
		a.awaitTasks(ctx, report.Dispatched)
	}
	cancel()
	<-done
	return report, err
}

func (a *Application) awaitTasks(ctx context.Context, handles []domain.TaskHandle) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for _, h := range handles {
		for {
			res, err := a.results.Load(ctx, h.TaskID)
			if err == nil && res.Status != domain.StatusProcessing {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}

func (a *Application) workerPool() *worker.Pool {
	return worker.NewPool(a.jobs, a.results, a.handlers, worker.PoolConfig{
		SlotsPerQueue: a.cfg.Enrichment.Workers,
	}, a.metrics, a.logger)
}

// Work consumes enrichment queues until ctx is canceled.
func (a *Application) Work(ctx context.Context) error {
	err := a.workerPool().Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Serve runs the HTTP API, the crawl scheduler and, with in-process queues,
// the enrichment workers until ctx is canceled.
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.inMemory {
		a.workerPool().ServeBackground(ctx)
	}

	var sched *usecase.Scheduler
	if a.cfg.Scheduler.Enabled {
		sched = usecase.NewScheduler(scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.logger), a.Pipeline, a.logger)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	srv := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Recommender: a.Recommender,
			Indexer:     a.Indexer,
			Articles:    a.Articles,
			Tasks:       a.Dispatcher,
			Users:       a.Users,
			Chat:        a.Chat,
			Metrics:     a.metrics.Handler(),
			Logger:      a.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// Close releases every backend connection.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close backend", "error", err)
		}
	}
	a.closers = nil
}
