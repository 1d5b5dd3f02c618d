package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/acquire"
	"github.com/Harshitk-cp/factline/internal/api"
	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/buildconfig"
	"github.com/Harshitk-cp/factline/internal/cache"
	"github.com/Harshitk-cp/factline/internal/config"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/llm"
	"github.com/Harshitk-cp/factline/internal/notify"
	"github.com/Harshitk-cp/factline/internal/registry"
	"github.com/Harshitk-cp/factline/internal/service"
	"github.com/Harshitk-cp/factline/internal/speech"
	"github.com/Harshitk-cp/factline/internal/store"
	"github.com/Harshitk-cp/factline/internal/store/filestore"
)

// stores is the persistence backend chosen by FACTLINE_STORE.
type stores struct {
	ratings     domain.RatingStore
	audit       domain.AuditStore
	queue       domain.QueueStore
	stories     domain.StoryStore
	corrections domain.CorrectionStore
	ping        func(ctx context.Context) error
	close       func()
}

func openStores(ctx context.Context, logger *zap.Logger) (*stores, error) {
	if config.StoreBackend() == "postgres" {
		pool, err := pgxpool.New(ctx, config.DatabaseURL())
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("connected to database")
		return &stores{
			ratings:     store.NewRatingStore(pool),
			audit:       store.NewAuditStore(pool),
			queue:       store.NewQueueStore(pool),
			stories:     store.NewStoryStore(pool),
			corrections: store.NewCorrectionStore(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil
	}

	fs, err := filestore.Open(config.DataDir())
	if err != nil {
		return nil, err
	}
	logger.Info("using file store", zap.String("dir", config.DataDir()))
	return &stores{
		ratings:     fs.Ratings,
		audit:       fs.Audit,
		queue:       fs.Queue,
		stories:     fs.Stories,
		corrections: fs.Corrections,
		close:       func() {},
	}, nil
}

func openCache(ctx context.Context, logger *zap.Logger) (domain.HeadlineCache, error) {
	if config.CacheBackend() == "redis" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		if err := rc.Ping(ctx); err != nil {
			return nil, err
		}
		logger.Info("connected to redis", zap.String("addr", config.RedisAddr()))
		return rc, nil
	}
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return nil, err
	}
	return cache.NewMemory(filepath.Join(config.DataDir(), "processed_cache.json"))
}

func newPublisher(ctx context.Context, logger *zap.Logger) (domain.Publisher, error) {
	publishers := []domain.Publisher{archive.NewDirPublisher(config.ArchiveDir())}
	if dir := config.PublishDir(); dir != "" {
		publishers = append(publishers, archive.NewDirPublisher(dir))
	}
	if bucket := config.S3Bucket(); bucket != "" {
		s3p, err := archive.NewS3Publisher(ctx, archive.S3Config{
			Bucket:       bucket,
			Prefix:       config.S3Prefix(),
			Region:       config.S3Region(),
			UsePathStyle: config.S3UsePathStyle(),
		})
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, s3p)
		logger.Info("publishing to s3", zap.String("bucket", bucket))
	}
	return archive.NewMulti(logger, publishers...), nil
}

func newSink(logger *zap.Logger) (domain.EventSink, func()) {
	brokers := config.KafkaBrokers()
	if len(brokers) == 0 {
		return archive.NewLogSink(logger), func() {}
	}
	k, err := archive.NewKafkaSink(brokers, config.KafkaTopic())
	if err != nil {
		logger.Warn("kafka unavailable, logging story events instead", zap.Error(err))
		return archive.NewLogSink(logger), func() {}
	}
	logger.Info("emitting story events to kafka", zap.Strings("brokers", brokers), zap.String("topic", config.KafkaTopic()))
	return k, func() { _ = k.Close() }
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(config.LogLevel()); err == nil {
		cfg.Level = level
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if err := config.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	info := buildconfig.VersionInfo()
	logger.Info("starting factline", zap.String("version", info.Version), zap.String("commit", info.Commit))

	ctx := context.Background()

	reg, err := registry.Load(config.SourcesFile())
	if err != nil {
		logger.Fatal("failed to load sources", zap.String("path", config.SourcesFile()), zap.Error(err))
	}
	logger.Info("sources loaded", zap.Int("enabled", len(reg.Enabled())), zap.Int("total", len(reg.Sources())))

	st, err := openStores(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open stores", zap.Error(err))
	}
	defer st.close()

	headlineCache, err := openCache(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open headline cache", zap.Error(err))
	}

	oracle, err := llm.New(config.LLMProvider(), config.LLMAPIKey(), config.LLMModel(), llm.RetryPolicy{
		MaxRetries: config.OracleMaxRetries(),
		BaseDelay:  config.OracleRetryBaseDelay(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to create oracle", zap.String("provider", config.LLMProvider()), zap.Error(err))
	}

	var speaker domain.Speaker
	if key := config.ElevenLabsAPIKey(); key != "" {
		w, err := speech.NewWriter(speech.NewElevenLabs(key, config.ElevenLabsVoiceID()), config.AudioDir(), logger)
		if err != nil {
			logger.Fatal("failed to create audio writer", zap.Error(err))
		}
		speaker = w
	} else {
		logger.Info("no speech key set, publishing text only")
	}

	var notifier domain.Notifier = notify.NewLog(logger)
	if token := config.TelegramToken(); token != "" {
		notifier = notify.NewTelegram(token, config.TelegramChatID())
	}

	publisher, err := newPublisher(ctx, logger)
	if err != nil {
		logger.Fatal("failed to create publisher", zap.Error(err))
	}
	sink, closeSink := newSink(logger)
	defer closeSink()

	// Services
	state := service.NewState(time.Now())
	alerter := service.NewAlerter(notifier, nil, state, logger)
	tracker := service.NewFailureTracker(state, alerter, config.FailureAlertAfter(), logger)
	reliability := service.NewReliabilityService(st.ratings, st.audit, reg, config.MaturityThreshold(), logger)
	queue := service.NewQueue(st.queue, reliability, config.QueueTimeout(), logger)
	if err := queue.Load(ctx); err != nil {
		logger.Fatal("failed to load verification queue", zap.Error(err))
	}
	logger.Info("verification queue loaded", zap.Int("entries", queue.Len()))

	lookback := time.Duration(config.CorrectionLookbackDays()) * 24 * time.Hour
	feed := archive.FeedMeta{Title: config.FeedTitle(), Link: config.FeedLink(), Description: "Verified facts, corroborated by independent sources."}
	matcher := service.NewMatcher(oracle, reliability, tracker, logger)
	publication := service.NewPublicationService(service.PublicationDeps{
		Stories:     st.stories,
		Corrections: st.corrections,
		Oracle:      oracle,
		Reliability: reliability,
		Speaker:     speaker,
		Publisher:   publisher,
		Events:      sink,
		State:       state,
		Tracker:     tracker,
		Names:       registry.NewNameIndex(reg),
		Feed:        feed,
		Lookback:    lookback,
	}, logger)
	corrections := service.NewCorrectionService(st.stories, st.corrections, oracle, publication, alerter, tracker, logger)

	pipeline := service.NewPipeline(service.PipelineDeps{
		Registry:    reg,
		Oracle:      oracle,
		Cache:       headlineCache,
		Stories:     st.stories,
		Queue:       queue,
		Matcher:     matcher,
		Publication: publication,
		Corrections: corrections,
		State:       state,
		Alerter:     alerter,
		Tracker:     tracker,
	}, service.PipelineConfig{
		MinConfidence:        config.MinConfidence(),
		RecentWindow:         config.RecentWindow(),
		CorrectionLookback:   lookback,
		RetentionDays:        config.RetentionDays(),
		QueueBackupThreshold: config.QueueBackupThreshold(),
		QueueBackupAge:       service.DefaultPipelineConfig().QueueBackupAge,
	}, logger)

	source := acquire.NewMulti(reg.Enabled(), &http.Client{Timeout: 15 * time.Second}, time.Second, logger)
	scheduler, err := service.NewScheduler(pipeline, source, alerter, tracker, service.SchedulerConfig{
		Schedule:          config.CycleSchedule(),
		KillSwitchPath:    config.KillSwitchPath(),
		HeartbeatPath:     filepath.Join(config.DataDir(), "heartbeat.json"),
		HeartbeatInterval: config.HeartbeatInterval(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	app := api.NewApp(api.Deps{
		Stories:        st.stories,
		Corrections:    st.corrections,
		Reliability:    reliability,
		Queue:          queue,
		State:          state,
		Ping:           st.ping,
		Feed:           feed,
		FeedLookback:   lookback,
		KillSwitchPath: config.KillSwitchPath(),
		AdminToken:     config.AdminToken(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	scheduler.Start(ctx)

	select {
	case <-quit:
		logger.Info("shutting down")
	case <-scheduler.Done():
		logger.Warn("scheduler exited, shutting down")
	}

	// Stop waits for an in-flight cycle.
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("factline stopped")
}
