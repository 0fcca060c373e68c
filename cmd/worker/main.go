package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keysnap/keyframe-service/internal/domain/contactsheet"
	"github.com/keysnap/keyframe-service/internal/infra/archive"
	"github.com/keysnap/keyframe-service/internal/infra/artifact"
	"github.com/keysnap/keyframe-service/internal/infra/config"
	"github.com/keysnap/keyframe-service/internal/infra/email"
	"github.com/keysnap/keyframe-service/internal/infra/ffmpeg"
	"github.com/keysnap/keyframe-service/internal/infra/metrics"
	miniostorage "github.com/keysnap/keyframe-service/internal/infra/minio"
	"github.com/keysnap/keyframe-service/internal/infra/postgres"
	"github.com/keysnap/keyframe-service/internal/infra/rabbitmq"
	"github.com/keysnap/keyframe-service/internal/infra/tracing"
	"github.com/keysnap/keyframe-service/internal/usecase"
	"github.com/keysnap/keyframe-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting keysnap keyframe service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		UploadBucket:   cfg.MinIOUploadBucket,
		ArtifactBucket: cfg.MinIOArtifactBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	// Label font is resolved once; a missing font only degrades the labels.
	face := contactsheet.LoadLabelFace(cfg.FontPath, cfg.FontSize, log)
	if face.Degraded {
		metrics.DegradedLabelFont.Set(1)
	}

	uc := usecase.NewExtractKeyframesUseCase(
		usecase.Deps{
			Repo:     postgres.NewJobRepository(pool),
			Storage:  storage,
			Opener:   ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath, log),
			Writer:   artifact.NewPNGWriter(),
			Archiver: archive.NewZipArchiver(),
			Status:   rabbitmq.NewStatusPublisher(pub),
			Progress: rabbitmq.NewProgressPublisher(pub),
			DLQ:      rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ),
			Notifier: email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log),
			Composer: contactsheet.NewComposer(face.Face, cfg.LabelPadding, log),
		},
		log,
		usecase.ExtractKeyframesConfig{
			TempDir:       cfg.TempDir,
			MaxRetries:    cfg.MaxRetries,
			Keyframe:      cfg.Keyframe(),
			MaxPerRow:     cfg.MaxPerRow,
			ProgressEvery: cfg.ProgressEvery,
			SheetName:     cfg.SheetName,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:           cfg.RabbitMQURL,
		Queue:         cfg.RabbitMQKeyframeQueue,
		Exchange:      cfg.RabbitMQExchange,
		DLQ:           cfg.RabbitMQDLQ,
		StatusQueue:   cfg.RabbitMQStatusQueue,
		ProgressQueue: cfg.RabbitMQProgressQueue,
		Prefetch:      cfg.RabbitMQPrefetch,
		WorkerCount:   cfg.WorkerCount,
		BaseDelayMs:   cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("keyframe service started, consuming messages",
		zap.String("queue", cfg.RabbitMQKeyframeQueue),
		zap.Int("workers", cfg.WorkerCount),
		zap.Bool("label_font_degraded", face.Degraded),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("keyframe service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
