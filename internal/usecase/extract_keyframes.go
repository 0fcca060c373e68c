package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/keysnap/keyframe-service/internal/domain/contactsheet"
	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/keyframe"
	"github.com/keysnap/keyframe-service/internal/domain/port"
	"github.com/keysnap/keyframe-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	archiveName      = "keyframes.zip"
	defaultSheetName = "keyframes_merged.png"
	contentTypePNG   = "image/png"
	contentTypeZip   = "application/zip"
	tracerName       = "usecase"

	stageDownload    = "download_video"
	stageSelect      = "select_keyframes"
	stageWriteFrames = "write_keyframes"
	stageCompose     = "compose_sheet"
	stageArchive     = "create_archive"
	stageUpload      = "upload_artifacts"
)

type ExtractKeyframesUseCase struct {
	repo     port.JobRepository
	storage  port.VideoStorage
	opener   port.FrameSourceOpener
	writer   port.ArtifactWriter
	archiver port.Archiver
	status   port.StatusPublisher
	progress port.ProgressPublisher
	dlq      port.DLQPublisher
	notifier port.FailureNotifier
	composer *contactsheet.Composer
	logger   *zap.Logger
	cfg      ExtractKeyframesConfig
}

type ExtractKeyframesConfig struct {
	TempDir       string
	MaxRetries    int
	Keyframe      keyframe.Config
	MaxPerRow     int
	ProgressEvery int
	SheetName     string
}

// Deps groups the ports the use case drives.
type Deps struct {
	Repo     port.JobRepository
	Storage  port.VideoStorage
	Opener   port.FrameSourceOpener
	Writer   port.ArtifactWriter
	Archiver port.Archiver
	Status   port.StatusPublisher
	Progress port.ProgressPublisher
	DLQ      port.DLQPublisher
	Notifier port.FailureNotifier
	Composer *contactsheet.Composer
}

func NewExtractKeyframesUseCase(deps Deps, logger *zap.Logger, cfg ExtractKeyframesConfig) *ExtractKeyframesUseCase {
	if cfg.SheetName == "" {
		cfg.SheetName = defaultSheetName
	}
	return &ExtractKeyframesUseCase{
		repo:     deps.Repo,
		storage:  deps.Storage,
		opener:   deps.Opener,
		writer:   deps.Writer,
		archiver: deps.Archiver,
		status:   deps.Status,
		progress: deps.Progress,
		dlq:      deps.DLQ,
		notifier: deps.Notifier,
		composer: deps.Composer,
		logger:   logger,
		cfg:      cfg,
	}
}

// isPermanent reports failures that retrying the same video cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, port.ErrSourceUnavailable) || errors.Is(err, port.ErrMalformedFrame)
}

func (uc *ExtractKeyframesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ExtractKeyframesUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.KeyframeRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)
	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if errors.Is(err, port.ErrJobNotFound) {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	} else if err != nil {
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("load job: %w", err)
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded: "+job.ErrorMessage, log)
	}

	selCfg, maxPerRow, err := resolveParams(uc.cfg.Keyframe, uc.cfg.MaxPerRow, msg.Params)
	if err != nil {
		log.Warn("invalid keyframe parameters", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "invalid_params: "+err.Error(), log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	result, err := uc.runPipeline(ctx, job, selCfg, maxPerRow, log)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isPermanent(err) {
			log.Error("keyframe job failed permanently", zap.Error(err))
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error(), log)
		}
		log.Error("keyframe job failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, err.Error(), log)
	}

	job.MarkCompleted(result.archiveKey, result.sheetKey, len(result.timestamps), result.duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}
	uc.publishStatus(ctx, job, result.timestamps, log)

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("job completed successfully",
		zap.Int("keyframe_count", len(result.timestamps)),
		zap.Float64("duration_secs", result.duration),
		zap.String("archive_key", result.archiveKey),
		zap.String("sheet_key", result.sheetKey),
	)
	return nil
}

type pipelineResult struct {
	timestamps []float64
	duration   float64
	archiveKey string
	sheetKey   string
}

func (uc *ExtractKeyframesUseCase) runPipeline(
	ctx context.Context,
	job *entity.Job,
	selCfg keyframe.Config,
	maxPerRow int,
	log *zap.Logger,
) (*pipelineResult, error) {
	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	outDir := filepath.Join(workDir, "keyframes")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, "input"+filepath.Ext(job.VideoKey))
	err := uc.stage(ctx, stageDownload, func(ctx context.Context) error {
		return uc.storage.DownloadVideo(ctx, job.VideoKey, videoPath)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageDownload, err)
	}

	var (
		keyframes []entity.Keyframe
		duration  float64
	)
	err = uc.stage(ctx, stageSelect, func(ctx context.Context) error {
		src, err := uc.opener.Open(ctx, videoPath)
		if err != nil {
			return err
		}
		defer src.Close()
		if src.FPS() > 0 {
			duration = float64(src.FrameCount()) / src.FPS()
		}

		reporter := newProgressReporter(ctx, uc.progress, job.ID, log)
		var decoded int
		keyframes, err = keyframe.NewSelector(selCfg, uc.cfg.ProgressEvery, log).
			Select(ctx, src, func(processed, total int) {
				decoded = processed
				reporter.Report(processed, total)
			})
		reporter.Close()
		metrics.FramesDecodedTotal.Add(float64(decoded))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageSelect, err)
	}
	metrics.KeyframesSelected.Observe(float64(len(keyframes)))

	var files []string
	err = uc.stage(ctx, stageWriteFrames, func(context.Context) error {
		for _, kf := range keyframes {
			path, err := uc.writer.WriteKeyframe(outDir, kf)
			if err != nil {
				return err
			}
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageWriteFrames, err)
	}

	sheetPath := ""
	err = uc.stage(ctx, stageCompose, func(context.Context) error {
		sheet, ok := uc.composer.Compose(keyframes, maxPerRow)
		if !ok {
			metrics.EmptySelectionsTotal.Inc()
			log.Info("no keyframes selected, skipping contact sheet")
			return nil
		}
		sheetPath = filepath.Join(outDir, uc.cfg.SheetName)
		if err := uc.writer.WriteSheet(sheetPath, sheet); err != nil {
			return err
		}
		files = append(files, sheetPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageCompose, err)
	}

	archivePath := filepath.Join(workDir, archiveName)
	err = uc.stage(ctx, stageArchive, func(ctx context.Context) error {
		return uc.archiver.CreateArchive(ctx, files, archivePath)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageArchive, err)
	}

	prefix := fmt.Sprintf("%s/%s", job.UserID, job.ID.String())
	result := &pipelineResult{
		timestamps: entity.Timestamps(keyframes),
		duration:   duration,
		archiveKey: prefix + "/" + archiveName,
	}
	err = uc.stage(ctx, stageUpload, func(ctx context.Context) error {
		if err := uc.storage.UploadArtifact(ctx, result.archiveKey, archivePath, contentTypeZip); err != nil {
			return err
		}
		if sheetPath == "" {
			return nil
		}
		result.sheetKey = prefix + "/" + uc.cfg.SheetName
		return uc.storage.UploadArtifact(ctx, result.sheetKey, sheetPath, contentTypePNG)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageUpload, err)
	}
	return result, nil
}

// stage runs fn inside a span and records its duration.
func (uc *ExtractKeyframesUseCase) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage", name)),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.JobStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (uc *ExtractKeyframesUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.KeyframeRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ExtractKeyframesUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.KeyframeRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if err := uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}
	uc.publishStatus(ctx, job, nil, log)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, port.FailureNotice{
			UserEmail: msg.UserEmail,
			JobID:     job.ID.String(),
			VideoKey:  msg.VideoKey,
			Reason:    errMsg,
		})
	}
	return nil
}

func (uc *ExtractKeyframesUseCase) publishStatus(ctx context.Context, job *entity.Job, timestamps []float64, log *zap.Logger) {
	statusMsg := entity.KeyframeStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		VideoKey:      job.VideoKey,
		ArchiveKey:    job.ArchiveKey,
		SheetKey:      job.SheetKey,
		KeyframeCount: job.KeyframeCount,
		Timestamps:    timestamps,
		Duration:      job.VideoDuration,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.status.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
