// Command keysnap selects stillness keyframes from a local video and writes
// them, plus a labeled contact sheet, into an output directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/keysnap/keyframe-service/internal/domain/contactsheet"
	"github.com/keysnap/keyframe-service/internal/domain/keyframe"
	"github.com/keysnap/keyframe-service/internal/infra/artifact"
	"github.com/keysnap/keyframe-service/internal/infra/config"
	"github.com/keysnap/keyframe-service/internal/infra/ffmpeg"
	"github.com/keysnap/keyframe-service/pkg/logger"
	"go.uber.org/zap"
)

type options struct {
	video     string
	outDir    string
	maxPerRow int
	fontPath  string
	fontSize  float64
	sheetName string
	logLevel  string
	keyframe  keyframe.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "keysnap:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := parseFlags(os.Args[1:], cfg)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log, err := logger.New(opts.logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return extract(ctx, opts, cfg, log)
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	opts := options{keyframe: cfg.Keyframe()}

	fs := flag.NewFlagSet("keysnap", flag.ContinueOnError)
	fs.StringVar(&opts.video, "video", "", "input video file (required)")
	fs.StringVar(&opts.outDir, "out", "keyframes", "output directory")
	fs.IntVar(&opts.maxPerRow, "max-per-row", cfg.MaxPerRow, "contact sheet tiles per row")
	fs.StringVar(&opts.fontPath, "font", cfg.FontPath, "label font (TTF/OTF)")
	fs.Float64Var(&opts.fontSize, "font-size", cfg.FontSize, "label font size in points")
	fs.StringVar(&opts.sheetName, "sheet", cfg.SheetName, "contact sheet file name")
	fs.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level")
	fs.Float64Var(&opts.keyframe.DiffThreshold, "diff-threshold", opts.keyframe.DiffThreshold, "diff threshold")
	fs.Float64Var(&opts.keyframe.SampleRate, "sample-rate", opts.keyframe.SampleRate, "sampled frames per second")
	fs.Float64Var(&opts.keyframe.MinInterval, "min-interval", opts.keyframe.MinInterval, "minimum seconds between keyframes")
	fs.Float64Var(&opts.keyframe.StillnessThreshold, "stillness-threshold", opts.keyframe.StillnessThreshold, "mean diff below which a frame is quiet")
	fs.IntVar(&opts.keyframe.StillnessFrames, "stillness-frames", opts.keyframe.StillnessFrames, "quiet sampled frames required for stillness")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.video == "" {
		return options{}, fmt.Errorf("-video is required")
	}
	if opts.maxPerRow < 1 {
		return options{}, fmt.Errorf("-max-per-row must be >= 1, got %d", opts.maxPerRow)
	}
	if err := opts.keyframe.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func extract(ctx context.Context, opts options, cfg *config.Config, log *zap.Logger) error {
	src, err := ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath, log).Open(ctx, opts.video)
	if err != nil {
		return err
	}
	defer src.Close()

	selector := keyframe.NewSelector(opts.keyframe, cfg.ProgressEvery, log)
	keyframes, err := selector.Select(ctx, src, func(processed, total int) {
		log.Info("scanning", zap.Int("processed", processed), zap.Int("total", total))
	})
	if err != nil {
		return err
	}

	writer := artifact.NewPNGWriter()
	for _, kf := range keyframes {
		path, err := writer.WriteKeyframe(opts.outDir, kf)
		if err != nil {
			return err
		}
		log.Info("keyframe written", zap.String("path", path), zap.Float64("timestamp", kf.Timestamp))
	}

	face := contactsheet.LoadLabelFace(opts.fontPath, opts.fontSize, log)
	sheet, ok := contactsheet.NewComposer(face.Face, cfg.LabelPadding, log).Compose(keyframes, opts.maxPerRow)
	if !ok {
		log.Info("no keyframes selected", zap.String("video", opts.video))
		return nil
	}
	sheetPath := filepath.Join(opts.outDir, opts.sheetName)
	if err := writer.WriteSheet(sheetPath, sheet); err != nil {
		return err
	}
	log.Info("contact sheet written",
		zap.String("path", sheetPath),
		zap.Int("keyframes", len(keyframes)),
	)
	return nil
}
