package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/application/services"
	"github.com/setegnworku/africa-rising-video/config"
	"github.com/setegnworku/africa-rising-video/domain"
	"github.com/setegnworku/africa-rising-video/infrastructure/adapters"
)

func main() {
	var (
		workDir      = flag.String("dir", ".", "work directory holding the script and slide images")
		scriptPath   = flag.String("script", "", "narration script path (default: discovered in the work directory)")
		outputPath   = flag.String("o", "", "output video path (default: configured name under the work directory)")
		configPath   = flag.String("config", "", "YAML config file")
		voiceID      = flag.String("voice", "", "override the configured ElevenLabs voice")
		preview      = flag.Bool("preview", false, "render with silent narration instead of calling ElevenLabs")
		watch        = flag.Bool("watch", false, "keep running and re-render when the script or slides change")
		bestEffort   = flag.Bool("best-effort", false, "skip failing slides instead of aborting the run")
		keepSegments = flag.Bool("keep-segments", false, "keep the per-slide segment files after assembly")
		publish      = flag.Bool("publish", false, "upload the final video to S3 after assembly")
		workers      = flag.Int("workers", 0, "worker pool size (default: from config)")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "create-video: unexpected argument %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
	if *preview && *publish {
		fmt.Fprintln(os.Stderr, "create-video: preview runs are not published")
		os.Exit(2)
	}

	// An optional .env supplies ELEVEN_LABS_API_KEY and friends in development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create-video:", err)
		os.Exit(2)
	}
	if *bestEffort {
		cfg.Pipeline.FailureMode = string(domain.BestEffortMode)
	}
	if *keepSegments {
		cfg.Pipeline.KeepScratch = true
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger := adapters.NewZerologWrapperWith(level, cfg.Logging.Pretty)

	if err := adapters.EnsureTools("ffmpeg", "ffprobe"); err != nil {
		log.Fatal().Err(err).Msg("Missing required tools")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	panicHandler := func(p interface{}) {
		logger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(cfg.Pipeline.Workers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	runner := adapters.NewExecCommandRunner(logger)
	prober := adapters.NewFFprobeProber(runner, logger)

	encoderConfig := config.GetEncoderConfig(cfg)
	encoder := adapters.NewFFmpegSegmentEncoder(encoderConfig, runner, logger)
	assembler := adapters.NewFFmpegVideoAssembler(encoderConfig, runner, prober, logger)

	cacheDir := cfg.Paths.CacheDir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(*workDir, cacheDir)
	}
	cache, err := adapters.NewDiskSpeechCache(cacheDir, cfg.Pipeline.Reuse(), logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open speech cache")
	}

	voice := domain.VoiceSpec{
		VoiceID:      cfg.Voice.VoiceID,
		ModelID:      cfg.Voice.ModelID,
		OutputFormat: cfg.Voice.OutputFormat,
	}

	var synthesizer outbound.SpeechSynthesizerPort
	if *preview {
		synthesizer = adapters.NewSilenceSynthesizer(cfg.Voice.WordsPerSecond, runner, logger)
		// Silent narrations cache under their own voice so a later live run
		// never picks one up.
		voice = domain.VoiceSpec{
			VoiceID:      "preview",
			ModelID:      fmt.Sprintf("silence-%.2fwps", cfg.Voice.WordsPerSecond),
			OutputFormat: cfg.Voice.OutputFormat,
		}
	} else {
		elevenLabsConfig, err := config.GetElevenLabsConfig(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create-video:", err)
			os.Exit(2)
		}
		synthesizer = adapters.NewElevenLabsSynthesizer(elevenLabsConfig, logger)
	}

	var publisher outbound.VideoPublisherPort
	if *publish {
		s3Config, err := config.GetS3Config(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create-video:", err)
			os.Exit(2)
		}
		publisher, err = adapters.NewS3VideoPublisher(logger, s3Config)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create s3 publisher")
		}
	}

	scriptParser := services.NewScriptParser()
	assetLocator := adapters.NewWorkdirAssetLocator(cfg.Paths.ScriptName, logger)
	narrationSynthesizer := services.NewNarrationSynthesizer(logger, synthesizer, cache, prober, workerPool, voice)
	segmentBuilder := services.NewSegmentBuilder(logger, encoder, workerPool)

	pipeline := services.NewPipelineOrchestrator(logger, scriptParser, assetLocator, narrationSynthesizer,
		segmentBuilder, assembler, publisher, domain.FailureMode(cfg.Pipeline.FailureMode),
		cfg.Paths.OutputName, cfg.Pipeline.KeepScratch)

	runOnce := func(ctx context.Context) error {
		report, err := pipeline.Run(ctx, inbound.StartRunParams{
			WorkDir:    *workDir,
			ScriptPath: *scriptPath,
			OutputPath: *outputPath,
			VoiceID:    *voiceID,
		})
		printSummary(os.Stdout, cfg, report, err)
		return err
	}

	err = runOnce(ctx)
	if !*watch {
		if err != nil {
			os.Exit(1)
		}
		return
	}

	// Watch mode outlives failed runs: the author fixes the script and the
	// next change triggers a fresh render.
	watchName := cfg.Paths.ScriptName
	if *scriptPath != "" {
		watchName = filepath.Base(*scriptPath)
	}
	watcher, err := adapters.NewWorkDirWatcher(logger, *workDir, watchName, 0, runOnce)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to watch work directory")
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Watcher stopped")
	}
}

// printSummary writes the human-readable run summary that the structured logs
// are too noisy for.
func printSummary(out io.Writer, cfg *config.Config, report domain.RunReport, runErr error) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if runErr != nil {
		fmt.Fprintf(w, "\nRun %s failed after %s: %v\n", report.RunID, report.Elapsed().Round(time.Millisecond), runErr)
		printFailures(w, report.Failures)
		return
	}

	fmt.Fprintf(w, "\nVideo ready: %s\n", report.OutputPath)
	fmt.Fprintf(w, "  duration\t%s\n", domain.FormatClock(report.OutputDuration))
	fmt.Fprintf(w, "  size\t%.1f MB\n", float64(report.OutputSizeBytes)/(1<<20))
	fmt.Fprintf(w, "  video\t%dx%d @ %d fps\n", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	fmt.Fprintf(w, "  narration\t%d slides (%d cached, %d synthesized)\n", report.SegmentsBuilt, report.CacheHits, report.Synthesized)
	fmt.Fprintf(w, "  elapsed\t%s\n", report.Elapsed().Round(time.Millisecond))
	if report.PublishedKey != "" {
		fmt.Fprintf(w, "  published\ts3 %s (%s)\n", report.PublishedKey, report.PublishedRegion)
	}
	printFailures(w, report.Failures)
}

func printFailures(w io.Writer, failures []domain.SlideFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailed slides:\n")
	for _, f := range failures {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", f.Slide, f.Stage, f.Reason)
	}
}
