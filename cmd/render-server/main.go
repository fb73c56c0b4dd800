package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/application/services"
	"github.com/setegnworku/africa-rising-video/config"
	"github.com/setegnworku/africa-rising-video/domain"
	"github.com/setegnworku/africa-rising-video/infrastructure/adapters"
	"github.com/setegnworku/africa-rising-video/infrastructure/gin_interface/controllers"
	"github.com/setegnworku/africa-rising-video/middleware"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "render-server:", err)
		os.Exit(2)
	}

	logger := adapters.NewZerologWrapperWith(cfg.Logging.Level, cfg.Logging.Pretty)

	if err := adapters.EnsureTools("ffmpeg", "ffprobe"); err != nil {
		log.Fatal().Err(err).Msg("Missing required tools")
	}

	elevenLabsConfig, err := config.GetElevenLabsConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

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

	// One cache for every render: fingerprints cover text and voice, so runs
	// for different work directories share audio without colliding.
	cache, err := adapters.NewDiskSpeechCache(cfg.Paths.CacheDir, cfg.Pipeline.Reuse(), logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open speech cache")
	}

	var publisher outbound.VideoPublisherPort
	if cfg.Publish.Enabled() {
		s3Config, err := config.GetS3Config(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get s3 config")
		}
		publisher, err = adapters.NewS3VideoPublisher(logger, s3Config)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create s3 publisher")
		}
	}

	voice := domain.VoiceSpec{
		VoiceID:      cfg.Voice.VoiceID,
		ModelID:      cfg.Voice.ModelID,
		OutputFormat: cfg.Voice.OutputFormat,
	}
	previewVoice := domain.VoiceSpec{
		VoiceID:      "preview",
		ModelID:      fmt.Sprintf("silence-%.2fwps", cfg.Voice.WordsPerSecond),
		OutputFormat: cfg.Voice.OutputFormat,
	}

	elevenLabsSynthesizer := adapters.NewElevenLabsSynthesizer(elevenLabsConfig, logger)
	silenceSynthesizer := adapters.NewSilenceSynthesizer(cfg.Voice.WordsPerSecond, runner, logger)

	scriptParser := services.NewScriptParser()
	assetLocator := adapters.NewWorkdirAssetLocator(cfg.Paths.ScriptName, logger)
	segmentBuilder := services.NewSegmentBuilder(logger, encoder, workerPool)

	liveNarration := services.NewNarrationSynthesizer(logger, elevenLabsSynthesizer, cache, prober, workerPool, voice)
	previewNarration := services.NewNarrationSynthesizer(logger, silenceSynthesizer, cache, prober, workerPool, previewVoice)

	failureMode := domain.FailureMode(cfg.Pipeline.FailureMode)

	livePipeline := services.NewPipelineOrchestrator(logger, scriptParser, assetLocator, liveNarration,
		segmentBuilder, assembler, publisher, failureMode, cfg.Paths.OutputName, cfg.Pipeline.KeepScratch)

	// Preview renders never publish.
	previewPipeline := services.NewPipelineOrchestrator(logger, scriptParser, assetLocator, previewNarration,
		segmentBuilder, assembler, nil, failureMode, cfg.Paths.OutputName, cfg.Pipeline.KeepScratch)

	renderController := controllers.NewRenderController(logger, livePipeline, previewPipeline)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	if cfg.Server.JWKSURL != "" {
		authHandler, err := middleware.NewAuthHandler(cfg.Server.JWKSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		router.Use(authHandler.AuthMiddleware())
	}

	renderController.RegisterRoutes(router)

	err = router.Run(cfg.Server.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
