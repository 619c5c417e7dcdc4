package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-tools-mcp/internal/config"
	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/logging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
	"github.com/ironsheep/plate-tools-mcp/internal/results"
	"github.com/ironsheep/plate-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env-file", ".env", "path to a .env file (ignored when missing)")
	flag.Usage = printHelp
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "plate-tools-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	// stdout is for the MCP protocol; logging goes to stderr
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"backend": cfg.OCR.Backend,
	}).Info("starting plate MCP server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	factory, err := ocr.NewEngineFactory(cfg.OCROptions())
	if err != nil {
		return err
	}
	recognizer := ocr.NewRecognizer(factory, log.WithField("component", "ocr"))
	if err := recognizer.Warm(ctx); err != nil {
		// Recognition retries engine creation on each request.
		log.WithError(err).Warn("OCR engine not ready")
	}

	locatorOpts := []detection.LocatorOption{
		detection.WithCropper(imaging.NewCropper(cfg.Detection.MarginRatio, cfg.Detection.MinDimension)),
		detection.WithLogger(log.WithField("component", "detection")),
	}
	if cfg.Detection.ModelPath != "" {
		model, err := detection.NewModelDetector(detection.ModelConfig{
			Path:          cfg.Detection.ModelPath,
			Config:        cfg.Detection.ModelConfig,
			MinConfidence: cfg.Detection.ModelMinConfidence,
		})
		switch {
		case err == nil:
			locatorOpts = append(locatorOpts, detection.WithModel(model))
			log.WithField("model", cfg.Detection.ModelPath).Info("plate detection model loaded")
		case errors.Is(err, detection.ErrModelUnavailable):
			log.WithError(err).Warn("using heuristic plate detection only")
		default:
			return err
		}
	}
	locator := detection.NewLocator(locatorOpts...)

	var store *results.Store
	if cfg.Results.Dir != "" {
		store = results.NewStore(cfg.Results.Dir, log.WithField("component", "results"))
	}

	srv := server.New(server.Options{
		Locator:    locator,
		Recognizer: recognizer,
		Store:      store,
		OCR:        cfg.OCROptions(),
		Timeout:    cfg.Pipeline.Timeout,
		Version:    Version,
		Log:        log.WithField("component", "server"),
	})

	serveErr := srv.Run(ctx)

	// Close waits for an in-flight recognition before releasing the engine.
	log.Info("terminating OCR engine")
	if err := recognizer.Close(); err != nil {
		log.WithError(err).Error("failed to close OCR engine")
	}
	if err := locator.Close(); err != nil {
		log.WithError(err).Error("failed to close detection model")
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	log.Info("server stopped")
	return nil
}

func printHelp() {
	fmt.Println("plate-tools-mcp - MCP server for licence plate recognition")
	fmt.Println()
	fmt.Println("Usage: plate-tools-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v       Print version information")
	fmt.Println("  --help, -h          Print this help message")
	fmt.Println("  -config <path>      YAML config file")
	fmt.Println("  -env-file <path>    .env file to load (default .env)")
	fmt.Println()
	fmt.Println("Environment variables (override the config file):")
	fmt.Println("  PLATE_MCP_LOG_LEVEL=debug          Log level (debug, info, warn, error)")
	fmt.Println("  PLATE_MCP_OCR_BACKEND=tesseract    OCR backend (tesseract, rekognition)")
	fmt.Println("  PLATE_MCP_OCR_LANGUAGE=eng         Tesseract language")
	fmt.Println("  PLATE_MCP_TESSDATA_PREFIX=<dir>    Tesseract language data directory")
	fmt.Println("  PLATE_MCP_AWS_REGION=<region>      Rekognition region (falls back to AWS_REGION)")
	fmt.Println("  PLATE_MCP_MODEL_PATH=<file>        Plate detection model (gocv builds)")
	fmt.Println("  PLATE_MCP_TIMEOUT=30s              Per-request pipeline timeout")
	fmt.Println("  PLATE_MCP_RESULTS_DIR=<dir>        Save plate_read results here")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
