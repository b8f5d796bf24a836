// ABOUTME: Entry point for the voice changer web host
// ABOUTME: Loads YAML config, applies CLI overrides and starts the server
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/config"
	"github.com/Resonate-Protocol/voicechanger-go/internal/logging"
	"github.com/Resonate-Protocol/voicechanger-go/internal/server"
	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file")
	bind       = flag.String("bind", "", "Address to listen on (default 0.0.0.0)")
	port       = flag.Int("port", 0, "HTTP port (default 8501)")
	name       = flag.String("name", "", "Server friendly name (default: hostname-voicechanger)")
	logDir     = flag.String("log-dir", "", "Directory for rotating log files")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show the status TUI instead of streaming logs")
	engine     = flag.String("engine", "", "Resampling engine: lagrange or linear")
	workers    = flag.Int("workers", 0, "Concurrent transforms (default: number of CPUs)")
	tempDir    = flag.String("temp-dir", "", "Directory for staged uploads (default: system temp)")
	bitDepth   = flag.Int("bit-depth", 0, "Output bit depth: 8, 16 or 24 (default: same as input)")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyFlags(cfg)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config:\n%v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(logging.Options{
		Dir:      cfg.Logging.Directory,
		FileName: "voicechanger-server.log",
		Level:    cfg.Logging.Level,
		JSON:     cfg.Logging.JSON,
		Colors:   cfg.Logging.Colors,
		Quiet:    cfg.Server.TUI,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Debug:       cfg.Sentry.Debug,
			Release:     "voicechanger@" + version.Version,
		})
		if err != nil {
			logrus.Fatal(err)
		}
		defer sentry.Flush(2 * time.Second)
		logrus.Info("Sentry error reporting enabled")
	}

	if cfg.Server.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Server.Name = fmt.Sprintf("%s-voicechanger", hostname)
	}

	serverConfig, err := server.FromConfig(cfg)
	if err != nil {
		logrus.Fatalf("Invalid server config: %v", err)
	}

	logrus.Infof("Starting %s %s: %s on port %d", version.Product, version.Version, cfg.Server.Name, cfg.Server.Port)
	logrus.Infof("Engine: %s, workers: %d", serverConfig.Engine, cfg.Processing.Workers)
	logrus.Info("Press Ctrl-C to stop")

	srv := server.New(serverConfig)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.Infof("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		sentry.CaptureException(err)
		logrus.Fatalf("Server error: %v", err)
	}

	logrus.Info("Server stopped")
}

// applyFlags layers explicitly set flags over the loaded config
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bind":
			cfg.Server.BindAddress = *bind
		case "port":
			cfg.Server.Port = *port
		case "name":
			cfg.Server.Name = *name
		case "log-dir":
			cfg.Logging.Directory = *logDir
		case "debug":
			cfg.Server.Debug = *debug
			if *debug {
				cfg.Logging.Level = "debug"
			}
		case "no-mdns":
			cfg.Server.MDNS = !*noMDNS
		case "tui":
			cfg.Server.TUI = *useTUI
		case "engine":
			cfg.Processing.Engine = *engine
		case "workers":
			cfg.Processing.Workers = *workers
		case "temp-dir":
			cfg.Processing.TempDir = *tempDir
		case "bit-depth":
			cfg.Processing.OutputBitDepth = *bitDepth
		}
	})
}
