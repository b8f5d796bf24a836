// ABOUTME: Web host for the voice changer
// ABOUTME: Serves the upload page, the HTTP and WebSocket transform APIs, and metrics
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/config"
	"github.com/Resonate-Protocol/voicechanger-go/internal/discovery"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

// Config holds server configuration
type Config struct {
	BindAddress       string
	Port              int
	Name              string
	EnableMDNS        bool
	Debug             bool
	UseTUI            bool
	MaxUploadBytes    int64
	ProcessingTimeout time.Duration
	RequestsPerSecond float64
	Engine            resample.Engine
	Workers           int
	TempDir           string
	OutputBitDepth    int
	StrictRange       bool
	FFmpegTimeout     time.Duration
}

// FromConfig converts a loaded configuration file into server settings
func FromConfig(c *config.Config) (Config, error) {
	engine, err := resample.ParseEngine(c.Processing.Engine)
	if err != nil {
		return Config{}, err
	}
	return Config{
		BindAddress:       c.Server.BindAddress,
		Port:              c.Server.Port,
		Name:              c.Server.Name,
		EnableMDNS:        c.Server.MDNS,
		Debug:             c.Server.Debug,
		UseTUI:            c.Server.TUI,
		MaxUploadBytes:    c.Limits.MaxUploadBytes,
		ProcessingTimeout: c.Limits.ProcessingTimeout,
		RequestsPerSecond: c.Limits.RequestsPerSecond,
		Engine:            engine,
		Workers:           c.Processing.Workers,
		TempDir:           c.Processing.TempDir,
		OutputBitDepth:    c.Processing.OutputBitDepth,
		StrictRange:       c.Processing.StrictRange,
		FFmpegTimeout:     c.Processing.FFmpegTimeout,
	}, nil
}

// Server is the voice changer web host
type Server struct {
	config    Config
	processor *Processor
	handler   http.Handler

	upgrader websocket.Upgrader

	httpServer  *http.Server
	mdnsManager *discovery.Manager

	tui       *ServerTUI
	startTime time.Time
	stats     *jobStats

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new server instance
func New(config Config) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 50 << 20
	}

	s := &Server{
		config: config,
		processor: NewProcessor(ProcessorConfig{
			TempDir:        config.TempDir,
			MaxUploadBytes: config.MaxUploadBytes,
			Workers:        config.Workers,
			Engine:         config.Engine,
			StrictRange:    config.StrictRange,
			OutputBitDepth: config.OutputBitDepth,
			Timeout:        config.ProcessingTimeout,
			Decode:         decode.Options{FFmpegTimeout: config.FFmpegTimeout},
		}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" && origin != "http://"+r.Host {
					logrus.Warnf("Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		startTime: time.Now(),
		stats:     newJobStats(5),
		stopChan:  make(chan struct{}),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	router.Handle("/", s.instrument("index", http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet)
	router.Handle("/healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	if s.config.RequestsPerSecond > 0 {
		lmt := tollbooth.NewLimiter(s.config.RequestsPerSecond, &limiter.ExpirableOptions{
			DefaultExpirationTTL: time.Hour,
		})
		lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
		lmt.SetMessage(`{"error":"Too many requests","hint":"Wait a moment and try again"}`)
		lmt.SetMessageContentType("application/json")
		api.Use(func(next http.Handler) http.Handler {
			return tollbooth.LimitHandler(lmt, next)
		})
	}
	api.Handle("/inspect", s.instrument("inspect", http.HandlerFunc(s.handleInspect))).Methods(http.MethodPost)
	api.Handle("/transform", s.instrument("transform", http.HandlerFunc(s.handleTransform))).Methods(http.MethodPost)

	router.Handle("/ws", s.instrument("websocket", http.HandlerFunc(s.handleWebSocket)))

	router.NotFoundHandler = s.instrument("not_found", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	}))

	return sentryhttp.New(sentryhttp.Options{Repanic: false}).Handle(router)
}

// Start runs the server until Stop is called, the TUI quits or the listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.config.Name, s.config.Port); err != nil {
				logrus.Errorf("TUI error: %v", err)
			}
		}()

		time.Sleep(100 * time.Millisecond)
		s.updateTUI()
	}

	logrus.Infof("Server starting: %s", s.config.Name)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        "/",
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			logrus.Warnf("Failed to start mDNS advertisement: %v", err)
		} else {
			logrus.Info("mDNS advertisement started")
		}
	}

	addr := net.JoinHostPort(s.config.BindAddress, strconv.Itoa(s.config.Port))
	logrus.Infof("Listening on http://%s", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		logrus.Info("Server shutting down...")
	case <-tuiQuitChan:
		logrus.Info("TUI quit requested, shutting down...")
	case err := <-errChan:
		logrus.Errorf("HTTP server error: %v", err)
		serverErr = err
	}

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	s.processor.Close()
	s.wg.Wait()
	logrus.Info("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Close releases the worker pool of a server that was never started
func (s *Server) Close() {
	s.processor.Close()
}
