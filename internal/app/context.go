package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hkbatradar/Spectrogram/configs"
	"github.com/hkbatradar/Spectrogram/internal/autoid"
	"github.com/hkbatradar/Spectrogram/internal/metrics"
	"github.com/hkbatradar/Spectrogram/internal/render"
	"github.com/hkbatradar/Spectrogram/internal/session"
	"github.com/hkbatradar/Spectrogram/internal/species"
	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	OutputFile   string
	OutputFormat string
	// Timeout bounds each RenderFiles run; zero means no limit
	Timeout      time.Duration
	Verbose      bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// App wires the viewer components for one CLI invocation
type App struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger

	registry   *prometheus.Registry
	metrics    *metrics.Collectors
	classifier *species.Classifier
	settings   *analyzers.SpectrogramSettings
	colorMap   []color.RGBA
	renderer   *analyzers.SpectrogramRenderer
	session    *session.Session
	loader     *session.Loader
}

// New creates the application from ctx. A nil ctx.Config loads the viper
// configuration.
func New(ctx *Context) (*App, error) {
	if ctx == nil {
		ctx = &Context{}
	}

	config := ctx.Config
	if config == nil {
		loaded, err := configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		config = loaded
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.Verbose {
		config.Verbose = true
	}
	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx.Config = config

	logger := ctx.Logger
	if logger == nil {
		logger = setupLogging(config)
	}
	ctx.Logger = logger

	settings, err := config.Spectrogram.Settings()
	if err != nil {
		return nil, fmt.Errorf("invalid spectrogram settings: %w", err)
	}

	colorMap, err := analyzers.BuildColorMap(config.Spectrogram.Tone())
	if err != nil {
		return nil, fmt.Errorf("invalid spectrogram tone: %w", err)
	}

	classifier, err := loadClassifier(config.Classifier.RulesFile)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	sess := session.New()

	app := &App{
		ctx:        ctx,
		config:     config,
		logger:     logger,
		registry:   registry,
		metrics:    metrics.New(registry),
		classifier: classifier,
		settings:   settings,
		colorMap:   colorMap,
		renderer:   analyzers.NewSpectrogramRenderer(config.Render.Workers),
		session:    sess,
		loader: session.NewLoader(session.LoaderConfig{
			Session:   sess,
			Client:    &http.Client{Timeout: config.Demo.Timeout},
			DemoURL:   config.Demo.URL,
			UserAgent: config.Demo.UserAgent,
			Logger:    logger,
		}),
	}

	logger.Debug("Application initialized", logging.Fields{
		"output_format": config.OutputFormat,
		"fft_size":      settings.FFTSize,
		"overlap":       settings.Overlap.String(),
		"window":        string(settings.Window),
		"species_rules": len(classifier.Species()),
	})

	return app, nil
}

// setupLogging configures the logger from the configured level
func setupLogging(config *configs.Config) logging.Logger {
	if config.Verbose || config.LogLevel == "debug" {
		logging.SetLevel(logging.DebugLevel)
	} else {
		logging.SetLevel(logging.InfoLevel)
	}
	return logging.NewDefaultLogger()
}

func loadClassifier(rulesFile string) (*species.Classifier, error) {
	if rulesFile == "" {
		return species.NewClassifier(nil), nil
	}
	table, err := species.LoadRules(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier rules: %w", err)
	}
	return species.NewClassifier(table), nil
}

// Config returns the validated configuration
func (a *App) Config() *configs.Config { return a.config }

// Logger returns the application logger
func (a *App) Logger() logging.Logger { return a.logger }

// Classifier returns the species classifier
func (a *App) Classifier() *species.Classifier { return a.classifier }

// Settings returns the spectrogram render settings
func (a *App) Settings() *analyzers.SpectrogramSettings { return a.settings }

// ColorMap returns the palette renders are drawn with
func (a *App) ColorMap() []color.RGBA { return a.colorMap }

// Session returns the file session
func (a *App) Session() *session.Session { return a.session }

// Loader returns the session loader
func (a *App) Loader() *session.Loader { return a.loader }

// Registry returns the metrics registry
func (a *App) Registry() *prometheus.Registry { return a.registry }

// NewPanel creates an auto-id panel that reports to the app metrics
func (a *App) NewPanel(vp autoid.Viewport) *autoid.Panel {
	return autoid.NewPanel(autoid.PanelConfig{
		Classifier: a.classifier,
		Viewport:   vp,
		Recorder:   a.metrics,
	})
}

// NewWorker starts a render worker presenting to surface
func (a *App) NewWorker(surface render.Surface) *render.Worker {
	return render.NewWorker(render.Config{
		Renderer: a.renderer,
		Surface:  surface,
		Logger:   a.logger,
		Observer: a.metrics,
	})
}

// ServeMetrics exposes /metrics on the configured address until ctx is
// done. It returns nil at once when no address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	addr := a.config.Metrics.Addr
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Debug("Metrics endpoint listening", logging.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics endpoint failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics endpoint: %w", err)
		}
		return nil
	}
}
