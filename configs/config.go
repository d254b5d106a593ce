package configs

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Spectrogram rendering configuration
	Spectrogram SpectrogramConfig `mapstructure:"spectrogram"`

	// Viewer geometry
	Viewer ViewerConfig `mapstructure:"viewer"`

	// Species classifier configuration
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// Render worker configuration
	Render RenderConfig `mapstructure:"render"`

	// Metrics endpoint configuration
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Demo recording configuration
	Demo DemoConfig `mapstructure:"demo"`
}

// SpectrogramConfig contains the user-selectable render settings
type SpectrogramConfig struct {
	FFTSize        int    `mapstructure:"fft_size"`
	Overlap        string `mapstructure:"overlap"`
	Window         string `mapstructure:"window"`
	SampleRate     string `mapstructure:"sample_rate"`
	DisplayWidth   int    `mapstructure:"display_width"`
	QuickScreening bool   `mapstructure:"quick_screening"`

	// Palette tone, see analyzers.BuildColorMap
	Brightness float64 `mapstructure:"brightness"`
	Gain       float64 `mapstructure:"gain"`
	Contrast   float64 `mapstructure:"contrast"`
}

// ViewerConfig contains the drawing surface geometry
type ViewerConfig struct {
	SpectrogramHeight int     `mapstructure:"spectrogram_height"`
	FreqMin           float64 `mapstructure:"freq_min"`
	FreqMax           float64 `mapstructure:"freq_max"`
}

// ClassifierConfig contains species rule settings
type ClassifierConfig struct {
	// RulesFile overrides the embedded rule table when set
	RulesFile string `mapstructure:"rules_file"`
}

// RenderConfig contains render worker settings
type RenderConfig struct {
	Workers   int    `mapstructure:"workers"`
	OutputDir string `mapstructure:"output_dir"`
}

// MetricsConfig contains the Prometheus endpoint settings
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables the endpoint
	Addr string `mapstructure:"addr"`
}

// DemoConfig contains the demo recording fetch settings
type DemoConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Settings builds the render settings the configuration selects
func (c SpectrogramConfig) Settings() (*analyzers.SpectrogramSettings, error) {
	s := analyzers.NewSpectrogramSettings()

	rate, err := analyzers.ParseSampleRate(c.SampleRate)
	if err != nil {
		return nil, err
	}
	if err := s.SetSampleRate(rate); err != nil {
		return nil, err
	}
	if err := s.SetFFTSize(c.FFTSize); err != nil {
		return nil, err
	}

	window, err := analyzers.ParseWindowType(c.Window)
	if err != nil {
		return nil, err
	}
	s.Window = window

	if c.QuickScreening {
		s.ToggleQuickPreset()
		return s, nil
	}

	overlap, err := analyzers.ParseOverlap(c.Overlap)
	if err != nil {
		return nil, err
	}
	s.SetOverlap(overlap)
	return s, nil
}

// Tone returns the palette tone the configuration selects
func (c SpectrogramConfig) Tone() analyzers.ToneSettings {
	return analyzers.ToneSettings{
		Brightness: c.Brightness,
		Gain:       c.Gain,
		Contrast:   c.Contrast,
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, config.LogLevel) {
		return fmt.Errorf("log level %q must be one of debug, info, warn, error", config.LogLevel)
	}

	if !slices.Contains([]string{"json", "yaml", "csv", "table"}, config.OutputFormat) {
		return fmt.Errorf("output format %q must be one of json, yaml, csv, table", config.OutputFormat)
	}

	if !slices.Contains(analyzers.AllowedFFTSizes, config.Spectrogram.FFTSize) {
		return fmt.Errorf("fft size %d must be one of %v", config.Spectrogram.FFTSize, analyzers.AllowedFFTSizes)
	}

	if _, err := analyzers.ParseOverlap(config.Spectrogram.Overlap); err != nil {
		return fmt.Errorf("invalid spectrogram overlap: %w", err)
	}

	if _, err := analyzers.ParseWindowType(config.Spectrogram.Window); err != nil {
		return fmt.Errorf("invalid spectrogram window: %w", err)
	}

	if _, err := analyzers.ParseSampleRate(config.Spectrogram.SampleRate); err != nil {
		return fmt.Errorf("invalid spectrogram sample rate: %w", err)
	}

	if config.Spectrogram.DisplayWidth <= 0 {
		return fmt.Errorf("display width must be positive")
	}

	if err := config.Spectrogram.Tone().Validate(); err != nil {
		return fmt.Errorf("invalid spectrogram tone: %w", err)
	}

	if config.Viewer.SpectrogramHeight <= 0 {
		return fmt.Errorf("spectrogram height must be positive")
	}

	if config.Viewer.FreqMin < 0 || config.Viewer.FreqMax <= config.Viewer.FreqMin {
		return fmt.Errorf("frequency range [%g, %g] kHz is invalid", config.Viewer.FreqMin, config.Viewer.FreqMax)
	}

	if config.Render.Workers < 0 {
		return fmt.Errorf("render workers cannot be negative")
	}

	if config.Demo.Timeout <= 0 {
		return fmt.Errorf("demo fetch timeout must be positive")
	}

	return nil
}
