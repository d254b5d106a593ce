package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
)

// Default demo recording location
const DefaultDemoURL = "https://raw.githubusercontent.com/hkbatradar/SonoRadar/main/recording/demo_recording.wav"

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	// Application defaults
	if !v.IsSet("verbose") {
		v.SetDefault("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.SetDefault("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.SetDefault("output_format", "table")
	}
	if !v.IsSet("config_dir") {
		v.SetDefault("config_dir", filepath.Join(home, ".config", "batscope"))
	}
	if !v.IsSet("data_dir") {
		v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "batscope"))
	}

	setSpectrogramDefaults(v)
	setViewerDefaults(v)

	// Classifier, render and metrics defaults
	if !v.IsSet("classifier.rules_file") {
		v.SetDefault("classifier.rules_file", "")
	}
	if !v.IsSet("render.workers") {
		v.SetDefault("render.workers", 0)
	}
	if !v.IsSet("render.output_dir") {
		v.SetDefault("render.output_dir", ".")
	}
	if !v.IsSet("metrics.addr") {
		v.SetDefault("metrics.addr", "")
	}

	// Demo recording defaults
	if !v.IsSet("demo.url") {
		v.SetDefault("demo.url", DefaultDemoURL)
	}
	if !v.IsSet("demo.timeout") {
		v.SetDefault("demo.timeout", 60*time.Second)
	}
	if !v.IsSet("demo.user_agent") {
		v.SetDefault("demo.user_agent", "batscope/1.0")
	}
}

// setSpectrogramDefaults applies the fresh viewer render settings
func setSpectrogramDefaults(v *viper.Viper) {
	if !v.IsSet("spectrogram.fft_size") {
		v.SetDefault("spectrogram.fft_size", analyzers.DefaultFFTSize)
	}
	if !v.IsSet("spectrogram.overlap") {
		v.SetDefault("spectrogram.overlap", "auto")
	}
	if !v.IsSet("spectrogram.window") {
		v.SetDefault("spectrogram.window", string(analyzers.DefaultWindow))
	}
	if !v.IsSet("spectrogram.sample_rate") {
		v.SetDefault("spectrogram.sample_rate", "auto")
	}
	if !v.IsSet("spectrogram.display_width") {
		v.SetDefault("spectrogram.display_width", 1024)
	}
	if !v.IsSet("spectrogram.quick_screening") {
		v.SetDefault("spectrogram.quick_screening", false)
	}
	if !v.IsSet("spectrogram.brightness") {
		v.SetDefault("spectrogram.brightness", analyzers.DefaultBrightness)
	}
	if !v.IsSet("spectrogram.gain") {
		v.SetDefault("spectrogram.gain", analyzers.DefaultGain)
	}
	if !v.IsSet("spectrogram.contrast") {
		v.SetDefault("spectrogram.contrast", analyzers.DefaultContrast)
	}
}

// setViewerDefaults applies the drawing surface geometry
func setViewerDefaults(v *viper.Viper) {
	if !v.IsSet("viewer.spectrogram_height") {
		v.SetDefault("viewer.spectrogram_height", 800)
	}
	if !v.IsSet("viewer.freq_min") {
		v.SetDefault("viewer.freq_min", 0.0)
	}
	if !v.IsSet("viewer.freq_max") {
		v.SetDefault("viewer.freq_max", 128.0)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "batscope"),
		DataDir:      filepath.Join(home, ".local", "share", "batscope"),
		Spectrogram:  GetDefaultSpectrogramConfig(),
		Viewer:       GetDefaultViewerConfig(),
		Render: RenderConfig{
			OutputDir: ".",
		},
		Demo: DemoConfig{
			URL:       DefaultDemoURL,
			Timeout:   60 * time.Second,
			UserAgent: "batscope/1.0",
		},
	}
}

// GetDefaultSpectrogramConfig returns the fresh viewer render settings
func GetDefaultSpectrogramConfig() SpectrogramConfig {
	return SpectrogramConfig{
		FFTSize:      analyzers.DefaultFFTSize,
		Overlap:      "auto",
		Window:       string(analyzers.DefaultWindow),
		SampleRate:   "auto",
		DisplayWidth: 1024,
		Brightness:   analyzers.DefaultBrightness,
		Gain:         analyzers.DefaultGain,
		Contrast:     analyzers.DefaultContrast,
	}
}

// GetDefaultViewerConfig returns the default drawing surface geometry
func GetDefaultViewerConfig() ViewerConfig {
	return ViewerConfig{
		SpectrogramHeight: 800,
		FreqMin:           0,
		FreqMax:           128,
	}
}

// QuickScreeningSpectrogramConfig returns the quick screening preset
func QuickScreeningSpectrogramConfig() SpectrogramConfig {
	c := GetDefaultSpectrogramConfig()
	c.QuickScreening = true
	return c
}
