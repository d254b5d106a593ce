package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hkbatradar/Spectrogram/internal/autoid"
)

// AnnotationDocument is a saved set of pulse annotations
type AnnotationDocument struct {
	// Viewport is optional; without it markers are placed by time and
	// frequency only and no contour paths are drawn
	Viewport *autoid.Viewport `yaml:"viewport,omitempty" json:"viewport,omitempty"`
	Tabs     []TabAnnotation  `yaml:"tabs" json:"tabs"`
}

// TabAnnotation is the annotation of one pulse
type TabAnnotation struct {
	CallType string                    `yaml:"call_type" json:"call_type"`
	Harmonic int                       `yaml:"harmonic" json:"harmonic"`
	Markers  map[string]MarkerPosition `yaml:"markers" json:"markers"`
}

// MarkerPosition places one marker in kHz and seconds
type MarkerPosition struct {
	Freq float64 `yaml:"freq" json:"freq"`
	Time float64 `yaml:"time" json:"time"`
}

// Validate checks tab count, call types, harmonics and marker names
func (d *AnnotationDocument) Validate() error {
	if len(d.Tabs) == 0 {
		return fmt.Errorf("annotation has no tabs")
	}
	if len(d.Tabs) > autoid.TabCount {
		return fmt.Errorf("annotation has %d tabs, at most %d are supported", len(d.Tabs), autoid.TabCount)
	}
	if d.Viewport != nil && !d.Viewport.Valid() {
		return fmt.Errorf("annotation viewport is invalid")
	}

	for i, tab := range d.Tabs {
		if tab.CallType != "" {
			if _, err := autoid.ParseCallType(tab.CallType); err != nil {
				return fmt.Errorf("tab %d: %w", i+1, err)
			}
		}
		if tab.Harmonic < 0 || tab.Harmonic > autoid.MaxHarmonic {
			return fmt.Errorf("tab %d: harmonic %d must be between 0 and %d", i+1, tab.Harmonic, autoid.MaxHarmonic)
		}
		for name := range tab.Markers {
			if _, err := autoid.ParseMarkerKey(name); err != nil {
				return fmt.Errorf("tab %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// LoadAnnotationFile loads an annotation document from a YAML or JSON file
func LoadAnnotationFile(filePath string) (*AnnotationDocument, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("annotation file does not exist: %s", filePath)
	}

	var (
		doc *AnnotationDocument
		err error
	)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		doc, err = loadAnnotationFromYAML(filePath)
	case ".json":
		doc, err = loadAnnotationFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		doc, err = loadAnnotationFromYAML(filePath)
		if err != nil {
			doc, err = loadAnnotationFromJSON(filePath)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid annotation file %s: %w", filePath, err)
	}
	return doc, nil
}

func readAll(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// loadAnnotationFromYAML loads an annotation document from a YAML file
func loadAnnotationFromYAML(filePath string) (*AnnotationDocument, error) {
	data, err := readAll(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML annotation file: %w", err)
	}

	var doc AnnotationDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML annotation: %w", err)
	}
	return &doc, nil
}

// loadAnnotationFromJSON loads an annotation document from a JSON file
func loadAnnotationFromJSON(filePath string) (*AnnotationDocument, error) {
	data, err := readAll(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON annotation file: %w", err)
	}

	var doc AnnotationDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON annotation: %w", err)
	}
	return &doc, nil
}

// GenerateExampleAnnotation writes a one-pulse annotation file
func GenerateExampleAnnotation(outputFile string) error {
	example := &AnnotationDocument{
		Viewport: &autoid.Viewport{
			Duration:     0.1,
			ContentWidth: 1000,
			Height:       autoid.DefaultSpectrogramHeight,
			FreqMin:      0,
			FreqMax:      128,
		},
		Tabs: []TabAnnotation{{
			CallType: autoid.CallTypeQCF.String(),
			Markers: map[string]MarkerPosition{
				autoid.KeyHigh.String(): {Freq: 47, Time: 0.010},
				autoid.KeyLow.String():  {Freq: 45, Time: 0.014},
			},
		}},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example annotation: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write annotation file: %w", err)
	}
	return nil
}
