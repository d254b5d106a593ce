package app

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"gopkg.in/yaml.v3"
)

// Output formats data in the configured format and writes it to the output
// file, or to w when no file is set
func (a *App) Output(data any, w io.Writer) error {
	formatted, err := a.format(data)
	if err != nil {
		return err
	}

	if a.ctx.OutputFile != "" {
		return a.writeToFile(formatted)
	}
	_, err = w.Write(formatted)
	return err
}

func (a *App) format(data any) ([]byte, error) {
	var formatter output.Formatter
	switch a.config.OutputFormat {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	// the formatters work on plain maps and slices
	plain, err := toPlain(data)
	if err != nil {
		return nil, err
	}

	formatted, err := formatter.Format(plain, true)
	if err != nil {
		return nil, fmt.Errorf("failed to format output data: %w", err)
	}
	return formatted, nil
}

// toPlain converts tagged structs into maps and slices through YAML, then
// replaces non-finite floats, which JSON cannot carry
func toPlain(data any) (any, error) {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output data: %w", err)
	}
	var plain any
	if err := yaml.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("failed to decode output data: %w", err)
	}
	return sanitizeForJSON(plain), nil
}

// sanitizeForJSON recursively replaces infinite and NaN values
func sanitizeForJSON(data any) any {
	switch v := data.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil
		}
		return v
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = sanitizeForJSON(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = sanitizeForJSON(val)
		}
		return result
	default:
		return v
	}
}

// writeToFile writes data to the output file
func (a *App) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(a.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(a.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	a.logger.Debug("Results written to file", logging.Fields{
		"output_file": a.ctx.OutputFile,
		"size_bytes":  len(data),
		"format":      strings.ToLower(a.config.OutputFormat),
	})
	return nil
}
