package app

import (
	"errors"
	"fmt"

	"github.com/hkbatradar/Spectrogram/internal/autoid"
	"github.com/hkbatradar/Spectrogram/internal/species"
)

// MarkerReport is a placed marker as shown in the panel
type MarkerReport struct {
	Key   string  `json:"key" yaml:"key"`
	Title string  `json:"title" yaml:"title"`
	Freq  float64 `json:"freq_khz" yaml:"freq_khz"`
	Time  float64 `json:"time_s" yaml:"time_s"`
}

// TabReport is the auto-id outcome of one annotated pulse
type TabReport struct {
	Tab       int            `json:"tab" yaml:"tab"`
	CallType  string         `json:"call_type" yaml:"call_type"`
	Harmonic  int            `json:"harmonic" yaml:"harmonic"`
	Markers   []MarkerReport `json:"markers" yaml:"markers"`
	Bandwidth *float64       `json:"bandwidth_khz,omitempty" yaml:"bandwidth_khz,omitempty"`
	Duration  *float64       `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	Warnings  []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Missing   []string       `json:"missing,omitempty" yaml:"missing,omitempty"`
	Result    string         `json:"result,omitempty" yaml:"result,omitempty"`
	Label     string         `json:"label,omitempty" yaml:"label,omitempty"`
	Contour   string         `json:"contour,omitempty" yaml:"contour,omitempty"`
	Errors    []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Annotate replays doc into an auto-id panel and classifies every tab.
// Marker and classification failures are reported per tab; only a broken
// document fails the whole run.
func (a *App) Annotate(doc *AnnotationDocument) ([]TabReport, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	vp := a.annotationViewport(doc)
	panel := a.NewPanel(vp)

	reports := make([]TabReport, 0, len(doc.Tabs))
	for i, tab := range doc.Tabs {
		if err := panel.SwitchTab(i); err != nil {
			return nil, err
		}
		report := TabReport{Tab: i + 1}

		if tab.CallType != "" {
			ct, err := autoid.ParseCallType(tab.CallType)
			if err != nil {
				return nil, err
			}
			if err := panel.SetCallType(ct); err != nil {
				return nil, fmt.Errorf("tab %d: %w", i+1, err)
			}
		}
		if err := panel.SetHarmonic(tab.Harmonic); err != nil {
			return nil, fmt.Errorf("tab %d: %w", i+1, err)
		}

		positions := make(map[autoid.MarkerKey]MarkerPosition, len(tab.Markers))
		for name, pos := range tab.Markers {
			key, err := autoid.ParseMarkerKey(name)
			if err != nil {
				return nil, fmt.Errorf("tab %d: %w", i+1, err)
			}
			positions[key] = pos
		}

		// place in key order so reports are stable
		for _, key := range autoid.MarkerKeys() {
			pos, ok := positions[key]
			if !ok {
				continue
			}
			if err := panel.SetMarkerAt(key, pos.Freq, pos.Time); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
			}
		}

		result, err := panel.RunPulseID()
		switch {
		case err == nil:
			report.Result = result
			report.Label = species.FormatLabel(result)
		case errors.Is(err, autoid.ErrWarningsActive), errors.Is(err, autoid.ErrMissingRequired):
			report.Errors = append(report.Errors, err.Error())
		default:
			return nil, fmt.Errorf("tab %d: %w", i+1, err)
		}

		a.fillTabReport(&report, panel)
		reports = append(reports, report)
	}
	return reports, nil
}

func (a *App) fillTabReport(report *TabReport, panel *autoid.Panel) {
	t := panel.CurrentTab()
	report.CallType = t.CallType().String()
	report.Harmonic = t.Harmonic()

	for _, key := range autoid.MarkerKeys() {
		m := t.Marker(key)
		if !m.Placed {
			continue
		}
		report.Markers = append(report.Markers, MarkerReport{
			Key:   key.String(),
			Title: key.Title(m),
			Freq:  m.Frequency,
			Time:  m.Time,
		})
	}

	d := panel.Derived()
	if d.HasBandwidth() {
		report.Bandwidth = &d.Bandwidth
	}
	if d.HasDuration() {
		report.Duration = &d.Duration
	}

	report.Warnings = panel.Warnings().Messages()
	for _, key := range panel.Validation().Missing {
		report.Missing = append(report.Missing, key.String())
	}

	overlay := panel.Overlay()
	if idx := panel.CurrentIndex(); idx < len(overlay.Tabs) {
		report.Contour = overlay.Tabs[idx].Path
	}
}

// annotationViewport returns the document viewport, or one sized from the
// configured viewer that spans every marker
func (a *App) annotationViewport(doc *AnnotationDocument) autoid.Viewport {
	if doc.Viewport != nil {
		return *doc.Viewport
	}

	latest := 0.0
	for _, tab := range doc.Tabs {
		for _, pos := range tab.Markers {
			latest = max(latest, pos.Time)
		}
	}
	duration := 1.0
	if latest > 0 {
		duration = latest * 1.1
	}

	return autoid.Viewport{
		Duration:     duration,
		ContentWidth: float64(a.config.Spectrogram.DisplayWidth),
		Height:       float64(a.config.Viewer.SpectrogramHeight),
		FreqMin:      a.config.Viewer.FreqMin,
		FreqMax:      a.config.Viewer.FreqMax,
	}
}

// Classify matches one observation against the species table
func (a *App) Classify(obs species.Observation) string {
	result := a.classifier.Classify(obs)
	if result == species.NoMatch {
		a.metrics.RecordClassification(autoid.OutcomeNoMatch)
	} else {
		a.metrics.RecordClassification(autoid.OutcomeMatched)
	}
	return result
}
