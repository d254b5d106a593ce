package autoid

import (
	"fmt"
	"math"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

// Classification outcomes reported to the Recorder
const (
	OutcomeMatched         = "matched"
	OutcomeNoMatch         = "no_match"
	OutcomeBlockedWarnings = "blocked_warnings"
	OutcomeBlockedMissing  = "blocked_missing"
)

// Recorder receives one outcome per classification attempt
type Recorder interface {
	RecordClassification(outcome string)
}

// PanelConfig holds the collaborators of a Panel. Every field is optional.
type PanelConfig struct {
	Classifier *species.Classifier
	Viewport   Viewport
	Recorder   Recorder
	// HoverHook is called whenever the host should redraw its hover
	// readout, after drags end and on RefreshHover
	HoverHook func()
}

type markerDrag struct {
	key   MarkerKey
	moved bool
}

type handleDrag struct {
	tab   int
	seg   SegmentKey
	which HandleID
}

// Panel is the auto-id annotation state of up to eight pulses. It is not
// safe for concurrent use; every method runs to completion on the caller's
// goroutine.
type Panel struct {
	classifier *species.Classifier
	recorder   Recorder
	hoverHook  func()

	tabs     [TabCount]*Tab
	current  int
	viewport Viewport

	// placing is the field waiting for a surface click
	placing    MarkerKey
	hasPlacing bool

	// activeKey is the marker whose curve handles are shown
	activeKey MarkerKey
	hasActive bool

	ctrlPressed bool
	markerDrag  *markerDrag
	handleDrag  *handleDrag

	overlay Overlay
}

// NewPanel creates a panel with eight fresh tabs
func NewPanel(cfg PanelConfig) *Panel {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = species.NewClassifier(nil)
	}
	p := &Panel{
		classifier: classifier,
		recorder:   cfg.Recorder,
		hoverHook:  cfg.HoverHook,
		viewport:   cfg.Viewport,
	}
	for i := range p.tabs {
		p.tabs[i] = newTab()
	}
	p.UpdateMarkers()
	return p
}

// CurrentIndex returns the index of the current tab
func (p *Panel) CurrentIndex() int {
	return p.current
}

// CurrentTab returns the current tab
func (p *Panel) CurrentTab() *Tab {
	return p.tabs[p.current]
}

// Tab returns the tab at index i
func (p *Panel) Tab(i int) (*Tab, error) {
	if i < 0 || i >= TabCount {
		return nil, fmt.Errorf("%w: %d", ErrTabOutOfRange, i)
	}
	return p.tabs[i], nil
}

// Viewport returns the current pixel mapping
func (p *Panel) Viewport() Viewport {
	return p.viewport
}

// Overlay returns the presentation index built by the last UpdateMarkers
func (p *Panel) Overlay() Overlay {
	return p.overlay
}

// IsFieldEnabled reports whether key can be placed under the current call
// type
func (p *Panel) IsFieldEnabled(key MarkerKey) bool {
	return key.Valid() && p.CurrentTab().callType.Shows(key)
}

// Marker returns a marker of the current tab
func (p *Panel) Marker(key MarkerKey) Marker {
	return p.CurrentTab().Marker(key)
}

// SetMarkerAt places key on the current tab at freq kHz and time seconds.
// Curve segments touching key are recomputed and the tab's result is
// cleared.
func (p *Panel) SetMarkerAt(key MarkerKey, freq, time float64) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, int(key))
	}
	if !p.IsFieldEnabled(key) {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, key)
	}
	if !isFinite(freq) || !isFinite(time) {
		return fmt.Errorf("%w: freq=%v time=%v", ErrInvalidCoordinate, freq, time)
	}

	t := p.CurrentTab()
	t.place(key, freq, time)
	p.resetCurvesFor(key)
	p.clearResult()
	p.UpdateMarkers()
	return nil
}

// ResetField clears key on the current tab
func (p *Panel) ResetField(key MarkerKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, int(key))
	}
	p.resetField(key, true)
	p.UpdateMarkers()
	return nil
}

// RemoveMarker deletes a placed marker of the current tab
func (p *Panel) RemoveMarker(key MarkerKey) error {
	return p.ResetField(key)
}

func (p *Panel) resetField(key MarkerKey, clearResult bool) {
	p.CurrentTab().clear(key)
	if p.hasPlacing && p.placing == key {
		p.hasPlacing = false
	}
	if clearResult {
		p.clearResult()
	}
}

// ResetCurrentTab restores the current tab to its initial state
func (p *Panel) ResetCurrentTab() {
	p.CurrentTab().reset()
	p.hasPlacing = false
	p.hasActive = false
	p.markerDrag = nil
	p.handleDrag = nil
	p.UpdateMarkers()
}

// Reset restores every tab to its initial state and keeps the current
// index
func (p *Panel) Reset() {
	for _, t := range p.tabs {
		t.reset()
	}
	p.hasPlacing = false
	p.hasActive = false
	p.markerDrag = nil
	p.handleDrag = nil
	p.UpdateMarkers()
}

// SwitchTab makes tab i current and hides its missing-field flags until the
// next classification. Switching to the current tab does nothing.
func (p *Panel) SwitchTab(i int) error {
	if i < 0 || i >= TabCount {
		return fmt.Errorf("%w: %d", ErrTabOutOfRange, i)
	}
	if i == p.current {
		return nil
	}
	p.current = i
	p.CurrentTab().showValidation = false
	p.hasActive = false
	p.hasPlacing = false
	p.markerDrag = nil
	p.handleDrag = nil
	p.UpdateMarkers()
	return nil
}

// PrevTab moves to the previous tab and reports whether it moved
func (p *Panel) PrevTab() bool {
	if p.current == 0 {
		return false
	}
	return p.SwitchTab(p.current-1) == nil
}

// NextTab moves to the next tab and reports whether it moved
func (p *Panel) NextTab() bool {
	if p.current >= TabCount-1 {
		return false
	}
	return p.SwitchTab(p.current+1) == nil
}

// SetCallType selects the call type of the current tab. Markers hidden by
// the new type are cleared and missing-field flags are hidden again.
func (p *Panel) SetCallType(ct CallType) error {
	if !ct.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCallType, int(ct))
	}
	t := p.CurrentTab()
	t.callType = ct
	for _, key := range MarkerKeys() {
		if !ct.Shows(key) {
			p.resetField(key, false)
		}
	}
	p.clearResult()
	t.showValidation = false
	p.UpdateMarkers()
	return nil
}

// SetHarmonic selects the harmonic (0-3) of the current tab
func (p *Panel) SetHarmonic(h int) error {
	if h < 0 || h > MaxHarmonic {
		return fmt.Errorf("%w: %d", ErrInvalidHarmonic, h)
	}
	p.CurrentTab().harmonic = h
	p.clearResult()
	p.UpdateMarkers()
	return nil
}

// ActivateField toggles placement mode for key. While a field is active,
// markers are not interactive and the next ClickAt places it. It returns
// whether the field is now active.
func (p *Panel) ActivateField(key MarkerKey) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %d", ErrUnknownMarker, int(key))
	}
	if !p.IsFieldEnabled(key) {
		return false, fmt.Errorf("%w: %s", ErrFieldDisabled, key)
	}
	if p.hasPlacing && p.placing == key {
		p.hasPlacing = false
		return false, nil
	}
	p.placing = key
	p.hasPlacing = true
	return true, nil
}

// PlacingField returns the field waiting for a click, if any
func (p *Panel) PlacingField() (MarkerKey, bool) {
	return p.placing, p.hasPlacing
}

// MarkersEnabled reports whether markers respond to the pointer
func (p *Panel) MarkersEnabled() bool {
	return !p.hasPlacing
}

// ClickAt handles a click on the surface at pixel (x, y). Curve handles are
// hidden. When a field is active it is placed there, and the placed key is
// returned.
func (p *Panel) ClickAt(x, y float64) (MarkerKey, bool, error) {
	p.hasActive = false
	if !p.hasPlacing {
		p.UpdateMarkers()
		return 0, false, nil
	}
	key := p.placing
	p.hasPlacing = false
	time, freq, err := p.viewport.Locate(x, y)
	if err != nil {
		p.UpdateMarkers()
		return key, false, err
	}
	if err := p.SetMarkerAt(key, freq, time); err != nil {
		return key, false, err
	}
	return key, true, nil
}

// SelectMarker shows the curve handles anchored at key on the current tab
func (p *Panel) SelectMarker(key MarkerKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, int(key))
	}
	if !p.CurrentTab().markers[key].Placed {
		return nil
	}
	p.activeKey = key
	p.hasActive = true
	p.UpdateMarkers()
	return nil
}

// ActiveMarker returns the marker whose handles are shown
func (p *Panel) ActiveMarker() (MarkerKey, bool) {
	return p.activeKey, p.hasActive
}

// BeginMarkerDrag starts dragging a placed marker of the current tab
func (p *Panel) BeginMarkerDrag(key MarkerKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, int(key))
	}
	if !p.MarkersEnabled() || p.ctrlPressed {
		return ErrMarkersDisabled
	}
	if !p.CurrentTab().markers[key].Placed {
		return fmt.Errorf("%w: %s is not placed", ErrNoDrag, key)
	}
	p.markerDrag = &markerDrag{key: key}
	return nil
}

// DragMarker moves the dragged marker to pixel (x, y)
func (p *Panel) DragMarker(x, y float64) error {
	d := p.markerDrag
	if d == nil {
		return ErrNoDrag
	}
	time, freq, err := p.viewport.Locate(x, y)
	if err != nil {
		return err
	}
	if !d.moved {
		p.resetCurvesFor(d.key)
	}
	d.moved = true
	p.CurrentTab().place(d.key, freq, time)
	p.UpdateMarkers()
	return nil
}

// EndMarkerDrag finishes a marker drag. It reports whether the marker
// moved; a drag without movement counts as a click and selects the marker.
func (p *Panel) EndMarkerDrag() (bool, error) {
	d := p.markerDrag
	if d == nil {
		return false, ErrNoDrag
	}
	p.markerDrag = nil
	p.clearResult()
	if d.moved {
		p.resetCurvesFor(d.key)
	} else {
		p.activeKey = d.key
		p.hasActive = true
	}
	p.UpdateMarkers()
	p.RefreshHover()
	return d.moved, nil
}

// BeginHandleDrag starts dragging a control handle of segment seg on the
// current tab
func (p *Panel) BeginHandleDrag(seg SegmentKey, which HandleID) error {
	if !p.MarkersEnabled() {
		return ErrMarkersDisabled
	}
	if _, ok := p.CurrentTab().curves[seg]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSegment, seg)
	}
	if which != HandleCP1 && which != HandleCP2 {
		return fmt.Errorf("%w: handle %d", ErrUnknownSegment, int(which))
	}
	p.handleDrag = &handleDrag{tab: p.current, seg: seg, which: which}
	return nil
}

// DragHandle moves the dragged handle to pixel (x, y)
func (p *Panel) DragHandle(x, y float64) error {
	d := p.handleDrag
	if d == nil {
		return ErrNoDrag
	}
	curve, ok := p.tabs[d.tab].curves[d.seg]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSegment, d.seg)
	}
	time, freq, err := p.viewport.Locate(x, y)
	if err != nil {
		return err
	}
	if d.which == HandleCP1 {
		curve.CP1 = TimeFreq{Time: time, Freq: freq}
	} else {
		curve.CP2 = TimeFreq{Time: time, Freq: freq}
	}
	p.UpdateMarkers()
	return nil
}

// EndHandleDrag finishes a handle drag
func (p *Panel) EndHandleDrag() error {
	if p.handleDrag == nil {
		return ErrNoDrag
	}
	p.handleDrag = nil
	p.clearResult()
	p.UpdateMarkers()
	p.RefreshHover()
	return nil
}

// SetCtrlPressed records the state of the Ctrl key. Markers ignore the
// pointer while it is held.
func (p *Panel) SetCtrlPressed(pressed bool) {
	if p.ctrlPressed == pressed {
		return
	}
	p.ctrlPressed = pressed
	p.UpdateMarkers()
}

// SetViewport replaces the pixel mapping and repositions the overlay. Marker
// times and frequencies are not changed.
func (p *Panel) SetViewport(vp Viewport) {
	p.viewport = vp
	p.UpdateMarkers()
}

// SetFrequencyRange changes the displayed frequency bounds in kHz
func (p *Panel) SetFrequencyRange(lo, hi float64) {
	p.viewport.FreqMin = lo
	p.viewport.FreqMax = hi
	p.UpdateMarkers()
}

// UpdateMarkers rebuilds the presentation index of every tab from the
// stored markers and curves
func (p *Panel) UpdateMarkers() Overlay {
	if !p.viewport.Valid() {
		p.overlay = Overlay{Tabs: make([]TabView, TabCount)}
		for i := range p.overlay.Tabs {
			p.overlay.Tabs[i].Tab = i
		}
		return p.overlay
	}
	st := overlayState{
		current:     p.current,
		ctrlPressed: p.ctrlPressed,
		activeKey:   p.activeKey,
		hasActive:   p.hasActive,
	}
	if p.markerDrag != nil && p.markerDrag.moved {
		st.dragging = p.markerDrag.key
		st.isDragging = true
	}
	p.overlay = buildOverlay(p.tabs[:], p.viewport, st)
	return p.overlay
}

// RefreshHover asks the host to redraw its hover readout
func (p *Panel) RefreshHover() {
	if p.hoverHook != nil {
		p.hoverHook()
	}
}

// Derived returns the bandwidth and duration of the current tab
func (p *Panel) Derived() Derived {
	return deriveMeasurements(p.CurrentTab())
}

// Warnings evaluates the consistency checks of the current tab
func (p *Panel) Warnings() WarningReport {
	return evaluateWarnings(p.CurrentTab())
}

// Validation checks the required markers of the current tab
func (p *Panel) Validation() Validation {
	return validateMandatory(p.CurrentTab())
}

// CanClassify reports whether the classification actions are enabled
func (p *Panel) CanClassify() bool {
	return !p.Warnings().Active()
}

// Observation returns the classifier input built from the current tab
func (p *Panel) Observation() species.Observation {
	return buildObservation(p.CurrentTab())
}

// RunPulseID classifies the current tab and stores the label as its result.
// Missing required markers are flagged from then on.
func (p *Panel) RunPulseID() (string, error) {
	t := p.CurrentTab()
	if p.Warnings().Active() {
		p.record(OutcomeBlockedWarnings)
		return "", ErrWarningsActive
	}

	t.showValidation = true
	if v := validateMandatory(t); !v.Complete() {
		t.result = ""
		p.UpdateMarkers()
		p.record(OutcomeBlockedMissing)
		return "", fmt.Errorf("%w: %v", ErrMissingRequired, v.Missing)
	}

	label := p.classifier.Classify(buildObservation(t))
	t.result = label
	p.UpdateMarkers()
	if label == species.NoMatch {
		p.record(OutcomeNoMatch)
	} else {
		p.record(OutcomeMatched)
	}
	return label, nil
}

// RunSequenceID classifies a sequence of pulses. It currently classifies the
// current pulse only.
func (p *Panel) RunSequenceID() (string, error) {
	return p.RunPulseID()
}

func (p *Panel) record(outcome string) {
	if p.recorder != nil {
		p.recorder.RecordClassification(outcome)
	}
}

func (p *Panel) clearResult() {
	p.CurrentTab().result = ""
}

// resetCurvesFor drops the curves touching key and hides the handles
func (p *Panel) resetCurvesFor(key MarkerKey) {
	p.CurrentTab().resetCurvesFor(key)
	p.hasActive = false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
