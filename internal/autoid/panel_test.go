package autoid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

// 0.1 s across 1000 px, 0-128 kHz over 800 px: x = t*10000, y = 800 - 6.25f
var testViewport = Viewport{
	Duration:     0.1,
	ContentWidth: 1000,
	Height:       DefaultSpectrogramHeight,
	FreqMin:      0,
	FreqMax:      128,
}

type countingRecorder struct {
	outcomes map[string]int
}

func (r *countingRecorder) RecordClassification(outcome string) {
	r.outcomes[outcome]++
}

type PanelTestSuite struct {
	suite.Suite
	panel    *Panel
	recorder *countingRecorder
	hovers   int
}

func (suite *PanelTestSuite) SetupTest() {
	suite.recorder = &countingRecorder{outcomes: make(map[string]int)}
	suite.hovers = 0
	suite.panel = NewPanel(PanelConfig{
		Viewport:  testViewport,
		Recorder:  suite.recorder,
		HoverHook: func() { suite.hovers++ },
	})
}

func (suite *PanelTestSuite) place(key MarkerKey, freq, time float64) {
	suite.Require().NoError(suite.panel.SetMarkerAt(key, freq, time))
}

func (suite *PanelTestSuite) TestMarkerRoundTrip() {
	suite.place(KeyHigh, 80.0, 0.015)

	m := suite.panel.Marker(KeyHigh)
	suite.Equal(80.0, m.Frequency)
	suite.Equal(0.015, m.Time)
	suite.True(m.Placed)
	suite.Equal("80.0", m.DisplayValue())

	suite.Require().NoError(suite.panel.ResetField(KeyHigh))
	suite.Equal(Marker{}, suite.panel.Marker(KeyHigh))
	suite.Equal("", suite.panel.Marker(KeyHigh).DisplayValue())
}

func (suite *PanelTestSuite) TestSetMarkerAtRejects() {
	suite.ErrorIs(suite.panel.SetMarkerAt(MarkerKey(42), 1, 1), ErrUnknownMarker)
	suite.ErrorIs(suite.panel.SetMarkerAt(KeyCFStart, 80, 0.01), ErrFieldDisabled)
	suite.ErrorIs(suite.panel.SetMarkerAt(KeyHigh, 80, nan()), ErrInvalidCoordinate)
	suite.False(suite.panel.CurrentTab().HasMarkers())
}

func (suite *PanelTestSuite) TestTabIsolation() {
	suite.place(KeyHigh, 70, 0.010)
	suite.place(KeyLow, 45, 0.016)
	suite.Require().NoError(suite.panel.SetHarmonic(2))
	before := suite.panel.CurrentTab().Markers()

	suite.Require().NoError(suite.panel.SwitchTab(1))
	suite.Equal(1, suite.panel.CurrentIndex())
	suite.False(suite.panel.CurrentTab().HasMarkers())
	suite.Equal(0, suite.panel.CurrentTab().Harmonic())
	suite.place(KeyKnee, 50, 0.012)

	suite.Require().NoError(suite.panel.SwitchTab(0))
	suite.Equal(before, suite.panel.CurrentTab().Markers())
	suite.Equal(2, suite.panel.CurrentTab().Harmonic())
	suite.False(suite.panel.Marker(KeyKnee).Placed)

	suite.ErrorIs(suite.panel.SwitchTab(TabCount), ErrTabOutOfRange)
	suite.ErrorIs(suite.panel.SwitchTab(-1), ErrTabOutOfRange)
}

func (suite *PanelTestSuite) TestSwitchToCurrentTabKeepsSelection() {
	suite.place(KeyHigh, 80, 0.010)
	suite.place(KeyLow, 40, 0.020)
	suite.Require().NoError(suite.panel.SelectMarker(KeyHigh))

	suite.Require().NoError(suite.panel.SwitchTab(0))
	_, active := suite.panel.ActiveMarker()
	suite.True(active)
}

func (suite *PanelTestSuite) TestTabNavigation() {
	suite.False(suite.panel.PrevTab())
	for i := 1; i < TabCount; i++ {
		suite.True(suite.panel.NextTab())
		suite.Equal(i, suite.panel.CurrentIndex())
	}
	suite.False(suite.panel.NextTab())
	suite.True(suite.panel.PrevTab())
	suite.Equal(TabCount-2, suite.panel.CurrentIndex())
}

func (suite *PanelTestSuite) TestWarningsDisableClassification() {
	suite.Require().NoError(suite.panel.SetCallType(CallTypeFM))
	suite.place(KeyHigh, 40, 0.010)
	suite.place(KeyLow, 50, 0.015)

	report := suite.panel.Warnings()
	suite.True(report.Has(WarnHighFreq))
	suite.True(report.Has(WarnLowFreq))
	suite.True(report.Flagged[KeyHigh])
	suite.False(suite.panel.CanClassify())

	_, err := suite.panel.RunPulseID()
	suite.ErrorIs(err, ErrWarningsActive)
	_, err = suite.panel.RunSequenceID()
	suite.ErrorIs(err, ErrWarningsActive)
	suite.Equal(2, suite.recorder.outcomes[OutcomeBlockedWarnings])
	suite.Empty(suite.panel.CurrentTab().Result())
}

func (suite *PanelTestSuite) TestLazyValidation() {
	v := suite.panel.Validation()
	suite.Equal([]MarkerKey{KeyHigh, KeyLow, KeyKnee}, v.Missing)
	suite.Empty(v.Invalid)

	_, err := suite.panel.RunPulseID()
	suite.ErrorIs(err, ErrMissingRequired)
	suite.Equal(1, suite.recorder.outcomes[OutcomeBlockedMissing])

	v = suite.panel.Validation()
	suite.True(v.Invalid[KeyHigh])
	suite.True(v.Invalid[KeyLow])
	suite.True(v.Invalid[KeyKnee])

	suite.place(KeyHigh, 70, 0.010)
	v = suite.panel.Validation()
	suite.False(v.Invalid[KeyHigh])
	suite.True(v.Invalid[KeyLow])

	suite.Require().NoError(suite.panel.SetCallType(CallTypeFM))
	suite.Empty(suite.panel.Validation().Invalid)
}

func (suite *PanelTestSuite) TestSwitchTabHidesValidation() {
	_, err := suite.panel.RunPulseID()
	suite.Require().ErrorIs(err, ErrMissingRequired)
	suite.Require().NotEmpty(suite.panel.Validation().Invalid)

	suite.Require().NoError(suite.panel.SwitchTab(1))
	_, err = suite.panel.RunPulseID()
	suite.Require().ErrorIs(err, ErrMissingRequired)
	suite.Require().NotEmpty(suite.panel.Validation().Invalid)

	suite.Require().NoError(suite.panel.SwitchTab(0))
	suite.Empty(suite.panel.Validation().Invalid)
	suite.Require().NoError(suite.panel.SwitchTab(1))
	suite.Empty(suite.panel.Validation().Invalid)

	// staying on the tab keeps the flags
	_, _ = suite.panel.RunPulseID()
	suite.Require().NoError(suite.panel.SwitchTab(1))
	suite.NotEmpty(suite.panel.Validation().Invalid)
}

func (suite *PanelTestSuite) TestRunPulseID() {
	suite.Require().NoError(suite.panel.SetCallType(CallTypeQCF))
	suite.place(KeyHigh, 47, 0.010)
	suite.place(KeyLow, 45, 0.014)
	suite.Require().True(suite.panel.CanClassify())

	label, err := suite.panel.RunPulseID()
	suite.Require().NoError(err)
	suite.Equal("Pipistrellus abramus", label)
	suite.Equal(label, suite.panel.CurrentTab().Result())
	suite.Equal(1, suite.recorder.outcomes[OutcomeMatched])

	result := suite.panel.Overlay().Tabs[0].Result
	suite.Require().NotNil(result)
	suite.Equal("*Pipistrellus abramus*", result.Label)
	suite.InDelta(120.0, result.X, 1e-9)
	suite.InDelta(800-6.25*45+ResultOffset, result.Y, 1e-9)
	suite.False(result.Inactive)

	suite.Require().NoError(suite.panel.SwitchTab(3))
	result = suite.panel.Overlay().Tabs[0].Result
	suite.Require().NotNil(result)
	suite.True(result.Inactive)
	suite.Nil(suite.panel.Overlay().Tabs[3].Result)
}

func (suite *PanelTestSuite) TestNoMatchOutcome() {
	suite.Require().NoError(suite.panel.SetCallType(CallTypeQCF))
	suite.place(KeyHigh, 90.5, 0.010)
	suite.place(KeyLow, 90, 0.014)

	label, err := suite.panel.RunPulseID()
	suite.Require().NoError(err)
	suite.Equal(species.NoMatch, label)
	suite.Equal(1, suite.recorder.outcomes[OutcomeNoMatch])
}

func (suite *PanelTestSuite) TestMutationsClearResult() {
	suite.Require().NoError(suite.panel.SetCallType(CallTypeQCF))
	suite.place(KeyHigh, 47, 0.010)
	suite.place(KeyLow, 45, 0.014)

	run := func() {
		_, err := suite.panel.RunPulseID()
		suite.Require().NoError(err)
		suite.Require().NotEmpty(suite.panel.CurrentTab().Result())
	}

	run()
	suite.place(KeyLow, 45.2, 0.014)
	suite.Empty(suite.panel.CurrentTab().Result())

	run()
	suite.Require().NoError(suite.panel.SetHarmonic(1))
	suite.Empty(suite.panel.CurrentTab().Result())

	run()
	suite.Require().NoError(suite.panel.ResetField(KeyStart))
	suite.Empty(suite.panel.CurrentTab().Result())
}

func (suite *PanelTestSuite) TestCallTypeHidesFields() {
	suite.place(KeyKnee, 50, 0.012)
	suite.place(KeyHigh, 70, 0.010)
	suite.True(suite.panel.IsFieldEnabled(KeyKnee))
	suite.False(suite.panel.IsFieldEnabled(KeyCFStart))

	suite.Require().NoError(suite.panel.SetCallType(CallTypeQCF))
	suite.False(suite.panel.IsFieldEnabled(KeyKnee))
	suite.False(suite.panel.Marker(KeyKnee).Placed)
	suite.True(suite.panel.Marker(KeyHigh).Placed)

	suite.Require().NoError(suite.panel.SetCallType(CallTypeCFFM))
	suite.False(suite.panel.Marker(KeyHigh).Placed)
	suite.True(suite.panel.IsFieldEnabled(KeyCFStart))

	suite.ErrorIs(suite.panel.SetCallType(CallType(9)), ErrInvalidCallType)
	suite.ErrorIs(suite.panel.SetHarmonic(4), ErrInvalidHarmonic)
}

func (suite *PanelTestSuite) TestResetCurrentTab() {
	suite.Require().NoError(suite.panel.SetCallType(CallTypeFM))
	suite.Require().NoError(suite.panel.SetHarmonic(3))
	suite.place(KeyHigh, 80, 0.010)
	suite.place(KeyLow, 40, 0.020)
	suite.Require().NoError(suite.panel.SwitchTab(1))
	suite.place(KeyHigh, 80, 0.010)

	suite.panel.ResetCurrentTab()
	tab := suite.panel.CurrentTab()
	suite.Equal(CallTypeFMQCF, tab.CallType())
	suite.False(tab.HasMarkers())

	first, err := suite.panel.Tab(0)
	suite.Require().NoError(err)
	suite.True(first.HasMarkers())
	suite.Equal(1, first.CurveCount())

	suite.panel.Reset()
	suite.False(first.HasMarkers())
	suite.Equal(0, first.CurveCount())
	suite.Equal(0, first.Harmonic())
	suite.Equal(1, suite.panel.CurrentIndex())
}

func (suite *PanelTestSuite) TestClickToPlace() {
	active, err := suite.panel.ActivateField(KeyHigh)
	suite.Require().NoError(err)
	suite.True(active)
	suite.False(suite.panel.MarkersEnabled())

	key, placed, err := suite.panel.ClickAt(100, 400)
	suite.Require().NoError(err)
	suite.True(placed)
	suite.Equal(KeyHigh, key)
	suite.True(suite.panel.MarkersEnabled())

	m := suite.panel.Marker(KeyHigh)
	suite.InDelta(0.01, m.Time, 1e-12)
	suite.InDelta(64.0, m.Frequency, 1e-12)

	_, placed, err = suite.panel.ClickAt(300, 300)
	suite.Require().NoError(err)
	suite.False(placed)

	active, err = suite.panel.ActivateField(KeyLow)
	suite.Require().NoError(err)
	suite.True(active)
	active, err = suite.panel.ActivateField(KeyLow)
	suite.Require().NoError(err)
	suite.False(active)
	suite.True(suite.panel.MarkersEnabled())

	_, err = suite.panel.ActivateField(KeyCFEnd)
	suite.ErrorIs(err, ErrFieldDisabled)
}

func (suite *PanelTestSuite) TestMarkerDrag() {
	suite.place(KeyHigh, 80, 0.010)
	suite.place(KeyLow, 40, 0.020)
	seg := SegmentKey{From: KeyHigh, To: KeyLow}
	_, ok := suite.panel.CurrentTab().Curve(seg)
	suite.Require().True(ok)

	suite.Require().NoError(suite.panel.BeginMarkerDrag(KeyLow))
	suite.Require().NoError(suite.panel.DragMarker(300, 480))
	suite.Empty(suite.panel.Overlay().Tabs[0].Handles, "dragged segments have no handles")

	m := suite.panel.Marker(KeyLow)
	suite.InDelta(0.03, m.Time, 1e-12)
	suite.InDelta(51.2, m.Frequency, 1e-9)

	moved, err := suite.panel.EndMarkerDrag()
	suite.Require().NoError(err)
	suite.True(moved)
	suite.Equal(1, suite.hovers)
	suite.Len(suite.panel.Overlay().Tabs[0].Handles, 2)

	_, err = suite.panel.EndMarkerDrag()
	suite.ErrorIs(err, ErrNoDrag)
	suite.ErrorIs(suite.panel.DragMarker(1, 1), ErrNoDrag)
}

func (suite *PanelTestSuite) TestMarkerClickShowsHandles() {
	suite.place(KeyHigh, 80, 0.010)
	suite.place(KeyLow, 40, 0.020)
	suite.Empty(suite.panel.Overlay().VisibleHandles())

	suite.Require().NoError(suite.panel.BeginMarkerDrag(KeyHigh))
	moved, err := suite.panel.EndMarkerDrag()
	suite.Require().NoError(err)
	suite.False(moved)

	visible := suite.panel.Overlay().VisibleHandles()
	suite.Require().Len(visible, 1)
	suite.Equal(HandleCP1, visible[0].Which)
	suite.Equal(KeyHigh, visible[0].Anchor())

	suite.Require().NoError(suite.panel.SelectMarker(KeyLow))
	visible = suite.panel.Overlay().VisibleHandles()
	suite.Require().Len(visible, 1)
	suite.Equal(HandleCP2, visible[0].Which)

	_, _, err = suite.panel.ClickAt(10, 10)
	suite.Require().NoError(err)
	suite.Empty(suite.panel.Overlay().VisibleHandles())
}

func (suite *PanelTestSuite) TestMarkersDisabled() {
	suite.place(KeyHigh, 80, 0.010)
	_, err := suite.panel.ActivateField(KeyLow)
	suite.Require().NoError(err)
	suite.ErrorIs(suite.panel.BeginMarkerDrag(KeyHigh), ErrMarkersDisabled)

	_, err = suite.panel.ActivateField(KeyLow)
	suite.Require().NoError(err)
	suite.panel.SetCtrlPressed(true)
	suite.ErrorIs(suite.panel.BeginMarkerDrag(KeyHigh), ErrMarkersDisabled)
	mv, ok := suite.panel.Overlay().Marker(0, KeyHigh)
	suite.Require().True(ok)
	suite.False(mv.Interactive)

	suite.panel.SetCtrlPressed(false)
	mv, _ = suite.panel.Overlay().Marker(0, KeyHigh)
	suite.True(mv.Interactive)
	suite.ErrorIs(suite.panel.BeginMarkerDrag(KeyLow), ErrNoDrag)
}

func (suite *PanelTestSuite) TestHandleDrag() {
	suite.place(KeyHigh, 80, 0.010)
	suite.place(KeyLow, 40, 0.020)
	seg := SegmentKey{From: KeyHigh, To: KeyLow}

	suite.Require().NoError(suite.panel.BeginHandleDrag(seg, HandleCP1))
	suite.Require().NoError(suite.panel.DragHandle(150, 300))
	suite.Require().NoError(suite.panel.EndHandleDrag())

	curve, ok := suite.panel.CurrentTab().Curve(seg)
	suite.Require().True(ok)
	suite.InDelta(0.015, curve.CP1.Time, 1e-12)
	suite.InDelta(80.0, curve.CP1.Freq, 1e-12)

	// stored handles follow scrolling
	vp := testViewport
	vp.ScrollLeft = 50
	suite.panel.SetViewport(vp)
	curve, ok = suite.panel.CurrentTab().Curve(seg)
	suite.Require().True(ok)
	suite.InDelta(0.015, curve.CP1.Time, 1e-12)

	handles := suite.panel.Overlay().Tabs[0].Handles
	suite.Require().Len(handles, 2)
	suite.Equal(HandleCP1, handles[0].Which)
	suite.InDelta(100.0, handles[0].X, 1e-9)
	suite.InDelta(300.0, handles[0].Y, 1e-9)

	suite.ErrorIs(suite.panel.BeginHandleDrag(SegmentKey{From: KeyKnee, To: KeyLow}, HandleCP1), ErrUnknownSegment)
	suite.ErrorIs(suite.panel.EndHandleDrag(), ErrNoDrag)
}

var badPointerCases = []struct {
	name     string
	viewport Viewport
	x, y     float64
	want     error
}{
	{"zero viewport", Viewport{}, 300, 480, ErrInvalidViewport},
	{"zero height", Viewport{Duration: 0.1, ContentWidth: 1000, FreqMax: 128}, 300, 480, ErrInvalidViewport},
	{"NaN x", testViewport, math.NaN(), 480, ErrInvalidCoordinate},
	{"NaN y", testViewport, 300, math.NaN(), ErrInvalidCoordinate},
	{"+Inf x", testViewport, math.Inf(1), 480, ErrInvalidCoordinate},
	{"-Inf y", testViewport, 300, math.Inf(-1), ErrInvalidCoordinate},
}

func (suite *PanelTestSuite) TestDragMarkerRejectsBadPointer() {
	for _, tt := range badPointerCases {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			suite.place(KeyHigh, 80, 0.010)
			suite.place(KeyLow, 40, 0.020)
			seg := SegmentKey{From: KeyHigh, To: KeyLow}
			before, ok := suite.panel.CurrentTab().Curve(seg)
			suite.Require().True(ok)

			suite.panel.SetViewport(tt.viewport)
			suite.Require().NoError(suite.panel.BeginMarkerDrag(KeyLow))
			suite.ErrorIs(suite.panel.DragMarker(tt.x, tt.y), tt.want)

			m := suite.panel.Marker(KeyLow)
			suite.Equal(40.0, m.Frequency)
			suite.Equal(0.020, m.Time)
			after, ok := suite.panel.CurrentTab().Curve(seg)
			suite.Require().True(ok, "a rejected move keeps the stored curve")
			suite.Equal(before, after)

			moved, err := suite.panel.EndMarkerDrag()
			suite.Require().NoError(err)
			suite.False(moved)
		})
	}
}

func (suite *PanelTestSuite) TestDragHandleRejectsBadPointer() {
	for _, tt := range badPointerCases {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			suite.place(KeyHigh, 80, 0.010)
			suite.place(KeyLow, 40, 0.020)
			seg := SegmentKey{From: KeyHigh, To: KeyLow}
			curve, ok := suite.panel.CurrentTab().Curve(seg)
			suite.Require().True(ok)
			cp1, cp2 := curve.CP1, curve.CP2

			suite.panel.SetViewport(tt.viewport)
			for _, which := range []HandleID{HandleCP1, HandleCP2} {
				suite.Require().NoError(suite.panel.BeginHandleDrag(seg, which))
				suite.ErrorIs(suite.panel.DragHandle(tt.x, tt.y), tt.want)
				suite.Require().NoError(suite.panel.EndHandleDrag())
			}

			curve, ok = suite.panel.CurrentTab().Curve(seg)
			suite.Require().True(ok)
			suite.Equal(cp1, curve.CP1)
			suite.Equal(cp2, curve.CP2)
		})
	}
}

func (suite *PanelTestSuite) TestClickAtRejectsBadPointer() {
	_, err := suite.panel.ActivateField(KeyHigh)
	suite.Require().NoError(err)
	_, placed, err := suite.panel.ClickAt(math.NaN(), 100)
	suite.ErrorIs(err, ErrInvalidCoordinate)
	suite.False(placed)
	suite.False(suite.panel.Marker(KeyHigh).Placed)
}

func (suite *PanelTestSuite) TestOverlayOpacity() {
	suite.place(KeyHigh, 80, 0.010)
	suite.Require().NoError(suite.panel.SwitchTab(1))
	suite.place(KeyHigh, 60, 0.020)

	o := suite.panel.Overlay()
	mv, ok := o.Marker(0, KeyHigh)
	suite.Require().True(ok)
	suite.Equal(InactiveOpacity, mv.Opacity)
	suite.False(mv.Interactive)
	suite.Equal("High freq. (80.0 kHz)", mv.Title)

	mv, ok = o.Marker(1, KeyHigh)
	suite.Require().True(ok)
	suite.Equal(ActiveOpacity, mv.Opacity)
	suite.True(mv.Interactive)
	suite.InDelta(200.0, mv.X, 1e-9)
	suite.InDelta(425.0, mv.Y, 1e-9)
}

func (suite *PanelTestSuite) TestSetFrequencyRangeKeepsMarkers() {
	suite.place(KeyHigh, 64, 0.010)
	suite.panel.SetFrequencyRange(32, 96)

	suite.Equal(64.0, suite.panel.Marker(KeyHigh).Frequency)
	mv, ok := suite.panel.Overlay().Marker(0, KeyHigh)
	suite.Require().True(ok)
	suite.InDelta(400.0, mv.Y, 1e-9)

	suite.panel.RefreshHover()
	suite.Equal(1, suite.hovers)
}

func TestPanelTestSuite(t *testing.T) {
	suite.Run(t, new(PanelTestSuite))
}
