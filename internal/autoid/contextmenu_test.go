package autoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMenuPlace(t *testing.T) {
	panel := NewPanel(PanelConfig{Viewport: testViewport})
	menu := panel.OpenContextMenu(500, 400)

	_, onMarker := menu.DeleteKey()
	assert.False(t, onMarker)
	assert.InDelta(t, 0.05, menu.Time, 1e-12)
	assert.InDelta(t, 64.0, menu.Freq, 1e-12)

	var labels []string
	for _, it := range menu.Items {
		labels = append(labels, it.Label)
	}
	assert.Equal(t, []string{
		"Start freq.", "End freq.", "High freq.", "Low freq.", "Knee freq.", "Heel freq.",
		"Call type >", "Reset ↺",
	}, labels)

	item, ok := menu.Item(ActionPlace, KeyLow)
	require.True(t, ok)
	require.NoError(t, panel.Choose(menu, item))
	m := panel.Marker(KeyLow)
	assert.True(t, m.Placed)
	assert.InDelta(t, 64.0, m.Frequency, 1e-12)
}

func TestContextMenuDelete(t *testing.T) {
	panel := NewPanel(PanelConfig{Viewport: testViewport})
	require.NoError(t, panel.SetMarkerAt(KeyHigh, 80, 0.010))

	menu := panel.OpenContextMenu(102, 303)
	key, onMarker := menu.DeleteKey()
	require.True(t, onMarker)
	assert.Equal(t, KeyHigh, key)
	assert.Equal(t, 80.0, menu.Freq)
	assert.Equal(t, 0.010, menu.Time)

	item, ok := menu.Item(ActionDelete, KeyHigh)
	require.True(t, ok)
	assert.Equal(t, "Delete High freq.", item.Label)

	// placing another key at the marker uses the marker's own position
	knee, ok := menu.Item(ActionPlace, KeyKnee)
	require.True(t, ok)
	require.NoError(t, panel.Choose(menu, knee))
	assert.Equal(t, Marker{Frequency: 80, Time: 0.010, Placed: true}, panel.Marker(KeyKnee))

	require.NoError(t, panel.Choose(menu, item))
	assert.False(t, panel.Marker(KeyHigh).Placed)
}

func TestContextMenuIgnoresOtherTabs(t *testing.T) {
	panel := NewPanel(PanelConfig{Viewport: testViewport})
	require.NoError(t, panel.SetMarkerAt(KeyHigh, 80, 0.010))
	require.NoError(t, panel.SwitchTab(1))

	menu := panel.OpenContextMenu(100, 300)
	_, onMarker := menu.DeleteKey()
	assert.False(t, onMarker)

	require.NoError(t, panel.SwitchTab(0))
	panel.SetCtrlPressed(true)
	_, onMarker = panel.OpenContextMenu(100, 300).DeleteKey()
	assert.False(t, onMarker)
}

func TestContextMenuCallType(t *testing.T) {
	panel := NewPanel(PanelConfig{Viewport: testViewport})
	menu := panel.OpenContextMenu(10, 10)

	parent, ok := menu.Item(ActionCallType, 0)
	require.True(t, ok)
	require.Len(t, parent.Submenu, 6)
	require.NoError(t, panel.Choose(menu, parent))
	assert.Equal(t, CallTypeFMQCF, panel.CurrentTab().CallType())

	var selected []string
	for _, it := range parent.Submenu {
		if it.Selected {
			selected = append(selected, it.Label)
		}
	}
	assert.Equal(t, []string{"FM-QCF"}, selected)

	require.NoError(t, panel.Choose(menu, parent.Submenu[0]))
	assert.Equal(t, CallTypeCFFM, panel.CurrentTab().CallType())

	menu = panel.OpenContextMenu(10, 10)
	_, ok = menu.Item(ActionPlace, KeyHigh)
	assert.False(t, ok)
	_, ok = menu.Item(ActionPlace, KeyCFStart)
	assert.True(t, ok)
}

func TestContextMenuReset(t *testing.T) {
	panel := NewPanel(PanelConfig{Viewport: testViewport})
	require.NoError(t, panel.SetCallType(CallTypeQCF))
	require.NoError(t, panel.SetMarkerAt(KeyHigh, 80, 0.010))

	menu := panel.OpenContextMenu(10, 10)
	reset, ok := menu.Item(ActionReset, 0)
	require.True(t, ok)
	require.NoError(t, panel.Choose(menu, reset))
	assert.False(t, panel.CurrentTab().HasMarkers())
	assert.Equal(t, DefaultCallType, panel.CurrentTab().CallType())

	assert.Error(t, panel.Choose(menu, MenuItem{Action: MenuAction(99)}))
}
