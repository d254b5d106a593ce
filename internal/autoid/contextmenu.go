package autoid

import (
	"fmt"
	"math"
)

// MarkerHitRadius is how close in pixels a right click must be to a marker
// to target it
const MarkerHitRadius = 6.0

// MenuAction is what a context menu item does when chosen
type MenuAction int

const (
	ActionPlace MenuAction = iota
	ActionDelete
	ActionCallType
	ActionReset
)

// MenuItem is one entry of the context menu
type MenuItem struct {
	Action MenuAction
	Label  string
	// Key is set for place and delete items
	Key MarkerKey
	// CallType is set for call type submenu items
	CallType CallType
	Selected bool
	Submenu  []MenuItem
}

// ContextMenu is the menu opened by a right click on the surface. Freq and
// Time are where place items put their marker.
type ContextMenu struct {
	Freq  float64
	Time  float64
	Items []MenuItem

	deleteKey MarkerKey
	hasDelete bool
}

// DeleteKey returns the marker under the pointer, if any
func (m ContextMenu) DeleteKey() (MarkerKey, bool) {
	return m.deleteKey, m.hasDelete
}

// Item returns the first top-level item with the given action and key
func (m ContextMenu) Item(action MenuAction, key MarkerKey) (MenuItem, bool) {
	for _, it := range m.Items {
		if it.Action == action && (action == ActionCallType || action == ActionReset || it.Key == key) {
			return it, true
		}
	}
	return MenuItem{}, false
}

// HitMarker returns the interactive marker of the current tab within
// MarkerHitRadius of pixel (x, y). The nearest one wins.
func (p *Panel) HitMarker(x, y float64) (MarkerKey, bool) {
	if p.ctrlPressed || !p.viewport.Valid() {
		return 0, false
	}
	best, bestDist := MarkerKey(0), math.Inf(1)
	for _, mv := range p.overlay.Tabs[p.current].Markers {
		if !mv.Interactive {
			continue
		}
		d := math.Hypot(mv.X-x, mv.Y-y)
		if d <= MarkerHitRadius && d < bestDist {
			best, bestDist = mv.Key, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// OpenContextMenu builds the menu for a right click at pixel (x, y). On a
// marker its item becomes a delete item and places use the marker's own
// position.
func (p *Panel) OpenContextMenu(x, y float64) ContextMenu {
	menu := ContextMenu{}
	if key, ok := p.HitMarker(x, y); ok {
		m := p.CurrentTab().markers[key]
		menu.deleteKey, menu.hasDelete = key, true
		menu.Freq, menu.Time = m.Frequency, m.Time
	} else {
		menu.Time, menu.Freq = p.viewport.ToTimeFreq(x, y)
	}

	for _, key := range MarkerKeys() {
		if !p.IsFieldEnabled(key) {
			continue
		}
		item := MenuItem{Action: ActionPlace, Label: key.Label(), Key: key}
		if menu.hasDelete && menu.deleteKey == key {
			item.Action = ActionDelete
			item.Label = "Delete " + key.Label()
		}
		menu.Items = append(menu.Items, item)
	}

	sub := make([]MenuItem, 0, len(CallTypes()))
	for _, ct := range CallTypes() {
		sub = append(sub, MenuItem{
			Action:   ActionCallType,
			Label:    ct.String(),
			CallType: ct,
			Selected: ct == p.CurrentTab().callType,
		})
	}
	menu.Items = append(menu.Items,
		MenuItem{Action: ActionCallType, Label: "Call type >", Submenu: sub},
		MenuItem{Action: ActionReset, Label: "Reset ↺"},
	)
	return menu
}

// Choose applies a menu item to the panel
func (p *Panel) Choose(menu ContextMenu, item MenuItem) error {
	switch item.Action {
	case ActionPlace:
		return p.SetMarkerAt(item.Key, menu.Freq, menu.Time)
	case ActionDelete:
		return p.RemoveMarker(item.Key)
	case ActionCallType:
		if item.Submenu != nil {
			return nil
		}
		return p.SetCallType(item.CallType)
	case ActionReset:
		p.ResetCurrentTab()
		return nil
	default:
		return fmt.Errorf("unknown menu action %d", int(item.Action))
	}
}
