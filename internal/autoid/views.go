package autoid

import (
	"math"

	"github.com/hkbatradar/Spectrogram/internal/species"
)

// Opacity of overlay elements on the current and the other tabs
const (
	ActiveOpacity   = 1.0
	InactiveOpacity = 0.5
)

// ResultOffset is the distance in pixels between the lowest marker of a tab
// and its result label
const ResultOffset = 20.0

// MarkerView is the presentation of one placed marker
type MarkerView struct {
	Tab         int       `json:"tab"`
	Key         MarkerKey `json:"key"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Title       string    `json:"title"`
	Color       string    `json:"color"`
	Opacity     float64   `json:"opacity"`
	Interactive bool      `json:"interactive"`
	Frequency   float64   `json:"frequency"`
	Time        float64   `json:"time"`
}

// ResultView is the classification label drawn under a tab's markers
type ResultView struct {
	Tab      int     `json:"tab"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Inactive bool    `json:"inactive"`
}

// TabView is everything drawn for one tab
type TabView struct {
	Tab     int          `json:"tab"`
	Markers []MarkerView `json:"markers"`
	Path    string       `json:"path"`
	Opacity float64      `json:"opacity"`
	Handles []Handle     `json:"handles,omitempty"`
	Result  *ResultView  `json:"result,omitempty"`
}

// Overlay is the presentation index of all tabs, rebuilt by UpdateMarkers
type Overlay struct {
	Tabs []TabView `json:"tabs"`
}

// Marker returns the view of key on tab, if drawn
func (o Overlay) Marker(tab int, key MarkerKey) (MarkerView, bool) {
	if tab < 0 || tab >= len(o.Tabs) {
		return MarkerView{}, false
	}
	for _, mv := range o.Tabs[tab].Markers {
		if mv.Key == key {
			return mv, true
		}
	}
	return MarkerView{}, false
}

// VisibleHandles returns the handles currently shown
func (o Overlay) VisibleHandles() []Handle {
	var out []Handle
	for _, tv := range o.Tabs {
		for _, h := range tv.Handles {
			if h.Visible {
				out = append(out, h)
			}
		}
	}
	return out
}

// overlayState is the input of buildOverlay that lives outside the tabs
type overlayState struct {
	current     int
	ctrlPressed bool
	activeKey   MarkerKey
	hasActive   bool
	dragging    MarkerKey
	isDragging  bool
}

func buildOverlay(tabs []*Tab, vp Viewport, st overlayState) Overlay {
	o := Overlay{Tabs: make([]TabView, len(tabs))}
	for idx, t := range tabs {
		isCurrent := idx == st.current
		tv := TabView{Tab: idx, Opacity: InactiveOpacity}
		if isCurrent {
			tv.Opacity = ActiveOpacity
		}

		minX, maxX, maxY := math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, key := range MarkerKeys() {
			m := t.markers[key]
			if !m.Placed {
				continue
			}
			x, y := vp.ToXY(m.Time, m.Frequency)
			tv.Markers = append(tv.Markers, MarkerView{
				Tab:         idx,
				Key:         key,
				X:           x,
				Y:           y,
				Title:       key.Title(m),
				Color:       key.Color(),
				Opacity:     tv.Opacity,
				Interactive: isCurrent && !st.ctrlPressed,
				Frequency:   m.Frequency,
				Time:        m.Time,
			})
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}

		if t.result != "" && len(tv.Markers) > 0 {
			tv.Result = &ResultView{
				Tab:      idx,
				Label:    species.FormatLabel(t.result),
				X:        (minX + maxX) / 2,
				Y:        maxY + ResultOffset,
				Inactive: !isCurrent,
			}
		}

		// Segments are only considered dragged on the current tab
		path, handles := buildContour(t, idx, vp, st.dragging, st.isDragging && isCurrent)
		tv.Path = path.String()
		for i := range handles {
			handles[i].Visible = isCurrent && st.hasActive && handles[i].Anchor() == st.activeKey
		}
		tv.Handles = handles

		o.Tabs[idx] = tv
	}
	return o
}
