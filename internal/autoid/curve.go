package autoid

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Curve geometry constants, in pixels unless noted
const (
	// CurveTension scales the tangent estimate of each control point
	CurveTension = 0.5
	// ElbowThreshold is the vertical difference under which a final
	// segment is drawn as an elbow instead of a curve
	ElbowThreshold = 5.0
	// MaxVerticalOffset caps how far cp2 may sit below its endpoint
	MaxVerticalOffset = 10.0
	// HandleRadius is where connector lines stop short of a handle
	HandleRadius = 5.0
	// highKneePull amplifies cp2 of the high to knee segment
	highKneePull = 2.0
)

// SegmentKey names the curve between two time-adjacent markers
type SegmentKey struct {
	From MarkerKey
	To   MarkerKey
}

func (s SegmentKey) String() string {
	return s.From.String() + "-" + s.To.String()
}

// ParseSegmentKey reads the "from-to" form produced by String
func ParseSegmentKey(s string) (SegmentKey, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return SegmentKey{}, ErrUnknownSegment
	}
	f, err := ParseMarkerKey(from)
	if err != nil {
		return SegmentKey{}, err
	}
	t, err := ParseMarkerKey(to)
	if err != nil {
		return SegmentKey{}, err
	}
	return SegmentKey{From: f, To: t}, nil
}

// TimeFreq is a position in seconds and kHz
type TimeFreq struct {
	Time float64 `json:"time" yaml:"time"`
	Freq float64 `json:"freq" yaml:"freq"`
}

// Curve holds the two control points of a segment. They are kept in
// time/frequency space so they follow zoom and scroll.
type Curve struct {
	CP1 TimeFreq `json:"cp1" yaml:"cp1"`
	CP2 TimeFreq `json:"cp2" yaml:"cp2"`
}

// HandleID selects one of the two control points of a segment
type HandleID int

const (
	HandleCP1 HandleID = iota + 1
	HandleCP2
)

func (h HandleID) String() string {
	switch h {
	case HandleCP1:
		return "cp1"
	case HandleCP2:
		return "cp2"
	default:
		return "cp?"
	}
}

// PathOp is an SVG path command letter
type PathOp byte

const (
	OpMove  PathOp = 'M'
	OpLine  PathOp = 'L'
	OpCubic PathOp = 'C'
)

// PathCommand is one command with its coordinate arguments
type PathCommand struct {
	Op   PathOp
	Args []float64
}

// Path is a sequence of path commands
type Path []PathCommand

// String serializes the path in SVG "d" syntax
func (p Path) String() string {
	var b strings.Builder
	for i, cmd := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(cmd.Op))
		for _, a := range cmd.Args {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(a, 'f', -1, 64))
		}
	}
	return b.String()
}

// Ops returns the command letters of the path
func (p Path) Ops() []PathOp {
	out := make([]PathOp, len(p))
	for i, cmd := range p {
		out[i] = cmd.Op
	}
	return out
}

// Handle is a draggable control point drawn for a segment together with the
// connector line from its anchor marker
type Handle struct {
	Tab     int        `json:"tab"`
	Segment SegmentKey `json:"-"`
	Which   HandleID   `json:"-"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	// Line runs from the anchor marker to the edge of the handle
	LineX1  float64 `json:"line_x1"`
	LineY1  float64 `json:"line_y1"`
	LineX2  float64 `json:"line_x2"`
	LineY2  float64 `json:"line_y2"`
	Visible bool    `json:"visible"`
}

// Anchor returns the marker the handle hangs from
func (h Handle) Anchor() MarkerKey {
	if h.Which == HandleCP1 {
		return h.Segment.From
	}
	return h.Segment.To
}

type contourPoint struct {
	X, Y float64
	Key  MarkerKey
}

// contourPoints returns the placed markers of t in time order. Markers with
// equal times keep key order.
func contourPoints(t *Tab, vp Viewport) []contourPoint {
	var pts []contourPoint
	for _, k := range MarkerKeys() {
		m := t.markers[k]
		if !m.Placed {
			continue
		}
		x, y := vp.ToXY(m.Time, m.Frequency)
		pts = append(pts, contourPoint{X: x, Y: y, Key: k})
	}
	sort.SliceStable(pts, func(i, j int) bool {
		return t.markers[pts[i].Key].Time < t.markers[pts[j].Key].Time
	})
	return pts
}

// buildContour traces the smooth path through the placed markers of t and
// returns it with the control handles of every curved segment. Segments
// touching dragging get fresh control points and no handles. Stored curves
// of segments that no longer exist are discarded.
func buildContour(t *Tab, tabIdx int, vp Viewport, dragging MarkerKey, isDragging bool) (Path, []Handle) {
	pts := contourPoints(t, vp)
	if len(pts) < 2 {
		clear(t.curves)
		return nil, nil
	}

	path := Path{{Op: OpMove, Args: []float64{pts[0].X, pts[0].Y}}}
	var handles []Handle
	used := make(map[SegmentKey]bool, len(pts)-1)

	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1, p2 := pts[i], pts[i+1]
		p3 := p2
		if i+2 < len(pts) {
			p3 = pts[i+2]
		}

		seg := SegmentKey{From: p1.Key, To: p2.Key}
		used[seg] = true

		isLast := i == len(pts)-2
		dy := math.Abs(p1.Y - p2.Y)

		if p1.Key == KeyCFStart && p2.Key == KeyCFEnd {
			delete(t.curves, seg)
			path = append(path, PathCommand{Op: OpLine, Args: []float64{p2.X, p2.Y}})
			continue
		}
		if isLast && dy < ElbowThreshold {
			delete(t.curves, seg)
			path = append(path,
				PathCommand{Op: OpLine, Args: []float64{p1.X, p2.Y}},
				PathCommand{Op: OpLine, Args: []float64{p2.X, p2.Y}},
			)
			continue
		}

		curve, stored := t.curves[seg]
		if !stored {
			curve = &Curve{}
			t.curves[seg] = curve
		}
		dragSeg := isDragging && (p1.Key == dragging || p2.Key == dragging)

		var cp1x, cp1y, cp2x, cp2y float64
		if stored && !dragSeg {
			cp1x, cp1y = vp.ToXY(curve.CP1.Time, curve.CP1.Freq)
			cp2x, cp2y = vp.ToXY(curve.CP2.Time, curve.CP2.Freq)
		} else {
			cp1x = p1.X + (p2.X-p0.X)*CurveTension/6
			cp1y = p1.Y + (p2.Y-p0.Y)*CurveTension/6

			factor := 1.0
			if p1.Key == KeyHigh && p2.Key == KeyKnee {
				currLen := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
				nextLen := math.Hypot(p3.X-p2.X, p3.Y-p2.Y)
				if currLen != 0 {
					factor = 1 + nextLen/currLen*highKneePull
				}
			}
			cp2x = p2.X - (p3.X-p1.X)*CurveTension/6*factor
			cp2y = p2.Y - (p3.Y-p1.Y)*CurveTension/6*factor

			if p2.Key != KeyCFStart && p2.Key != KeyEnd {
				offset := math.Min(MaxVerticalOffset, dy*0.6)
				cp2y = math.Min(cp2y, p2.Y+offset)
				cp2x = math.Min(cp2x, p2.X)
			}

			t1, f1 := vp.ToTimeFreq(cp1x, cp1y)
			t2, f2 := vp.ToTimeFreq(cp2x, cp2y)
			curve.CP1 = TimeFreq{Time: t1, Freq: f1}
			curve.CP2 = TimeFreq{Time: t2, Freq: f2}
		}

		if !dragSeg {
			handles = append(handles,
				newHandle(tabIdx, seg, HandleCP1, p1, cp1x, cp1y),
				newHandle(tabIdx, seg, HandleCP2, p2, cp2x, cp2y),
			)
		}

		path = append(path, PathCommand{Op: OpCubic, Args: []float64{cp1x, cp1y, cp2x, cp2y, p2.X, p2.Y}})
	}

	for seg := range t.curves {
		if !used[seg] {
			delete(t.curves, seg)
		}
	}

	return path, handles
}

func newHandle(tabIdx int, seg SegmentKey, which HandleID, anchor contourPoint, x, y float64) Handle {
	dx, dy := x-anchor.X, y-anchor.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1
	}
	return Handle{
		Tab:     tabIdx,
		Segment: seg,
		Which:   which,
		X:       x,
		Y:       y,
		LineX1:  anchor.X,
		LineY1:  anchor.Y,
		LineX2:  x - dx/length*HandleRadius,
		LineY2:  y - dy/length*HandleRadius,
	}
}
