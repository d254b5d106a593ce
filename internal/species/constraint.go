package species

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names a measured quantity of a pulse
type Field string

const (
	FieldHighestFreq       Field = "highestFreq"
	FieldLowestFreq        Field = "lowestFreq"
	FieldKneeFreq          Field = "kneeFreq"
	FieldHeelFreq          Field = "heelFreq"
	FieldStartFreq         Field = "startFreq"
	FieldEndFreq           Field = "endFreq"
	FieldCFStart           Field = "cfStart"
	FieldCFEnd             Field = "cfEnd"
	FieldDuration          Field = "duration"
	FieldBandwidth         Field = "bandwidth"
	FieldKneeLowTime       Field = "kneeLowTime"
	FieldKneeLowBandwidth  Field = "kneeLowBandwidth"
	FieldHeelLowBandwidth  Field = "heelLowBandwidth"
	FieldKneeHeelBandwidth Field = "kneeHeelBandwidth"
)

// Fields lists every field a rule may constrain, in evaluation order
var Fields = []Field{
	FieldHighestFreq, FieldLowestFreq, FieldKneeFreq, FieldHeelFreq,
	FieldStartFreq, FieldEndFreq, FieldCFStart, FieldCFEnd, FieldDuration,
	FieldBandwidth, FieldKneeLowTime, FieldKneeLowBandwidth,
	FieldHeelLowBandwidth, FieldKneeHeelBandwidth,
}

// ParseField validates a field name
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// Interval is a closed numeric range
type Interval struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max]
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Min && v <= iv.Max
}

func (iv Interval) String() string {
	return "[" + formatNumber(iv.Min) + ", " + formatNumber(iv.Max) + "]"
}

// Operator is a relational comparison between two fields
type Operator string

const (
	OpEqual        Operator = "="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
)

// Relation compares a field with another field of the same observation
type Relation struct {
	Op  Operator
	Ref Field
}

var relationPattern = regexp.MustCompile(`^(>=|=>|<=|=<|=|<|>)\s*(\w+)$`)

// ParseRelation reads forms like ">= kneeFreq". "=>" and "=<" are accepted
// as spellings of ">=" and "<=".
func ParseRelation(s string) (Relation, error) {
	m := relationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Relation{}, fmt.Errorf("malformed relation %q", s)
	}
	ref, err := ParseField(m[2])
	if err != nil {
		return Relation{}, fmt.Errorf("relation %q: %w", s, err)
	}

	op := Operator(m[1])
	switch op {
	case "=>":
		op = OpGreaterEqual
	case "=<":
		op = OpLessEqual
	}
	return Relation{Op: op, Ref: ref}, nil
}

// Holds evaluates val op ref. Unmeasured values never hold.
func (r Relation) Holds(val, ref float64) bool {
	if math.IsNaN(val) || math.IsNaN(ref) {
		return false
	}
	switch r.Op {
	case OpEqual:
		return val == ref
	case OpGreater:
		return val > ref
	case OpLess:
		return val < ref
	case OpGreaterEqual:
		return val >= ref
	case OpLessEqual:
		return val <= ref
	default:
		return false
	}
}

func (r Relation) String() string {
	return string(r.Op) + " " + string(r.Ref)
}

// Constraint restricts one field of a rule to a union of intervals or to a
// relation against another field
type Constraint struct {
	Intervals []Interval
	Relation  *Relation
}

// Satisfied reports whether the observation's value for the constrained
// field passes. An unmeasured value fails.
func (c Constraint) Satisfied(val float64, obs Observation) bool {
	if math.IsNaN(val) {
		return false
	}
	if c.Relation != nil {
		return c.Relation.Holds(val, obs.Value(c.Relation.Ref))
	}
	for _, iv := range c.Intervals {
		if iv.Contains(val) {
			return true
		}
	}
	return false
}

func (c Constraint) String() string {
	if c.Relation != nil {
		return c.Relation.String()
	}
	if len(c.Intervals) == 1 {
		return c.Intervals[0].String()
	}
	parts := make([]string, len(c.Intervals))
	for i, iv := range c.Intervals {
		parts[i] = iv.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnmarshalYAML implements yaml.Unmarshaler for Constraint. Accepted shapes
// are [min, max], [[min, max], ...], ["op field"] and a bare "op field".
func (c *Constraint) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		rel, err := ParseRelation(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*c = Constraint{Relation: &rel}
		return nil

	case yaml.SequenceNode:
		items := value.Content
		if len(items) == 1 && items[0].Kind == yaml.ScalarNode && items[0].ShortTag() == "!!str" {
			rel, err := ParseRelation(items[0].Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", value.Line, err)
			}
			*c = Constraint{Relation: &rel}
			return nil
		}

		if len(items) > 0 && items[0].Kind == yaml.SequenceNode {
			intervals := make([]Interval, 0, len(items))
			for _, item := range items {
				iv, err := decodeInterval(item)
				if err != nil {
					return err
				}
				intervals = append(intervals, iv)
			}
			*c = Constraint{Intervals: intervals}
			return nil
		}

		iv, err := decodeInterval(value)
		if err != nil {
			return err
		}
		*c = Constraint{Intervals: []Interval{iv}}
		return nil
	}

	return fmt.Errorf("line %d: constraint must be a range, a list of ranges or a relation", value.Line)
}

func decodeInterval(node *yaml.Node) (Interval, error) {
	var pair []float64
	if err := node.Decode(&pair); err != nil {
		return Interval{}, fmt.Errorf("line %d: range must hold two numbers: %w", node.Line, err)
	}
	if len(pair) != 2 {
		return Interval{}, fmt.Errorf("line %d: range must hold two numbers, got %d", node.Line, len(pair))
	}
	if pair[0] > pair[1] {
		return Interval{}, fmt.Errorf("line %d: range [%v, %v] is inverted", node.Line, pair[0], pair[1])
	}
	return Interval{Min: pair[0], Max: pair[1]}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
