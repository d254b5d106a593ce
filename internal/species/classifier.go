package species

import (
	"math"
	"strings"
)

// NoMatch is the label returned when no species rule accepts an observation
const NoMatch = "No species matched"

// Observation is the flat measurement record of one pulse. Fields missing
// from Values are unmeasured.
type Observation struct {
	CallType string
	Harmonic int
	Values   map[Field]float64
}

// NewObservation creates a new observation with no measured fields
func NewObservation(callType string, harmonic int) Observation {
	return Observation{
		CallType: callType,
		Harmonic: harmonic,
		Values:   make(map[Field]float64),
	}
}

// Value returns the measured value of f, or NaN when it is unmeasured
func (o Observation) Value(f Field) float64 {
	v, ok := o.Values[f]
	if !ok {
		return math.NaN()
	}
	return v
}

// Set records a measured value. NaN erases the field.
func (o Observation) Set(f Field, v float64) Observation {
	if o.Values == nil {
		o.Values = make(map[Field]float64)
	}
	if math.IsNaN(v) {
		delete(o.Values, f)
		return o
	}
	o.Values[f] = v
	return o
}

// Classifier matches observations against a species rule table
type Classifier struct {
	species []Species
}

// NewClassifier creates a new classifier over table. A nil table uses the
// embedded rules.
func NewClassifier(table []Species) *Classifier {
	if table == nil {
		table = DefaultRules()
	}
	return &Classifier{species: table}
}

// Species returns the rule table in evaluation order
func (c *Classifier) Species() []Species {
	return c.species
}

// Match returns the names of every species with a clause accepting obs, in
// table order
func (c *Classifier) Match(obs Observation) []string {
	var names []string
	for _, s := range c.species {
		if s.Matches(obs) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Classify returns the matching species joined with " / ", or NoMatch
func (c *Classifier) Classify(obs Observation) string {
	names := c.Match(obs)
	if len(names) == 0 {
		return NoMatch
	}
	return strings.Join(names, " / ")
}

// FormatLabel marks species names as italic for display. "Genus sp."
// italicises only the genus; TBC, "-" and NoMatch are left as they are.
func FormatLabel(result string) string {
	if result == "" {
		return ""
	}
	parts := strings.Split(result, " / ")
	for i, name := range parts {
		switch {
		case strings.HasSuffix(name, "sp."):
			parts[i] = "*" + strings.Replace(name, " sp.", "", 1) + "* sp."
		case name == "TBC" || name == "-" || name == NoMatch:
		default:
			parts[i] = "*" + name + "*"
		}
	}
	return strings.Join(parts, " / ")
}
