package species

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// CallTypeList is the set of call types a clause applies to. In YAML it is
// a comma separated string ("QCF, FM-QCF").
type CallTypeList []string

// UnmarshalYAML implements yaml.Unmarshaler for CallTypeList
func (l *CallTypeList) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: callType must be a string: %w", value.Line, err)
	}
	if strings.TrimSpace(raw) == "" {
		*l = nil
		return nil
	}
	list := CallTypeList{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	*l = list
	return nil
}

// MarshalYAML implements yaml.Marshaler for CallTypeList
func (l CallTypeList) MarshalYAML() (interface{}, error) {
	return strings.Join(l, ", "), nil
}

// Clause is one alternative set of constraints for a species
type Clause struct {
	// CallTypes is nil when the clause applies to every call type
	CallTypes CallTypeList
	// Harmonics is nil when the clause applies to every harmonic
	Harmonics []int
	// Constraints holds the declared fields; undeclared fields are unconstrained
	Constraints map[Field]Constraint
}

// UnmarshalYAML implements yaml.Unmarshaler for Clause
func (c *Clause) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: rule must be a mapping", value.Line)
	}

	clause := Clause{Constraints: make(map[Field]Constraint)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		switch key.Value {
		case "callType":
			if err := val.Decode(&clause.CallTypes); err != nil {
				return err
			}
		case "harmonic":
			if err := val.Decode(&clause.Harmonics); err != nil {
				return fmt.Errorf("line %d: harmonic must be a list of integers: %w", val.Line, err)
			}
		default:
			field, err := ParseField(key.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", key.Line, err)
			}
			var constraint Constraint
			if err := val.Decode(&constraint); err != nil {
				return fmt.Errorf("field %s: %w", field, err)
			}
			clause.Constraints[field] = constraint
		}
	}

	*c = clause
	return nil
}

// Matches reports whether the clause accepts the observation
func (c Clause) Matches(obs Observation) bool {
	if c.CallTypes != nil && !slices.Contains(c.CallTypes, obs.CallType) {
		return false
	}
	if c.Harmonics != nil && !slices.Contains(c.Harmonics, obs.Harmonic) {
		return false
	}
	for _, f := range Fields {
		constraint, declared := c.Constraints[f]
		if !declared {
			continue
		}
		if !constraint.Satisfied(obs.Value(f), obs) {
			return false
		}
	}
	return true
}

// Species is a named entry of the rule table
type Species struct {
	Name  string   `yaml:"name"`
	Rules []Clause `yaml:"rules"`
}

// Matches reports whether any clause accepts the observation
func (s Species) Matches(obs Observation) bool {
	for _, clause := range s.Rules {
		if clause.Matches(obs) {
			return true
		}
	}
	return false
}

// ParseRules decodes a YAML rule table
func ParseRules(data []byte) ([]Species, error) {
	var table []Species
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse species rules: %w", err)
	}
	for i, s := range table {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("species entry %d has no name", i)
		}
		if len(s.Rules) == 0 {
			return nil, fmt.Errorf("species %q has no rules", s.Name)
		}
	}
	return table, nil
}

// LoadRules reads a YAML rule table from path
func LoadRules(path string) ([]Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read species rules: %w", err)
	}
	return ParseRules(data)
}

// DefaultRules returns the embedded Hong Kong rule table
func DefaultRules() []Species {
	table, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded species rules are invalid: %v", err))
	}
	return table
}
