package autoid

import "math"

// Validation is the mandatory-field check of a tab
type Validation struct {
	Required []MarkerKey
	Missing  []MarkerKey
	// Invalid holds the inputs to flag; it stays empty until a
	// classification has been attempted on the tab
	Invalid map[MarkerKey]bool
}

// Complete reports whether every required marker has a value
func (v Validation) Complete() bool {
	return len(v.Missing) == 0
}

func validateMandatory(t *Tab) Validation {
	v := Validation{
		Required: t.callType.RequiredFields(),
		Invalid:  make(map[MarkerKey]bool),
	}
	for _, key := range v.Required {
		if math.IsNaN(t.markers[key].InputValue()) {
			v.Missing = append(v.Missing, key)
			if t.showValidation {
				v.Invalid[key] = true
			}
		}
	}
	return v
}
