package autoid

import (
	"fmt"
	"strings"
)

// CallType is the shape of a pulse as a composition of CF, FM and QCF parts
type CallType int

const (
	CallTypeCFFM CallType = iota
	CallTypeFMCFFM
	CallTypeFM
	CallTypeFMQCF
	CallTypeFMQCFFM
	CallTypeQCF
)

// DefaultCallType is selected on fresh and reset tabs
const DefaultCallType = CallTypeFMQCF

var callTypeNames = [...]string{
	CallTypeCFFM:    "CF-FM",
	CallTypeFMCFFM:  "FM-CF-FM",
	CallTypeFM:      "FM",
	CallTypeFMQCF:   "FM-QCF",
	CallTypeFMQCFFM: "FM-QCF-FM",
	CallTypeQCF:     "QCF",
}

// CallTypes returns every call type in menu order
func CallTypes() []CallType {
	return []CallType{CallTypeCFFM, CallTypeFMCFFM, CallTypeFM, CallTypeFMQCF, CallTypeFMQCFFM, CallTypeQCF}
}

func (c CallType) String() string {
	if c < 0 || int(c) >= len(callTypeNames) {
		return fmt.Sprintf("CallType(%d)", int(c))
	}
	return callTypeNames[c]
}

// Valid reports whether c is a known call type
func (c CallType) Valid() bool {
	return c >= CallTypeCFFM && c <= CallTypeQCF
}

// ParseCallType converts a name such as "FM-QCF" into a CallType
func ParseCallType(name string) (CallType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range callTypeNames {
		if s == n {
			return CallType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown call type %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (c CallType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown call type %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CallType) UnmarshalText(text []byte) error {
	ct, err := ParseCallType(string(text))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// HasCF reports whether the call type contains a constant-frequency part
func (c CallType) HasCF() bool {
	return c == CallTypeCFFM || c == CallTypeFMCFFM
}

func (c CallType) hidesHighLow() bool {
	return c == CallTypeCFFM || c == CallTypeFMCFFM
}

func (c CallType) hidesKneeHeel() bool {
	return c == CallTypeCFFM || c == CallTypeFMCFFM || c == CallTypeQCF
}

func (c CallType) hidesCF() bool {
	return c == CallTypeQCF || c == CallTypeFMQCF || c == CallTypeFM || c == CallTypeFMQCFFM
}

// Shows reports whether the marker row for key is visible for this call
// type. Hidden markers cannot be placed.
func (c CallType) Shows(key MarkerKey) bool {
	switch key {
	case KeyHigh, KeyLow:
		return !c.hidesHighLow()
	case KeyKnee, KeyHeel:
		return !c.hidesKneeHeel()
	case KeyCFStart, KeyCFEnd:
		return !c.hidesCF()
	default:
		return key.Valid()
	}
}

// RequiredFields lists the markers that must be placed before a pulse of
// this call type can be classified
func (c CallType) RequiredFields() []MarkerKey {
	switch c {
	case CallTypeCFFM, CallTypeFMCFFM:
		return []MarkerKey{KeyCFStart, KeyCFEnd}
	case CallTypeFM, CallTypeQCF:
		return []MarkerKey{KeyHigh, KeyLow}
	case CallTypeFMQCF:
		return []MarkerKey{KeyHigh, KeyLow, KeyKnee}
	case CallTypeFMQCFFM:
		return []MarkerKey{KeyHigh, KeyKnee, KeyHeel, KeyLow}
	default:
		return nil
	}
}
