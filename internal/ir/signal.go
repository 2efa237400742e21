package ir

import "fmt"

// Signal is the structural role of a Token.
// The zero value is invalid; constructors reject it.
type Signal uint8

// Signal values. BEGIN_X/END_X pairs delimit entities; ENCODING, VALID_VALUE
// and CHOICE are leaves.
const (
	_ Signal = iota

	BeginMessage
	EndMessage
	BeginField
	EndField
	BeginGroup
	EndGroup
	BeginComposite
	EndComposite
	BeginEnum
	ValidValue
	EndEnum
	BeginSet
	Choice
	EndSet
	Encoding
)

var signalNames = [...]string{
	BeginMessage:   "BEGIN_MESSAGE",
	EndMessage:     "END_MESSAGE",
	BeginField:     "BEGIN_FIELD",
	EndField:       "END_FIELD",
	BeginGroup:     "BEGIN_GROUP",
	EndGroup:       "END_GROUP",
	BeginComposite: "BEGIN_COMPOSITE",
	EndComposite:   "END_COMPOSITE",
	BeginEnum:      "BEGIN_ENUM",
	ValidValue:     "VALID_VALUE",
	EndEnum:        "END_ENUM",
	BeginSet:       "BEGIN_SET",
	Choice:         "CHOICE",
	EndSet:         "END_SET",
	Encoding:       "ENCODING",
}

var signalByName = func() map[string]Signal {
	m := make(map[string]Signal, len(signalNames))
	for s := BeginMessage; s <= Encoding; s++ {
		m[signalNames[s]] = s
	}
	return m
}()

// closing maps each BEGIN signal to its END.
var closing = map[Signal]Signal{
	BeginMessage:   EndMessage,
	BeginField:     EndField,
	BeginGroup:     EndGroup,
	BeginComposite: EndComposite,
	BeginEnum:      EndEnum,
	BeginSet:       EndSet,
}

// opening maps each END signal to its BEGIN.
var opening = map[Signal]Signal{
	EndMessage:   BeginMessage,
	EndField:     BeginField,
	EndGroup:     BeginGroup,
	EndComposite: BeginComposite,
	EndEnum:      BeginEnum,
	EndSet:       BeginSet,
}

// LookupSignal resolves a signal by its rendered name ("BEGIN_FIELD").
func LookupSignal(name string) (Signal, error) {
	s, ok := signalByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return s, nil
}

// Valid reports whether s is one of the defined signals.
func (s Signal) Valid() bool {
	return s >= BeginMessage && s <= Encoding
}

// String returns the upper snake case name, or "INVALID".
func (s Signal) String() string {
	if !s.Valid() {
		return "INVALID"
	}
	return signalNames[s]
}

// IsBegin reports whether s opens an entity.
func (s Signal) IsBegin() bool {
	_, ok := closing[s]
	return ok
}

// IsEnd reports whether s closes an entity.
func (s Signal) IsEnd() bool {
	_, ok := opening[s]
	return ok
}

// IsLeaf reports whether s is ENCODING, VALID_VALUE or CHOICE.
func (s Signal) IsLeaf() bool {
	return s == Encoding || s == ValidValue || s == Choice
}

// Closing returns the END signal matching a BEGIN signal.
func (s Signal) Closing() (Signal, bool) {
	end, ok := closing[s]
	return end, ok
}

// Opening returns the BEGIN signal matching an END signal.
func (s Signal) Opening() (Signal, bool) {
	begin, ok := opening[s]
	return begin, ok
}

// MarshalText implements encoding.TextMarshaler.
func (s Signal) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal signal: invalid value %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signal) UnmarshalText(text []byte) error {
	v, err := LookupSignal(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
