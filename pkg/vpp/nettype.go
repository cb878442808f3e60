package vpp

import "fmt"

// NetType is a `default_nettype value.
type NetType int

const (
	NetWire NetType = iota
	NetTri
	NetTri0
	NetTri1
	NetWand
	NetTriand
	NetWor
	NetTrior
	NetTrireg
	NetUwire
	NetNone
	numNetTypes
)

var netTypeNames = [...]string{
	NetWire:   "wire",
	NetTri:    "tri",
	NetTri0:   "tri0",
	NetTri1:   "tri1",
	NetWand:   "wand",
	NetTriand: "triand",
	NetWor:    "wor",
	NetTrior:  "trior",
	NetTrireg: "trireg",
	NetUwire:  "uwire",
	NetNone:   "none",
}

func (t NetType) String() string {
	if t.Valid() {
		return netTypeNames[t]
	}
	return fmt.Sprintf("NetType(%d)", int(t))
}

// Valid reports whether t is a recognised net type.
func (t NetType) Valid() bool {
	return t >= 0 && t < numNetTypes
}

// MarshalText lets snapshots print net types by name.
func (t NetType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseNetType parses a `default_nettype argument.
func ParseNetType(s string) (NetType, error) {
	for i, name := range netTypeNames {
		if name == s {
			return NetType(i), nil
		}
	}
	return 0, fmt.Errorf("invalid net type %q", s)
}

// NetTypeDirective is one entry of the net type log.
type NetTypeDirective struct {
	Token int     `yaml:"token"`
	Line  int     `yaml:"line"`
	Type  NetType `yaml:"type"`
}

// NetTypeLog is the append-only record of `default_nettype directives in
// order of appearance. The last entry is the current default for consumers.
type NetTypeLog struct {
	entries []NetTypeDirective
}

// Record appends a directive. An invalid net type is a caller bug.
func (l *NetTypeLog) Record(tokenNum, line int, t NetType) {
	if !t.Valid() {
		panic(fmt.Sprintf("vpp: invalid net type %d recorded on line %d", int(t), line))
	}
	l.entries = append(l.entries, NetTypeDirective{Token: tokenNum, Line: line, Type: t})
}

// Entries returns a copy of the log.
func (l *NetTypeLog) Entries() []NetTypeDirective {
	out := make([]NetTypeDirective, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent entry.
func (l *NetTypeLog) Last() (NetTypeDirective, bool) {
	if len(l.entries) == 0 {
		return NetTypeDirective{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Strength is the pull applied to unconnected input ports.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthPull0
	StrengthPull1
)

func (s Strength) String() string {
	switch s {
	case StrengthNone:
		return "none"
	case StrengthPull0:
		return "pull0"
	case StrengthPull1:
		return "pull1"
	default:
		return fmt.Sprintf("Strength(%d)", int(s))
	}
}

// MarshalText lets snapshots print strengths by name.
func (s Strength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStrength parses an `unconnected_drive argument.
func ParseStrength(s string) (Strength, error) {
	switch s {
	case "pull0":
		return StrengthPull0, nil
	case "pull1":
		return StrengthPull1, nil
	}
	return StrengthNone, fmt.Errorf("invalid unconnected drive %q, want pull0 or pull1", s)
}
