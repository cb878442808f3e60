package vpp

import (
	"sort"
	"strings"
)

// MacroDefinition is a single `define binding.
type MacroDefinition struct {
	Name  string // Macro identifier
	Value string // Replacement text up to any // comment
	Line  int    // Line of the `define, 0 for command line macros
}

// MacroTable maps macro identifiers to their definitions.
type MacroTable struct {
	macros map[string]*MacroDefinition
}

// NewMacroTable creates an empty macro table.
func NewMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[string]*MacroDefinition)}
}

// Define inserts or replaces the definition for name.
func (mt *MacroTable) Define(name, value string, line int) {
	mt.macros[name] = &MacroDefinition{
		Name:  name,
		Value: stripLineComment(value),
		Line:  line,
	}
}

// Undefine removes a macro. Removing an absent name is a no-op.
func (mt *MacroTable) Undefine(name string) {
	delete(mt.macros, name)
}

// Lookup returns the definition bound to name, if any.
func (mt *MacroTable) Lookup(name string) (*MacroDefinition, bool) {
	m, ok := mt.macros[name]
	return m, ok
}

// IsDefined reports whether name has a definition (possibly empty).
func (mt *MacroTable) IsDefined(name string) bool {
	_, ok := mt.macros[name]
	return ok
}

// Len returns the number of defined macros.
func (mt *MacroTable) Len() int {
	return len(mt.macros)
}

// Names returns the defined macro names in sorted order.
func (mt *MacroTable) Names() []string {
	names := make([]string, 0, len(mt.macros))
	for name := range mt.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyCmdlineDefines applies -D and -U style options.
// Defines are NAME or NAME=VALUE; undefines are applied after all defines.
func (mt *MacroTable) ApplyCmdlineDefines(defines, undefines []string) {
	for _, d := range defines {
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			mt.Define(d[:idx], d[idx+1:], 0)
		} else {
			mt.Define(d, "", 0)
		}
	}
	for _, u := range undefines {
		mt.Undefine(u)
	}
}

// stripLineComment truncates text at the first // marker. Whitespace
// before the marker is part of the value.
func stripLineComment(text string) string {
	if idx := strings.Index(text, "//"); idx >= 0 {
		return text[:idx]
	}
	return text
}
