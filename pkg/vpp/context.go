// Package vpp implements the bookkeeping behind Verilog compiler directives:
// macro definitions, nested conditional compilation, include resolution,
// default net types and the stack of files being read.
//
// A Context holds the state of one parse session. The scanner feeds it
// directives in source order and asks Emit before forwarding ordinary
// tokens to the grammar. Starting a new session means creating a new
// Context; nothing is shared between sessions.
package vpp

import (
	"errors"
	"fmt"

	"modernc.org/token"
)

// Options configures a new session.
type Options struct {
	SearchDirs []string // appended after the default "./"
	Defines    []string // NAME or NAME=VALUE
	Undefines  []string
}

// Context is the directive state of one parse session.
type Context struct {
	macros       *MacroTable
	conditionals *ConditionalStack
	resolver     *IncludeResolver
	files        FileStack
	includes     []IncludeDirective
	netTypes     NetTypeLog
	resets       []Resetall
	diagnostics  []Diagnostic

	emit             bool
	inCellDefine     bool
	unconnectedDrive Strength
	netTypeReset     bool // a `resetall came after the last `default_nettype
}

// NewContext creates the state for a fresh parse session.
func NewContext(opts Options) *Context {
	macros := NewMacroTable()
	macros.ApplyCmdlineDefines(opts.Defines, opts.Undefines)

	resolver := NewIncludeResolver()
	for _, dir := range opts.SearchDirs {
		resolver.AddSearchDir(dir)
	}

	return &Context{
		macros:       macros,
		conditionals: NewConditionalStack(macros),
		resolver:     resolver,
		emit:         true,
	}
}

// Emit reports whether ordinary tokens should currently reach the grammar.
func (c *Context) Emit() bool {
	return c.emit
}

// CurrentFile returns the file being read right now.
func (c *Context) CurrentFile() (string, bool) {
	return c.files.Peek()
}

// SetFile clears the file stack and makes file the current file.
func (c *Context) SetFile(file string) {
	c.files.Reset(file)
}

// Lookup returns the macro bound to name.
func (c *Context) Lookup(name string) (*MacroDefinition, bool) {
	return c.macros.Lookup(name)
}

// Macros returns the session's macro table.
func (c *Context) Macros() *MacroTable { return c.macros }

// Conditionals returns the session's conditional stack.
func (c *Context) Conditionals() *ConditionalStack { return c.conditionals }

// Files returns the session's file stack.
func (c *Context) Files() *FileStack { return &c.files }

// SearchDirs returns the include search directories in search order.
func (c *Context) SearchDirs() []string {
	out := make([]string, len(c.resolver.SearchDirs))
	copy(out, c.resolver.SearchDirs)
	return out
}

// AddSearchDir appends an include search directory.
func (c *Context) AddSearchDir(dir string) {
	c.resolver.AddSearchDir(dir)
}

// Includes returns every `include seen so far, in order.
func (c *Context) Includes() []IncludeDirective {
	out := make([]IncludeDirective, len(c.includes))
	copy(out, c.includes)
	return out
}

// NetTypes returns the net type log.
func (c *Context) NetTypes() []NetTypeDirective {
	return c.netTypes.Entries()
}

// DefaultNetType returns the net type in effect: the most recent
// `default_nettype, or wire if none was seen since the last `resetall.
func (c *Context) DefaultNetType() NetType {
	if last, ok := c.netTypes.Last(); ok && !c.netTypeReset {
		return last.Type
	}
	return NetWire
}

// Resets returns every `resetall applied so far, in order.
func (c *Context) Resets() []Resetall {
	out := make([]Resetall, len(c.resets))
	copy(out, c.resets)
	return out
}

// Diagnostics returns the recoverable problems recorded so far.
func (c *Context) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// InCellDefine reports whether the scanner is between `celldefine and
// `endcelldefine.
func (c *Context) InCellDefine() bool { return c.inCellDefine }

// UnconnectedDrive returns the pull set by `unconnected_drive.
func (c *Context) UnconnectedDrive() Strength { return c.unconnectedDrive }

// Define handles `define.
func (c *Context) Define(name, text string, line int) {
	c.macros.Define(name, text, line)
}

// Undefine handles `undef.
func (c *Context) Undefine(name string) {
	c.macros.Undefine(name)
}

// Ifdef handles `ifdef and `ifndef.
func (c *Context) Ifdef(name string, line int, negated bool) {
	c.conditionals.Ifdef(name, line, negated)
	c.emit = c.conditionals.Active()
}

// Elsif handles `elsif.
func (c *Context) Elsif(name string, line int) {
	c.report(c.conditionals.Elsif(name, line))
	c.emit = c.conditionals.Active()
}

// Else handles `else.
func (c *Context) Else(line int) {
	c.report(c.conditionals.Else(line))
	c.emit = c.conditionals.Active()
}

// Endif handles `endif.
func (c *Context) Endif(line int) {
	c.report(c.conditionals.Endif(line))
	c.emit = c.conditionals.Active()
}

// Include resolves an `include and records the outcome. On success the
// name as written becomes the current file.
func (c *Context) Include(filename string, line int) IncludeDirective {
	inc := c.resolver.Resolve(filename, line)
	c.includes = append(c.includes, inc)
	if inc.Found {
		c.files.Push(filename)
	} else {
		c.report(&IncludeError{Filename: filename, Line: line, Searched: c.SearchDirs()})
	}
	return inc
}

// DefaultNettype handles `default_nettype.
func (c *Context) DefaultNettype(tokenNum, line int, t NetType) {
	c.netTypes.Record(tokenNum, line, t)
	c.netTypeReset = false
}

// Resetall handles `resetall. Every directive except macro definitions
// returns to its default; the net type log itself is left as recorded.
func (c *Context) Resetall(tokenNum, line int) {
	c.inCellDefine = false
	c.unconnectedDrive = StrengthNone
	c.netTypeReset = true
	c.resets = append(c.resets, Resetall{Line: line, Token: tokenNum})
}

// UnconnectedDriveDirective handles `unconnected_drive.
func (c *Context) UnconnectedDriveDirective(pull Strength) {
	c.unconnectedDrive = pull
}

// NounconnectedDrive handles `nounconnected_drive.
func (c *Context) NounconnectedDrive() {
	c.unconnectedDrive = StrengthNone
}

// EnterCellDefine handles `celldefine.
func (c *Context) EnterCellDefine() { c.inCellDefine = true }

// ExitCellDefine handles `endcelldefine.
func (c *Context) ExitCellDefine() { c.inCellDefine = false }

// Apply dispatches d to its handler. Conditional directives are always
// applied; the others are ignored while the context is not emitting.
// Recoverable problems are recorded as diagnostics and do not produce an
// error.
func (c *Context) Apply(d Directive) error {
	if !c.emit && !IsConditional(d) {
		return nil
	}
	switch d := d.(type) {
	case Define:
		c.Define(d.Name, d.Text, d.Line)
	case Undef:
		c.Undefine(d.Name)
	case Ifdef:
		c.Ifdef(d.Name, d.Line, d.Negated)
	case Elsif:
		c.Elsif(d.Name, d.Line)
	case Else:
		c.Else(d.Line)
	case Endif:
		c.Endif(d.Line)
	case Include:
		c.Include(d.Filename, d.Line)
	case DefaultNettype:
		if !d.Type.Valid() {
			return fmt.Errorf("line %d: `default_nettype: invalid net type %d", d.Line, int(d.Type))
		}
		c.DefaultNettype(d.Token, d.Line, d.Type)
	case Resetall:
		c.Resetall(d.Token, d.Line)
	case UnconnectedDrive:
		c.UnconnectedDriveDirective(d.Pull)
	case NounconnectedDrive:
		c.NounconnectedDrive()
	case Celldefine:
		c.EnterCellDefine()
	case Endcelldefine:
		c.ExitCellDefine()
	default:
		return fmt.Errorf("unhandled directive type %T", d)
	}
	return nil
}

// Finish records a diagnostic for every conditional still open at the end
// of input.
func (c *Context) Finish() {
	var unclosed *UnclosedError
	if !errors.As(c.conditionals.CheckBalanced(), &unclosed) {
		return
	}
	file, _ := c.files.Peek()
	for _, level := range unclosed.Levels {
		c.diagnostics = append(c.diagnostics, Diagnostic{
			Kind: Unbalanced,
			Pos:  token.Position{Filename: file, Line: level.Line},
			Msg:  "`" + ifdefKeyword(level.Negated) + " " + level.Name + " without matching `endif",
		})
	}
}

func ifdefKeyword(negated bool) string {
	return Ifdef{Negated: negated}.Keyword()
}

func (c *Context) report(err error) {
	if err == nil {
		return
	}
	file, _ := c.files.Peek()
	if d, ok := asDiagnostic(err, file); ok {
		c.diagnostics = append(c.diagnostics, d)
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{Pos: token.Position{Filename: file}, Msg: err.Error()})
}
