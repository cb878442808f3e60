package vpp

import (
	"fmt"
	"strings"
)

type (
	// Directive is a compiler directive from the fixed Verilog vocabulary.
	// The set of implementations is closed; see Context.Apply.
	Directive interface {
		fmt.Stringer
		Keyword() string // directive name without the backtick
		SourceLine() int // line the directive appeared on
		directive()
	}
	// Define is `define NAME text. Text is everything after the name,
	// including any formal argument list.
	Define struct {
		Line int
		Name string
		Text string
	}
	// Undef is `undef NAME.
	Undef struct {
		Line int
		Name string
	}
	// Ifdef is `ifdef NAME, or `ifndef NAME when Negated is set.
	Ifdef struct {
		Line    int
		Name    string
		Negated bool
	}
	// Elsif is `elsif NAME.
	Elsif struct {
		Line int
		Name string
	}
	// Else is `else.
	Else struct{ Line int }
	// Endif is `endif.
	Endif struct{ Line int }
	// Include is `include "file" or `include <file>.
	Include struct {
		Line     int
		Filename string
	}
	// DefaultNettype is `default_nettype TYPE. Token is the token number of
	// the directive in the input, supplied by the scanner.
	DefaultNettype struct {
		Line  int
		Token int
		Type  NetType
	}
	// Resetall is `resetall.
	Resetall struct {
		Line  int
		Token int
	}
	// UnconnectedDrive is `unconnected_drive pull0|pull1.
	UnconnectedDrive struct {
		Line int
		Pull Strength
	}
	// NounconnectedDrive is `nounconnected_drive.
	NounconnectedDrive struct{ Line int }
	// Celldefine is `celldefine.
	Celldefine struct{ Line int }
	// Endcelldefine is `endcelldefine.
	Endcelldefine struct{ Line int }
)

func (Define) directive()             {}
func (Undef) directive()              {}
func (Ifdef) directive()              {}
func (Elsif) directive()              {}
func (Else) directive()               {}
func (Endif) directive()              {}
func (Include) directive()            {}
func (DefaultNettype) directive()     {}
func (Resetall) directive()           {}
func (UnconnectedDrive) directive()   {}
func (NounconnectedDrive) directive() {}
func (Celldefine) directive()         {}
func (Endcelldefine) directive()      {}

func (d Define) Keyword() string { return "define" }
func (d Undef) Keyword() string  { return "undef" }
func (d Ifdef) Keyword() string {
	if d.Negated {
		return "ifndef"
	}
	return "ifdef"
}
func (d Elsif) Keyword() string              { return "elsif" }
func (d Else) Keyword() string               { return "else" }
func (d Endif) Keyword() string              { return "endif" }
func (d Include) Keyword() string            { return "include" }
func (d DefaultNettype) Keyword() string     { return "default_nettype" }
func (d Resetall) Keyword() string           { return "resetall" }
func (d UnconnectedDrive) Keyword() string   { return "unconnected_drive" }
func (d NounconnectedDrive) Keyword() string { return "nounconnected_drive" }
func (d Celldefine) Keyword() string         { return "celldefine" }
func (d Endcelldefine) Keyword() string      { return "endcelldefine" }

func (d Define) SourceLine() int             { return d.Line }
func (d Undef) SourceLine() int              { return d.Line }
func (d Ifdef) SourceLine() int              { return d.Line }
func (d Elsif) SourceLine() int              { return d.Line }
func (d Else) SourceLine() int               { return d.Line }
func (d Endif) SourceLine() int              { return d.Line }
func (d Include) SourceLine() int            { return d.Line }
func (d DefaultNettype) SourceLine() int     { return d.Line }
func (d Resetall) SourceLine() int           { return d.Line }
func (d UnconnectedDrive) SourceLine() int   { return d.Line }
func (d NounconnectedDrive) SourceLine() int { return d.Line }
func (d Celldefine) SourceLine() int         { return d.Line }
func (d Endcelldefine) SourceLine() int      { return d.Line }

func (d Define) String() string {
	if d.Text == "" {
		return "`define " + d.Name
	}
	return "`define " + d.Name + " " + d.Text
}
func (d Undef) String() string              { return "`undef " + d.Name }
func (d Ifdef) String() string              { return "`" + d.Keyword() + " " + d.Name }
func (d Elsif) String() string              { return "`elsif " + d.Name }
func (d Else) String() string               { return "`else" }
func (d Endif) String() string              { return "`endif" }
func (d Include) String() string            { return fmt.Sprintf("`include %q", d.Filename) }
func (d DefaultNettype) String() string     { return "`default_nettype " + d.Type.String() }
func (d Resetall) String() string           { return "`resetall" }
func (d UnconnectedDrive) String() string   { return "`unconnected_drive " + d.Pull.String() }
func (d NounconnectedDrive) String() string { return "`nounconnected_drive" }
func (d Celldefine) String() string         { return "`celldefine" }
func (d Endcelldefine) String() string      { return "`endcelldefine" }

var directiveKeywords = map[string]bool{
	"define":              true,
	"undef":               true,
	"ifdef":               true,
	"ifndef":              true,
	"elsif":               true,
	"else":                true,
	"endif":               true,
	"include":             true,
	"default_nettype":     true,
	"resetall":            true,
	"unconnected_drive":   true,
	"nounconnected_drive": true,
	"celldefine":          true,
	"endcelldefine":       true,
}

// IsDirectiveKeyword reports whether word (without backtick) names a directive.
func IsDirectiveKeyword(word string) bool {
	return directiveKeywords[word]
}

// IsConditional reports whether d is one of the conditional directives,
// which are honoured even inside a non-emitting region.
func IsConditional(d Directive) bool {
	switch d.(type) {
	case Ifdef, Elsif, Else, Endif:
		return true
	}
	return false
}

// SplitDirective splits text, which starts with a directive, into the
// directive with its own arguments and whatever follows it on the same line.
// `define always takes the rest of the line as its body.
func SplitDirective(text string) (directive, rest string) {
	trimmed := strings.TrimLeft(text, " \t")
	if !strings.HasPrefix(trimmed, "`") {
		return text, ""
	}
	keyword, after := splitIdent(trimmed[1:])
	end := len(text) - len(trimmed) + 1 + len(keyword)

	args := strings.TrimLeft(after, " \t")
	gap := len(after) - len(args)
	switch keyword {
	case "define":
		return text, ""
	case "undef", "ifdef", "ifndef", "elsif", "default_nettype", "unconnected_drive":
		if arg, _ := splitIdent(args); arg != "" {
			end += gap + len(arg)
		}
	case "include":
		if n := includeArgLen(args); n > 0 {
			end += gap + n
		}
	}
	return text[:end], text[end:]
}

// includeArgLen returns the length of the `include file name at the start
// of s, quotes included.
func includeArgLen(s string) int {
	if s == "" {
		return 0
	}
	if s[0] == '"' || s[0] == '<' {
		closing := byte('"')
		if s[0] == '<' {
			closing = '>'
		}
		if i := strings.IndexByte(s[1:], closing); i >= 0 {
			return i + 2
		}
		return len(s)
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return i
	}
	return len(s)
}

// ParseDirective parses one directive from text, which must start with a
// backtick. The directive extends to the end of text.
func ParseDirective(text string, line int) (Directive, error) {
	text = strings.TrimLeft(text, " \t")
	if !strings.HasPrefix(text, "`") {
		return nil, fmt.Errorf("line %d: directive must start with '`'", line)
	}
	keyword, rest := splitIdent(text[1:])
	if !IsDirectiveKeyword(keyword) {
		return nil, fmt.Errorf("line %d: `%s: %w", line, keyword, ErrUnknownDirective)
	}

	if keyword == "define" {
		name, body := splitIdent(strings.TrimLeft(rest, " \t"))
		if name == "" {
			return nil, fmt.Errorf("line %d: `define requires a macro name", line)
		}
		// A formal argument list must follow the name directly.
		if !strings.HasPrefix(body, "(") {
			body = strings.TrimLeft(body, " \t")
		}
		return Define{Line: line, Name: name, Text: strings.TrimRight(body, " \t\r")}, nil
	}

	args := strings.Fields(stripLineComment(rest))
	switch keyword {
	case "undef", "ifdef", "ifndef", "elsif":
		if len(args) != 1 || !isIdent(args[0]) {
			return nil, fmt.Errorf("line %d: `%s requires a single macro name", line, keyword)
		}
		switch keyword {
		case "undef":
			return Undef{Line: line, Name: args[0]}, nil
		case "elsif":
			return Elsif{Line: line, Name: args[0]}, nil
		default:
			return Ifdef{Line: line, Name: args[0], Negated: keyword == "ifndef"}, nil
		}
	case "include":
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: `include requires a file name", line)
		}
		name, ok := unquoteInclude(args[0])
		if !ok {
			return nil, fmt.Errorf("line %d: `include file name must be quoted: %s", line, args[0])
		}
		return Include{Line: line, Filename: name}, nil
	case "default_nettype":
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: `default_nettype requires a net type", line)
		}
		t, err := ParseNetType(args[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: `default_nettype: %w", line, err)
		}
		return DefaultNettype{Line: line, Type: t}, nil
	case "unconnected_drive":
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: `unconnected_drive requires pull0 or pull1", line)
		}
		s, err := ParseStrength(args[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: `unconnected_drive: %w", line, err)
		}
		return UnconnectedDrive{Line: line, Pull: s}, nil
	}

	if len(args) != 0 {
		return nil, fmt.Errorf("line %d: `%s takes no arguments", line, keyword)
	}
	switch keyword {
	case "else":
		return Else{Line: line}, nil
	case "endif":
		return Endif{Line: line}, nil
	case "resetall":
		return Resetall{Line: line}, nil
	case "nounconnected_drive":
		return NounconnectedDrive{Line: line}, nil
	case "celldefine":
		return Celldefine{Line: line}, nil
	default:
		return Endcelldefine{Line: line}, nil
	}
}

// splitIdent splits a leading identifier off s.
func splitIdent(s string) (ident, rest string) {
	i := 0
	for i < len(s) && isIdentByte(s[i], i == 0) {
		i++
	}
	return s[:i], s[i:]
}

func isIdent(s string) bool {
	ident, rest := splitIdent(s)
	return ident != "" && rest == ""
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9' || c == '$':
		return !first
	}
	return false
}

func unquoteInclude(s string) (string, bool) {
	if len(s) < 3 {
		return "", false
	}
	if s[0] == '"' && s[len(s)-1] == '"' || s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1], true
	}
	return "", false
}
