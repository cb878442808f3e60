package vpp

import (
	"errors"
	"fmt"

	"modernc.org/token"
)

// DiagnosticKind classifies a recoverable directive problem.
type DiagnosticKind int

const (
	Unbalanced DiagnosticKind = iota // `elsif, `else or `endif without `ifdef
	Unresolved                       // `include file not found in any search dir
	Misplaced                        // `elsif after `else, duplicate `else
)

func (k DiagnosticKind) String() string {
	switch k {
	case Unbalanced:
		return "unbalanced directive"
	case Unresolved:
		return "unresolved include"
	case Misplaced:
		return "misplaced directive"
	default:
		return "unknown"
	}
}

// Diagnostic is a problem attached to a source line. Processing continues
// after a diagnostic is recorded.
type Diagnostic struct {
	Kind DiagnosticKind
	Pos  token.Position
	Msg  string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
	}
	return d.Msg
}

// ErrUnknownDirective is returned by ParseDirective for a backtick word that
// is not part of the directive vocabulary, usually a macro use.
var ErrUnknownDirective = errors.New("unknown compiler directive")

// DirectiveError reports a directive that could not be applied.
type DirectiveError struct {
	Kind      DiagnosticKind
	Directive string // Keyword without the backtick
	Line      int
	Msg       string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("line %d: `%s %s", e.Line, e.Directive, e.Msg)
}

// asDiagnostic converts err into a Diagnostic positioned in file.
// It returns false if err is not a recoverable directive problem.
func asDiagnostic(err error, file string) (Diagnostic, bool) {
	var de *DirectiveError
	if errors.As(err, &de) {
		return Diagnostic{
			Kind: de.Kind,
			Pos:  token.Position{Filename: file, Line: de.Line},
			Msg:  "`" + de.Directive + " " + de.Msg,
		}, true
	}
	var ie *IncludeError
	if errors.As(err, &ie) {
		return Diagnostic{
			Kind: Unresolved,
			Pos:  token.Position{Filename: file, Line: ie.Line},
			Msg:  ie.Error(),
		}, true
	}
	return Diagnostic{}, false
}
