// conditional.go implements conditional compilation (`ifdef, `ifndef, etc.)
package vpp

import (
	"fmt"
	"strings"
)

// ConditionalContext is one `ifdef/`ifndef nesting level.
type ConditionalContext struct {
	Name      string // Macro tested by the opening directive
	Line      int    // Line of the opening directive
	Negated   bool   // true for `ifndef
	Passed    bool   // true if the current branch of this level is emitted
	Committed bool   // true once a branch was taken; later branches stay off
	SeenElse  bool   // true after `else at this level
}

// ConditionalStack tracks nested conditional compilation.
type ConditionalStack struct {
	macros *MacroTable
	stack  []ConditionalContext
}

// NewConditionalStack creates an empty stack evaluating against macros.
func NewConditionalStack(macros *MacroTable) *ConditionalStack {
	return &ConditionalStack{
		macros: macros,
		stack:  []ConditionalContext{},
	}
}

// Active returns true if tokens at the current location should be emitted.
func (cs *ConditionalStack) Active() bool {
	for _, level := range cs.stack {
		if !level.Passed {
			return false
		}
	}
	return true
}

// enclosingActive reports whether every level below the top is passing.
func (cs *ConditionalStack) enclosingActive() bool {
	for i := 0; i < len(cs.stack)-1; i++ {
		if !cs.stack[i].Passed {
			return false
		}
	}
	return true
}

// Ifdef handles `ifdef (negated=false) and `ifndef (negated=true).
func (cs *ConditionalStack) Ifdef(name string, line int, negated bool) {
	parent := cs.Active()
	passed := parent && cs.macros.IsDefined(name) != negated
	cs.stack = append(cs.stack, ConditionalContext{
		Name:    name,
		Line:    line,
		Negated: negated,
		Passed:  passed,
		// Inside an inactive region no branch of this level may ever emit.
		Committed: passed || !parent,
	})
}

// Elsif handles `elsif.
func (cs *ConditionalStack) Elsif(name string, line int) error {
	if len(cs.stack) == 0 {
		return &DirectiveError{Kind: Unbalanced, Directive: "elsif", Line: line,
			Msg: "without preceding `ifdef or `ifndef"}
	}

	level := &cs.stack[len(cs.stack)-1]
	if level.SeenElse {
		level.Passed = false
		return &DirectiveError{Kind: Misplaced, Directive: "elsif", Line: line,
			Msg: fmt.Sprintf("after `else of `ifdef on line %d", level.Line)}
	}

	if level.Committed || !cs.enclosingActive() {
		level.Passed = false
		return nil
	}

	// `elsif repeats the opening test, so an `ifndef level stays negated.
	level.Passed = cs.macros.IsDefined(name) != level.Negated
	level.Committed = level.Passed
	return nil
}

// Else handles `else.
func (cs *ConditionalStack) Else(line int) error {
	if len(cs.stack) == 0 {
		return &DirectiveError{Kind: Unbalanced, Directive: "else", Line: line,
			Msg: "without preceding `ifdef or `ifndef"}
	}

	level := &cs.stack[len(cs.stack)-1]
	if level.SeenElse {
		level.Passed = false
		return &DirectiveError{Kind: Misplaced, Directive: "else", Line: line,
			Msg: fmt.Sprintf("duplicate for `ifdef on line %d", level.Line)}
	}
	level.SeenElse = true

	level.Passed = !level.Committed && cs.enclosingActive()
	level.Committed = true
	return nil
}

// Endif handles `endif.
func (cs *ConditionalStack) Endif(line int) error {
	if len(cs.stack) == 0 {
		return &DirectiveError{Kind: Unbalanced, Directive: "endif", Line: line,
			Msg: "without preceding `ifdef or `ifndef"}
	}
	cs.stack = cs.stack[:len(cs.stack)-1]
	return nil
}

// Top returns the innermost open level, if any.
func (cs *ConditionalStack) Top() (ConditionalContext, bool) {
	if len(cs.stack) == 0 {
		return ConditionalContext{}, false
	}
	return cs.stack[len(cs.stack)-1], true
}

// Depth returns the nesting depth of conditionals.
func (cs *ConditionalStack) Depth() int {
	return len(cs.stack)
}

// UnclosedError lists the conditional levels still open at end of input.
type UnclosedError struct {
	Levels []ConditionalContext // outermost first
}

func (e *UnclosedError) Error() string {
	lines := make([]string, len(e.Levels))
	for i, level := range e.Levels {
		lines[i] = fmt.Sprint(level.Line)
	}
	return fmt.Sprintf("unterminated conditional directive, %d level(s) unclosed (opened on line %s)",
		len(e.Levels), strings.Join(lines, ", "))
}

// CheckBalanced returns an *UnclosedError if there are unclosed conditionals.
func (cs *ConditionalStack) CheckBalanced() error {
	if len(cs.stack) == 0 {
		return nil
	}
	levels := make([]ConditionalContext, len(cs.stack))
	copy(levels, cs.stack)
	return &UnclosedError{Levels: levels}
}
