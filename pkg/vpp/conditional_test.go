package vpp

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func TestConditionalIfdef(t *testing.T) {
	tests := []struct {
		name     string
		defined  []string
		testName string
		negated  bool
		expect   bool
	}{
		{"defined macro", []string{"FOO"}, "FOO", false, true},
		{"undefined macro", []string{}, "FOO", false, false},
		{"one of many", []string{"BAR", "FOO", "BAZ"}, "FOO", false, true},
		{"ifndef undefined", []string{}, "FOO", true, true},
		{"ifndef defined", []string{"FOO"}, "FOO", true, false},
		{"empty definition counts", []string{"FOO="}, "FOO", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			mt.ApplyCmdlineDefines(tt.defined, nil)

			cs := NewConditionalStack(mt)
			cs.Ifdef(tt.testName, 1, tt.negated)

			if cs.Active() != tt.expect {
				t.Errorf("Active() = %v, want %v", cs.Active(), tt.expect)
			}

			if err := cs.Endif(2); err != nil {
				t.Fatalf("Endif error: %v", err)
			}
			if !cs.Active() || cs.Depth() != 0 {
				t.Errorf("after Endif: Active() = %v, Depth() = %d", cs.Active(), cs.Depth())
			}
		})
	}
}

func TestConditionalElse(t *testing.T) {
	cs := NewConditionalStack(NewMacroTable())

	cs.Ifdef("UNDEFINED", 1, false)
	if cs.Active() {
		t.Error("should be inactive in false branch")
	}

	if err := cs.Else(3); err != nil {
		t.Fatalf("Else error: %v", err)
	}
	if !cs.Active() {
		t.Error("should be active in else branch")
	}

	top, ok := cs.Top()
	if !ok {
		t.Fatal("Top() reported empty stack")
	}
	if !top.Committed || !top.SeenElse {
		t.Errorf("top = %+v, want committed with else seen", top)
	}

	if err := cs.Endif(5); err != nil {
		t.Fatalf("Endif error: %v", err)
	}
}

func TestConditionalElsifKeepsNegation(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("X", "", 1)
	mt.Define("Y", "", 1)
	cs := NewConditionalStack(mt)

	// `ifndef Y fails since Y is defined; `elsif X under `ifndef needs X undefined.
	cs.Ifdef("Y", 1, true)
	if cs.Active() {
		t.Fatal("`ifndef of a defined macro should be inactive")
	}
	if err := cs.Elsif("X", 3); err != nil {
		t.Fatalf("Elsif error: %v", err)
	}
	if cs.Active() {
		t.Error("`elsif of a defined macro under `ifndef should be inactive")
	}
	if err := cs.Elsif("Z", 5); err != nil {
		t.Fatalf("Elsif error: %v", err)
	}
	if !cs.Active() {
		t.Error("`elsif of an undefined macro under `ifndef should be active")
	}
	if err := cs.Else(7); err != nil {
		t.Fatalf("Else error: %v", err)
	}
	if cs.Active() {
		t.Error("`else after a taken `elsif should be inactive")
	}
}

func TestConditionalNested(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("INNER", "", 1)
	cs := NewConditionalStack(mt)

	cs.Ifdef("OUTER", 1, false)
	cs.Ifdef("INNER", 2, false)
	if cs.Active() {
		t.Error("inner true region inside outer false region must not be active")
	}
	if err := cs.Else(3); err != nil {
		t.Fatal(err)
	}
	if cs.Active() {
		t.Error("inner else inside outer false region must not be active")
	}
	if err := cs.Endif(4); err != nil {
		t.Fatal(err)
	}
	if cs.Active() {
		t.Error("still inside outer false region")
	}
	if err := cs.Else(5); err != nil {
		t.Fatal(err)
	}
	if !cs.Active() {
		t.Error("outer else should be active")
	}
	if cs.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", cs.Depth())
	}
	if err := cs.Endif(6); err != nil {
		t.Fatal(err)
	}
}

func TestConditionalUnbalanced(t *testing.T) {
	cs := NewConditionalStack(NewMacroTable())

	for name, op := range map[string]func() error{
		"elsif": func() error { return cs.Elsif("X", 7) },
		"else":  func() error { return cs.Else(7) },
		"endif": func() error { return cs.Endif(7) },
	} {
		t.Run(name, func(t *testing.T) {
			err := op()
			de, ok := err.(*DirectiveError)
			if !ok {
				t.Fatalf("expected *DirectiveError, got %v", err)
			}
			if de.Kind != Unbalanced || de.Line != 7 || de.Directive != name {
				t.Errorf("unexpected error %+v", de)
			}
			if !cs.Active() || cs.Depth() != 0 {
				t.Errorf("state changed: Active() = %v, Depth() = %d", cs.Active(), cs.Depth())
			}
		})
	}
}

func TestConditionalDuplicateElse(t *testing.T) {
	cs := NewConditionalStack(NewMacroTable())
	cs.Ifdef("X", 1, false)
	if err := cs.Else(2); err != nil {
		t.Fatal(err)
	}
	err := cs.Else(3)
	if err == nil {
		t.Fatal("expected error for duplicate `else")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("unexpected error: %v", err)
	}
	if cs.Active() {
		t.Error("duplicate `else must not be active")
	}
}

func TestConditionalCheckBalanced(t *testing.T) {
	cs := NewConditionalStack(NewMacroTable())
	if err := cs.CheckBalanced(); err != nil {
		t.Errorf("empty stack: unexpected error %v", err)
	}
	cs.Ifdef("A", 3, false)
	cs.Ifdef("B", 9, true)
	err := cs.CheckBalanced()
	if err == nil {
		t.Fatal("expected error for unclosed conditionals")
	}
	if !strings.Contains(err.Error(), "2 level(s)") || !strings.Contains(err.Error(), "3, 9") {
		t.Errorf("unexpected error: %v", err)
	}
	unclosed, ok := err.(*UnclosedError)
	if !ok {
		t.Fatalf("expected *UnclosedError, got %T", err)
	}
	if len(unclosed.Levels) != 2 || unclosed.Levels[0].Name != "A" || !unclosed.Levels[1].Negated {
		t.Errorf("unexpected levels: %+v", unclosed.Levels)
	}
}

// conditionalScript is one entry of testdata/conditionals.yaml.
type conditionalScript struct {
	Name        string   `yaml:"name"`
	Defines     []string `yaml:"defines"`
	Script      []string `yaml:"script"`
	Visible     []string `yaml:"visible"`
	Diagnostics int      `yaml:"diagnostics"`
	Depth       int      `yaml:"depth"`
}

func TestConditionalScripts(t *testing.T) {
	data, err := os.ReadFile("testdata/conditionals.yaml")
	if err != nil {
		t.Fatalf("reading conditionals.yaml: %v", err)
	}
	var file struct {
		Tests []conditionalScript `yaml:"tests"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("failed to parse conditionals.yaml: %v", err)
	}
	if len(file.Tests) == 0 {
		t.Fatal("no tests in conditionals.yaml")
	}

	for _, tc := range file.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := NewContext(Options{Defines: tc.Defines})
			ctx.SetFile("script.v")

			var visible []string
			for i, line := range tc.Script {
				if !strings.HasPrefix(line, "`") {
					if ctx.Emit() {
						visible = append(visible, line)
					}
					continue
				}
				d, err := ParseDirective(line, i+1)
				if err != nil {
					t.Fatalf("line %d: %v", i+1, err)
				}
				if err := ctx.Apply(d); err != nil {
					t.Fatalf("line %d: %v", i+1, err)
				}
			}

			if diff := cmp.Diff(tc.Visible, visible, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("visible lines mismatch (-want +got):\n%s", diff)
			}
			if got := len(ctx.Diagnostics()); got != tc.Diagnostics {
				t.Errorf("got %d diagnostics, want %d: %v", got, tc.Diagnostics, ctx.Diagnostics())
			}
			if got := ctx.Conditionals().Depth(); got != tc.Depth {
				t.Errorf("Depth() = %d, want %d", got, tc.Depth)
			}
			if tc.Depth == 0 && !ctx.Emit() {
				t.Error("Emit() should be true once every conditional is closed")
			}
		})
	}
}
