// Package preproc drives a vpp.Context over Verilog source files.
// It plays the part of the scanner: it recognises directive lines, forwards
// the text of emitting regions, descends into included files and pops the
// file stack when an included file ends. Macro uses are left untouched.
package preproc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/eedesignhouse/QtVerilog/pkg/vpp"
)

// Options configures the preprocessing step
type Options struct {
	SearchDirs  []string // -I directories, searched after "./"
	Defines     []string // -D macros (NAME or NAME=VALUE)
	Undefines   []string // -U macros
	LineMarkers bool     // Generate `line markers around included text
	Trace       io.Writer
}

// Result is the outcome of a preprocessing session.
type Result struct {
	Text    string       // text of every emitting region
	Context *vpp.Context // final directive state
}

// Preprocess runs a new session over the given file.
func Preprocess(filename string, opts *Options) (*Result, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return PreprocessString(string(content), filename, opts)
}

// PreprocessString runs a new session over source, reporting positions
// against filename.
func PreprocessString(source, filename string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	s := newScanner(opts)
	s.ctx.SetFile(filename)

	if opts.LineMarkers {
		fmt.Fprintf(&s.out, "`line 1 %q 0\n", filename)
	}

	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	s.open = append(s.open, abs)
	if err := s.scan(source, filename); err != nil {
		return nil, err
	}
	s.ctx.Finish()

	return &Result{Text: s.out.String(), Context: s.ctx}, nil
}

// scanner carries one session's state across nested files.
type scanner struct {
	ctx    *vpp.Context
	opts   *Options
	out    strings.Builder
	open   []string // absolute paths of files being read, for cycle detection
	tokens int      // whitespace-separated words seen so far
}

func newScanner(opts *Options) *scanner {
	return &scanner{
		ctx: vpp.NewContext(vpp.Options{
			SearchDirs: opts.SearchDirs,
			Defines:    opts.Defines,
			Undefines:  opts.Undefines,
		}),
		opts: opts,
	}
}

// scan processes the lines of one file.
func (s *scanner) scan(source, filename string) error {
	lines := splitLines(source)
	for i := 0; i < len(lines); i++ {
		lineNum := i + 1
		line := lines[i]

		if directiveIndex(line) < 0 {
			s.tokens += len(strings.Fields(line))
			if s.ctx.Emit() {
				s.out.WriteString(line)
				s.out.WriteByte('\n')
			}
			continue
		}

		// `define text continues over lines ending in a backslash.
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + "\n" + lines[i]
		}

		if err := s.mixedLine(line, lineNum, filename); err != nil {
			return fmt.Errorf("%s:%d: %w", filename, lineNum, err)
		}
	}
	return nil
}

// mixedLine handles a line holding one or more directives, possibly with
// ordinary text around them. Text is forwarded according to the emit state
// in force where it appears.
func (s *scanner) mixedLine(line string, lineNum int, filename string) error {
	var text strings.Builder
	flush := func() {
		if strings.TrimSpace(text.String()) != "" {
			s.out.WriteString(text.String())
			s.out.WriteByte('\n')
		}
		text.Reset()
	}

	for line != "" {
		idx := directiveIndex(line)
		if idx < 0 {
			s.text(&text, line)
			break
		}
		s.text(&text, line[:idx])

		head, rest := vpp.SplitDirective(line[idx:])
		if isIncludeHead(head) {
			flush()
		}
		if err := s.directive(head, lineNum, filename); err != nil {
			return err
		}
		if strings.HasPrefix(strings.TrimLeft(rest, " \t"), "//") {
			rest = ""
		}
		line = rest
	}
	flush()
	return nil
}

// text buffers a run of ordinary text seen on a directive line.
func (s *scanner) text(buf *strings.Builder, segment string) {
	s.tokens += len(strings.Fields(segment))
	if s.ctx.Emit() {
		buf.WriteString(segment)
	}
}

// directive parses and applies one directive.
func (s *scanner) directive(text string, lineNum int, filename string) error {
	tokenNum := s.tokens + 1
	s.tokens += len(strings.Fields(text))

	d, err := vpp.ParseDirective(text, lineNum)
	if err != nil {
		// Malformed directives in inactive regions are skipped.
		if !s.ctx.Emit() {
			return nil
		}
		return err
	}

	switch dd := d.(type) {
	case vpp.DefaultNettype:
		dd.Token = tokenNum
		d = dd
	case vpp.Resetall:
		dd.Token = tokenNum
		d = dd
	}

	emitting := s.ctx.Emit()
	if err := s.ctx.Apply(d); err != nil {
		return err
	}
	if s.opts.Trace != nil {
		fmt.Fprintf(s.opts.Trace, "%s:%d: %s (emit=%v)\n", filename, lineNum, d, s.ctx.Emit())
	}

	if inc, ok := d.(vpp.Include); ok && emitting {
		return s.include(inc, filename)
	}
	return nil
}

// include reads the file the context just resolved and pops it from the
// file stack once it has been scanned.
func (s *scanner) include(dir vpp.Include, currentFile string) error {
	includes := s.ctx.Includes()
	resolved := includes[len(includes)-1]
	if !resolved.Found {
		return nil
	}
	defer s.ctx.Files().Pop()

	if len(s.open) >= vpp.MaxIncludeDepth {
		return errors.New("`include nested too deeply")
	}
	abs, err := filepath.Abs(resolved.Path)
	if err != nil {
		abs = resolved.Path
	}
	for _, f := range s.open {
		if f == abs {
			return &vpp.CircularIncludeError{Path: abs, Stack: append([]string(nil), s.open...)}
		}
	}

	content, err := os.ReadFile(resolved.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", resolved.Path, err)
	}

	if s.opts.LineMarkers {
		fmt.Fprintf(&s.out, "`line 1 %q 1\n", resolved.Path)
	}

	s.open = append(s.open, abs)
	err = s.scan(string(content), resolved.Path)
	s.open = s.open[:len(s.open)-1]
	if err != nil {
		return fmt.Errorf("in %s: %w", resolved.Path, err)
	}

	if s.opts.LineMarkers {
		fmt.Fprintf(&s.out, "`line %d %q 2\n", dir.Line+1, currentFile)
	}
	return nil
}

// directiveIndex returns the offset of the first directive in line, or -1.
// Backtick words outside the directive vocabulary are macro uses and
// anything after a // comment marker is ignored.
func directiveIndex(line string) int {
	comment := strings.Index(line, "//")
	for i := 0; i < len(line); i++ {
		if comment >= 0 && i >= comment {
			return -1
		}
		if line[i] != '`' {
			continue
		}
		word := line[i+1:]
		if end := strings.IndexFunc(word, notIdentRune); end >= 0 {
			word = word[:end]
		}
		if vpp.IsDirectiveKeyword(word) {
			return i
		}
	}
	return -1
}

func notIdentRune(r rune) bool {
	return r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isIncludeHead(head string) bool {
	return strings.HasPrefix(strings.TrimLeft(head, " \t"), "`include")
}

func splitLines(source string) []string {
	source = strings.TrimSuffix(source, "\n")
	if source == "" {
		return nil
	}
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
