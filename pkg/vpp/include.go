// Include path handling for `include directives.
package vpp

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSearchDir is the search directory every session starts with.
const DefaultSearchDir = "./"

// MaxIncludeDepth is the maximum allowed include nesting.
const MaxIncludeDepth = 200

// IncludeDirective records one `include and its resolution outcome.
type IncludeDirective struct {
	Filename string // Name as written in the directive
	Line     int    // Line of the directive
	Path     string // search dir + Filename of the match, empty if not found
	Found    bool
}

// IncludeResolver finds include files in an ordered list of directories.
type IncludeResolver struct {
	SearchDirs []string
}

// NewIncludeResolver creates a resolver searching only the current directory.
func NewIncludeResolver() *IncludeResolver {
	return &IncludeResolver{SearchDirs: []string{DefaultSearchDir}}
}

// AddSearchDir appends a directory to the search list.
// A trailing separator is added if missing since candidates are formed by
// concatenating the directory and the include name.
func (r *IncludeResolver) AddSearchDir(dir string) {
	if dir == "" {
		return
	}
	if !strings.HasSuffix(dir, "/") && !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += "/"
	}
	r.SearchDirs = append(r.SearchDirs, dir)
}

// Resolve searches for filename in SearchDirs order and stops at the first
// readable regular file. An absolute filename is only checked as written.
func (r *IncludeResolver) Resolve(filename string, line int) IncludeDirective {
	inc := IncludeDirective{Filename: filename, Line: line}
	if filepath.IsAbs(filename) {
		if readable(filename) {
			inc.Path = filename
			inc.Found = true
		}
		return inc
	}
	for _, dir := range r.SearchDirs {
		candidate := dir + filename
		if readable(candidate) {
			inc.Path = candidate
			inc.Found = true
			break
		}
	}
	return inc
}

func readable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// IncludeError indicates that an include file was not found.
type IncludeError struct {
	Filename string
	Line     int
	Searched []string
}

func (e *IncludeError) Error() string {
	return "include file not found: " + strconv.Quote(e.Filename) +
		" (searched " + strings.Join(e.Searched, ", ") + ")"
}

// CircularIncludeError indicates a circular include dependency.
type CircularIncludeError struct {
	Path  string
	Stack []string
}

func (e *CircularIncludeError) Error() string {
	var sb strings.Builder
	sb.WriteString("circular include detected: ")
	sb.WriteString(e.Path)
	sb.WriteString("\ninclude stack:\n")
	for i, f := range e.Stack {
		sb.WriteString("  ")
		sb.WriteString(strings.Repeat("  ", i))
		sb.WriteString(filepath.Base(f))
		sb.WriteString("\n")
	}
	return sb.String()
}
