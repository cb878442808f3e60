package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eedesignhouse/QtVerilog/pkg/config"
	"github.com/eedesignhouse/QtVerilog/pkg/preproc"
	"github.com/eedesignhouse/QtVerilog/pkg/vpp"
)

var version = "0.1.0"

// Preprocessor options
var (
	includePaths   []string
	defineFlags    []string
	undefineFlags  []string
	configFile     string
	preprocessOnly bool // -E flag
	dumpState      bool
	lineMarkers    bool
	werror         bool
	verbose        bool
)

// ErrDiagnostics indicates that --werror turned diagnostics into a failure
var ErrDiagnostics = errors.New("directive diagnostics reported")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Accept simulator-style plusargs alongside regular flags
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// normalizeFlags rewrites +define+A+B=1 and +incdir+DIR style arguments, as
// accepted by most Verilog simulators, into their --define and --include
// equivalents.
func normalizeFlags(args []string) []string {
	var result []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "+define+"):
			for _, d := range strings.Split(arg[len("+define+"):], "+") {
				if d != "" {
					result = append(result, "--define", d)
				}
			}
		case strings.HasPrefix(arg, "+incdir+"):
			for _, dir := range strings.Split(arg[len("+incdir+"):], "+") {
				if dir != "" {
					result = append(result, "--include", dir)
				}
			}
		default:
			result = append(result, arg)
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vpp [file]",
		Short: "vpp evaluates Verilog compiler directives",
		Long: `vpp runs the compiler directive engine of the QtVerilog front end
over a source file: it tracks macro definitions, conditional compilation
blocks, include files and default net types, and reports the text the
grammar would see.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			opts, err := buildPreprocessorOptions(errOut)
			if err != nil {
				fmt.Fprintf(errOut, "vpp: %v\n", err)
				return err
			}

			res, err := preproc.Preprocess(filename, opts)
			if err != nil {
				fmt.Fprintf(errOut, "vpp: preprocessing error: %v\n", err)
				return err
			}

			diags := res.Context.Diagnostics()
			for _, d := range diags {
				fmt.Fprintf(errOut, "vpp: warning: %s\n", d)
			}

			switch {
			case preprocessOnly:
				fmt.Fprint(out, res.Text)
			case dumpState:
				if err := writeSnapshot(out, filename, res.Context); err != nil {
					fmt.Fprintf(errOut, "vpp: %v\n", err)
					return err
				}
			default:
				fmt.Fprintf(errOut, "vpp: %s: %d macro(s), %d include(s), %d diagnostic(s)\n",
					filename, res.Context.Macros().Len(), len(res.Context.Includes()), len(diags))
			}

			if werror && len(diags) > 0 {
				return ErrDiagnostics
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Read search dirs and macros from a YAML project file")
	rootCmd.Flags().BoolVarP(&preprocessOnly, "preprocess", "E", false, "Print the text of emitting regions to stdout")
	rootCmd.Flags().BoolVar(&dumpState, "dump", false, "Print the final directive state as YAML")
	rootCmd.Flags().BoolVar(&lineMarkers, "line-markers", false, "Mark include boundaries with `line directives (with -E)")
	rootCmd.Flags().BoolVar(&werror, "werror", false, "Exit with an error if any diagnostic is reported")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Trace every directive to stderr")

	return rootCmd
}

// buildPreprocessorOptions creates preproc.Options from CLI flags
func buildPreprocessorOptions(errOut io.Writer) (*preproc.Options, error) {
	opts := &preproc.Options{
		SearchDirs:  includePaths,
		Defines:     defineFlags,
		Undefines:   undefineFlags,
		LineMarkers: lineMarkers,
	}
	if verbose {
		opts.Trace = errOut
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg.Apply(opts)
	}
	return opts, nil
}

// snapshot is the --dump view of a finished session.
type snapshot struct {
	File             string                 `yaml:"file"`
	SearchDirs       []string               `yaml:"search_dirs"`
	Macros           []macroEntry           `yaml:"macros"`
	Includes         []includeEntry         `yaml:"includes"`
	NetTypes         []vpp.NetTypeDirective `yaml:"net_types"`
	DefaultNetType   vpp.NetType            `yaml:"default_nettype"`
	UnconnectedDrive vpp.Strength           `yaml:"unconnected_drive"`
	InCellDefine     bool                   `yaml:"in_cell_define"`
	Diagnostics      []string               `yaml:"diagnostics"`
}

type macroEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Line  int    `yaml:"line"`
}

type includeEntry struct {
	Filename string `yaml:"filename"`
	Line     int    `yaml:"line"`
	Path     string `yaml:"path,omitempty"`
	Found    bool   `yaml:"found"`
}

func writeSnapshot(w io.Writer, filename string, ctx *vpp.Context) error {
	snap := snapshot{
		File:             filename,
		SearchDirs:       ctx.SearchDirs(),
		NetTypes:         ctx.NetTypes(),
		DefaultNetType:   ctx.DefaultNetType(),
		UnconnectedDrive: ctx.UnconnectedDrive(),
		InCellDefine:     ctx.InCellDefine(),
	}
	for _, name := range ctx.Macros().Names() {
		m, _ := ctx.Lookup(name)
		snap.Macros = append(snap.Macros, macroEntry{Name: m.Name, Value: m.Value, Line: m.Line})
	}
	for _, inc := range ctx.Includes() {
		snap.Includes = append(snap.Includes, includeEntry(inc))
	}
	for _, d := range ctx.Diagnostics() {
		snap.Diagnostics = append(snap.Diagnostics, d.String())
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return enc.Close()
}
