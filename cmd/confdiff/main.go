// confdiff: a structural diff for configuration files.
//
// Compares two config files (JSON, YAML, TOML, .env, properties, INI) as
// trees of values instead of lines, and classifies every change by severity
// and category. Inputs are read-only: local paths, stdin or http(s) GETs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/config"
	"github.com/TsekNet/confdiff/internal/diff"
	"github.com/TsekNet/confdiff/internal/output"
	"github.com/TsekNet/confdiff/internal/parser"
	"github.com/TsekNet/confdiff/internal/pathmatch"
	"github.com/TsekNet/confdiff/internal/source"
	"github.com/TsekNet/confdiff/internal/transform"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	buildDate = "unknown"
	goVersion = "unknown"
)

// Flags.
var (
	flagFormat           string
	flagNoColor          bool
	flagVerbose          bool
	flagExitCode         bool
	flagMinSeverity      string
	flagToken            string
	flagContext          string
	flagFormatLeft       string
	flagFormatRight      string
	flagIgnoreKeys       []string
	flagIgnorePaths      []string
	flagCaseInsensitive  bool
	flagSemantic         bool
	flagIgnoreWhitespace bool
	flagSortKeys         bool
	flagFlatten          bool
	flagMaxDepth         int
	flagArrayAlignment   string
	flagDiffMode         string
	flagContextLines     uint
)

// errChangesDetected makes the process exit 1 under --exit-code. It carries
// no message; the diff has already been printed.
var errChangesDetected = errors.New("changes detected")

// buildRootCmd constructs the root cobra.Command with all subcommands and flags.
// Extracted from main() so tests can call it without os.Exit.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "confdiff [flags] LEFT RIGHT",
		Short: "structural diff for configuration files",
		Long: `confdiff compares two configuration files as value trees and classifies
every change by severity (critical, major, minor, cosmetic) and category.

LEFT and RIGHT are file paths, "-" for stdin, or http(s) URLs.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompare,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flagFormat, "format", "f", "terminal", "output format: terminal, json")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable color output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "show full old/new values for changed fields")

	f := root.Flags()
	f.BoolVar(&flagExitCode, "exit-code", false, "exit 1 when the files differ")
	f.StringVar(&flagMinSeverity, "min-severity", "", "hide changes below this severity in terminal output")
	f.StringVar(&flagToken, "token", "", "bearer token for URL inputs (or $"+source.EnvToken+")")
	f.StringVar(&flagContext, "context", "", "config file context to use (or $"+config.EnvContext+")")
	f.StringVar(&flagFormatLeft, "format-left", "", "force the left input format (default: from extension)")
	f.StringVar(&flagFormatRight, "format-right", "", "force the right input format (default: from extension)")
	f.StringSliceVarP(&flagIgnoreKeys, "ignore-key", "i", nil, "ignore keys with this name at any depth (repeatable)")
	f.StringSliceVar(&flagIgnorePaths, "ignore-path", nil, "ignore paths matching this glob, e.g. metadata.** (repeatable)")
	f.BoolVar(&flagCaseInsensitive, "case-insensitive", false, "compare keys and strings case-insensitively")
	f.BoolVar(&flagSemantic, "semantic", false, `treat equivalent values as equal ("true" == true, "1.0" == 1)`)
	f.BoolVar(&flagIgnoreWhitespace, "ignore-whitespace", false, "collapse whitespace in string values")
	f.BoolVar(&flagSortKeys, "sort-keys", false, "sort mapping keys before comparing")
	f.BoolVar(&flagFlatten, "flatten", false, "flatten nested mappings into dotted keys")
	f.IntVar(&flagMaxDepth, "max-depth", 0, "maximum nesting depth (0: default 256, negative: unlimited)")
	f.StringVar(&flagArrayAlignment, "array-alignment", "", "sequence alignment: positional, lcs")
	f.StringVar(&flagDiffMode, "diff-mode", "", "presentation hint recorded in the result: tree, side-by-side, unified")
	f.UintVar(&flagContextLines, "context-lines", 3, "context lines hint recorded in the result")

	root.AddCommand(versionCmd())

	return root
}

// flagLayer collects the comparison flags the user actually set, so unset
// flags do not override env vars or the config file.
func flagLayer(cmd *cobra.Command) config.Layer {
	var l config.Layer
	f := cmd.Flags()
	if f.Changed("ignore-key") {
		l.IgnoreKeys = flagIgnoreKeys
	}
	if f.Changed("ignore-path") {
		for _, p := range flagIgnorePaths {
			l.PathRules = append(l.PathRules, pathmatch.Rule{Pattern: p, Kind: pathmatch.Glob, Action: pathmatch.Ignore})
		}
	}
	if f.Changed("case-insensitive") {
		l.CaseSensitive = ptr(!flagCaseInsensitive)
	}
	if f.Changed("semantic") {
		l.SemanticComparison = ptr(flagSemantic)
	}
	if f.Changed("ignore-whitespace") {
		l.IgnoreWhitespace = ptr(flagIgnoreWhitespace)
	}
	if f.Changed("sort-keys") {
		l.SortKeys = ptr(flagSortKeys)
	}
	if f.Changed("flatten") {
		l.FlattenKeys = ptr(flagFlatten)
	}
	if f.Changed("max-depth") {
		l.MaxDepth = ptr(flagMaxDepth)
	}
	if f.Changed("context-lines") {
		l.ContextLines = ptr(flagContextLines)
	}
	l.ArrayAlignment = flagArrayAlignment
	l.DiffMode = flagDiffMode
	return l
}

func ptr[T any](v T) *T { return &v }

func inputFormat(s string) (parser.Format, error) {
	if s == "" {
		return "", nil
	}
	return parser.ParseFormat(s)
}

func runCompare(cmd *cobra.Command, args []string) error {
	start := time.Now()

	if flagFormat != "terminal" && flagFormat != "json" {
		return fmt.Errorf("unknown output format %q (want terminal or json)", flagFormat)
	}
	var minSeverity diff.Severity
	if flagMinSeverity != "" {
		sev, err := diff.ParseSeverity(flagMinSeverity)
		if err != nil {
			return err
		}
		minSeverity = sev
	}
	leftFormat, err := inputFormat(flagFormatLeft)
	if err != nil {
		return fmt.Errorf("--format-left: %w", err)
	}
	rightFormat, err := inputFormat(flagFormatRight)
	if err != nil {
		return fmt.Errorf("--format-right: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	opts, err := config.Resolve(flagLayer(cmd), flagContext, cwd)
	if err != nil {
		return err
	}
	for _, w := range append(pathmatch.Validate(opts.PathRules), transform.Validate(opts.ValueTransformations)...) {
		fmt.Fprintf(os.Stderr, "warning: %v (rule skipped)\n", w)
	}

	token := flagToken
	if token == "" {
		token = os.Getenv(source.EnvToken)
	}
	client := source.NewClient(token)
	ctx := context.Background()

	fmt.Fprintf(os.Stderr, "Comparing %s → %s...\n", args[0], args[1])

	left, right, err := client.LoadPair(ctx,
		source.Input{Side: "left", Ref: args[0], Format: leftFormat},
		source.Input{Side: "right", Ref: args[1], Format: rightFormat},
	)
	if err != nil {
		return err
	}

	res, err := compare.Compare(left, right, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	switch flagFormat {
	case "json":
		out, err := output.RenderJSON(res)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		output.ConfigureColor(os.Stdout, flagNoColor)
		fmt.Println(output.RenderTerminal(res, output.TerminalOptions{
			Verbose:     flagVerbose,
			MinSeverity: minSeverity,
		}))
	}

	fmt.Fprintf(os.Stderr, "Completed in %s\n", elapsed.Round(time.Millisecond))

	if flagExitCode && res.HasChanges() {
		return errChangesDetected
	}
	return nil
}

// main exits 0 when the files match (or --exit-code is off), 1 when they
// differ under --exit-code, and 2 on errors.
func main() {
	err := buildRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errChangesDetected):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
