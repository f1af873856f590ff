// Package cobraext provides Cobra commands for inspecting QC files.
// It isolates the CLI dependencies so that users of package qc who don't
// need them never import them.
package cobraext

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/relux-works/qclang/qc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Env carries what the commands share. The root command fills it in
// before any subcommand runs.
type Env struct {
	Settings   qc.Settings
	Logger     zerolog.Logger
	Extensions []string // file extensions searched in directories
	Jobs       int      // files parsed concurrently; <= 0 means GOMAXPROCS
}

// NewEnv returns an Env with default settings and a disabled logger.
func NewEnv() *Env {
	return &Env{
		Settings:   qc.DefaultSettings(),
		Logger:     zerolog.Nop(),
		Extensions: []string{".qc"},
	}
}

func (e *Env) jobs() int {
	if e.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return e.Jobs
}

// Output formats accepted by --format.
const (
	formatQC   = "qc"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	kindColor   = color.New(color.FgCyan)
	headerColor = color.New(color.FgYellow, color.Bold)
)

// parseFormat normalizes a --format value. "compact" is an alias for "qc".
func parseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case formatQC, "compact":
		return formatQC, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q: use \"qc\", \"json\", or \"yaml\"", s)
	}
}

// writeStructured writes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type tokenView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Text   string `json:"text" yaml:"text"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Indent int    `json:"indent" yaml:"indent"`
}

// TokensCommand creates a "tokens" subcommand that prints the lexer output
// of one file ("-" reads standard input).
func TokensCommand(env *Env) *cobra.Command {
	var (
		all    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the tokens of a QC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(format)
			if err != nil {
				return err
			}
			text, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			list := qc.Tokenize(text, env.Settings)

			var views []tokenView
			for _, tok := range list.Tokens {
				if !all && (tok.Kind.IsSpace() || tok.Kind == qc.KindNewline) {
					continue
				}
				views = append(views, tokenView{
					Kind:   tok.Kind.String(),
					Text:   list.Text(tok),
					Line:   tok.Line,
					Column: tok.Column,
					Indent: tok.LeadingIndent,
				})
			}

			w := cmd.OutOrStdout()
			if format != formatQC {
				return writeStructured(w, format, views)
			}
			for _, v := range views {
				if _, err := fmt.Fprintf(w, "%d:%d\t%s\t%q\n", v.Line, v.Column, kindColor.Sprint(v.Kind), v.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include whitespace and newline tokens")
	cmd.Flags().StringVar(&format, "format", formatQC, `Output format: "qc", "json" or "yaml"`)
	return cmd
}

// FmtCommand creates a "fmt" subcommand that prints every statement of the
// given files in canonical form.
func FmtCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <path>...",
		Short: "Print QC files in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args, env.Extensions)
			if err != nil {
				return err
			}
			results, err := parseFiles(cmd.Context(), env, files, cmd.InOrStdin())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, r := range results {
				if len(results) > 1 {
					if i > 0 {
						fmt.Fprintln(w)
					}
					headerColor.Fprintf(w, "# %s\n", r.Path)
				}
				for _, q := range r.Statements {
					if _, err := fmt.Fprintln(w, qc.ToCanonicalString(q)); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// DumpCommand creates a "dump" subcommand that prints the parsed statements
// of files, or of a single expression given with --expr, as JSON or YAML.
func DumpCommand(env *Env) *cobra.Command {
	var (
		expr   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "dump [path]...",
		Short: "Dump the parse tree of QC files as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(format)
			if err != nil {
				return err
			}
			if format == formatQC {
				format = formatJSON
			}
			w := cmd.OutOrStdout()

			if expr != "" {
				node, err := qc.ParseMultiStepQuery(expr, qc.WithSettings(env.Settings), qc.WithLogger(env.Logger))
				if err != nil {
					return err
				}
				return writeStructured(w, format, qc.DumpNode(node))
			}

			if len(args) == 0 {
				return fmt.Errorf("dump requires a path or --expr")
			}
			files, err := collectFiles(args, env.Extensions)
			if err != nil {
				return err
			}
			results, err := parseFiles(cmd.Context(), env, files, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return writeStructured(w, format, results)
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "Dump this expression instead of files; pipelines are allowed")
	cmd.Flags().StringVar(&format, "format", formatJSON, `Output format: "json" or "yaml"`)
	return cmd
}

// QueryCommand creates a "query" subcommand that prints the statements of
// files matching a pattern query (see qc.Matches). Parameters given with
// --param are inlined into both the pattern and the statements.
func QueryCommand(env *Env) *cobra.Command {
	var (
		params   []string
		sortKeys []string
		fields   []string
		skip     int
		take     int
		count    bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "query <pattern> <path>...",
		Short: "Find statements matching a pattern",
		Long: `Find statements matching a pattern. The pattern is a QC query:
"*" matches any command, attr=* requires a value, attr? makes attr optional.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(format)
			if err != nil {
				return err
			}
			values, err := parseParams(params, env.Settings)
			if err != nil {
				return err
			}
			pattern, err := qc.ParseQuery(args[0], qc.WithSettings(env.Settings))
			if err != nil {
				return fmt.Errorf("pattern: %w", err)
			}
			pattern = pattern.WithInlinedParams(values)

			files, err := collectFiles(args[1:], env.Extensions)
			if err != nil {
				return err
			}
			results, err := parseFiles(cmd.Context(), env, files, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var statements []*qc.Query
			for _, r := range results {
				for _, q := range r.Statements {
					statements = append(statements, q.WithInlinedParams(values))
				}
			}
			matched := qc.FilterQueries(statements, pattern)
			env.Logger.Debug().
				Str("pattern", pattern.String()).
				Int("statements", len(statements)).
				Int("matched", len(matched)).
				Msg("query")

			if err := qc.SortQueries(matched, sortKeys); err != nil {
				return err
			}
			matched, err = qc.Paginate(matched, skip, take)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if count {
				return writeCounts(w, format, matched)
			}
			return writeRows(w, format, matched, fields)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Parameter binding name=value (repeatable)")
	cmd.Flags().StringSliceVar(&sortKeys, "sort", nil, "Sort keys: command, tags, text; prefix with - for descending")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Output fields: command, transform, tags, text, params, dump")
	cmd.Flags().IntVar(&skip, "skip", 0, "Skip the first N matches")
	cmd.Flags().IntVar(&take, "take", 0, "Print at most N matches (0 = all)")
	cmd.Flags().BoolVar(&count, "count", false, "Print match counts per command")
	cmd.Flags().StringVar(&format, "format", formatQC, `Output format: "qc", "json" or "yaml"`)
	return cmd
}

// parseParams parses name=value bindings; values use QC value syntax.
func parseParams(bindings []string, settings qc.Settings) (map[string]qc.Value, error) {
	out := make(map[string]qc.Value, len(bindings))
	for _, b := range bindings {
		name, text, ok := strings.Cut(b, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", b)
		}
		v, err := qc.ParseValue(text, qc.WithSettings(settings))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

type commandCount struct {
	Command string `json:"command" yaml:"command"`
	Count   int    `json:"count" yaml:"count"`
}

func writeCounts(w io.Writer, format string, queries []*qc.Query) error {
	groups := qc.GroupByCommand(queries)
	commands := qc.DistinctCommands(queries)
	counts := make([]commandCount, len(commands))
	for i, c := range commands {
		counts[i] = commandCount{Command: c, Count: len(groups[c])}
	}
	if format != formatQC {
		return writeStructured(w, format, counts)
	}
	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", c.Command, c.Count); err != nil {
			return err
		}
	}
	return nil
}

func writeRows(w io.Writer, format string, queries []*qc.Query, fields []string) error {
	sel, err := qc.NewQuerySelector(fields)
	if err != nil {
		return err
	}
	if format != formatQC {
		rows := make([]map[string]any, len(queries))
		for i, q := range queries {
			rows[i] = sel.Apply(q)
		}
		return writeStructured(w, format, rows)
	}
	for _, q := range queries {
		values := sel.Values(q)
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprint(v)
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// AddCommands adds the tokens, fmt, dump and query commands to parent.
func AddCommands(parent *cobra.Command, env *Env) {
	parent.AddCommand(TokensCommand(env))
	parent.AddCommand(FmtCommand(env))
	parent.AddCommand(DumpCommand(env))
	parent.AddCommand(QueryCommand(env))
}
