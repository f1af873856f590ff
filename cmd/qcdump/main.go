// Command qcdump inspects QC files: it prints tokens, canonical text and
// parse trees, and finds statements matching a pattern.
//
// Build:
//
//	go build -o qcdump ./cmd/qcdump
//
// Usage:
//
//	./qcdump tokens config.qc
//	./qcdump fmt ./queries
//	./qcdump dump --format yaml config.qc
//	./qcdump dump -e 'select users | limit 10'
//	./qcdump query 'route method=GET' ./queries --fields command,text
//	./qcdump query 'set key=$k' ./queries -p k=timeout
//
// Flags may also be set through QC_-prefixed environment variables
// (QC_LOG_LEVEL, QC_C_COMMENTS, ...) or a --settings file.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/relux-works/qclang/qc"
	"github.com/relux-works/qclang/qc/cobraext"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	env := cobraext.NewEnv()

	root := &cobra.Command{
		Use:           "qcdump",
		Short:         "Inspect, format and query QC files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configure(v, env)
		},
	}

	flags := root.PersistentFlags()
	flags.String("settings", "", "Settings file (.toml, .yaml or .yml)")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, error")
	flags.Bool("plain-values", true, "Lex runs of letters, digits, '-', '_' and '!' as one value")
	flags.Bool("c-comments", false, "Enable // and /* */ comments")
	flags.Bool("bash-comments", true, "Enable # comments")
	flags.Int("max-depth", qc.DefaultMaxDepth, "Maximum parenthesis nesting")
	flags.StringSlice("ext", []string{".qc"}, "File extensions searched in directories")
	flags.Int("jobs", 0, "Files parsed concurrently (0 = GOMAXPROCS)")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("QC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cobraext.AddCommands(root, env)
	return root
}

// configure resolves settings in increasing priority: defaults, the
// --settings file, then flags and environment variables that were set.
func configure(v *viper.Viper, env *cobraext.Env) error {
	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	env.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().
		Logger()

	settings := qc.DefaultSettings()
	if path := v.GetString("settings"); path != "" {
		settings, err = qc.LoadSettings(path)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		env.Logger.Debug().Str("path", path).Msg("loaded settings")
	}
	if v.IsSet("plain-values") {
		settings.PlainValues = v.GetBool("plain-values")
	}
	if v.IsSet("c-comments") {
		settings.CStyleComments = v.GetBool("c-comments")
	}
	if v.IsSet("bash-comments") {
		settings.BashComments = v.GetBool("bash-comments")
	}
	if v.IsSet("max-depth") {
		settings.MaxDepth = v.GetInt("max-depth")
	}

	env.Settings = settings
	env.Extensions = v.GetStringSlice("ext")
	env.Jobs = v.GetInt("jobs")
	return nil
}
