package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/fyaml-lang/go-fyaml"
)

var (
	flagMode    string
	flagVerbose bool
	flagStrict  bool
)

var rootCmd = &cobra.Command{
	Use:   "fyaml",
	Short: "Parse, inspect and convert YAML and JSON documents",
	Long: `fyaml is a CLI around the fyaml parser. It can dump the token and
event streams of a document for debugging, and re-emit documents in any
of the supported presentation modes (block, flow, json, ...).`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fyaml %s\n", version)
		fmt.Printf("  Commit: %s\n", commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagMode, "mode", "m", "yaml-1.2",
		"input dialect (yaml-1.2, yaml-1.1, json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"log every diagnostic to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict-directives", false,
		"reject unknown %directives")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)
}

// parserOptions assembles the fyaml options the global flags imply.
func parserOptions() ([]fyaml.Option, error) {
	var opts []fyaml.Option
	switch flagMode {
	case "yaml-1.2", "":
	case "yaml-1.1":
		opts = append(opts, fyaml.WithMode(fyaml.ModeYAML11))
	case "json":
		opts = append(opts, fyaml.WithMode(fyaml.ModeJSON))
	default:
		return nil, &usageError{msg: fmt.Sprintf("unknown input mode %q", flagMode)}
	}
	if flagStrict {
		opts = append(opts, fyaml.WithStrictDirectives())
	}
	if flagVerbose {
		logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		opts = append(opts, fyaml.WithLogger(level.NewFilter(logger, level.AllowDebug())))
	}
	return opts, nil
}

// openInput maps the positional argument onto an input: a path, or
// stdin for "-" or no argument.
func openInput(args []string) (*fyaml.Input, error) {
	if len(args) == 0 || args[0] == "-" {
		return fyaml.InputReader(os.Stdin), nil
	}
	return fyaml.InputFile(args[0])
}
