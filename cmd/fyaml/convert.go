package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyaml-lang/go-fyaml"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Re-emit a document stream in another presentation mode",
	Long: `Parse a YAML or JSON document stream and emit it again in the
selected output mode. Combined with --mode json this converts JSON to
YAML; with --to json it goes the other way.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parserOptions()
		if err != nil {
			return err
		}
		toName, _ := cmd.Flags().GetString("to")
		mode, err := fyaml.ParseEmitMode(toName)
		if err != nil {
			return &usageError{msg: fmt.Sprintf("unknown output mode %q", toName)}
		}
		indent, _ := cmd.Flags().GetInt("indent")
		width, _ := cmd.Flags().GetInt("width")

		in, err := openInput(args)
		if err != nil {
			return err
		}
		defer in.Close()

		p := fyaml.NewParser(in, opts...)
		e := fyaml.NewEmitter(os.Stdout,
			fyaml.WithEmitMode(mode),
			fyaml.WithIndent(indent),
			fyaml.WithWidth(width))
		for {
			doc, err := p.NextDocument()
			if err != nil {
				return err
			}
			if doc == nil {
				return nil
			}
			if err := e.Emit(doc); err != nil {
				return err
			}
		}
	},
}

func init() {
	convertCmd.Flags().StringP("to", "o", "block",
		"output mode (block, flow, flow-oneline, json, json-oneline, dejson, pretty, yaml-1.1)")
	convertCmd.Flags().Int("indent", 2, "indentation step")
	convertCmd.Flags().Int("width", 80, "target line width for flow wrapping")
}
