package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyaml-lang/go-fyaml"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a document and dump its event or token stream",
	Long: `Parse a YAML or JSON document and print the structural events the
parser produces, one per line with source positions. With --tokens the
raw scanner tokens are printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parserOptions()
		if err != nil {
			return err
		}
		in, err := openInput(args)
		if err != nil {
			return err
		}
		defer in.Close()

		p := fyaml.NewParser(in, opts...)
		tokens, _ := cmd.Flags().GetBool("tokens")
		if tokens {
			return dumpTokens(p)
		}
		return dumpEvents(p)
	},
}

func init() {
	parseCmd.Flags().BoolP("tokens", "t", false, "dump scanner tokens instead of events")
}

func dumpEvents(p *fyaml.Parser) error {
	for {
		ev, err := p.NextEvent()
		if err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
		fmt.Printf("%s %s\n", ev.Start, ev)
		if ev.Type == fyaml.EventStreamEnd {
			return nil
		}
	}
}

func dumpTokens(p *fyaml.Parser) error {
	for {
		tok, err := p.NextToken()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", tok.Start, tok)
		if tok.Type == fyaml.TokenStreamEnd {
			return nil
		}
	}
}
