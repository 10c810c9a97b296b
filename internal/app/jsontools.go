package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfdesk/internal/jsondiag"
	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check JSON syntax and point at the first error",
		Example: `  shelfdesk validate books.json
  pbpaste | shelfdesk validate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], os.Stdin)
			if err != nil {
				return err
			}
			res := jsondiag.Validate(string(data))
			if jsonOut {
				if err := printJSON(res); err != nil {
					return err
				}
			} else {
				printDiagnosis(args[0], res)
			}
			if !res.Valid {
				return errors.New("invalid JSON")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func printDiagnosis(name string, res jsondiag.Result) {
	if res.Valid {
		ok("%s: valid JSON", name)
		return
	}
	fmt.Printf("%s %s:%d:%d: %s\n", color.RedString("✗"), name, res.Line, res.Column, res.Error)
	if res.Suggestion != "" {
		fmt.Printf("  %s %s\n", color.YellowString("hint:"), res.Suggestion)
	}
}

func newFmtCmd() *cobra.Command {
	var (
		indent int
		minify bool
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Pretty-print or minify JSON without reordering keys",
		Long: `Reformat JSON. Key order and number literals are kept as written.

Invalid input is printed unchanged with a warning, and never written back.`,
		Example: `  shelfdesk fmt books.json
  shelfdesk fmt --indent 4 -w books.json
  shelfdesk fmt --minify books.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], os.Stdin)
			if err != nil {
				return err
			}
			text := string(data)

			var out string
			if minify {
				out = jsondiag.MinifySafely(text)
			} else {
				out = jsondiag.FormatSafely(text, indent)
			}

			if res := jsondiag.Validate(text); !res.Valid {
				printDiagnosis(args[0], res)
				if write {
					return errors.New("not formatting invalid JSON")
				}
				warn("input is not valid JSON; printed unchanged")
				fmt.Print(out)
				return nil
			}

			if write && args[0] != "-" {
				info, err := os.Stat(args[0])
				if err != nil {
					return err
				}
				if err := util.WriteFileAtomic(args[0], []byte(out+"\n"), info.Mode().Perm()); err != nil {
					return err
				}
				ok("Formatted %s", args[0])
				return nil
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&indent, "indent", 2, "Spaces per indent level (0 minifies)")
	cmd.Flags().BoolVar(&minify, "minify", false, "Remove all insignificant whitespace")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file")

	return cmd
}
