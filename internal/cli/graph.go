package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqsolve/pkg/report"
)

// graphCommand creates the graph command, which resolves like the
// resolve command but emits the provenance graph instead of the
// sentinel block.
func (c *CLI) graphCommand() *cobra.Command {
	opts := &resolveOpts{}
	var format string

	cmd := &cobra.Command{
		Use:   "graph [requirement...]",
		Short: "Export resolution provenance as DOT or SVG",
		Long: `Resolve requirements and export which requirement pulled in which
dependency as a graph.

Examples:
  reqsolve graph flask
  reqsolve graph -r requirements.txt --format svg -o deps.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.resolveSet(cmd.Context(), "graph", opts, args)
			if err != nil {
				return err
			}

			dot := report.ToDOT(set)
			var data []byte
			switch strings.ToLower(format) {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = report.RenderSVG(dot)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want dot or svg)", format)
			}

			if opts.output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(opts.output, data, 0644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}
			printSuccess("Exported provenance graph")
			printFile(opts.output)
			return nil
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "dot", "output format (dot, svg)")
	return cmd
}
