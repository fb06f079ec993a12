package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/gate-synth/pkg/render"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <script>",
	Short: "Export the circuit as a Mermaid diagram",
	Long:  `Replays an edit script and outputs a Mermaid flowchart (graph LR) of the resulting circuit.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ed, err := s.loadScript(args[0])
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), render.GenerateMermaid(ed.Snapshot()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
