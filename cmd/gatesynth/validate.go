package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script>",
	Short: "Check the circuit for consistency and cycles",
	Long:  `Replays an edit script, checks the graph invariants and reports cycles, then prints a short summary.`,
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
		c := ed.Snapshot()

		if err := c.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if _, err := ed.Expressions(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		topo := circuit.NewTopology(c)
		if err := topo.Analyze(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Circuit: %s\n", c.Name)
		fmt.Fprintf(out, "Gates: %d\n", c.Len())
		fmt.Fprintf(out, "Connections: %d\n", c.EdgeCount())
		fmt.Fprintf(out, "Terminals: %d\n", len(topo.Terminals))
		fmt.Fprintf(out, "Fan-out points: %d\n", len(topo.FanoutPoints))
		fmt.Fprintf(out, "Depth: %d\n", topo.MaxLevel)
		fmt.Fprintln(out, "Circuit is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
