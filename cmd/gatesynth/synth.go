package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/gate-synth/pkg/utils"
)

var synthCmd = &cobra.Command{
	Use:   "synth <script>",
	Short: "Print the boolean expression of every terminal gate",
	Long:  `Replays an edit script and prints one "label = expression" line per terminal gate.`,
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

		text, err := ed.Synthesize()
		if err != nil {
			return err
		}
		stats := ed.Stats()
		s.logger.Info("synthesis complete", "terminals", stats.Terminals, "gates", stats.GatesVisited, "duration", stats.TotalTime)

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			s.logger.Info("writing expressions", "file", output)
			return utils.WriteExpressions(output, ed.Name(), text)
		}
		if text != "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.Flags().StringP("output", "o", "", "Write expressions to a file instead of stdout")
}
