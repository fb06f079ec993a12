package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/gate-synth/pkg/config"
	"github.com/fyerfyer/gate-synth/pkg/editor"
	"github.com/fyerfyer/gate-synth/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "gatesynth",
	Short: "Build logic gate circuits and derive their boolean expressions",
	Long: `gatesynth replays edit scripts (or serves an editing API) over a circuit of
AND/OR/NOT/NAND/NOR gates and prints one boolean expression per terminal gate.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "gatesynth.yaml", "Configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
}

// session bundles what every command needs
type session struct {
	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
}

func (s *session) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// setup loads the configuration and builds the logger, applying flag overrides
func setup(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File, _ = cmd.Flags().GetString("log-file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if cfg.Log.File != "" {
		logger, file, err := utils.NewFileLogger(cfg.LogLevel(), cfg.Log.File)
		if err != nil {
			return nil, err
		}
		s.logger, s.closer = logger, file
	} else {
		s.logger = utils.NewLogger(cfg.LogLevel(), cmd.ErrOrStderr())
	}
	return s, nil
}

// loadScript parses an edit script and replays it into a fresh editor
func (s *session) loadScript(path string) (*editor.Editor, error) {
	name, cmds, err := utils.ParseScriptFile(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("replaying script", "file", path, "commands", len(cmds))

	ed := editor.New(name, s.cfg.EditorOptions(s.logger)...)
	if _, err := utils.Replay(ed, cmds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ed, nil
}
