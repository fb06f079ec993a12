package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/gate-synth/pkg/editor"
	"github.com/fyerfyer/gate-synth/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve [script]",
	Short: "Start the HTTP editing server",
	Long:  `Serves one editing session over HTTP, optionally seeded from an edit script. Metrics are exposed on /metrics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if cmd.Flags().Changed("addr") {
			s.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		var ed *editor.Editor
		if len(args) > 0 {
			if ed, err = s.loadScript(args[0]); err != nil {
				return err
			}
		} else {
			ed = editor.New("session", s.cfg.EditorOptions(s.logger)...)
		}

		ln, err := net.Listen("tcp", s.cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
		}

		srv := &http.Server{
			Handler:           server.NewHandler(ed, server.WithLogger(s.logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Stop on SIGINT/SIGTERM or when the command's context is cancelled
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			s.logger.Info("server listening", "addr", ln.Addr().String())
			serverErrors <- srv.Serve(ln)
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			s.logger.Info("shutting down", "cause", context.Cause(ctx).Error())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			s.logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; overrides the config file")
}
