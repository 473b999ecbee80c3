package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/formify/internal/config"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/server"
	"github.com/conneroisu/formify/internal/watcher"
)

const reloadDebounce = 300 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Host the widget on a demo page",
	Long: `Start an HTTP server that hosts the widget on a demo page. Every browser
session gets its own widget; state changes, including alert expiry, are pushed
to the page over a websocket.

Examples:
  formify serve                       # Serve on localhost:8080
  formify serve --port 3000 --open    # Serve on port 3000 and open a browser
  formify serve --echo                # Post submissions to a local /echo sink
  formify serve --watch               # Reload the widget section on config edits`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return SetViperBindings(cmd, map[string]string{
			"host": "server.host",
			"port": "server.port",
			"echo": "server.echo",
			"url":  "widget.url",
		})
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("url", "", "Submission URL (overrides widget.url)")
	serveCmd.Flags().Bool("echo", false, "Serve a local /echo sink and use it when no URL is set")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the widget configuration when the config file changes")
	serveCmd.Flags().Bool("open", false, "Open the demo page in a browser")

	AddFlagValidation(serveCmd, "port", ValidatePort)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		urlOverride, _ := cmd.Flags().GetString("url")
		fw, err := watchConfig(ctx, srv, cfg, urlOverride, logger)
		if err != nil {
			return err
		}
		if fw != nil {
			defer func() { _ = fw.Stop() }()
		}
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		go openWhenListening(ctx, srv, logger)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting formify at http://%s\n", cfg.Addr())
	return srv.Start(ctx)
}

// watchConfig reloads the widget section of the config file in use. Server
// settings only take effect on restart and are carried over, as is a URL
// given on the command line.
func watchConfig(ctx context.Context, srv *server.Server, current *config.Config, urlOverride string, logger logging.Logger) (*watcher.FileWatcher, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		logger.Warn(ctx, nil, "No config file in use, --watch has nothing to watch")
		return nil, nil
	}

	return watcher.WatchFile(ctx, path, reloadDebounce, logger, func(p string) error {
		next, err := config.ReadFile(p)
		if err != nil {
			logger.Warn(ctx, err, "Ignoring invalid configuration", "path", p)
			return err
		}
		next.Server = current.Server
		if urlOverride != "" {
			next.Widget.URL = urlOverride
		}
		return srv.Reload(next)
	})
}

func openWhenListening(ctx context.Context, srv *server.Server, logger logging.Logger) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			addr := srv.Addr()
			if addr == "" {
				continue
			}
			if err := server.OpenBrowser("http://" + addr + "/"); err != nil {
				logger.Warn(ctx, err, "Failed to open browser")
			}
			return
		}
	}
}
