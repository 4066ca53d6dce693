package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/maratig/gcpause/app"
	"github.com/maratig/gcpause/internal/logger"
	"github.com/maratig/gcpause/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Profile garbage collection pauses and serve them over REST",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		return runProfiler(cmd.Context(), cfg)
	},
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 0, "Port to be used in REST endpoint")
	fs.StringP("source", "s", "", "Source of collections: runtime (this process) or trace (another process)")
	fs.String("source-path", "", "Trace file or URL, e.g. http://127.0.0.1:11000/debug/pprof/trace")
	fs.String("log-level", "", "Log level: debug, info, warn or error")
	fs.Bool("workload", false, "Run an allocating workload in-process")
	fs.String("config", "", "Path to a yaml config file")
}

func initRunCmdFlags() {
	addConfigFlags(runCmd.Flags())
}

func loadConfig(fs *pflag.FlagSet) (app.Config, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return app.Config{}, fmt.Errorf("failed to parse config path; %w", err)
	}

	cfg, err := app.LoadConfig(path, fs)
	if err != nil {
		return app.Config{}, fmt.Errorf("failed to load config; %w", err)
	}

	return cfg, nil
}

func runProfiler(parent context.Context, cfg app.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger; %w", err)
	}
	defer logger.Flush(log)
	zap.ReplaceGlobals(log)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application; %w", err)
	}

	srv, err := server.StartRestServer(ctx, application, log.Named("server"))
	if err != nil {
		return fmt.Errorf("failed to start REST server; %w", err)
	}
	defer srv.Shutdown(context.Background())

	return application.Run(ctx)
}
