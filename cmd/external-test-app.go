package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/maratig/gcpause/internal/logger"
	extApp "github.com/maratig/gcpause/pkg/ext_app"
)

const defaultExtTestAppAddr = "127.0.0.1:11000"

var extTestAppCmd = &cobra.Command{
	Use:   "ext-test-app",
	Short: "Run an allocating application to be profiled by the trace source",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return fmt.Errorf("failed to parse external test app addr; %w", err)
		}

		if addr == "" {
			addr = defaultExtTestAppAddr
		}

		return runExtTestApp(cmd.Context(), addr)
	},
}

func initExtTestAppCmdFlags() {
	extTestAppCmd.Flags().StringP("addr", "a", "", "Address to be exposed for clients")
}

func runExtTestApp(parent context.Context, addr string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	log, err := logger.New("info")
	if err != nil {
		return err
	}
	defer logger.Flush(log)

	bound, err := extApp.RunExternalApp(ctx, addr, log)
	if err != nil {
		return fmt.Errorf("failed to run external app; %w", err)
	}
	fmt.Printf("External test app is running on %s\n", bound)

	<-ctx.Done()
	return nil
}
