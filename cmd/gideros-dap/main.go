// gideros-dap bridges an IDE speaking the Debug Adapter Protocol to the
// Gideros player's TCP debug channel. By default it serves a single session
// over stdin/stdout; with --server it accepts any number of concurrent IDE
// connections over TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gideros/debug-adapter/internal/adapter"
	"github.com/gideros/debug-adapter/internal/config"
	"github.com/gideros/debug-adapter/internal/logging"
	"github.com/gideros/debug-adapter/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		serverFlag string
		traceFlag  string
	)

	cmd := &cobra.Command{
		Use:          "gideros-dap",
		Short:        "Debug adapter bridging DAP hosts to the Gideros script runtime",
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(configPath)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			trace := config.TraceMode(traceFlag)
			switch trace {
			case config.TraceOff, config.TraceRequests, config.TraceResponses:
				settings.Trace = trace
			default:
				return fmt.Errorf("invalid --trace value %q (use --trace or --trace=response)", traceFlag)
			}

			log := logging.New(settings.Trace.Verbosity())
			server := adapter.NewServer(settings, log)

			if cmd.Flags().Changed("server") {
				port, err := strconv.Atoi(serverFlag)
				if err != nil || port < 0 || port > 65535 {
					return fmt.Errorf("invalid --server port %q", serverFlag)
				}
				if port == 0 {
					port = settings.HostPort
				}

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return server.ListenAndServe(ctx, port)
			}

			return server.ServeStdio()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a JSON settings file")
	flags.StringVar(&serverFlag, "server", "0", "run as a TCP server on PORT instead of stdio")
	flags.StringVar(&traceFlag, "trace", "", "trace host requests; --trace=response also traces replies")

	// Bare --server and bare --trace select the defaults.
	flags.Lookup("server").NoOptDefVal = "0"
	flags.Lookup("trace").NoOptDefVal = string(config.TraceRequests)

	return cmd
}
