package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"ktp/internal/platform/config"
	"ktp/internal/platform/logger"
)

const programName = "ktp"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// commonRun configures the process logger and GOMAXPROCS.
func commonRun(cfg *config.Config) *slog.Logger {
	log := logger.New(globalFlags.debug || cfg.Debug)
	slog.SetDefault(log)
	_, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		log.Info(fmt.Sprintf(format, v...), "component", programName)
	}))
	if err != nil {
		log.Error("failed to set GOMAXPROCS", "error", err)
	}
	return log
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "KTP applicant tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(setupDBCommand())
	return rootCmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
