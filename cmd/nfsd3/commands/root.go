// Package commands implements the nfsd3 CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-nfsd/nfsd3/internal/config"
	"github.com/go-nfsd/nfsd3/internal/logger"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "nfsd3",
	Short: "nfsd3 - a single-export NFSv3 server",
	Long: `nfsd3 serves one in-memory filesystem over NFSv3 and MOUNT
(RFC 1813), with an RPC/XDR core (RFC 5531) shared by both programs.

Use "nfsd3 [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./nfsd3.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and initializes the package-level
// logger from it, matching the teacher's load-then-init-logger sequence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, nil
}
