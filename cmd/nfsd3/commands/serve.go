package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-nfsd/nfsd3/internal/backend/memory"
	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/logger"
	"github.com/go-nfsd/nfsd3/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NFSv3 and MOUNT server",
	Long: `Start the NFSv3 and MOUNT server, exporting one in-memory
filesystem at "/" until the process is stopped.

Examples:
  # Start with default config location
  nfsd3 serve

  # Start with custom config
  nfsd3 serve --config /etc/nfsd3.yaml

  # Override the listen address via environment
  NFSD3_SERVER_LISTEN_ADDR=0.0.0.0:2049 nfsd3 serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := bufpool.New(int(cfg.Pool.BufferSize), cfg.Pool.Count)
	if err != nil {
		return fmt.Errorf("create buffer pool: %w", err)
	}
	defer pool.Close()

	backend := memory.New()
	registry := memory.NewRegistry(backend, cfg.Export.Groups)

	srv := session.New(cfg.Server, backend, registry, pool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("nfsd3 starting", "listen_addr", cfg.Server.ListenAddr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
