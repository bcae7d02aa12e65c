package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sharevault/internal/httpapi"
	"github.com/spf13/cobra"
)

func (r *runner) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API and the expired link sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Serve(cmd.Context())
		},
	}
}

func initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Serve runs the HTTP API and the sweeper until a signal arrives or ctx is
// done. A server failure stops the sweeper too.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.logger.Info(ctx, "Starting sharevault...", "data_dir", a.config.DataDir)
	initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(a.assets, a.share, a.settings, a.oracle)
	server := httpapi.NewServer(a.config.HTTPAddr, a.logger, handler)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			a.logger.Error(ctx, "HTTP server failed", "error", err)
			runErr = err
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		a.links.RunSweeper(ctx, a.config.SweepInterval)
	}()

	wg.Wait()
	a.logger.Info(context.Background(), "sharevault stopped")
	return runErr
}
