package cli

import (
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runner carries the App between cobra's pre-run hook and the commands.
type runner struct {
	app   *App
	clock clock.Clock
	in    io.Reader
}

// NewRootCommand builds the sharevault command tree. The App is opened in
// the persistent pre-run hook and closed after the command finishes.
func NewRootCommand(clk clock.Clock, in io.Reader) *cobra.Command {
	r := &runner{clock: clk, in: in}

	root := &cobra.Command{
		Use:   "sharevault",
		Short: "Local asset store and share links for proposal documents",
		Long: "sharevault keeps images and other assets for a proposal document, and builds\n" +
			"share links for it: registered, revocable links and self-contained snapshot links.",
		SilenceUsage:       true,
		PersistentPreRunE:  r.open,
		PersistentPostRunE: r.close,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		r.assetCommand(),
		r.linkCommand(),
		r.embedCommand(),
		r.openCommand(),
		r.backupCommand(),
		r.settingsCommand(),
		r.serveCommand(),
	)
	return root
}

func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, err := fs.GetString(config.FlagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyFlags(fs, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (r *runner) open(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	app, err := NewApp(cmd.Context(), cfg, r.clock, r.in, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *runner) close(*cobra.Command, []string) error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(clock.Real(), os.Stdin)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
