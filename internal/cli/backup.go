package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/filex"
	"github.com/spf13/cobra"
)

func (r *runner) backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import settings and assets",
	}
	cmd.AddCommand(r.backupExportCommand(), r.backupImportCommand())
	return cmd
}

func (r *runner) backupExportCommand() *cobra.Command {
	var (
		output        string
		includeAssets bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the admin settings, and optionally all assets, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return r.app.backup.Export(cmd.Context(), r.app.out, includeAssets)
			}
			var buf bytes.Buffer
			if err := r.app.backup.Export(cmd.Context(), &buf, includeAssets); err != nil {
				return err
			}
			return filex.WriteAtomic(output, buf.Bytes(), 0o600)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&includeAssets, "assets", false, "include every stored asset")
	return cmd
}

func (r *runner) backupImportCommand() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore settings and assets from an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var sink document.Sink
			if docPath != "" {
				sink = document.NewFileStore(docPath, nil)
			}

			res, err := r.app.backup.Import(cmd.Context(), f, sink)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "imported settings and %d %s", res.AssetsImported, plural(res.AssetsImported, "asset", "assets"))
			if res.AssetsSkipped > 0 {
				fmt.Fprintf(r.app.out, " (%d skipped)", res.AssetsSkipped)
			}
			fmt.Fprintln(r.app.out)
			if res.LogoApplied {
				fmt.Fprintln(r.app.out, "default logo applied to", docPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "document JSON file to apply the default logo to")
	return cmd
}
