package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const listTimeLayout = "2006-01-02 15:04"

func (r *runner) assetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Store and inspect assets",
	}
	cmd.AddCommand(r.assetPutCommand(), r.assetListCommand(), r.assetShowCommand(), r.assetDisplayCommand())
	return cmd
}

func (r *runner) assetPutCommand() *cobra.Command {
	var name, mimeType string
	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Store a file and print its asset id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(args[0])
			}
			a, err := r.app.assets.PutReader(cmd.Context(), f, models.AssetMeta{Name: name, MimeType: mimeType})
			if err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "%s\t%s\t%s\n", a.ID, a.MimeType, humanize.Bytes(uint64(a.SizeBytes)))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "asset name (defaults to the file name)")
	cmd.Flags().StringVar(&mimeType, "type", "", "MIME type (sniffed from content when empty)")
	return cmd
}

func (r *runner) assetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored assets, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := r.app.assets.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(r.app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tCREATED")
			for _, a := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.Name, a.MimeType, humanize.Bytes(uint64(a.SizeBytes)), a.CreatedAt.Local().Format(listTimeLayout))
			}
			return tw.Flush()
		},
	}
}

func (r *runner) assetShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Write an asset's bytes to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app.assets.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("asset %s not found", args[0])
			}
			if output == "" {
				_, err = r.app.out.Write(a.Payload)
				return err
			}
			if err := os.WriteFile(output, a.Payload, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(r.app.errOut, "wrote %s (%s, %s, stored %s)\n",
				output, a.MimeType, humanize.Bytes(uint64(a.SizeBytes)), humanize.RelTime(a.CreatedAt, r.app.clock.Now(), "ago", "from now"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func (r *runner) assetDisplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "display <id>",
		Short: "Print an asset as a data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := r.app.assets.ResolveToDisplayable(cmd.Context(), args[0])
			if uri == "" {
				return fmt.Errorf("asset %s cannot be displayed", args[0])
			}
			fmt.Fprintln(r.app.out, uri)
			return nil
		},
	}
}
