package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/services"
	"github.com/spf13/cobra"
)

var errDocRequired = errors.New("--doc is required")

func (r *runner) embedCommand() *cobra.Command {
	var (
		view    viewFlags
		docPath string
		local   bool
	)
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Print a self-contained snapshot link for a document",
		Long: "embed encodes the document into the URL fragment, so the link works without\n" +
			"this machine. With --local the snapshot stays in the local database and the\n" +
			"URL only carries its id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if docPath == "" {
				return errDocRequired
			}
			role, mode, err := view.parse()
			if err != nil {
				return err
			}

			opts := services.EmbeddedLinkOptions{Role: role, Mode: mode, Label: view.label, IncludeImages: view.images}
			src := document.NewFileStore(docPath, nil)

			var link *services.EmbeddedLink
			if local {
				link, err = r.app.share.CreateLocalSnapshotLink(cmd.Context(), opts, src)
			} else {
				link, err = r.app.share.CreateEmbeddedLink(cmd.Context(), opts, src)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(r.app.out, link.URL)
			if link.Warning != "" {
				fmt.Fprintln(r.app.errOut, "warning:", link.Warning)
			}
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().StringVar(&docPath, "doc", "", "document JSON file to snapshot")
	cmd.Flags().BoolVar(&local, "local", false, "keep the snapshot locally and link to it by id")
	return cmd
}

func (r *runner) openCommand() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Apply a share or snapshot link to a document file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if docPath == "" {
				return errDocRequired
			}
			sink := document.NewFileStore(docPath, nil)

			in, err := r.app.share.ResolveInboundURL(cmd.Context(), args[0], sink)
			if in != nil && in.Notice != "" {
				fmt.Fprintln(r.app.out, in.Notice)
			}
			if err != nil {
				return err
			}
			if in.Outcome == services.OutcomeNone {
				viewer := r.app.share.ViewerContext(args[0])
				fmt.Fprintf(r.app.out, "no link data applied; viewing as %s in %s mode\n", viewer.Role, viewer.Mode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "document JSON file to update")
	return cmd
}
