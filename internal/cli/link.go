package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/services"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (r *runner) linkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage registered share links",
	}
	cmd.AddCommand(r.linkCreateCommand(), r.linkListCommand(), r.linkRevokeCommand(), r.linkSweepCommand())
	return cmd
}

// viewFlags are the role and mode flags shared by link create and embed.
type viewFlags struct {
	role, mode, label string
	images            bool
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.role, "role", string(models.RoleClient), "role the recipient views as (admin, agent, client)")
	cmd.Flags().StringVar(&v.mode, "mode", string(models.ModePresentation), "view mode (edit, presentation)")
	cmd.Flags().StringVar(&v.label, "label", "", "label shown in listings")
	cmd.Flags().BoolVar(&v.images, "images", false, "include document images in the snapshot")
}

func (v *viewFlags) parse() (models.Role, models.Mode, error) {
	role, ok := models.ParseRole(v.role)
	if !ok {
		return "", "", fmt.Errorf("unknown role %q", v.role)
	}
	mode, ok := models.ParseMode(v.mode)
	if !ok {
		return "", "", fmt.Errorf("unknown mode %q", v.mode)
	}
	return role, mode, nil
}

func (r *runner) linkCreateCommand() *cobra.Command {
	var (
		view              viewFlags
		expires           time.Duration
		allowEdit         bool
		showRoleIndicator bool
		docPath           string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a share link and print its URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, mode, err := view.parse()
			if err != nil {
				return err
			}
			if expires < 0 {
				return fmt.Errorf("--expires must not be negative")
			}

			opts := services.ManagedLinkOptions{
				Role:              role,
				Mode:              mode,
				Label:             view.label,
				AllowEdit:         allowEdit,
				ShowRoleIndicator: showRoleIndicator,
				IncludeImages:     view.images,
			}
			if cmd.Flags().Changed("expires") {
				opts.ExpiresIn = &expires
			}
			if docPath != "" {
				opts.Document = document.NewFileStore(docPath, nil)
			}

			ml, err := r.app.share.CreateManagedLink(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(r.app.out, ml.URL)
			fmt.Fprintf(r.app.errOut, "link %s expires %s\n", ml.ID, formatExpiry(ml.Link.ExpiresAt, r.app.clock.Now()))
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().DurationVar(&expires, "expires", 0, "link lifetime, 0 for a link that expires at once (configured default when unset)")
	cmd.Flags().BoolVar(&allowEdit, "allow-edit", false, "let the recipient edit")
	cmd.Flags().BoolVar(&showRoleIndicator, "show-role-indicator", false, "show the role badge to the recipient")
	cmd.Flags().StringVar(&docPath, "doc", "", "document JSON file to snapshot into the link")
	return cmd
}

func (r *runner) linkListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List registered links",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := r.app.share.ListLinks(cmd.Context())
			if err != nil {
				return err
			}
			now := r.app.clock.Now()
			tw := tabwriter.NewWriter(r.app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROLE\tMODE\tLABEL\tEXPIRES\tACCESSES")
			for _, l := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.ID, l.Role, l.Mode, l.Label, formatExpiry(l.ExpiresAt, now), humanize.Comma(l.AccessCount))
			}
			return tw.Flush()
		},
	}
}

func (r *runner) linkRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Remove a link so its URL stops working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := r.app.share.RevokeLink(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("link %s not found", args[0])
			}
			fmt.Fprintf(r.app.out, "revoked %s\n", args[0])
			return nil
		},
	}
}

func (r *runner) linkSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := r.app.links.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "removed %d expired %s\n", n, plural(n, "link", "links"))
			return nil
		},
	}
}

func formatExpiry(expiresAt, now time.Time) string {
	rel := humanize.RelTime(expiresAt, now, "ago", "from now")
	if !now.Before(expiresAt) {
		return "expired " + rel
	}
	return rel
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
