package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/spf13/cobra"
)

var errPINMismatch = errors.New("PINs do not match")

func (r *runner) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change admin settings",
	}
	cmd.AddCommand(r.settingsShowCommand(), r.settingsSetLogoCommand(), r.settingsResetCommand(), r.settingsPINCommand())
	return cmd
}

func (r *runner) settingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print all settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := r.app.settings

			admin, err := s.AdminConfig(ctx)
			if err != nil {
				return err
			}
			admin = maps.Clone(admin)
			pin, _ := admin["pin"].(string)
			admin["pin"] = pin != ""

			pres, err := s.PresentationConfig(ctx)
			if err != nil {
				return err
			}
			features, err := s.FeatureFlags(ctx)
			if err != nil {
				return err
			}
			roles, err := s.RoleTable(ctx)
			if err != nil {
				return err
			}
			backups, err := s.Backups(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(r.app.out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"admin":        admin,
				"presentation": pres,
				"features":     features,
				"roles":        roles,
				"backups":      len(backups),
			})
		},
	}
}

func (r *runner) settingsSetLogoCommand() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "set-logo <asset-id|file>",
		Short: "Set the default logo from a stored asset or a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id := args[0]
			if data, err := os.ReadFile(args[0]); err == nil {
				a, err := r.app.assets.Put(ctx, data, models.AssetMeta{Name: "logo"})
				if err != nil {
					return err
				}
				id = a.ID
			} else {
				a, err := r.app.assets.Get(ctx, id)
				if err != nil {
					return err
				}
				if a == nil {
					return fmt.Errorf("%s is neither a file nor a stored asset", args[0])
				}
			}

			if err := r.app.settings.SetDefaultLogo(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "default logo set to %s\n", id)

			if docPath == "" {
				return nil
			}
			var update models.Document
			if _, err := r.app.settings.ApplyDefaultLogo(ctx, &update); err != nil {
				return err
			}
			return document.NewFileStore(docPath, nil).Apply(ctx, update)
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "document JSON file to apply the logo to")
	return cmd
}

func (r *runner) settingsResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore default admin settings; assets are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				ok, err := Confirm(r.app.reader, "Reset admin settings? Assets remain stored.", r.app.out)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(r.app.out, "cancelled")
					return nil
				}
			}
			if err := r.app.settings.ResetAdminConfig(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(r.app.out, "settings reset")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (r *runner) settingsPINCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pin",
		Short: "Set, change or clear the admin PIN",
		Long:  "pin asks for the current PIN when one is set, then for the new PIN twice.\nAn empty new PIN removes it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := r.app.settings

			has, err := s.HasPIN(ctx)
			if err != nil {
				return err
			}
			if has {
				current, err := GetPIN(r.app.out, "Current PIN")
				if err != nil {
					return err
				}
				if err := s.VerifyPIN(ctx, current); err != nil {
					return err
				}
			}

			pin, err := GetPIN(r.app.out, "New PIN (empty to remove)")
			if err != nil {
				return err
			}
			again, err := GetPIN(r.app.out, "Repeat new PIN")
			if err != nil {
				return err
			}
			if pin != again {
				return errPINMismatch
			}

			if err := s.SetPIN(ctx, pin); err != nil {
				return err
			}
			if pin == "" {
				fmt.Fprintln(r.app.out, "PIN removed")
			} else {
				fmt.Fprintln(r.app.out, "PIN updated")
			}
			return nil
		},
	}
}
