package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and list database backups",
	}
	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupListCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [tag]",
		Short: "Snapshot the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tag string
			if len(args) == 1 {
				tag = args[0]
			}
			return withApp(cmd.Context(), func(a *app) error {
				info, err := a.store.Backup(cmd.Context(), a.store.BackupDir(), tag)
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backup %s written to %s (%d transactions)",
					info.Tag, info.Path, info.Transactions)))
				return nil
			})
		},
	}
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			backups, err := storage.ListBackups(storage.BackupDirFor(config.DatabasePath(viper.GetViper())))
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No backups yet. Use 'tally backup create' to make one."))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Tag"),
				cli.TableHeaderStyle.Render("Created"),
				cli.TableHeaderStyle.Render("Transactions"),
				cli.TableHeaderStyle.Render("Size"))
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d KB\n",
					b.Tag, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Transactions, b.FileSize/1024)
			}
			return tw.Flush()
		},
	}
}
