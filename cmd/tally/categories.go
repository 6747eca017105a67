package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat", "category"},
		Short:   "Manage transaction categories",
	}
	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				cats := a.registry.List()
				if kind != "" {
					k, err := model.ParseKind(kind)
					if err != nil {
						return common.NewUserError("--kind must be income or expense", err)
					}
					cats = a.registry.ForKind(k)
				}
				return cli.RenderCategories(cmd.OutOrStdout(), cats)
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only categories offered for income or expense")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var icon string
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Register a custom category",
		Example: `  tally categories add "Pet Care"
  tally categories add Gym --icon heart-pulse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				c, err := a.registry.Register(cmd.Context(), args[0], icon)
				if err != nil {
					if errors.Is(err, common.ErrValidation) {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatValidationError(err))
						return common.NewUserError("category not added", err)
					}
					return fmt.Errorf("failed to add category: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added category %s (%s)", c.Label, c.ID)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "icon key (default: "+model.DefaultIcon+")")
	return cmd
}
