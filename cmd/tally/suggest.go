package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
)

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <description>",
		Short: "Suggest a category for an expense description",
		Long: `Ask the configured language model which category fits a description.
The answer is advisory; nothing is recorded.`,
		Example: `  tally suggest "Lunch at the taco truck"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			return withApp(cmd.Context(), func(a *app) error {
				if !a.enableSuggestions() {
					return common.NewUserError("suggestions are not configured; set llm.provider and an API key", nil)
				}

				out := cmd.OutOrStdout()
				s, ok := a.suggester.Suggest(cmd.Context(), description)
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("No category suggestion available"))
					return nil
				}
				fmt.Fprintln(out, cli.FormatSuggestion(s))
				return nil
			})
		},
	}
}
