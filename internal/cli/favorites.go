package cli

import (
	"context"
	"fmt"

	"github.com/mmcdole/gallery/internal/app"
	"github.com/spf13/cobra"
)

func newFavoritesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List and edit favorites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print favorite ids in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				ids := a.Favorites.List()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No favorites")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>...",
		Short: "Add items to favorites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				for _, id := range args {
					a.Favorites.Add(id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d favorites\n", a.Favorites.Count())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove items from favorites",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				for _, id := range args {
					a.Favorites.Remove(id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d favorites\n", a.Favorites.Count())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				a.Favorites.Clear()
				fmt.Fprintln(cmd.OutOrStdout(), "Favorites cleared")
				return nil
			})
		},
	})

	return cmd
}
