package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/gallery/internal/app"
	"github.com/mmcdole/gallery/internal/tui/styles"
	"github.com/mmcdole/gallery/internal/viewmodel"
	"github.com/spf13/cobra"
)

// itemJSON is the machine-readable form of one row
type itemJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Temperament string `json:"temperament,omitempty"`
	ImageURL    string `json:"image_url"`
	Favorite    bool   `json:"favorite"`
}

func newPageCommand(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "page <n>",
		Short: "Print one page of the catalog",
		Long:  "Loads pages 1 through n and prints page n. Falls back to the offline snapshot when the catalog is unreachable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("page must be a positive number, got %q", args[0])
			}

			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				rows, loadErr := loadPage(ctx, a.Gallery, n)
				if loadErr != nil && rows == nil {
					return fmt.Errorf("%s: %w", viewmodel.ErrorMessage(loadErr), loadErr)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, rows)
				}
				view := a.Gallery.List()
				if view.Offline {
					fmt.Fprintln(cmd.ErrOrStderr(), "offline: showing saved items")
				}
				if len(rows) == 0 {
					fmt.Fprintf(out, "Page %d is empty\n", n)
					return nil
				}
				fmt.Fprintln(out, renderTable(rows))
				more := ""
				if view.HasMore {
					more = ", more available"
				}
				fmt.Fprintf(out, "page %d of %d loaded%s\n", n, view.Page, more)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	return cmd
}

// loadPage pages forward until page n is loaded or the catalog ends. When a
// later page fails the rows already loaded for n are still returned.
func loadPage(ctx context.Context, g *viewmodel.Gallery, n int) ([]viewmodel.Row, error) {
	err := g.LoadFirst(ctx)
	for err == nil {
		view := g.List()
		if view.Page >= n || !view.HasMore {
			break
		}
		if err = g.LoadMore(ctx); err == nil && g.List().Page == view.Page {
			break
		}
	}

	rows := g.List().Rows
	start := (n - 1) * g.PageSize()
	if start >= len(rows) {
		if err != nil {
			return nil, err
		}
		return []viewmodel.Row{}, nil
	}
	return rows[start:min(start+g.PageSize(), len(rows))], err
}

func renderTable(rows []viewmodel.Row) string {
	t := table.New().
		Border(styles.TableBorder).
		BorderStyle(styles.DimStyle).
		Headers("", "ID", "BREED", "TEMPERAMENT")
	for _, r := range rows {
		heart := styles.NotFavoriteChar
		if r.Favorite {
			heart = styles.FavoriteChar
		}
		t.Row(heart, r.Item.ID, r.Item.PrimaryName(), styles.Truncate(r.Item.Temperament(), 40))
	}
	return t.Render()
}

func writeJSON(w io.Writer, rows []viewmodel.Row) error {
	out := make([]itemJSON, len(rows))
	for i, r := range rows {
		out[i] = itemJSON{
			ID:          r.Item.ID,
			Name:        r.Item.PrimaryName(),
			Temperament: r.Item.Temperament(),
			ImageURL:    r.Item.ImageURL,
			Favorite:    r.Favorite,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newShowCommand(e *env) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print details for one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
				d, err := a.Gallery.Detail(ctx, args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", viewmodel.ErrorMessage(err), err)
				}

				out := cmd.OutOrStdout()
				name := d.Name
				if name == "" {
					name = d.Item.ID
				}
				if d.Favorite {
					name = styles.FavoriteChar + " " + name
				}
				fmt.Fprintln(out, name)
				for _, f := range []struct{ label, value string }{
					{"ID", d.Item.ID},
					{"Temperament", d.Temperament},
					{"Origin", d.Origin},
					{"Size", d.Dimensions},
					{"Image", d.Item.ImageURL},
					{"Wikipedia", d.Wikipedia},
				} {
					if f.value != "" {
						fmt.Fprintf(out, "  %-12s %s\n", f.label+":", f.value)
					}
				}
				if d.Description != "" {
					fmt.Fprintf(out, "\n%s\n", d.Description)
				}

				if open {
					if err := a.Opener.Open(d.Item.ImageURL); err != nil {
						return fmt.Errorf("failed to open image: %w", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&open, "open", "o", false, "open the image in the configured viewer")
	return cmd
}
