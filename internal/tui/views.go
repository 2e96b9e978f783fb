package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/gallery/internal/tui/styles"
	"github.com/mmcdole/gallery/internal/viewmodel"
)

// View renders the application
func (m Model) View() string {
	switch m.Mode {
	case ViewHelp:
		return m.renderHelp()
	case ViewDetail:
		if m.Detail != nil {
			return lipgloss.JoinVertical(lipgloss.Left,
				m.renderHeader(),
				renderDetail(*m.Detail, m.Width),
				m.renderStatus(),
			)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderRows(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := "Cat Gallery"
	switch m.Mode {
	case ViewFavorites:
		title = "Favorites"
	case ViewDetail:
		title = "Details"
	}
	header := styles.TitleStyle.Render(title)
	if m.Filtering || m.Query != "" {
		header += "  " + m.filter.View()
	}
	return header + "\n"
}

func (m Model) renderRows() string {
	rows := m.rows()
	visible := m.visibleRows()

	if len(rows) == 0 {
		msg := "No items"
		switch {
		case m.Mode == ViewFavorites:
			msg = "No favorites yet. Press f on an item to add one."
		case m.Query != "":
			msg = "No matches"
		case m.Loading:
			msg = m.spinner.View() + " Loading..."
		}
		return lipgloss.NewStyle().Height(visible).Render(styles.DimStyle.Render(msg))
	}

	end := min(m.Offset+visible, len(rows))
	lines := make([]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		lines = append(lines, renderRow(rows[i], i == m.Cursor, m.Width))
	}
	return lipgloss.NewStyle().Height(visible).Render(strings.Join(lines, "\n"))
}

// renderRow renders one item line: heart, name, temperament
func renderRow(r viewmodel.Row, selected bool, width int) string {
	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}

	heart := styles.EmptyHeart
	if r.Favorite {
		heart = styles.FavoriteHeart
	}

	name := r.Item.PrimaryName()
	if name == "" {
		name = r.Item.ID
	}
	line := name
	if t := r.Item.Temperament(); t != "" {
		line += " · " + t
	}

	// Padding(0,1) plus heart and space
	line = styles.Truncate(line, width-4)
	return heart + style.Width(max(width-2, 0)).Render(line)
}

func (m Model) renderStatus() string {
	view := m.Gallery.List()

	var parts []string
	if m.Loading || view.Loading {
		parts = append(parts, m.spinner.View())
	}
	if view.Offline {
		parts = append(parts, styles.OfflineBadge.Render("offline"))
	}

	info := fmt.Sprintf("%d items · page %d", len(view.Rows), view.Page)
	if !view.HasMore && view.Page > 0 {
		info += " · end"
	}
	parts = append(parts, styles.DimStyle.Render(info))
	parts = append(parts, styles.BadgeStyle.Render(fmt.Sprintf("%s %d", styles.FavoriteChar, view.FavoriteCount)))

	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		parts = append(parts, styles.ErrorStyle.Render(m.StatusMsg))
	case m.StatusMsg != "":
		parts = append(parts, styles.SuccessStyle.Render(m.StatusMsg))
	case view.Error != "":
		parts = append(parts, styles.ErrorStyle.Render(view.Error+" (R to retry)"))
	default:
		parts = append(parts, styles.DimStyle.Render("? for help"))
	}

	return strings.Join(parts, " ")
}

func renderDetail(d viewmodel.DetailView, width int) string {
	inner := max(width-8, 20)

	var b strings.Builder
	heart := styles.EmptyHeart
	if d.Favorite {
		heart = styles.FavoriteHeart
	}
	name := d.Name
	if name == "" {
		name = d.Item.ID
	}
	b.WriteString(heart + " " + styles.TitleStyle.Render(name))
	b.WriteString("\n")

	if d.Temperament != "" {
		b.WriteString(styles.SubtitleStyle.Render(d.Temperament))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.DimStyle.Render(label+": ") + value + "\n")
	}
	field("Origin", d.Origin)
	field("Size", d.Dimensions)
	field("Image", d.Item.ImageURL)
	field("Wikipedia", d.Wikipedia)

	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(styles.SubtitleStyle.Width(inner).Render(d.Description))
	}

	return styles.DetailStyle.Width(inner + 4).Render(b.String())
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range HelpBindings() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			styles.HelpKeyStyle.Width(8).Render(h.Key),
			styles.HelpDescStyle.Render(h.Desc)))
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Press esc or ? to close"))
	return b.String()
}
