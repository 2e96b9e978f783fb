package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/tui/styles"
	"github.com/mmcdole/gallery/internal/viewmodel"
)

// ViewMode is the screen currently shown
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewFavorites
	ViewDetail
	ViewHelp
)

// Vertical chrome: header, blank line, status line
const ChromeHeight = 3

const statusTimeout = 3 * time.Second

// Model is the main Bubble Tea model for the application
type Model struct {
	Gallery *viewmodel.Gallery
	Opener  Opener // nil disables opening images
	Changes <-chan favorites.Change
	logger  *slog.Logger

	Mode     ViewMode
	prevMode ViewMode // Screen to return to from detail/help

	// List state
	Cursor    int
	Offset    int // First visible row
	Loading   bool
	Query     string
	Filtering bool
	filter    textinput.Model
	spinner   spinner.Model

	Detail *viewmodel.DetailView

	// Dimensions
	Width  int
	Height int

	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates the application model. changes may be nil.
func NewModel(g *viewmodel.Gallery, opener Opener, changes <-chan favorites.Change, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = styles.FilterPromptStyle.Render("/ ")
	ti.Placeholder = "filter by breed"
	ti.CharLimit = 64

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.SpinnerStyle),
	)

	return Model{
		Gallery: g,
		Opener:  opener,
		Changes: changes,
		logger:  logger,
		filter:  ti,
		spinner: sp,
		Loading: true,
		Width:   80,
		Height:  24,
	}
}

// Init starts the first page load, the spinner and the favorites listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadFirstCmd(m.Gallery),
		m.spinner.Tick,
		WaitForChangeCmd(m.Changes),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PageLoadedMsg:
		m.Loading = false
		if msg.Err != nil {
			m.logger.Debug("page load failed", "error", msg.Err)
			return m.setStatus(viewmodel.ErrorMessage(msg.Err), true)
		}
		m.clampCursor()
		return m, nil

	case DetailLoadedMsg:
		m.Loading = false
		if msg.Err != nil {
			return m.setStatus(viewmodel.ErrorMessage(msg.Err), true)
		}
		view := msg.View
		m.Detail = &view
		if m.Mode != ViewDetail {
			m.prevMode = m.Mode
		}
		m.Mode = ViewDetail
		return m, nil

	case FavoritesChangedMsg:
		if m.Detail != nil && m.Detail.Item.ID == msg.Change.ID {
			m.Detail.Favorite = msg.Change.Kind == favorites.Added
		}
		if msg.Change.Kind == favorites.Cleared && m.Detail != nil {
			m.Detail.Favorite = false
		}
		m.clampCursor()
		return m, WaitForChangeCmd(m.Changes)

	case OpenedMsg:
		if msg.Err != nil {
			return m.setStatus("Could not open image: "+msg.Err.Error(), true)
		}
		return m.setStatus("Opened image", false)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Filtering {
		return m.handleFilterKey(msg)
	}

	switch m.Mode {
	case ViewHelp:
		if key.Matches(msg, Keys.Back, Keys.Help, Keys.Quit) {
			m.Mode = m.prevMode
		}
		return m, nil

	case ViewDetail:
		return m.handleDetailKey(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.prevMode = m.Mode
		m.Mode = ViewHelp
		return m, nil

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, Keys.Down):
		// Moving past the last loaded row asks for the next page
		if m.Mode == ViewList && m.Query == "" && m.Cursor >= len(m.rows())-1 {
			return m.loadMore()
		}
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, Keys.Home):
		m.Cursor, m.Offset = 0, 0
		return m, nil

	case key.Matches(msg, Keys.End):
		m.Cursor = max(len(m.rows())-1, 0)
		m.clampCursor()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.Loading = true
		return m, LoadDetailCmd(m.Gallery, row.Item.ID)

	case key.Matches(msg, Keys.Back):
		if m.Query != "" {
			m.Query = ""
			m.filter.SetValue("")
			m.Cursor, m.Offset = 0, 0
			return m, nil
		}
		if m.Mode == ViewFavorites {
			m.Mode = ViewList
			m.Cursor, m.Offset = 0, 0
		}
		return m, nil

	case key.Matches(msg, Keys.Favorite):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.Gallery.ToggleFavorite(row.Item.ID) {
			return m.setStatus("Added to favorites", false)
		}
		m.clampCursor()
		return m.setStatus("Removed from favorites", false)

	case key.Matches(msg, Keys.LoadMore):
		return m.loadMore()

	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		m.Cursor, m.Offset = 0, 0
		return m, RefreshCmd(m.Gallery)

	case key.Matches(msg, Keys.Retry):
		m.Loading = true
		return m, RetryCmd(m.Gallery)

	case key.Matches(msg, Keys.Favorites):
		if m.Mode == ViewFavorites {
			m.Mode = ViewList
		} else {
			m.Mode = ViewFavorites
		}
		m.Cursor, m.Offset = 0, 0
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if m.Mode != ViewList {
			return m, nil
		}
		m.Filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, Keys.Open):
		return m.open()
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Back):
		m.Mode = m.prevMode
		m.Detail = nil
		return m, nil
	case key.Matches(msg, Keys.Favorite):
		if m.Detail == nil {
			return m, nil
		}
		m.Detail.Favorite = m.Gallery.ToggleFavorite(m.Detail.Item.ID)
		return m, nil
	case key.Matches(msg, Keys.Open):
		return m.open()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filtering = false
		m.Query = ""
		m.filter.SetValue("")
		m.filter.Blur()
		m.Cursor, m.Offset = 0, 0
		return m, nil
	case tea.KeyEnter:
		m.Filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.Query = m.filter.Value()
	m.Cursor, m.Offset = 0, 0
	return m, cmd
}

func (m Model) loadMore() (tea.Model, tea.Cmd) {
	if m.Mode != ViewList || m.Loading {
		return m, nil
	}
	view := m.Gallery.List()
	if !view.HasMore {
		return m.setStatus("No more items", false)
	}
	m.Loading = true
	return m, LoadMoreCmd(m.Gallery)
}

func (m Model) open() (tea.Model, tea.Cmd) {
	if m.Opener == nil {
		return m, nil
	}
	var url string
	if m.Mode == ViewDetail && m.Detail != nil {
		url = m.Detail.Item.ImageURL
	} else if row, ok := m.selected(); ok {
		url = row.Item.ImageURL
	}
	if url == "" {
		return m.setStatus("No image to open", true)
	}
	return m, OpenCmd(m.Opener, url)
}

// rows returns the rows of the current list screen
func (m Model) rows() []viewmodel.Row {
	switch {
	case m.Mode == ViewFavorites:
		return m.Gallery.Favorites()
	case m.Query != "":
		return m.Gallery.Filter(m.Query)
	default:
		return m.Gallery.List().Rows
	}
}

func (m Model) selected() (viewmodel.Row, bool) {
	rows := m.rows()
	if m.Cursor < 0 || m.Cursor >= len(rows) {
		return viewmodel.Row{}, false
	}
	return rows[m.Cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

// clampCursor keeps the cursor on a row and inside the visible window
func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}

	visible := m.visibleRows()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+visible {
		m.Offset = m.Cursor - visible + 1
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func (m Model) visibleRows() int {
	return max(m.Height-ChromeHeight, 1)
}
