package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/viewmodel"
)

// Command factories for async operations

const fetchTimeout = 30 * time.Second

// Opener launches an image URL outside the terminal
type Opener interface {
	Open(url string) error
}

func pageCmd(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return PageLoadedMsg{Err: fn(ctx)}
	}
}

// LoadFirstCmd loads page 1, falling back to the offline snapshot
func LoadFirstCmd(g *viewmodel.Gallery) tea.Cmd {
	return pageCmd(g.LoadFirst)
}

// LoadMoreCmd loads the next page
func LoadMoreCmd(g *viewmodel.Gallery) tea.Cmd {
	return pageCmd(g.LoadMore)
}

// RefreshCmd discards loaded pages and reloads page 1
func RefreshCmd(g *viewmodel.Gallery) tea.Cmd {
	return pageCmd(g.Refresh)
}

// RetryCmd re-requests the failed page
func RetryCmd(g *viewmodel.Gallery) tea.Cmd {
	return pageCmd(g.Retry)
}

// LoadDetailCmd resolves one item for the detail screen
func LoadDetailCmd(g *viewmodel.Gallery, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		view, err := g.Detail(ctx, id)
		return DetailLoadedMsg{View: view, Err: err}
	}
}

// WaitForChangeCmd waits for the next favorites change
func WaitForChangeCmd(ch <-chan favorites.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return FavoritesChangedMsg{Change: c}
	}
}

// OpenCmd opens url in the external viewer
func OpenCmd(o Opener, url string) tea.Cmd {
	return func() tea.Msg {
		return OpenedMsg{Err: o.Open(url)}
	}
}

// ClearStatusCmd clears the status line after d
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
