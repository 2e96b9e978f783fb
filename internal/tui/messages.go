package tui

import (
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/viewmodel"
)

// Message types for the TUI

// PageLoadedMsg signals that a page fetch finished. The view re-reads the
// cache, so only the error travels in the message.
type PageLoadedMsg struct {
	Err error
}

// DetailLoadedMsg signals that one item was resolved
type DetailLoadedMsg struct {
	View viewmodel.DetailView
	Err  error
}

// FavoritesChangedMsg signals a favorites mutation or hydration
type FavoritesChangedMsg struct {
	Change favorites.Change
}

// OpenedMsg signals that the external viewer was launched
type OpenedMsg struct {
	Err error
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}
