package tui

import "github.com/mmcdole/gallery/internal/favorites"

// ChannelObserver adapts favorites change notifications to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- favorites.Change
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- favorites.Change) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange sends the change to the channel (non-blocking if full).
func (o *ChannelObserver) OnChange(c favorites.Change) {
	select {
	case o.ch <- c:
	default: // Non-blocking if channel full
	}
}
