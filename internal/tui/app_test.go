package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gallery/internal/catalog"
	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/store"
	"github.com/mmcdole/gallery/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listClient struct {
	mu    sync.Mutex
	items []domain.Item
	err   error
}

func newListClient(total int) *listClient {
	items := make([]domain.Item, total)
	for i := range items {
		id := fmt.Sprintf("cat-%02d", i)
		items[i] = domain.Item{
			ID:         id,
			ImageURL:   "https://cdn.example/" + id + ".jpg",
			Attributes: []domain.Attribute{{ID: "b" + id, Name: fmt.Sprintf("Breed %02d", i), Temperament: "Curious"}},
		}
	}
	return &listClient{items: items}
}

func (c *listClient) ListPage(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if offset >= len(c.items) {
		return []domain.Item{}, nil
	}
	end := min(offset+limit, len(c.items))
	return append([]domain.Item(nil), c.items[offset:end]...), nil
}

func (c *listClient) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	for _, it := range c.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, domain.NewFetchError(domain.FailureNotFound, 404, "not found")
}

type recordingOpener struct {
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

type harness struct {
	client *listClient
	favs   *favorites.Store
	opener *recordingOpener
	model  Model
}

func newHarness(t *testing.T, total int) *harness {
	t.Helper()
	ctx := context.Background()
	client := newListClient(total)
	cache := catalog.NewCache(client)
	favs := favorites.NewStore(store.NewScriptedKV())
	favs.Hydrate(ctx)
	t.Cleanup(func() {
		favs.Close(ctx)
		cache.Close(ctx)
	})

	opener := &recordingOpener{}
	g := viewmodel.New(cache, favs, 12, nil)
	return &harness{
		client: client,
		favs:   favs,
		opener: opener,
		model:  NewModel(g, opener, nil, nil),
	}
}

// send feeds msg to the model and returns the command it produced
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) press(keys string) tea.Cmd {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

// run executes cmd synchronously and feeds its message back
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		h.send(msg)
	}
}

func (h *harness) loadFirst() {
	h.run(LoadFirstCmd(h.model.Gallery))
}

func TestModel_LoadsFirstPage(t *testing.T) {
	h := newHarness(t, 20)
	assert.True(t, h.model.Loading)

	h.loadFirst()
	assert.False(t, h.model.Loading)
	assert.Len(t, h.model.rows(), 12)
	assert.Contains(t, h.model.View(), "Breed 00")
	assert.Contains(t, h.model.View(), "page 1")
}

func TestModel_CursorMovement(t *testing.T) {
	h := newHarness(t, 20)
	h.loadFirst()

	h.press("j")
	h.press("j")
	assert.Equal(t, 2, h.model.Cursor)
	h.press("k")
	assert.Equal(t, 1, h.model.Cursor)
	h.press("G")
	assert.Equal(t, 11, h.model.Cursor)
	h.press("g")
	assert.Equal(t, 0, h.model.Cursor)

	// Never above the first row
	h.press("k")
	assert.Equal(t, 0, h.model.Cursor)
}

func TestModel_DownAtEndLoadsMore(t *testing.T) {
	h := newHarness(t, 20)
	h.loadFirst()

	h.press("G")
	cmd := h.press("j")
	require.NotNil(t, cmd)
	assert.True(t, h.model.Loading)

	// A second request while loading is ignored
	assert.Nil(t, h.press("n"))

	h.run(cmd)
	assert.False(t, h.model.Loading)
	assert.Len(t, h.model.rows(), 20)
	assert.Contains(t, h.model.View(), "end")

	// Past the end nothing more is requested
	h.press("G")
	h.press("j")
	assert.False(t, h.model.Loading)
	assert.Equal(t, "No more items", h.model.StatusMsg)
}

func TestModel_ToggleFavorite(t *testing.T) {
	h := newHarness(t, 12)
	h.loadFirst()

	h.press("j")
	h.press("f")
	assert.True(t, h.favs.IsFavorite("cat-01"))
	assert.Equal(t, "Added to favorites", h.model.StatusMsg)

	h.press("f")
	assert.False(t, h.favs.IsFavorite("cat-01"))
	assert.Equal(t, "Removed from favorites", h.model.StatusMsg)

	h.send(ClearStatusMsg{})
	assert.Empty(t, h.model.StatusMsg)
}

func TestModel_FavoritesScreen(t *testing.T) {
	h := newHarness(t, 12)
	h.loadFirst()
	h.favs.Add("cat-04")

	h.press("v")
	assert.Equal(t, ViewFavorites, h.model.Mode)
	rows := h.model.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "cat-04", rows[0].Item.ID)

	// Unfavoriting the last row leaves an empty screen
	h.press("f")
	assert.Empty(t, h.model.rows())
	assert.Contains(t, h.model.View(), "No favorites yet")

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, h.model.Mode)
}

func TestModel_Detail(t *testing.T) {
	h := newHarness(t, 12)
	h.loadFirst()
	h.press("j")
	h.press("j")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	h.run(cmd)

	assert.Equal(t, ViewDetail, h.model.Mode)
	require.NotNil(t, h.model.Detail)
	assert.Equal(t, "cat-02", h.model.Detail.Item.ID)
	assert.Contains(t, h.model.View(), "Breed 02")

	h.press("f")
	assert.True(t, h.model.Detail.Favorite)
	assert.True(t, h.favs.IsFavorite("cat-02"))

	h.run(h.press("o"))
	assert.Equal(t, []string{"https://cdn.example/cat-02.jpg"}, h.opener.urls)
	assert.Equal(t, "Opened image", h.model.StatusMsg)

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, h.model.Mode)
	assert.Nil(t, h.model.Detail)
}

func TestModel_Filter(t *testing.T) {
	h := newHarness(t, 12)
	h.loadFirst()

	h.press("/")
	require.True(t, h.model.Filtering)
	h.press("0")
	h.press("7")
	assert.Equal(t, "07", h.model.Query)

	rows := h.model.rows()
	require.NotEmpty(t, rows)
	assert.Equal(t, "cat-07", rows[0].Item.ID)

	// Enter keeps the filter, esc clears it
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, h.model.Filtering)
	assert.Equal(t, "07", h.model.Query)

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, h.model.Query)
	assert.Len(t, h.model.rows(), 12)
}

func TestModel_ErrorAndRetry(t *testing.T) {
	h := newHarness(t, 12)
	h.client.err = domain.NewFetchError(domain.FailureRejected, 500, "status 500")

	h.loadFirst()
	assert.Equal(t, "Error: 500", h.model.StatusMsg)
	assert.True(t, h.model.StatusIsErr)
	assert.Empty(t, h.model.rows())

	h.client.mu.Lock()
	h.client.err = nil
	h.client.mu.Unlock()

	h.run(h.press("R"))
	assert.Len(t, h.model.rows(), 12)
}

func TestModel_Help(t *testing.T) {
	h := newHarness(t, 12)
	h.loadFirst()

	h.press("?")
	assert.Equal(t, ViewHelp, h.model.Mode)
	assert.Contains(t, h.model.View(), "toggle favorite")

	h.press("?")
	assert.Equal(t, ViewList, h.model.Mode)
}

func TestModel_FavoritesChangedRewaits(t *testing.T) {
	h := newHarness(t, 12)
	ch := make(chan favorites.Change, 1)
	h.model.Changes = ch

	cmd := h.send(FavoritesChangedMsg{Change: favorites.Change{Kind: favorites.Added, ID: "cat-00"}})
	require.NotNil(t, cmd)

	ch <- favorites.Change{Kind: favorites.Removed, ID: "cat-00"}
	msg := cmd()
	assert.Equal(t, FavoritesChangedMsg{Change: favorites.Change{Kind: favorites.Removed, ID: "cat-00"}}, msg)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, 12)
	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestChannelObserver_DropsWhenFull(t *testing.T) {
	ch := make(chan favorites.Change, 1)
	obs := NewChannelObserver(ch)

	obs.OnChange(favorites.Change{Kind: favorites.Added, ID: "a"})
	obs.OnChange(favorites.Change{Kind: favorites.Added, ID: "b"})

	assert.Equal(t, "a", (<-ch).ID)
	assert.Empty(t, ch)
}
