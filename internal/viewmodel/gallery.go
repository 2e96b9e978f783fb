// Package viewmodel derives what the front ends render from the catalog
// cache and the favorites store. It owns no data.
package viewmodel

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmcdole/gallery/internal/catalog"
	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/search"
)

// Catalog is the part of the paginated cache the gallery reads
type Catalog interface {
	FetchPage(ctx context.Context, identity string, q domain.PageQuery) (catalog.PageResult, error)
	Reset(identity string)
	State(identity string) catalog.EntryState
	NextPage(identity string, pageSize int) domain.PageQuery
	Find(id string) (domain.Item, bool)
	FetchItem(ctx context.Context, id string) (domain.Item, error)
	Restore(ctx context.Context, identity string) (bool, error)
}

// Favorites is the part of the favorites store the gallery reads
type Favorites interface {
	IsFavorite(id string) bool
	Toggle(id string) bool
	List() []string
	Count() int
}

// Row is one rendered item
type Row struct {
	Item     domain.Item
	Favorite bool
}

// ListView is everything the list screen shows
type ListView struct {
	Rows          []Row
	HasMore       bool
	Loading       bool
	Error         string // Empty when the last fetch succeeded
	Offline       bool
	Page          int // Pages loaded so far
	FavoriteCount int
}

// DetailView is everything the detail screen shows
type DetailView struct {
	Item        domain.Item
	Favorite    bool
	Name        string
	Temperament string
	Description string
	Origin      string
	Wikipedia   string
	Dimensions  string
}

// Gallery composes the list query over one cache identity
type Gallery struct {
	cache    Catalog
	favs     Favorites
	identity string
	pageSize int
	logger   *slog.Logger
}

// New creates a gallery over the forward-paginated list at pageSize
func New(cache Catalog, favs Favorites, pageSize int, logger *slog.Logger) *Gallery {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gallery{
		cache:    cache,
		favs:     favs,
		identity: catalog.ListIdentity(pageSize),
		pageSize: pageSize,
		logger:   logger,
	}
}

// Identity returns the cache identity this gallery renders
func (g *Gallery) Identity() string { return g.identity }

// PageSize returns the configured page size
func (g *Gallery) PageSize() int { return g.pageSize }

// List builds the list view from the current cache and favorites state
func (g *Gallery) List() ListView {
	st := g.cache.State(g.identity)
	view := ListView{
		Rows:          g.rows(st.Items),
		HasMore:       st.HasMore,
		Loading:       st.Loading,
		Page:          st.Pages,
		FavoriteCount: g.favs.Count(),
		Offline:       st.Restored,
	}
	if st.Err != nil {
		view.Error = ErrorMessage(st.Err)
		if st.Err.Kind == domain.FailureTransient {
			view.Offline = true
		}
	}
	return view
}

func (g *Gallery) rows(items []domain.Item) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{Item: it, Favorite: g.favs.IsFavorite(it.ID)}
	}
	return rows
}

// LoadFirst requests page 1 unless pages are already loaded. When the
// catalog is unreachable the offline snapshot is restored instead; the
// fetch error is still returned.
func (g *Gallery) LoadFirst(ctx context.Context) error {
	if g.cache.State(g.identity).Pages > 0 {
		return nil
	}

	_, err := g.cache.FetchPage(ctx, g.identity, domain.FirstPage(g.pageSize))
	if err == nil {
		return nil
	}
	if fe := domain.AsFetchError(err); fe.Kind == domain.FailureTransient {
		restored, rerr := g.cache.Restore(ctx, g.identity)
		if rerr != nil {
			g.logger.Warn("failed to restore offline snapshot", "error", rerr)
		} else if restored {
			g.logger.Info("showing offline snapshot", "identity", g.identity)
		}
	}
	return err
}

// LoadMore requests the next page. It does nothing while a fetch is in
// flight or when the last page was short. Offline snapshot rows are
// reloaded from page 1 so live pages never extend a stale list.
func (g *Gallery) LoadMore(ctx context.Context) error {
	st := g.cache.State(g.identity)
	if st.Pages == 0 {
		return g.LoadFirst(ctx)
	}
	if st.Loading {
		return nil
	}
	if st.Restored {
		_, err := g.cache.FetchPage(ctx, g.identity, domain.FirstPage(g.pageSize))
		return err
	}
	if !st.HasMore {
		return nil
	}
	_, err := g.cache.FetchPage(ctx, g.identity, g.cache.NextPage(g.identity, g.pageSize))
	return err
}

// Refresh discards every loaded page and requests page 1 again
func (g *Gallery) Refresh(ctx context.Context) error {
	g.cache.Reset(g.identity)
	_, err := g.cache.FetchPage(ctx, g.identity, domain.FirstPage(g.pageSize))
	return err
}

// Retry re-requests the page whose fetch failed. It does nothing when the
// last fetch succeeded.
func (g *Gallery) Retry(ctx context.Context) error {
	st := g.cache.State(g.identity)
	if st.Err == nil || st.Loading {
		return nil
	}
	if st.Pages == 0 || st.Restored {
		_, err := g.cache.FetchPage(ctx, g.identity, domain.FirstPage(g.pageSize))
		return err
	}
	_, err := g.cache.FetchPage(ctx, g.identity, g.cache.NextPage(g.identity, g.pageSize))
	return err
}

// ToggleFavorite flips id and returns its new state
func (g *Gallery) ToggleFavorite(id string) bool {
	return g.favs.Toggle(id)
}

// Favorites lists favorites in insertion order. Ids the cache cannot
// resolve become id-only rows.
func (g *Gallery) Favorites() []Row {
	ids := g.favs.List()
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		it, ok := g.cache.Find(id)
		if !ok {
			it = domain.Item{ID: id}
		}
		rows = append(rows, Row{Item: it, Favorite: true})
	}
	return rows
}

// Detail resolves one item, from the cache when possible
func (g *Gallery) Detail(ctx context.Context, id string) (DetailView, error) {
	it, err := g.cache.FetchItem(ctx, id)
	if err != nil {
		return DetailView{}, err
	}

	view := DetailView{
		Item:        it,
		Favorite:    g.favs.IsFavorite(id),
		Name:        it.PrimaryName(),
		Temperament: it.Temperament(),
		Description: it.Description(),
		Dimensions:  it.Dimensions(),
	}
	if a, ok := it.Primary(); ok {
		view.Origin = a.Origin
		view.Wikipedia = a.WikipediaURL
	}
	return view, nil
}

// Filter returns the loaded rows matching query, best match first. An
// empty query returns every loaded row. When no name ranks, rows whose id
// or temperament match are returned in list order.
func (g *Gallery) Filter(query string) []Row {
	items := g.cache.State(g.identity).Items
	if strings.TrimSpace(query) == "" {
		return g.rows(items)
	}

	matches := search.Filter(query, items)
	if matches == nil {
		var rows []Row
		for _, it := range items {
			if search.Matches(query, it) {
				rows = append(rows, Row{Item: it, Favorite: g.favs.IsFavorite(it.ID)})
			}
		}
		return rows
	}

	rows := make([]Row, len(matches))
	for i, m := range matches {
		rows[i] = Row{Item: m.Item, Favorite: g.favs.IsFavorite(m.Item.ID)}
	}
	return rows
}

// ErrorMessage turns a fetch failure into the text shown to the user
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	fe := domain.AsFetchError(err)
	switch fe.Kind {
	case domain.FailureMalformed:
		return "Failed to load items"
	case domain.FailureRejected:
		if fe.Status > 0 {
			return "Error: " + strconv.Itoa(fe.Status)
		}
	case domain.FailureTransient:
		return "You appear to be offline"
	case domain.FailureUnauthorized:
		return "Invalid or missing API key"
	case domain.FailureNotFound:
		return "Item not found"
	}
	return "An error occurred while loading items"
}
