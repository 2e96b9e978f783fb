package domain

import "fmt"

// Fallback display values for items without a primary attribute set
const (
	UnknownName        = "Unknown Breed"
	NoTemperament      = "Not specified"
	MissingDescription = "No description available"
)

// DefaultPageSize is the catalog page size when none is configured
const DefaultPageSize = 12

// Attribute is one descriptive record attached to an item (a breed in The Cat API)
type Attribute struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Temperament  string `json:"temperament,omitempty"`
	Description  string `json:"description,omitempty"`
	Origin       string `json:"origin,omitempty"`
	WikipediaURL string `json:"wikipedia_url,omitempty"`
}

// Item represents one catalog entry. Items are never mutated after they
// enter the cache.
type Item struct {
	ID         string      `json:"id"`        // Stable, globally unique identifier
	ImageURL   string      `json:"image_url"` // Displayable media
	Width      int         `json:"width,omitempty"`
	Height     int         `json:"height,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"` // First element is the primary set
}

// Primary returns the primary attribute set, if any
func (i Item) Primary() (Attribute, bool) {
	if len(i.Attributes) == 0 {
		return Attribute{}, false
	}
	return i.Attributes[0], true
}

// PrimaryName returns the display name of the primary attribute set
func (i Item) PrimaryName() string {
	if a, ok := i.Primary(); ok && a.Name != "" {
		return a.Name
	}
	return UnknownName
}

// Temperament returns the primary temperament for display
func (i Item) Temperament() string {
	if a, ok := i.Primary(); ok && a.Temperament != "" {
		return a.Temperament
	}
	return NoTemperament
}

// Description returns the primary description for display
func (i Item) Description() string {
	if a, ok := i.Primary(); ok && a.Description != "" {
		return a.Description
	}
	return MissingDescription
}

// Dimensions returns "WxH" or an empty string when unknown
func (i Item) Dimensions() string {
	if i.Width <= 0 || i.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// PageQuery is one request for a slice of the catalog
type PageQuery struct {
	PageSize  int // Positive, constant per session
	PageIndex int // 1-based
}

// FirstPage returns the query for page 1 at the given size
func FirstPage(pageSize int) PageQuery {
	return PageQuery{PageSize: pageSize, PageIndex: 1}
}

// Offset returns the zero-based item offset of the page
func (q PageQuery) Offset() int {
	return CalculateOffset(q.PageIndex, q.PageSize)
}

// Next returns the query for the following page
func (q PageQuery) Next() PageQuery {
	return PageQuery{PageSize: q.PageSize, PageIndex: q.PageIndex + 1}
}

// Validate rejects non-positive sizes and indexes
func (q PageQuery) Validate() error {
	if q.PageSize <= 0 {
		return fmt.Errorf("%w: page size %d", ErrInvalidPage, q.PageSize)
	}
	if q.PageIndex <= 0 {
		return fmt.Errorf("%w: page index %d", ErrInvalidPage, q.PageIndex)
	}
	return nil
}

// CalculateOffset converts a 1-based page index into an item offset
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}
