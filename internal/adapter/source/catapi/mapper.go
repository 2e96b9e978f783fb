package catapi

import (
	"fmt"

	"github.com/mmcdole/gallery/internal/domain"
)

// MapImage converts an API image into a domain item. Records without an id
// or url cannot be displayed or favorited and are rejected.
func MapImage(img Image) (domain.Item, error) {
	if img.ID == "" {
		return domain.Item{}, fmt.Errorf("%w: image without id", domain.ErrMalformedResponse)
	}
	if img.URL == "" {
		return domain.Item{}, fmt.Errorf("%w: image %s without url", domain.ErrMalformedResponse, img.ID)
	}

	item := domain.Item{
		ID:       img.ID,
		ImageURL: img.URL,
		Width:    img.Width,
		Height:   img.Height,
	}
	if len(img.Breeds) > 0 {
		item.Attributes = make([]domain.Attribute, len(img.Breeds))
		for i, b := range img.Breeds {
			item.Attributes[i] = MapBreed(b)
		}
	}
	return item, nil
}

// MapImages converts a page of API images, preserving order
func MapImages(images []Image) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(images))
	for _, img := range images {
		item, err := MapImage(img)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MapBreed converts an API breed into a domain attribute
func MapBreed(b Breed) domain.Attribute {
	return domain.Attribute{
		ID:           b.ID,
		Name:         b.Name,
		Temperament:  b.Temperament,
		Description:  b.Description,
		Origin:       b.Origin,
		WikipediaURL: b.WikipediaURL,
	}
}
