package catapi

// Image is one record from /images/search or /images/{id}
type Image struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Breeds    []Breed `json:"breeds,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Breed is the descriptive record attached to an image
type Breed struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Temperament  string `json:"temperament,omitempty"`
	Description  string `json:"description,omitempty"`
	Origin       string `json:"origin,omitempty"`
	WikipediaURL string `json:"wikipedia_url,omitempty"`
}

// errorBody is the shape of non-2xx JSON responses
type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
