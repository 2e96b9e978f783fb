package source

import (
	"testing"
	"time"

	"github.com/mmcdole/gallery/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(&adapter.CatalogConfig{
		BaseURL: "https://api.thecatapi.com/v1/",
		APIKey:  "key",
		Timeout: time.Second,
	}, adapter.NullLogger())
	require.NoError(t, err)
	assert.NotNil(t, client)

	client, err = NewClient(&adapter.CatalogConfig{}, nil)
	require.NoError(t, err, "defaults apply when unset")
	assert.NotNil(t, client)
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)

	_, err = NewClient(&adapter.CatalogConfig{BaseURL: "ftp://example.com"}, nil)
	assert.ErrorContains(t, err, "http or https")

	_, err = NewClient(&adapter.CatalogConfig{BaseURL: "://bad"}, nil)
	assert.ErrorContains(t, err, "invalid catalog base url")
}
