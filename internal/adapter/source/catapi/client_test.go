package catapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageJSON = `[
	{"id":"i1","url":"https://cdn.example/i1.jpg","width":640,"height":480,
	 "breeds":[{"id":"abys","name":"Abyssinian","temperament":"Active"}]},
	{"id":"i2","url":"https://cdn.example/i2.jpg"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, "test-key", nil)
}

func requireKind(t *testing.T, err error, kind domain.FailureKind) *domain.FetchError {
	t.Helper()
	require.Error(t, err)
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe), "expected FetchError, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Kind)
	return fe
}

func TestClient_ListPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/search", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("limit"))
		assert.Equal(t, "24", r.URL.Query().Get("offset"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pageJSON))
	})

	items, err := c.ListPage(context.Background(), 12, 24)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "i1", items[0].ID)
	assert.Equal(t, "https://cdn.example/i1.jpg", items[0].ImageURL)
	assert.Equal(t, "Abyssinian", items[0].PrimaryName())
	assert.Equal(t, 640, items[0].Width)
	assert.Equal(t, "i2", items[1].ID)
	assert.Empty(t, items[1].Attributes)
}

func TestClient_GetByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/i1":
			_, _ = w.Write([]byte(`{"id":"i1","url":"https://cdn.example/i1.jpg"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found","status":404}`))
		}
	})

	item, err := c.GetByID(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)

	_, err = c.GetByID(context.Background(), "missing")
	requireKind(t, err, domain.FailureNotFound)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   domain.FailureKind
		target error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.FailureUnauthorized, domain.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, domain.FailureUnauthorized, domain.ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, domain.FailureRejected, domain.ErrRejected},
		{"server error", http.StatusInternalServerError, domain.FailureRejected, domain.ErrRejected},
		{"bad request", http.StatusBadRequest, domain.FailureRejected, domain.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.ListPage(context.Background(), 12, 0)
			fe := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.status, fe.Status)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestClient_ErrorMessageInReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"limit must be <= 100","status":400}`))
	})
	_, err := c.ListPage(context.Background(), 500, 0)
	fe := requireKind(t, err, domain.FailureRejected)
	assert.Contains(t, fe.Reason, "limit must be <= 100")
}

func TestClient_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":   `<html>oops</html>`,
		"object":     `{"id":"i1"}`,
		"missing id": `[{"url":"https://cdn.example/x.jpg"}]`,
		"missing url": `[{"id":"x"}]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.ListPage(context.Background(), 12, 0)
			requireKind(t, err, domain.FailureMalformed)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestClient_Offline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(url, "test-key", nil)
	_, err := c.ListPage(context.Background(), 12, 0)
	requireKind(t, err, domain.FailureTransient)
	assert.ErrorIs(t, err, domain.ErrOffline)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	c := NewClient(ts.URL, "test-key", nil, WithTimeout(50*time.Millisecond))
	_, err := c.ListPage(context.Background(), 12, 0)
	requireKind(t, err, domain.FailureTransient)
}

func TestClient_MissingAPIKey(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", nil)
	_, err := c.ListPage(context.Background(), 12, 0)
	requireKind(t, err, domain.FailureUnauthorized)
	assert.False(t, called, "no request should be sent without a key")
}

func TestMapImage(t *testing.T) {
	item, err := MapImage(Image{
		ID:  "x",
		URL: "https://cdn.example/x.jpg",
		Breeds: []Breed{
			{ID: "beng", Name: "Bengal", Origin: "United States"},
		},
	})
	require.NoError(t, err)
	require.Len(t, item.Attributes, 1)
	assert.Equal(t, "United States", item.Attributes[0].Origin)

	_, err = MapImage(Image{URL: "https://cdn.example/x.jpg"})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
