package pexels

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "px-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestSearchStockImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "px-key", r.Header.Get("Authorization"))
		assert.Equal(t, "mountain lakes", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		_, _ = io.WriteString(w, `{"photos":[
			{"photographer":"Ana","alt":"lake","src":{"original":"https://p/1o.jpg","large":"https://p/1l.jpg"}},
			{"photographer":"Ben","alt":"peak","src":{"original":"https://p/2o.jpg"}}
		]}`)
	})

	got, err := c.SearchStockImages(context.Background(), "mountain lakes", 2)
	require.NoError(t, err)
	assert.Equal(t, []model.StockImage{
		{URL: "https://p/1l.jpg", Photographer: "Ana", Alt: "lake"},
		{URL: "https://p/2o.jpg", Photographer: "Ben", Alt: "peak"},
	}, got)
}

func TestSearchStockImages_NoResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"photos":[]}`)
	})

	got, err := c.SearchStockImages(context.Background(), "nothing", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchStockImages_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		remaining string
		wantErr   error
	}{
		{"quota exhausted", http.StatusTooManyRequests, "0", provider.ErrQuotaExceeded},
		{"rate limited", http.StatusTooManyRequests, "12", provider.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Ratelimit-Remaining", tt.remaining)
				w.WriteHeader(tt.status)
			})

			_, err := c.SearchStockImages(context.Background(), "x", 5)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.SearchStockImages(context.Background(), "x", 5)
		assert.Error(t, err)
	})
}
