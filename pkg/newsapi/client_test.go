package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEverything_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Trump CEO meeting", r.URL.Query().Get("q"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("from"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "relevancy", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "15", r.URL.Query().Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 1,
			"articles": [{
				"source": {"id": null, "name": "Example News"},
				"title": "Trump meets Amazon CEO",
				"description": "Andy Jassy visited.",
				"url": "https://news.example.com/a",
				"publishedAt": "2025-03-07T15:00:00Z",
				"content": "President Trump met with Amazon CEO Andy Jassy."
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := c.Everything(context.Background(), Query{
		Q:        "Trump CEO meeting",
		From:     time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		Language: "en",
		SortBy:   "relevancy",
		PageSize: 15,
	})
	require.NoError(t, err)
	require.Len(t, got.Articles, 1)
	a := got.Articles[0]
	assert.Equal(t, "Example News", a.Source.Name)
	assert.Equal(t, "https://news.example.com/a", a.URL)
	assert.Equal(t, time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC), a.PublishedAt.UTC())
}

func TestEverything_ErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Everything(context.Background(), Query{Q: "x"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "apiKeyInvalid", apiErr.Code)
	assert.Contains(t, err.Error(), "401")
}

func TestEverything_NonJSONError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Everything(context.Background(), Query{Q: "x"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "newsapi: status 502", err.Error())
}

func TestEverything_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Everything(context.Background(), Query{Q: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newsapi: unmarshal response")
}

func TestEverything_OmitsEmptyParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("from"))
		assert.False(t, q.Has("pageSize"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	got, err := NewClient("k", WithBaseURL(srv.URL)).Everything(context.Background(), Query{Q: "x"})
	require.NoError(t, err)
	assert.Empty(t, got.Articles)
}
