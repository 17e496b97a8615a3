package googlebooks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

const duneVolume = `{
  "id": "B1hSG45JCX4C",
  "volumeInfo": {
    "title": "Dune",
    "authors": ["Frank Herbert"],
    "publisher": "Penguin",
    "publishedDate": "2005-08-02",
    "description": "Set on the desert planet Arrakis",
    "industryIdentifiers": [
      {"type": "ISBN_10", "identifier": "0441013597"},
      {"type": "ISBN_13", "identifier": "9780441013593"}
    ],
    "pageCount": 528,
    "categories": ["Fiction"],
    "averageRating": 4.5,
    "imageLinks": {"thumbnail": "http://books.google.com/dune.jpg"}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*config.GoogleBooksConfig)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.GoogleBooksConfig{
		BaseURL:      server.URL,
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Breaker: config.BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      time.Minute,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(cfg, log)
}

func TestClient_Lookup(t *testing.T) {
	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, duneVolume)
	}, func(cfg *config.GoogleBooksConfig) { cfg.APIKey = "secret-key" })

	md, err := client.Lookup(context.Background(), "B1hSG45JCX4C")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "/volumes/B1hSG45JCX4C", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "B1hSG45JCX4C", md.ExternalID)
	assert.Equal(t, "Dune", md.Title)
	assert.Equal(t, "Frank Herbert", md.AuthorLine())
	assert.Equal(t, "9780441013593", md.ISBN)
	assert.Equal(t, 528, md.PageCount)
	assert.Equal(t, "http://books.google.com/dune.jpg", md.ThumbnailURL)
	require.NotNil(t, md.AverageRating)
	assert.Equal(t, 4.5, *md.AverageRating)
	assert.Equal(t, "en", md.Language)
}

func TestClient_Lookup_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	md, err := client.Lookup(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, md)
	assert.Equal(t, uint32(0), client.breaker.Counts().ConsecutiveFailures)
}

func TestClient_RetryOn5xx(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, duneVolume)
	})

	md, err := client.Lookup(context.Background(), "B1hSG45JCX4C")
	require.NoError(t, err)
	assert.Equal(t, "Dune", md.Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_RemoteUnavailable(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteUnavailable(err))
	// 1次请求 + 2次重试
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_BadRequestNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Search(context.Background(), "dune", 5)
	assert.True(t, apperrors.IsRemoteUnavailable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *config.GoogleBooksConfig) {
		cfg.MaxRetries = 0
		cfg.Breaker.FailureThreshold = 2
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Lookup(ctx, "x")
		require.Error(t, err)
	}

	_, err := client.Lookup(ctx, "x")
	assert.True(t, apperrors.IsRemoteUnavailable(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "熔断后不再请求")
}

func TestClient_Search(t *testing.T) {
	var gotMax, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprintf(w, `{"totalItems": 2, "items": [%s, {"id": "no-info", "volumeInfo": {}}]}`, duneVolume)
	})

	t.Run("结果解析与缺省值", func(t *testing.T) {
		list, err := client.Search(context.Background(), "dune", 100)
		require.NoError(t, err)
		assert.Equal(t, "40", gotMax)
		assert.Equal(t, "dune", gotQuery)
		require.Len(t, list, 2)
		assert.Equal(t, "Dune", list[0].Title)
		assert.Equal(t, unknownTitle, list[1].Title)
		assert.Equal(t, []string{unknownAuthor}, list[1].Authors)
		assert.Empty(t, list[1].ISBN)
	})

	t.Run("FindBest按书名和作者查询", func(t *testing.T) {
		md, err := client.FindBest(context.Background(), "Dune", "Frank Herbert")
		require.NoError(t, err)
		require.NotNil(t, md)
		assert.Equal(t, `intitle:"Dune" inauthor:"Frank Herbert"`, gotQuery)
		assert.Equal(t, "1", gotMax)
	})
}

func TestClient_FindBest_NoItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalItems": 0}`)
	})

	md, err := client.FindBest(context.Background(), "Nothing", "Nobody")
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestExtractISBN(t *testing.T) {
	assert.Equal(t, "0441013597", extractISBN([]industryIdentifier{
		{Type: "OTHER", Identifier: "x"},
		{Type: "ISBN_10", Identifier: "0441013597"},
	}))
	assert.Empty(t, extractISBN(nil))
}
