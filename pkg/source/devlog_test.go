package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devlogFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Moonlit Devlog</title>
  <item>
    <title>Patch 0.4: new boss</title>
    <link>https://example.com/devlog/4</link>
    <guid>devlog-4</guid>
    <pubDate>Mon, 02 Mar 2026 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Undated teaser</title>
    <link>https://example.com/devlog/teaser</link>
  </item>
  <item>
    <title>No identity</title>
  </item>
</channel>
</rss>`

func TestDevlogCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "playsignal/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(devlogFeed))
	}))
	defer srv.Close()

	collected := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	d := NewDevlog(time.Second)
	d.now = func() time.Time { return collected }

	updates, err := d.Collect(context.Background(), []Feed{{ProjectID: "p1", Name: "moonlit", URL: srv.URL}})
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, "p1", updates[0].ProjectID)
	assert.Equal(t, "devlog-4", updates[0].GUID)
	assert.Equal(t, time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC), updates[0].PublishedAt)

	assert.Equal(t, "https://example.com/devlog/teaser", updates[1].GUID)
	assert.Equal(t, collected, updates[1].PublishedAt)
}

func TestDevlogCollectSkipsBrokenFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	updates, err := NewDevlog(time.Second).Collect(context.Background(), []Feed{{ProjectID: "p1", Name: "down", URL: srv.URL}})
	require.NoError(t, err)
	assert.Empty(t, updates)
}
