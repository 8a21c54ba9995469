package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Notification {
	return &Notification{
		ProjectID: "p1",
		Project:   "Moonlit",
		URL:       "https://playsignal.example/boards/moonlit",
		Insights:  []string{`"Fun" is your highest rated stat at 78%`},
	}
}

func TestWebhookSignsPayload(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "sha256="+Sign("s3cret", body), r.Header.Get("X-Signature-256"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, "s3cret").Send(context.Background(), sample()))
	assert.Equal(t, *sample(), got)
}

func TestSlackAndDiscordPayloads(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
	}))
	defer srv.Close()

	require.NoError(t, NewSlack(srv.URL).Send(context.Background(), sample()))
	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), sample()))
	require.Len(t, bodies, 2)
	assert.Len(t, bodies[0]["blocks"], 3)
	assert.Len(t, bodies[1]["embeds"], 1)
}

type failing struct{ name string }

func (f failing) Name() string { return f.name }

func (f failing) Send(ctx context.Context, n *Notification) error {
	return errors.New("unreachable")
}

func TestManagerBroadcastJoinsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewManager([]Notifier{failing{name: "a"}, NewWebhook(srv.URL, "")})
	assert.True(t, m.HasNotifiers())

	err := m.Broadcast(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: unreachable")
	assert.Contains(t, err.Error(), "webhook: webhook status 502")

	assert.False(t, NewManager(nil).HasNotifiers())
	assert.NoError(t, NewManager(nil).Broadcast(context.Background(), sample()))
}
