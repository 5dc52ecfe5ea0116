package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordSend(t *testing.T) {
	var got DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "")
	require.True(t, d.Enabled())
	require.NoError(t, d.SendSuccess(context.Background(), "3 images stacked"))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "3 images stacked", got.Embeds[0].Description)
	assert.Equal(t, colorGreen, got.Embeds[0].Color)

	// No error URL configured: nothing is sent.
	got = DiscordMessage{}
	require.NoError(t, d.SendError(context.Background(), "boom"))
	assert.Empty(t, got.Embeds)
}

func TestDiscordBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDiscord("", srv.URL)
	err := d.SendError(context.Background(), "boom")
	require.ErrorContains(t, err, "status code: 429")
}

func TestDiscordDisabled(t *testing.T) {
	var d *Discord
	assert.False(t, d.Enabled())
	assert.False(t, NewDiscord("", "").Enabled())
}
