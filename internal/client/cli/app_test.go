package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamit-app/beamit-server/internal/client"
)

func respondOK(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"message": "ok",
		"success": true,
		"data":    data,
	})
	require.NoError(t, err)
}

func TestLoginThenDevices(t *testing.T) {
	origRead := readPassword
	readPassword = func() ([]byte, error) { return []byte("hunter22"), nil }
	t.Cleanup(func() { readPassword = origRead })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			var req struct {
				Username   string `json:"username"`
				Password   string `json:"password"`
				DeviceName string `json:"devicename"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.Username)
			assert.Equal(t, "hunter22", req.Password)
			assert.Equal(t, "phone", req.DeviceName)
			respondOK(t, w, client.Credentials{Username: "alice", DeviceName: "phone", Token: "fresh-token"})
		case "/device/list":
			assert.Equal(t, "alice", r.Header.Get("X-Beamit-Username"))
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			respondOK(t, w, map[string]any{"devices": []string{"phone", "laptop"}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	credsPath := filepath.Join(t.TempDir(), "creds.json")
	var out bytes.Buffer
	app := NewApp(&out, srv.URL, credsPath)

	require.NoError(t, app.Run(context.Background(), []string{"login", "alice", "phone"}))

	// the issued triple is cached for subsequent commands
	creds, err := client.LoadCredentials(credsPath)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", creds.Token)

	out.Reset()
	require.NoError(t, app.Run(context.Background(), []string{"devices"}))
	assert.Equal(t, "phone\nlaptop\n", out.String())
}

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/share/send", r.URL.Path)
		var req struct {
			Targets []string `json:"targets"`
			Text    string   `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"laptop", "desk-pc"}, req.Targets)
		assert.Equal(t, "hello", req.Text)
		respondOK(t, w, map[string]any{"username": "alice", "timestamp": "2025-06-01T12:00:00Z"})
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(&out, srv.URL, filepath.Join(t.TempDir(), "creds.json"))

	err := app.Run(context.Background(), []string{"send-text", "-to", "laptop, desk-pc", "hello"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "shared at")
}

func TestReceiveText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/share/receive", r.URL.Path)
		respondOK(t, w, map[string]any{
			"share":     map[string]any{"dataType": "text", "data": "hello"},
			"remaining": 0,
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(&out, srv.URL, filepath.Join(t.TempDir(), "creds.json"))

	require.NoError(t, app.Run(context.Background(), []string{"receive", "2025-06-01T12:00:00Z"}))
	assert.Equal(t, "hello\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	app := NewApp(&out, "http://localhost:0", filepath.Join(t.TempDir(), "creds.json"))

	err := app.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage")
}

func TestSplitTargets(t *testing.T) {
	assert.Equal(t, []string{"a1b2", "c3d4"}, splitTargets("a1b2, c3d4"))
	assert.Nil(t, splitTargets(""))
}
