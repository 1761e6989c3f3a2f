package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/swipesim/internal/plot"
)

func TestServer_ListenAndServe(t *testing.T) {
	srv := NewServer(testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	waitForServer(t, srv, 2*time.Second)

	resp, err := http.Post("http://"+srv.Addr()+"/run_simulation", "application/json",
		strings.NewReader(`{"men_users": "10", "women_users": "10", "plots": false}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, 10, body.Report.B.Count)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err, "clean shutdown returns nil")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_AddrEmptyBeforeStart(t *testing.T) {
	assert.Empty(t, NewServer(testConfig(t)).Addr())
}

func TestServer_ListenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Addr = "256.0.0.1:bad"
	err := NewServer(cfg).ListenAndServe(context.Background())
	assert.ErrorContains(t, err, "listen")
}

func TestServer_PrunesChartsOnStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plots.KeepRuns = 1

	ages := map[string]time.Duration{"newest": 0, "older": time.Hour, "oldest": 2 * time.Hour}
	for id, age := range ages {
		files := plot.FileNames(id)
		mtime := time.Now().Add(-age)
		for _, name := range []string{files.Functions, files.Distributions} {
			path := filepath.Join(cfg.Plots.Dir, name)
			require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
			require.NoError(t, os.Chtimes(path, mtime, mtime))
		}
	}

	srv := NewServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.ListenAndServe(ctx)
	waitForServer(t, srv, 2*time.Second)

	runs, err := plot.ListRuns(cfg.Plots.Dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "newest", runs[0].RunID)
}

// waitForServer polls until the server has an address and responds.
func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != "" {
			resp, err := http.Get("http://" + addr + "/health")
			if err == nil {
				resp.Body.Close()
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}
