package testutil

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("subdir", "file.txt")
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasPrefix(path, env.RootDir()))
}

func TestTestEnv_WriteFileString(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("nested/test.txt", "test content")

	content, err := os.ReadFile(env.Path("nested", "test.txt"))
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))
	assert.True(t, env.FileExists("nested/test.txt"))
	assert.False(t, env.FileExists("missing.txt"))
}

func TestNewIPv4TestServer(t *testing.T) {
	server := NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	assert.True(t, strings.HasPrefix(server.URL, "http://127.0.0.1:"))

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig(t)

	assert.Equal(t, []string{"gb", "aws", "ol"}, cfg.Providers)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, "cache.db", filepath.Base(cfg.Cache.DBFile))
}
