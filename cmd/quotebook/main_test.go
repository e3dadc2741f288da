package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// cliEnv points the CLI at a scratch data directory and an empty config dir.
type cliEnv struct {
	dataDir   string
	configDir string
}

func newCLIEnv(t *testing.T, driver string) *cliEnv {
	t.Helper()

	env := &cliEnv{dataDir: t.TempDir(), configDir: t.TempDir()}

	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("APP_LOG__LEVEL", "error")
	t.Setenv("APP_STORAGE__DRIVER", driver)
	t.Setenv("APP_STORAGE__PATH", env.dataDir)
	t.Setenv("APP_CLIENT__RETRY__MAX_ATTEMPTS", "1")

	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--config-dir", e.configDir,
		"--env-file", filepath.Join(e.configDir, ".env"),
	}, args...))

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

// remoteFeed serves a posts-style collection and records pushes.
type remoteFeed struct {
	mu     sync.Mutex
	titles []string
	pushed [][]byte
}

func (f *remoteFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		f.pushed = append(f.pushed, body)
		w.WriteHeader(http.StatusCreated)

		return
	}

	posts := make([]map[string]any, 0, len(f.titles))
	for i, title := range f.titles {
		posts = append(posts, map[string]any{"id": i + 1, "userId": 1, "title": title, "body": "ignored"})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(posts)
}

func TestCLI_Help(t *testing.T) {
	newCLIEnv(t, "memory")

	cmd := newRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"serve", "random", "add", "list", "categories", "filter", "import", "export", "sync", "push", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestCLI_AddListAndFilterPersist(t *testing.T) {
	for _, driver := range []string{"disk", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			env := newCLIEnv(t, driver)

			out, _, err := env.run(t, "", "add", "Test", "X")
			require.NoError(t, err)
			assert.Equal(t, "Added to X.\n", out)

			out, _, err = env.run(t, "", "list")
			require.NoError(t, err)
			assert.Contains(t, out, domain.SeedQuotes()[0].Text)
			assert.Contains(t, out, "\"Test\"\n  [X]")

			out, _, err = env.run(t, "", "filter", "X")
			require.NoError(t, err)
			assert.Contains(t, out, "Filter set to X.")

			out, _, err = env.run(t, "", "filter")
			require.NoError(t, err)
			assert.Equal(t, "X\n", out)

			out, _, err = env.run(t, "", "random")
			require.NoError(t, err)
			assert.Contains(t, out, `"Test"`)

			out, _, err = env.run(t, "", "categories")
			require.NoError(t, err)
			assert.Equal(t, "  all\n  Motivation\n  Inspiration\n  Life\n* X\n", out)
		})
	}
}

func TestCLI_Version(t *testing.T) {
	// An unusable config must not matter to version.
	env := newCLIEnv(t, "floppy")

	out, _, err := env.run(t, "", "version", "--short")

	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestCLI_ListTable(t *testing.T) {
	env := newCLIEnv(t, "disk")

	_, _, err := env.run(t, "", "add", "Tabled", "Columns")
	require.NoError(t, err)

	out, _, err := env.run(t, "", "list", "--table", "--category", "Columns")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"#", "CATEGORY", "TEXT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"4", "Columns", "Tabled"}, strings.Fields(lines[1]))
}

func TestCLI_AddRejectsBlank(t *testing.T) {
	env := newCLIEnv(t, "disk")

	_, _, err := env.run(t, "", "add", "   ", "X")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCLI_RandomWithEmptyFilter(t *testing.T) {
	env := newCLIEnv(t, "disk")

	out, _, err := env.run(t, "", "filter", "Nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No quotes match it yet.")

	out, _, err = env.run(t, "", "random")
	require.NoError(t, err)
	assert.Equal(t, "No quotes in category \"Nothing\".\n", out)
}

func TestCLI_ImportExport(t *testing.T) {
	env := newCLIEnv(t, "disk")

	payload := `[{"text": "Imported", "category": "Files"}, {"text": ""}, 42]`

	out, _, err := env.run(t, payload, "import", "-")
	require.NoError(t, err)
	assert.Equal(t, "Imported 1 quote(s), skipped 2.\n", out)

	target := filepath.Join(t.TempDir(), "quotes.json")

	_, stderr, err := env.run(t, "", "export", "--output", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 4 quote(s)")

	raw, err := os.ReadFile(target)
	require.NoError(t, err)

	var exported []domain.Quote
	require.NoError(t, json.Unmarshal(raw, &exported))
	require.Len(t, exported, 4)
	assert.Equal(t, domain.Quote{Text: "Imported", Category: "Files"}, exported[3])
	assert.Contains(t, string(raw), "\n  {", "export is indented")

	_, _, err = env.run(t, "", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = env.run(t, `{"not": "an array"}`, "import", "-")
	require.Error(t, err)
	assert.True(t, domain.IsParse(err))
}

func TestCLI_SyncAndPush(t *testing.T) {
	env := newCLIEnv(t, "disk")

	feed := &remoteFeed{titles: []string{domain.SeedQuotes()[1].Text, "New One", "  "}}
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	t.Setenv("APP_SERVICES__REMOTE__BASE_URL", srv.URL)

	out, _, err := env.run(t, "", "sync")
	require.NoError(t, err)
	assert.Equal(t, "Synced: 1 new quote(s) added.\n  + New One\n", out)

	out, _, err = env.run(t, "", "sync")
	require.NoError(t, err)
	assert.Equal(t, "Quotes are up to date.\n", out)

	out, _, err = env.run(t, "", "list", "--category", "Server")
	require.NoError(t, err)
	assert.Equal(t, "\"New One\"\n  [Server]\n", out)

	out, _, err = env.run(t, "", "push")
	require.NoError(t, err)
	assert.Equal(t, "Pushed 4 quote(s).\n", out)

	feed.mu.Lock()
	defer feed.mu.Unlock()

	require.Len(t, feed.pushed, 1)
	assert.Contains(t, string(feed.pushed[0]), `"title":"New One"`)
}

func TestCLI_SyncFailureKeepsQuotes(t *testing.T) {
	env := newCLIEnv(t, "disk")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("APP_SERVICES__REMOTE__BASE_URL", srv.URL)

	_, _, err := env.run(t, "", "sync")
	require.Error(t, err)
	assert.True(t, domain.IsSync(err))

	out, _, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n  ["))
}

func TestCLI_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t, "disk")
	t.Setenv("APP_STORAGE__DRIVER", "floppy")

	_, _, err := env.run(t, "", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
