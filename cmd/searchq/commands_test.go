package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(context.Background(), append([]string{"searchq"}, args...))
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "search:\n  google:\n    engine_id: cx-1\n")
	pattern := writeFile(t, dir, "pattern.json", `{"customer_name":"ABC","customer_name_match_type":"exact","page":2}`)

	out, err := runApp(t, "--config", cfg, "compile", "--pattern", pattern)
	require.NoError(t, err)
	assert.Equal(t, "cx=cx-1&num=10&q=%22ABC%22&start=11\n", out)

	out, err = runApp(t, "--config", cfg, "compile", "--provider", "serpapi", "--pattern", pattern, "--page", "3")
	require.NoError(t, err)
	assert.Equal(t, "engine=google&q=%22ABC%22&start=20\n", out)
}

func TestCompileCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "search:\n  google:\n    engine_id: cx-1\n")

	_, err := runApp(t, "--config", cfg, "compile", "--pattern", filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "reading pattern")

	blank := writeFile(t, dir, "blank.json", `{"customer_name":" "}`)
	_, err = runApp(t, "--config", cfg, "compile", "--pattern", blank)
	assert.ErrorContains(t, err, "customer_name")

	_, err = runApp(t, "--config", cfg, "compile", "--provider", "bing", "--pattern", blank)
	assert.ErrorContains(t, err, "provider not found")
}

func TestRunCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "serp-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"search_information": {"total_results": 42},
			"organic_results": [
				{"position": 1, "title": "ABC Ltd", "link": "https://abc.co.jp", "snippet": "Tokyo office"}
			]
		}`)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", fmt.Sprintf(
		"search:\n  serpapi:\n    api_host: %s\n    api_key: serp-key\n", ts.URL))
	pattern := writeFile(t, dir, "pattern.json", `{"customer_name":"ABC"}`)

	out, err := runApp(t, "--config", cfg, "run", "--provider", "serpapi", "--pattern", pattern)
	require.NoError(t, err)
	assert.Contains(t, out, "ABC [serpapi] page 1, 1 results of about 42")
	assert.Contains(t, out, "1. ABC Ltd\n   https://abc.co.jp\n   Tokyo office")

	out, err = runApp(t, "--config", cfg, "run", "--provider", "serpapi", "--pattern", pattern, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 42`)
}

func TestRunCommand_NoKey(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "search:\n  google:\n    engine_id: cx-1\n")
	pattern := writeFile(t, dir, "pattern.json", `{"customer_name":"ABC"}`)

	_, err := runApp(t, "--config", cfg, "run", "--pattern", pattern)
	assert.ErrorContains(t, err, "missing API key")
}
