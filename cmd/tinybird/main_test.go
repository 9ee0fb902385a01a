package main

import (
	"bytes"
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
)

type captured struct {
	mu       sync.Mutex
	paths    []string
	queries  []string
	bodies   []string
	encoding []string
}

func newAPI(t *testing.T, routes map[string]string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.queries = append(c.queries, r.URL.RawQuery)
		c.bodies = append(c.bodies, string(body))
		c.encoding = append(c.encoding, r.Header.Get("Content-Encoding"))
		c.mu.Unlock()

		resp, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
	}))
	t.Cleanup(server.Close)
	return server, c
}

func runCLI(t *testing.T, server *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := Config{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	full := append([]string{"tinybird", "--env-file", "", "--token", "test-token", "--host", server.URL}, args...)
	err := run(full, cfg)
	return stdout.String(), err
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Stdin != os.Stdin {
		t.Error("DefaultConfig().Stdin should be os.Stdin")
	}
	if cfg.Stdout != os.Stdout {
		t.Error("DefaultConfig().Stdout should be os.Stdout")
	}
	if cfg.Stderr != os.Stderr {
		t.Error("DefaultConfig().Stderr should be os.Stderr")
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"limit=10", "tag=a", "tag=b", "tag=c", "q=x=y"})
	require.NoError(t, err)
	assert.Equal(t, "10", params["limit"])
	assert.Equal(t, []string{"a", "b", "c"}, params["tag"])
	assert.Equal(t, "x=y", params["q"])

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=v"})
	assert.Error(t, err)
}

func TestRun_Query(t *testing.T) {
	server, c := newAPI(t, map[string]string{
		"/v0/sql": `{"meta":[{"name":"c","type":"UInt64"}],"data":[{"c":3}],"rows":1}`,
	})

	out, err := runCLI(t, server, "", "query", "SELECT count() c FROM events")
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 1`)
	assert.Contains(t, c.queries[0], "q=SELECT%20count%28%29%20c%20FROM%20events%20FORMAT%20JSON")
}

func TestRun_QueryExport(t *testing.T) {
	server, _ := newAPI(t, map[string]string{"/v0/sql": `3`})

	out, err := runCLI(t, server, "", "query", "SELECT 3", "--format", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestRun_PipesDataYAML(t *testing.T) {
	server, c := newAPI(t, map[string]string{
		"/v0/pipes/top_actions.json": `{"data":[{"action":"click"}],"rows":1}`,
	})

	out, err := runCLI(t, server, "", "-o", "yaml", "pipes", "data", "top_actions", "limit=5")
	require.NoError(t, err)
	assert.Contains(t, out, "action: click")
	assert.Contains(t, out, "rows: 1")
	assert.Equal(t, "limit=5", c.queries[0])
}

func TestRun_DataSourcesGetMany(t *testing.T) {
	server, _ := newAPI(t, map[string]string{
		"/v0/datasources/events": `{"name":"events"}`,
	})

	out, err := runCLI(t, server, "", "datasources", "get", "events", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "events"`)
	assert.Contains(t, out, `"error":`)
}

func TestRun_JobsWaitFailed(t *testing.T) {
	server, _ := newAPI(t, map[string]string{
		"/v0/jobs/j1": `{"id":"j1","kind":"import","status":"error"}`,
	})

	out, err := runCLI(t, server, "", "jobs", "wait", "j1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ended with status error")
	assert.Contains(t, out, `"status": "error"`)
}

func TestRun_EventsSendFromStdin(t *testing.T) {
	server, c := newAPI(t, map[string]string{
		"/v0/events": `{"successful_rows":1,"quarantined_rows":0}`,
	})

	out, err := runCLI(t, server, "{\"a\":1}\n", "events", "send", "events", "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, `"successful_rows": 1`)
	assert.Equal(t, "name=events&wait=true", c.queries[0])
	assert.Equal(t, "{\"a\":1}\n", c.bodies[0])
}

func TestRun_EventsSendFileCompressed(t *testing.T) {
	server, c := newAPI(t, map[string]string{"/v0/events": `{}`})

	path := filepath.Join(t.TempDir(), "rows.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n"), 0o600))

	_, err := runCLI(t, server, "", "events", "send", "events", path, "--compress", "gzip")
	require.NoError(t, err)
	assert.Equal(t, "gzip", c.encoding[0])
}

func TestRun_Regions(t *testing.T) {
	var stdout bytes.Buffer
	err := run([]string{"tinybird", "regions"}, Config{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: io.Discard})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "https://api.us-east.tinybird.co")
	assert.Contains(t, stdout.String(), `"default": true`)
}

func TestRun_UnknownOutput(t *testing.T) {
	server, _ := newAPI(t, nil)

	_, err := runCLI(t, server, "", "-o", "xml", "tokens", "list")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRun_APIError(t *testing.T) {
	server, _ := newAPI(t, nil)

	_, err := runCLI(t, server, "", "tokens", "get", "nope")
	assert.ErrorContains(t, err, "API error 404")
}
