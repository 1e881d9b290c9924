package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type backendStub struct {
	mu      sync.Mutex
	paths   []string
	bodies  map[string]map[string]any
	queries map[string]string
	connect string
	preview string
	ingest  string
	tables  string
	columns string
}

func newBackendStub(t *testing.T) (*backendStub, *httptest.Server) {
	t.Helper()
	b := &backendStub{
		bodies:  make(map[string]map[string]any),
		queries: make(map[string]string),
		connect: `{"message":"Connection successful"}`,
		tables:  `{"tables":["events","users"]}`,
		columns: `{"columns":[{"name":"id","type":"Int64"},{"name":"name","type":"String"}]}`,
		preview: `{"data":[{"id":1,"name":"ada"},{"id":2,"name":null}]}`,
		ingest:  `{"count":42}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.paths = append(b.paths, r.URL.Path)
		b.queries[r.URL.Path] = r.URL.RawQuery
		if r.Method == http.MethodPost {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				b.bodies[r.URL.Path] = body
			}
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/connect":
			io.WriteString(w, b.connect)
		case "/api/tables":
			io.WriteString(w, b.tables)
		case "/api/columns":
			io.WriteString(w, b.columns)
		case "/api/preview":
			io.WriteString(w, b.preview)
		case "/api/ingest":
			io.WriteString(w, b.ingest)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backendStub) body(path string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[path]
}

func (b *backendStub) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func testConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flatbridge.yaml")
	require.NoError(t, config.WriteStarter(path, false))
	return path
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:  "flatbridge",
		Flags: GlobalFlags(),
		Commands: []*cli.Command{
			InitCommand(),
			ConnectCommand(),
			ColumnsCommand(),
			PreviewCommand(),
			IngestCommand(),
			SessionCommand(),
		},
		Reader:         strings.NewReader(stdin),
		Writer:         &out,
		ErrWriter:      &out,
		ExitErrHandler: func(*cli.Context, error) {},
	}
	err := app.Run(append([]string{"flatbridge"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}
	return -1
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flatbridge.yaml")

	out, err := runApp(t, "", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Session.Database.Host)

	_, err = runApp(t, "", "init", "--path", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, err = runApp(t, "", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestConnectListsTables(t *testing.T) {
	b, srv := newBackendStub(t)

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "connect")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/connect", "/api/tables"}, b.calls())
	assert.Contains(t, out, "Connecting to clickhouse...")
	assert.Contains(t, out, "Connection successful!")
	assert.Contains(t, out, "events")
	assert.Contains(t, out, "users")
}

func TestConnectFailureExitsNonZero(t *testing.T) {
	b, srv := newBackendStub(t)
	b.connect = `{"error":"authentication failed"}`

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "connect")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, "Connection failed: authentication failed")
	assert.Equal(t, []string{"/api/connect"}, b.calls())
}

func TestFlagsOverrideConfig(t *testing.T) {
	b, srv := newBackendStub(t)

	_, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL,
		"--source", "flatfile", "--file", "data.csv", "--delimiter", ";", "connect")
	require.NoError(t, err)

	body := b.body("/api/connect")
	require.NotNil(t, body)
	assert.Equal(t, "flatfile", body["sourceType"])
	assert.Equal(t, map[string]any{}, body["clickHouseConfig"])
	assert.Equal(t, map[string]any{"filePath": "data.csv", "delimiter": ";"}, body["flatFileConfig"])
}

func TestColumnsCommand(t *testing.T) {
	b, srv := newBackendStub(t)

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "columns", "--table", "users")
	require.NoError(t, err)

	assert.Contains(t, b.queries["/api/columns"], "table=users")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "Int64")
}

func TestColumnsUnknownTable(t *testing.T) {
	_, srv := newBackendStub(t)

	_, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "columns", "--table", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestPreviewCommand(t *testing.T) {
	b, srv := newBackendStub(t)

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "preview", "--columns", "id,name")
	require.NoError(t, err)

	assert.Equal(t, []any{"id", "name"}, b.body("/api/preview")["columns"])
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "NULL")
}

func TestPreviewEmpty(t *testing.T) {
	b, srv := newBackendStub(t)
	b.preview = `{"data":[]}`

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "preview")
	require.NoError(t, err)
	assert.Contains(t, out, "No data found")
}

func TestPreviewRemoteError(t *testing.T) {
	b, srv := newBackendStub(t)
	b.preview = `{"error":"table not found"}`

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "preview")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, "Failed to load preview: table not found")
}

func TestIngestCommand(t *testing.T) {
	b, srv := newBackendStub(t)

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL,
		"--target-file", "out.csv", "ingest", "--columns", "id")
	require.NoError(t, err)

	assert.Contains(t, out, "Successfully processed 42 records.")
	body := b.body("/api/ingest")
	require.NotNil(t, body)
	assert.Equal(t, "clickhouse_to_flatfile", body["direction"])
	assert.Equal(t, "events", body["table"])
	assert.Equal(t, []any{"id"}, body["columns"])
	assert.Equal(t, map[string]any{"filePath": "out.csv", "delimiter": ","}, body["flatFileConfig"])
	assert.NotContains(t, b.calls(), "/api/preview")
}

func TestIngestFileToDatabase(t *testing.T) {
	b, srv := newBackendStub(t)

	_, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL,
		"--source", "flatfile", "--file", "data.csv",
		"--direction", "flatfile_to_clickhouse", "--target-table", "imported",
		"ingest")
	require.NoError(t, err)

	body := b.body("/api/ingest")
	require.NotNil(t, body)
	assert.Equal(t, "file_data", body["table"])
	target := body["flatFileConfig"].(map[string]any)
	assert.Equal(t, "default", target["database"])
	assert.Equal(t, "imported", target["table"])
	assert.Equal(t, map[string]any{"filePath": "data.csv", "delimiter": ","}, body["clickHouseConfig"])
}

func TestIngestMissingTarget(t *testing.T) {
	b, srv := newBackendStub(t)

	out, err := runApp(t, "", "--config", testConfig(t), "--base-url", srv.URL, "ingest")
	require.Error(t, err)
	assert.Contains(t, out, "target-file")
	assert.NotContains(t, b.calls(), "/api/ingest")
}

func TestSessionScript(t *testing.T) {
	b, srv := newBackendStub(t)
	script := strings.Join([]string{
		"source flatfile",
		"set file data.csv",
		"connect",
		"columns",
		"unselect name",
		"preview",
		"direction flatfile_to_clickhouse",
		"set target-table imported",
		"show",
		"ingest",
		"quit",
	}, "\n")

	out, err := runApp(t, script, "--config", testConfig(t), "--base-url", srv.URL, "session")
	require.NoError(t, err)

	assert.Equal(t, []any{"id"}, b.body("/api/preview")["columns"])
	assert.Equal(t, []any{"id"}, b.body("/api/ingest")["columns"])
	assert.Contains(t, out, "File Data")
	assert.Contains(t, out, "preview-ready")
	assert.Contains(t, out, "Successfully processed 42 records.")
	assert.NotContains(t, b.calls(), "/api/tables")
}

func TestSessionKeepsGoingAfterErrors(t *testing.T) {
	b, srv := newBackendStub(t)
	b.columns = `{"error":"no such table"}`
	script := "bogus\npreview\nconnect\ncolumns\nselect ghost\n"

	out, err := runApp(t, script, "--config", testConfig(t), "--base-url", srv.URL, "session")
	require.NoError(t, err, "end of input ends the session cleanly")

	assert.Contains(t, out, `Unknown command "bogus"`)
	assert.Contains(t, out, "workflow stage not reached")
	assert.Contains(t, out, "Failed to load columns: no such table")
	assert.Contains(t, out, "column is not in the current column list")
}

func TestSessionSourceChangeResets(t *testing.T) {
	_, srv := newBackendStub(t)
	script := "connect\ncolumns\nsource flatfile\nshow\n"

	out, err := runApp(t, script, "--config", testConfig(t), "--base-url", srv.URL, "session")
	require.NoError(t, err)
	assert.Contains(t, out, "Source is now flatfile")
	assert.Contains(t, out, "idle")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", formatCell(nil))
	assert.Equal(t, "ada", formatCell("ada"))
	assert.Equal(t, "12345678901234567890", formatCell(json.Number("12345678901234567890")))
	assert.Equal(t, "true", formatCell(true))
	assert.Equal(t, `{"a":1}`, formatCell(map[string]any{"a": 1}))
}

func TestMain(m *testing.M) {
	os.Unsetenv("FLATBRIDGE_BASE_URL")
	os.Unsetenv("FLATBRIDGE_API_TOKEN")
	os.Unsetenv("FLATBRIDGE_JWT_TOKEN")
	for _, name := range []string{"FLATBRIDGE_HOST", "FLATBRIDGE_PORT", "FLATBRIDGE_DATABASE", "FLATBRIDGE_USER"} {
		os.Unsetenv(name)
	}
	os.Exit(m.Run())
}
