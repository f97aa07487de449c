package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kumarabd/gokit/logger"
	"github.com/snafflertools/consolidator/pkg/cache"
	"github.com/snafflertools/consolidator/pkg/ingest"
	"github.com/snafflertools/consolidator/pkg/query"
	"github.com/snafflertools/consolidator/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFileLine  = `[HOST1] 2024-01-15 10:30:00Z [File] {Red}<MyRule|RW|some\|pattern|1024|2024-01-10 09:00:00>(\\SERVER1\share\file.txt) sensitive match`
	testShareLine = `[HOST2] 2024-01-15 10:31:00Z [Share] {Black}<\\SERVER2\backup$>(R) hidden backup share`
)

func newTestServer(t *testing.T) *HTTP {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	require.NoError(t, err)

	st, err := store.New(&store.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	ingestHandler, err := ingest.NewHandler(&ingest.Config{ReadBufferBytes: 65536, SampleLines: 50}, log, nil)
	require.NoError(t, err)

	c, err := cache.New()
	require.NoError(t, err)
	queryHandler := query.New(st, c, log, nil)

	config := &HTTPConfig{
		Host: "127.0.0.1",
		Port: "8080",
	}

	return NewHTTP(config, ingestHandler, queryHandler, st, log, nil)
}

func uploadBody(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("log_file", "scan.log")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func doUpload(t *testing.T, server *HTTP, content string) {
	t.Helper()
	body, contentType := uploadBody(t, content)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	server.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func doParse(t *testing.T, server *HTTP) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/parse-uploaded", nil)
	w := httptest.NewRecorder()
	server.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Body.String()
}

func TestHTTPEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("health endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "time")
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "# HELP")
	})

	t.Run("entries before any parse", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/entries", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No data loaded")
	})

	t.Run("export before any parse", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/export", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("parse without upload", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/parse-uploaded", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "upload a file first")
	})

	t.Run("upload without file", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/upload", strings.NewReader("not multipart"))
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No file provided")
	})
}

func TestUploadParseQueryFlow(t *testing.T) {
	server := newTestServer(t)
	content := strings.Join([]string{
		testFileLine,
		"ShareFinder Tasks Completed: 40",
		testShareLine,
	}, "\n") + "\n"

	doUpload(t, server, content)

	t.Run("debug sample before parse", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/debug-sample", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			TotalLines int `json:"total_lines"`
			Matched    int `json:"matched"`
			Results    []struct {
				LineNum int  `json:"line_num"`
				Matched bool `json:"matched"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 3, response.TotalLines)
		assert.Equal(t, 2, response.Matched)
	})

	t.Run("parse streams SSE and finishes", func(t *testing.T) {
		body := doParse(t, server)
		assert.Contains(t, body, "data:")
		assert.Contains(t, body, `"done":true`)
		assert.Contains(t, body, `"total_entries":2`)
	})

	t.Run("upload consumed after parse", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/debug-sample", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("entries returns parsed records", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/entries?page=1&per_page=10", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var res query.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, 1, res.TotalPages)
		require.Len(t, res.Entries, 2)
		assert.Equal(t, "MyRule", res.Entries[0].MatchedRuleName)
		assert.Equal(t, "Black", res.Entries[1].TriageLevel)
	})

	t.Run("entries honors triage filter", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/entries?triage=Black", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var res query.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, `\\SERVER2\backup$`, res.Entries[0].FullFilePath)
	})

	t.Run("entries rejects bad paging", func(t *testing.T) {
		for _, target := range []string{"/entries?page=0", "/entries?per_page=-1", "/entries?page=abc"} {
			req := httptest.NewRequest("GET", target, nil)
			w := httptest.NewRecorder()

			server.handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})

	t.Run("export streams csv", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/export", strings.NewReader(`{"triage_levels":[]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "snaffler_export_")

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 3) // header + two records
		assert.Contains(t, lines[0], "Matched Rule Name")
		assert.Contains(t, lines[1], "MyRule")
	})

	t.Run("export with filter", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/export", strings.NewReader(`{"triage_levels":["Red"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2) // header + the File record
	})

	t.Run("clear discards dataset", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/clear", nil)
		w := httptest.NewRecorder()

		server.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)

		req = httptest.NewRequest("GET", "/entries", nil)
		w = httptest.NewRecorder()
		server.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReingestReplacesDataset(t *testing.T) {
	server := newTestServer(t)

	doUpload(t, server, testFileLine+"\n"+testShareLine+"\n")
	doParse(t, server)

	doUpload(t, server, testShareLine+"\n")
	doParse(t, server)

	req := httptest.NewRequest("GET", "/entries", nil)
	w := httptest.NewRecorder()
	server.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res query.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Share", res.Entries[0].LogEntryType)
}

func TestHTTPConfig(t *testing.T) {
	config := &HTTPConfig{
		Host: "0.0.0.0",
		Port: "8080",
	}

	assert.Equal(t, "0.0.0.0", config.Host)
	assert.Equal(t, "8080", config.Port)
}
