package coda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", &Options{BaseURL: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", nil)
	assert.Error(t, err)
}

func TestListDocs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"id": "doc-1", "name": "Experiments"},
				{"id": "doc-2", "name": "Notes"},
			},
		})
	}))

	docs, err := client.ListDocs(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "Experiments", docs[0].Name)
}

func TestListDocsHTTPError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	_, err := client.ListDocs(context.Background())
	require.Error(t, err)
	var codaErr *Error
	require.ErrorAs(t, err, &codaErr)
	assert.Contains(t, codaErr.Message, "403")
}

func TestListTablesFiltersByName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/doc-1/tables", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"id": "t-1", "name": "Training Data"},
				{"id": "t-2", "name": "Meeting notes"},
				{"id": "t-3", "name": "raw data dump"},
			},
		})
	}))

	tables, err := client.ListTables(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Training Data": "t-1",
		"raw data dump": "t-3",
	}, tables)
}

func TestGetTableContent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/doc-1/tables/t-1/rows", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("useColumnNames"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "r-1", "values": map[string]any{"Strain": "A", "Yield": 1.5}},
				{"id": "r-2", "values": map[string]any{"Strain": "B", "Yield": 2}},
			},
		})
	}))

	var gotHeader []string
	var gotRows [][]string
	content, err := client.GetTableContent(context.Background(), "doc-1", "t-1", func(header []string, rows [][]string) (string, error) {
		gotHeader = header
		gotRows = rows
		return "/tmp/out.csv", nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Strain", "Yield"}, gotHeader)
	assert.Equal(t, [][]string{{"A", "1.5"}, {"B", "2"}}, gotRows)
	assert.Equal(t, "/tmp/out.csv", content.Path)
	assert.Equal(t, 2, content.NumColumns)
	assert.Equal(t, 2, content.NumRows)
}

func TestGetAttachments(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rich", r.URL.Query().Get("valueFormat"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "r-1",
					"values": map[string]any{
						"Files": []any{
							map[string]any{"name": "run1.csv", "url": "https://files.example/run1.csv", "mimeType": "text/csv", "size": 128.0},
						},
						"Notes": "skip me",
					},
				},
				{"id": "r-2", "values": map[string]any{"Files": []any{}}},
			},
		})
	}))

	attachments, err := client.GetAttachments(context.Background(), "doc-1", "t-1", "Files")
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "r-1", attachments[0].RowID)
	assert.Equal(t, "run1.csv", attachments[0].Name)
	assert.Equal(t, int64(128), attachments[0].Size)
}

func TestDownloadAttachments(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("contents of " + r.URL.Path))
	}))
	defer files.Close()

	client, err := NewClient("test-key", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	attachments := []Attachment{
		{RowID: "r-1", Name: "a.csv", URL: files.URL + "/a.csv"},
		{RowID: "r-2", Name: "b.csv", URL: files.URL + "/b.csv"},
	}

	paths, err := client.DownloadAttachments(context.Background(), attachments, dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(dir, "r-1_a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "contents of /a.csv", string(data))
}

func TestDownloadAttachmentsPropagatesFailure(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer files.Close()

	client, err := NewClient("test-key", nil)
	require.NoError(t, err)

	_, err = client.DownloadAttachments(context.Background(), []Attachment{
		{RowID: "r-1", Name: "a.csv", URL: files.URL + "/a.csv"},
	}, t.TempDir())
	assert.Error(t, err)
}
