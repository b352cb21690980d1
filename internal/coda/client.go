// Package coda provides the remote tabular-data collaborator: a thin client
// for the Coda REST API used to pull experiment tables and their file
// attachments into the local workspace.
//
// Every call is synchronous and may suspend on network I/O; transport and
// permission failures surface as descriptive errors, never sentinels.
package coda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL is the Coda REST API root.
const DefaultBaseURL = "https://coda.io/apis/v1"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Error represents a failure talking to the Coda API.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("coda error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("coda error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a Coda REST API client bound to one API token.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given API token.
func NewClient(apiKey string, opts *Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("coda API key is required")
	}
	baseURL := DefaultBaseURL
	timeout := DefaultTimeout
	if opts != nil {
		if opts.BaseURL != "" {
			baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Doc identifies one accessible Coda document.
type Doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Table identifies one table within a document.
type Table struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment describes one file attached to a table cell.
type Attachment struct {
	RowID    string `json:"row_id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// get performs one authorized GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &Error{URL: reqURL, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{URL: reqURL, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{URL: reqURL, Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{URL: reqURL, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// ListDocs lists the documents the API token can access.
func (c *Client) ListDocs(ctx context.Context) ([]Doc, error) {
	var payload struct {
		Items []Doc `json:"items"`
	}
	if err := c.get(ctx, "/docs", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ListTables lists the data tables of a document, keyed by name. Only tables
// whose name mentions "data" are returned; the rest are views and scratch
// tables that the pipeline never consumes.
func (c *Client) ListTables(ctx context.Context, docID string) (map[string]string, error) {
	var payload struct {
		Items []Table `json:"items"`
	}
	if err := c.get(ctx, "/docs/"+docID+"/tables", nil, &payload); err != nil {
		return nil, err
	}

	tables := make(map[string]string)
	for _, table := range payload.Items {
		if strings.Contains(strings.ToLower(table.Name), "data") {
			tables[table.Name] = table.ID
		}
	}
	return tables, nil
}

// row is one table row with column-name-keyed values.
type row struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

// fetchRows retrieves all rows of a table.
func (c *Client) fetchRows(ctx context.Context, docID, tableID string, rich bool) ([]row, error) {
	query := url.Values{"useColumnNames": {"true"}}
	if rich {
		query.Set("valueFormat", "rich")
	}
	var payload struct {
		Items []row `json:"items"`
	}
	if err := c.get(ctx, "/docs/"+docID+"/tables/"+tableID+"/rows", query, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// TableContent summarizes a downloaded table.
type TableContent struct {
	Path       string   `json:"path"`
	NumColumns int      `json:"num_columns"`
	Columns    []string `json:"columns"`
	NumRows    int      `json:"num_rows"`
}

// GetTableContent downloads all rows of a table and writes them as CSV via
// the provided writer, returning a structural summary.
func (c *Client) GetTableContent(ctx context.Context, docID, tableID string, write func(header []string, rows [][]string) (string, error)) (*TableContent, error) {
	items, err := c.fetchRows(ctx, docID, tableID, false)
	if err != nil {
		return nil, err
	}

	// Stable column order: union of value keys, sorted.
	columnSet := make(map[string]bool)
	for _, item := range items {
		for col := range item.Values {
			columnSet[col] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	records := make([][]string, 0, len(items))
	for _, item := range items {
		record := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := item.Values[col]; ok && v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		records = append(records, record)
	}

	path, err := write(columns, records)
	if err != nil {
		return nil, err
	}

	return &TableContent{
		Path:       path,
		NumColumns: len(columns),
		Columns:    columns,
		NumRows:    len(records),
	}, nil
}

// GetAttachments returns file attachment metadata from one column of a table.
func (c *Client) GetAttachments(ctx context.Context, docID, tableID, columnName string) ([]Attachment, error) {
	items, err := c.fetchRows(ctx, docID, tableID, true)
	if err != nil {
		return nil, err
	}

	var attachments []Attachment
	for _, item := range items {
		fileData, ok := item.Values[columnName]
		if !ok {
			continue
		}
		switch v := fileData.(type) {
		case []any:
			for _, entry := range v {
				if att, ok := attachmentFromValue(item.ID, entry); ok {
					attachments = append(attachments, att)
				}
			}
		default:
			if att, ok := attachmentFromValue(item.ID, v); ok {
				attachments = append(attachments, att)
			}
		}
	}
	return attachments, nil
}

// attachmentFromValue extracts attachment metadata from one rich cell value.
func attachmentFromValue(rowID string, value any) (Attachment, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return Attachment{}, false
	}
	rawURL, ok := m["url"].(string)
	if !ok || rawURL == "" {
		return Attachment{}, false
	}
	att := Attachment{RowID: rowID, URL: rawURL}
	if name, ok := m["name"].(string); ok {
		att.Name = name
	}
	if mime, ok := m["mimeType"].(string); ok {
		att.MimeType = mime
	}
	if size, ok := m["size"].(float64); ok {
		att.Size = int64(size)
	}
	return att, true
}
