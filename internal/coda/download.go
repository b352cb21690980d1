package coda

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// downloadConcurrency caps parallel attachment fetches.
const downloadConcurrency = 4

// DownloadAttachments fetches every attachment into destDir, naming each file
// "<rowID>_<name>" so attachments from different rows never collide. Returns
// the written paths in no particular order.
func (c *Client) DownloadAttachments(ctx context.Context, attachments []Attachment, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory %q: %w", destDir, err)
	}

	var mu sync.Mutex
	var paths []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for _, att := range attachments {
		g.Go(func() error {
			name := att.Name
			if name == "" {
				name = "attachment"
			}
			dest := filepath.Join(destDir, fmt.Sprintf("%s_%s", att.RowID, filepath.Base(name)))
			if err := c.downloadFile(ctx, att.URL, dest); err != nil {
				return err
			}
			mu.Lock()
			paths = append(paths, dest)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// downloadFile streams one URL to disk.
func (c *Client) downloadFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{URL: rawURL, Message: "failed to build request", Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{URL: rawURL, Message: "download failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{URL: rawURL, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write %q: %w", dest, err)
	}
	return nil
}
