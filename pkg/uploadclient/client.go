package uploadclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yourname/ufs/pkg/uploadproto"
)

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upload failed: %s", e.Status)
	}
	return fmt.Sprintf("upload failed: %s: %s", e.Status, e.Body)
}

// Client отправляет локальные файлы на сервер ufs.
type Client struct {
	c        *http.Client
	boundary string
	progress io.Writer
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.c = hc }
}

// WithBoundary sets the multipart boundary token.
func WithBoundary(b string) Option {
	return func(c *Client) { c.boundary = b }
}

// WithProgress renders a progress bar to w. Nil disables it.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

// New создаёт клиента с фиксированной границей и без индикатора прогресса.
func New(opts ...Option) *Client {
	c := &Client{
		c:        &http.Client{},
		boundary: uploadproto.DefaultBoundary,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Upload reads filePath whole and POSTs it once to http://addr/.
// A non-empty task stores the file under that subdir on the server.
func (c *Client) Upload(ctx context.Context, addr, filePath, task string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	name, err := DeclaredName(task)
	if err != nil {
		return err
	}

	body, contentType, err := BuildBody(content, name, c.boundary)
	if err != nil {
		return err
	}

	bar := newProgressBar(c.progress, fmt.Sprintf("Uploading %s", filepath.Base(filePath)), int64(len(body)))
	var reader io.Reader = bytes.NewReader(body)
	if bar != nil {
		reader = io.TeeReader(reader, progressWriter{bar: bar})
	}

	u := "http://" + addr + uploadproto.UploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		bar.Fail(err)
		return err
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)
	bar.render(true)

	resp, err := c.c.Do(req)
	if err != nil {
		bar.Fail(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err = &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   string(bytes.TrimSpace(msg)),
		}
		bar.Fail(err)
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	bar.Finish()
	return nil
}
