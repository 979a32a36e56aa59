package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
)

// chunkSize is the read size used while streaming the archive to disk.
const chunkSize = 32 << 10

// ProgressFunc receives the number of bytes written so far and the total
// declared by the server. done never decreases and never exceeds total.
type ProgressFunc func(done, total int64)

// Artifact describes a downloaded archive.
type Artifact struct {
	URL  string
	Path string
	Size int64
}

// Downloader streams remote archives to local files.
type Downloader struct {
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloaderHTTPClient sets the HTTP client used for downloads.
func WithDownloaderHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.httpClient = c
	}
}

// WithDownloaderUserAgent overrides the User-Agent header.
func WithDownloaderUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) {
		d.userAgent = ua
	}
}

// WithDownloaderLogger sets the logger.
func WithDownloaderLogger(l *log.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = l
	}
}

// NewDownloader creates a Downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		d.httpClient = http.DefaultClient
	}
	if d.logger == nil {
		d.logger = discardLogger()
	}
	return d
}

// Fetch downloads url into dest, reporting progress after every chunk.
// The response must declare a Content-Length. On failure the partially
// written file is left in place.
func (d *Downloader) Fetch(ctx context.Context, url, dest string, progress ProgressFunc) (_ *Artifact, err error) {
	req, err := newGetRequest(ctx, url, d.userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: unexpected status %d", ErrDownload, url, resp.StatusCode)
	}

	total := resp.ContentLength
	if total < 0 {
		return nil, fmt.Errorf("%w: no content length from %s", ErrDownload, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrDownload, dest, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrDownload, dest, closeErr)
		}
	}()

	d.logger.Debug("downloading", "url", url, "bytes", total, "dest", dest)

	written, err := copyChunks(out, resp.Body, total, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDownload, url, err)
	}
	if written < total {
		return nil, fmt.Errorf("%w: %s: got %d of %d bytes", ErrDownload, url, written, total)
	}

	return &Artifact{URL: url, Path: dest, Size: written}, nil
}

// copyChunks copies src to dst one chunk at a time so peak memory stays at
// chunkSize regardless of archive size.
func copyChunks(dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("write: %w", err)
			}
			written += int64(n)
			if progress != nil {
				progress(min(written, total), total)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}
