package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeovahfialho/stock-exchange/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Downloader fetches trade files published over HTTP so they can be loaded
// like local ones.
type Downloader struct {
	httpClient *http.Client
	workers    int
}

func NewDownloader(workers int) *Downloader {
	if workers <= 0 {
		workers = 1
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		workers: workers,
	}
}

func (d *Downloader) DownloadFile(ctx context.Context, rawURL, outputDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	filename := path.Base(u.Path)
	if filename == "" || filename == "/" || filename == "." || filename == ".." {
		return "", fmt.Errorf("url %s has no file name", rawURL)
	}

	outputPath := filepath.Join(outputDir, filename)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	if _, err := os.Stat(outputPath); err == nil {
		logger.Debug("trade file already present", zap.String("file", outputPath))
		return outputPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code: %d for URL: %s", resp.StatusCode, rawURL)
	}

	file, err := os.CreateTemp(outputDir, filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	tempFile := file.Name()

	written, err := io.Copy(file, resp.Body)
	file.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("save file: %w", err)
	}

	if err := os.Rename(tempFile, outputPath); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("rename file: %w", err)
	}

	logger.Info("trade file downloaded",
		zap.String("file", outputPath),
		zap.Int64("bytes", written))

	return outputPath, nil
}

// DownloadAll fetches every URL with at most d.workers requests in flight.
// Repeated URLs are fetched once. Failed downloads are returned alongside
// the paths that succeeded.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, outputDir string) ([]string, []error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	var mu sync.Mutex
	var paths []string
	var errs []error

	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}

		u := u
		g.Go(func() error {
			p, err := d.DownloadFile(ctx, u, outputDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", u, err))
				return nil
			}
			paths = append(paths, p)
			return nil
		})
	}

	_ = g.Wait()
	return paths, errs
}
