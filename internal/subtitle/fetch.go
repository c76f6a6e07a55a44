package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// largest subtitle body accepted from a remote location
const maxFetchSize = 16 << 20

// loads subtitle files from local paths or http(s) URLs
type Fetcher struct {
	Client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch loads and parses the subtitle file at location using a default Fetcher.
func Fetch(ctx context.Context, location string) (File, error) {
	return NewFetcher().Fetch(ctx, location)
}

func (f *Fetcher) Fetch(ctx context.Context, location string) (File, error) {
	if !isRemote(location) {
		content, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read subtitle file: %w", err)
		}
		return Parse(bytes.NewReader(content), DetectFormat(location, content))
	}

	content, err := f.download(ctx, location)
	if err != nil {
		return nil, err
	}

	u, _ := url.Parse(location)
	return Parse(bytes.NewReader(content), DetectFormat(path.Base(u.Path), content))
}

func (f *Fetcher) download(ctx context.Context, location string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid subtitle URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load subtitle file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to load subtitle file: %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle response: %w", err)
	}
	if len(content) > maxFetchSize {
		return nil, fmt.Errorf("subtitle file exceeds %d bytes", maxFetchSize)
	}
	return content, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
