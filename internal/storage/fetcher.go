package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
)

// Fetcher downloads audio by reference. http(s) URLs are fetched over the
// network; local:// references are read from LocalStorage.
type Fetcher struct {
	client *http.Client
	local  *LocalStorage
	logger *zap.Logger
}

// NewFetcher creates a fetcher. local may be nil when no audio is stored locally.
func NewFetcher(timeout time.Duration, local *LocalStorage, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		local:  local,
		logger: logger,
	}
}

// Download returns the full audio payload behind ref.
func (f *Fetcher) Download(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, LocalScheme):
		if f.local == nil {
			return nil, apperr.Configuration("local audio storage is not configured")
		}
		return f.local.Read(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.downloadHTTP(ctx, ref)
	default:
		return nil, apperr.Validation("unsupported audio reference: %q", ref)
	}
}

func (f *Fetcher) downloadHTTP(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Validation("invalid audio url: %v", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.Transport("download audio", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("download audio", fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transport("download audio", err)
	}

	f.logger.Debug("audio downloaded",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}
