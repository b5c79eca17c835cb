package prediction

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// Download fetches url and writes the body to dest. The body is streamed to a
// temporary file beside dest and renamed into place once complete. Any status
// other than 200 OK is a download error.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	stage := stageName(ctx)
	url = strings.TrimSpace(url)
	if url == "" {
		return services.Wrap(services.ErrDownload, stage, "download", "empty output url", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrDownload, stage, "download", "new request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrDownload, stage, "download", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return services.NewHTTPError(services.ErrDownload, serviceName, "download", resp.StatusCode, body)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrDownload, stage, "download", "create destination directory", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return services.Wrap(services.ErrDownload, stage, "download", "create temp file", err)
	}
	tmpPath := tmp.Name()
	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		if copyErr == nil {
			copyErr = closeErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrDownload, stage, "download", "write body", copyErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrDownload, stage, "download", "finalize file", err)
	}
	logging.WithContext(ctx, c.logger).Info("output downloaded",
		logging.OutputPath(dest),
		logging.Int64("bytes", written),
	)
	return nil
}
