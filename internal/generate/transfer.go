package generate

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/storage"
)

// maxTransferBytes caps one media download; anything larger is treated as a
// transfer failure rather than buffered into memory.
const maxTransferBytes = 256 << 20

// Transfer performs the download/upload round trip that mirrors one external
// media URL into owned storage.
type Transfer struct {
	HTTPClient *http.Client
	Store      storage.Store
	Timeout    time.Duration
}

// Mirrored describes a completed round trip.
type Mirrored struct {
	OwnedURL   string
	StorageKey string
	MIME       string
	Bytes      int64
}

// Mirror downloads the bytes at sourceURL and uploads them under key. Both
// stages are bounded by the configured timeout; any failure is returned as a
// *domain.TransferError and never affects sibling transfers.
func (t *Transfer) Mirror(ctx context.Context, key, sourceURL, fallbackMIME string) (*Mirrored, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	data, contentType, err := t.download(ctx, sourceURL)
	if err != nil {
		return nil, &domain.TransferError{Stage: "download", URL: sourceURL, Err: err}
	}
	if contentType == "" {
		contentType = fallbackMIME
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key = ensureExtension(key, contentType)
	ownedURL, err := t.Store.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, &domain.TransferError{Stage: "upload", URL: sourceURL, Err: err}
	}

	return &Mirrored{
		OwnedURL:   ownedURL,
		StorageKey: key,
		MIME:       contentType,
		Bytes:      int64(len(data)),
	}, nil
}

// Fetch downloads one media object without re-uploading it, bounded the
// same way Mirror is. Used when serving archives of already-mirrored media.
func (t *Transfer) Fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	data, contentType, err := t.download(ctx, sourceURL)
	if err != nil {
		return nil, "", &domain.TransferError{Stage: "download", URL: sourceURL, Err: err}
	}
	return data, contentType, nil
}

func (t *Transfer) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTransferBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxTransferBytes {
		return nil, "", fmt.Errorf("media exceeds %d byte limit", maxTransferBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return data, contentType, nil
}

// mediaKey builds a collision-resistant storage key for one output item.
func mediaKey(promptID string, index int) string {
	return fmt.Sprintf("prompts/%s/%02d-%s", promptID, index+1, strings.ToLower(ulid.Make().String()))
}

// VideoKey builds the storage key for a finished video download.
func VideoKey(promptID string) string {
	return fmt.Sprintf("prompts/%s/video-%s", promptID, strings.ToLower(ulid.Make().String()))
}

func ensureExtension(key, contentType string) string {
	if ext := extensionForMIME(contentType); ext != "" && !strings.HasSuffix(key, ext) {
		return key + ext
	}
	return key
}

func extensionForMIME(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
		return ""
	}
}
