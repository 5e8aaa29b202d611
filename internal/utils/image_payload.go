package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	// DownloadBaseName is the file name offered for every downloaded image.
	DownloadBaseName = "imagen-generada"

	defaultImageExt = "png"
	maxImageBytes   = 32 << 20
)

// ImagePayload is a fetched image together with its detected type.
type ImagePayload struct {
	Data     []byte
	MimeType string
	Ext      string
}

// Filename returns "imagen-generada.<ext>".
func (p *ImagePayload) Filename() string {
	return DownloadFilename(p.Ext)
}

// DownloadFilename builds the attachment name for ext.
func DownloadFilename(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = defaultImageExt
	}
	return DownloadBaseName + "." + ext
}

// FetchImage resolves an image reference to bytes. Remote http(s) URLs are
// downloaded with client; data URLs are decoded inline.
func FetchImage(ctx context.Context, client *http.Client, imageURL string) (*ImagePayload, error) {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return nil, errors.New("image reference is empty")
	}
	if strings.HasPrefix(trimmed, "data:") {
		data, ext, err := DecodeMediaPayload(trimmed)
		if err != nil {
			return nil, err
		}
		mimeType, _ := SplitDataURL(trimmed)
		return &ImagePayload{Data: data, MimeType: mimeType, Ext: ext}, nil
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return nil, fmt.Errorf("unsupported image reference %q", trimmed)
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image payload empty")
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	mimeType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	ext := ExtensionFromMime(mimeType)
	if ext == "" {
		mimeType = http.DetectContentType(data)
		ext = ExtensionFromMime(mimeType)
	}
	if ext == "" {
		ext = defaultImageExt
	}
	return &ImagePayload{Data: data, MimeType: mimeType, Ext: ext}, nil
}

// DecodeMediaPayload decodes an inline base64 or data URL payload and returns
// the raw bytes together with a guessed file extension.
func DecodeMediaPayload(payload string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", fmt.Errorf("empty media payload")
	}

	mimeType, base64Payload := SplitDataURL(trimmed)
	base64Payload = strings.TrimSpace(base64Payload)
	if base64Payload == "" {
		return nil, "", fmt.Errorf("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}

	ext := ExtensionFromMime(mimeType)
	if ext == "" {
		ext = ExtensionFromMime(http.DetectContentType(data))
	}
	if ext == "" {
		ext = "bin"
	}

	return data, ext, nil
}

// ExtensionFromMime maps an image MIME type to a file extension, or "".
func ExtensionFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/svg+xml":
		return "svg"
	case "image/heic":
		return "heic"
	case "image/heif":
		return "heif"
	default:
		return ""
	}
}
