package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"imagestudio/internal/entity"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	generatePath   = "/api/generate-image"
	defaultTimeout = 10 * time.Minute
)

// Client calls the image generation server. It maps the server's error
// responses back onto the entity error types.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Details struct {
		Field string `json:"field"`
	} `json:"details"`
}

// Generate posts one request and returns the hosted image reference. A
// relative download URL is resolved against the server address.
func (c *Client) Generate(ctx context.Context, request entity.GenerationRequest) (*entity.GenerationResult, error) {
	bs, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("server", c.baseURL).Debug("client_request_failed")
		return nil, &entity.GenerationError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.GenerationError{Cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusOK {
		var result entity.GenerationResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, &entity.GenerationError{Cause: fmt.Errorf("decode response: %w", err)}
		}
		if strings.TrimSpace(result.ImageURL) == "" {
			return nil, &entity.GenerationError{Cause: errors.New("server returned no imageUrl")}
		}
		if strings.HasPrefix(result.DownloadURL, "/") {
			result.DownloadURL = c.baseURL + result.DownloadURL
		}
		return &result, nil
	}

	return nil, decodeError(resp.StatusCode, body)
}

func decodeError(status int, body []byte) error {
	var payload errorBody
	_ = json.Unmarshal(body, &payload)
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest:
		field := payload.Details.Field
		if field == "" {
			field = "request"
		}
		return &entity.ValidationError{Field: field, Reason: strings.TrimPrefix(message, field+" ")}
	case payload.Code == "ERR_CONFIGURATION":
		return &entity.ConfigurationError{Setting: "server", Reason: message}
	default:
		return &entity.GenerationError{Cause: fmt.Errorf("server http %d: %s", status, message)}
	}
}
