package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"imagestudio/internal/entity"
	"imagestudio/internal/linksign"
	"imagestudio/internal/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stubProvider struct {
	configured bool
	outputs    []string
	err        error
	calls      int
}

func (s *stubProvider) Name() string     { return "stub" }
func (s *stubProvider) Configured() bool { return s.configured }

func (s *stubProvider) GenerateImages(ctx context.Context, request entity.GenerationRequest) ([]string, error) {
	s.calls++
	return s.outputs, s.err
}

func newTestRouter(provider *stubProvider, signer *linksign.Signer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHTTPHandler(service.NewGenerationService(provider), signer).RegisterRoutes(r)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateImage(t *testing.T) {
	tests := []struct {
		name           string
		provider       *stubProvider
		body           string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
		expectedURL    string
		expectedCalls  int
	}{
		{
			name:           "成功生成",
			provider:       &stubProvider{configured: true, outputs: []string{"https://cdn.example/img123.png"}},
			body:           `{"prompt":"a red fox in snow","negativePrompt":"blurry","width":512,"height":512}`,
			expectedStatus: http.StatusOK,
			expectedURL:    "https://cdn.example/img123.png",
			expectedCalls:  1,
		},
		{
			name:           "缺少 prompt",
			provider:       &stubProvider{configured: true, outputs: []string{"https://cdn.example/a.png"}},
			body:           `{"prompt":"","width":512,"height":512}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingField,
			expectedMsg:    "prompt is required",
		},
		{
			name:           "尺寸越界",
			provider:       &stubProvider{configured: true, outputs: []string{"https://cdn.example/a.png"}},
			body:           `{"prompt":"fox","width":4096,"height":512}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
		},
		{
			name:           "无效 JSON",
			provider:       &stubProvider{configured: true},
			body:           `{"prompt":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "服务商失败",
			provider:       &stubProvider{configured: true, err: errors.New("upstream quota exceeded")},
			body:           `{"prompt":"fox","width":512,"height":512}`,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeGenerationFailed,
			expectedMsg:    entity.GenerationFailedMessage,
			expectedCalls:  1,
		},
		{
			name:           "缺少凭证",
			provider:       &stubProvider{configured: false},
			body:           `{"prompt":"fox","width":512,"height":512}`,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.provider, nil)
			w := postJSON(r, "/api/generate-image", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.provider.calls != tt.expectedCalls {
				t.Fatalf("expected %d provider calls, got %d", tt.expectedCalls, tt.provider.calls)
			}

			if tt.expectedStatus == http.StatusOK {
				var result entity.GenerationResult
				if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if result.ImageURL != tt.expectedURL {
					t.Fatalf("expected imageUrl %s, got %s", tt.expectedURL, result.ImageURL)
				}
				return
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
			if tt.expectedMsg != "" && response.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, response.Message)
			}
			if strings.Contains(w.Body.String(), "quota") {
				t.Errorf("provider detail leaked to client: %s", w.Body.String())
			}
		})
	}
}

func TestGenerateImageAliasRoute(t *testing.T) {
	provider := &stubProvider{configured: true, outputs: []string{"https://cdn.example/alias.png"}}
	r := newTestRouter(provider, nil)

	w := postJSON(r, "/api/replicate/generate-image", `{"prompt":"fox"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["imageUrl"] != "https://cdn.example/alias.png" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["downloadUrl"]; ok {
		t.Fatalf("expected no downloadUrl without signer, got %v", body)
	}
}

func TestGenerateThenDownload(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer upstream.Close()

	signer, err := linksign.NewSigner("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider := &stubProvider{configured: true, outputs: []string{upstream.URL + "/out/img.png"}}
	r := newTestRouter(provider, signer)

	w := postJSON(r, "/api/generate-image", `{"prompt":"fox"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var result entity.GenerationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !strings.HasPrefix(result.DownloadURL, "/api/download?token=") {
		t.Fatalf("expected signed download url, got %q", result.DownloadURL)
	}

	dl := httptest.NewRecorder()
	r.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, result.DownloadURL, nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", dl.Code, dl.Body.String())
	}
	if got := dl.Header().Get("Content-Disposition"); got != `attachment; filename="imagen-generada.png"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !bytes.Equal(dl.Body.Bytes(), pngBytes) {
		t.Fatalf("unexpected body %v", dl.Body.Bytes())
	}
}

func TestDownloadRejectsBadTokens(t *testing.T) {
	signer, _ := linksign.NewSigner("test-secret", time.Minute)
	other, _ := linksign.NewSigner("other-secret", time.Minute)
	foreign, _, _ := other.Sign("https://cdn.example/a.png")

	tests := []struct {
		name           string
		signer         *linksign.Signer
		query          string
		expectedStatus int
		expectedCode   string
	}{
		{name: "缺少 token", signer: signer, query: "", expectedStatus: http.StatusBadRequest, expectedCode: ErrCodeMissingField},
		{name: "伪造 token", signer: signer, query: "?token=" + foreign, expectedStatus: http.StatusForbidden, expectedCode: ErrCodeInvalidToken},
		{name: "未启用", signer: nil, query: "?token=abc", expectedStatus: http.StatusNotFound, expectedCode: ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubProvider{configured: true}, tt.signer)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/download"+tt.query, nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubProvider{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}
