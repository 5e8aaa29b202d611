package llm

import (
	"fmt"
	"imagestudio/internal/config"
	"net/http"
	"strings"
	"time"
)

// NewProvider instantiates the ImageProvider selected by cfg. A provider
// without credential is still returned; callers check Configured.
func NewProvider(cfg config.Config) (ImageProvider, error) {
	// PROVIDER_TIMEOUT_SECONDS 限制整次生成（含轮询）
	timeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	switch cfg.Driver() {
	case config.DriverReplicate:
		params := DefaultInferenceParams()
		if model := strings.TrimSpace(cfg.ReplicateModel); model != "" {
			params.Model = model
		}
		return NewReplicate(ReplicateOptions{
			APIToken:   cfg.ReplicateAPIToken,
			BaseURL:    cfg.ReplicateBaseURL,
			Params:     params,
			HTTPClient: &http.Client{Timeout: timeout},
			Timeout:    timeout,
		}), nil
	case config.DriverVolcengine:
		return NewVolcengine(cfg.VolcengineAPIKey, cfg.VolcengineModel, cfg.VolcengineImageSize).WithTimeout(timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider driver: %s", cfg.ProviderDriver)
	}
}
