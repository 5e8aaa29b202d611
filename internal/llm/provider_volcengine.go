package llm

import (
	"context"
	"errors"
	"imagestudio/internal/entity"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
)

const (
	volcengineDefaultModel   = "doubao-seedream-4-0-250828"
	volcengineDefaultTimeout = 5 * time.Minute
)

// Volcengine generates images with the Ark runtime. The Seedream models only
// accept sizes from 1K upwards, so the request width/height are logged but the
// configured size preset is what is sent.
type Volcengine struct {
	apiKey string
	model  string
	size    string
	timeout time.Duration
	client  *arkruntime.Client
}

func NewVolcengine(apiKey, model, size string) *Volcengine {
	v := &Volcengine{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		size:    strings.TrimSpace(size),
		timeout: volcengineDefaultTimeout,
	}
	if v.model == "" {
		v.model = volcengineDefaultModel
	}
	if v.apiKey != "" {
		v.client = arkruntime.NewClientWithApiKey(v.apiKey)
	}
	return v
}

// WithTimeout bounds a whole generation, the image stream included.
func (v *Volcengine) WithTimeout(timeout time.Duration) *Volcengine {
	if timeout > 0 {
		v.timeout = timeout
	}
	return v
}

func (v *Volcengine) Name() string {
	return "volcengine"
}

func (v *Volcengine) Configured() bool {
	return v != nil && v.apiKey != "" && v.client != nil
}

func (v *Volcengine) GenerateImages(ctx context.Context, request entity.GenerationRequest) ([]string, error) {
	if !v.Configured() {
		return nil, errors.New("volcengine api key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	providerLogger(ctx, v.Name(), v.model).WithFields(logrus.Fields{
		"prompt_preview": logSnippet(request.Prompt),
		"width":          request.Width,
		"height":         request.Height,
		"size":           v.size,
	}).Info("volcengine_generate_images_start")

	req := buildVolcengineImageRequest(v.model, buildVolcenginePrompt(request), v.size)
	return generateImagesByVolcengineProtocol(ctx, v.client, req)
}

// buildVolcenginePrompt folds the negative prompt into the text prompt since
// the Ark image API has no separate field for it.
func buildVolcenginePrompt(request entity.GenerationRequest) string {
	prompt := strings.TrimSpace(request.Prompt)
	negative := strings.TrimSpace(request.NegativePrompt)
	if prompt == "" || negative == "" {
		return prompt
	}
	return prompt + "\nAvoid: " + negative
}
