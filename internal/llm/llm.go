package llm

import (
	"context"
	"imagestudio/internal/entity"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultReplicateModel = "stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"

	logSnippetLimit = 120
)

// InferenceParams is the fixed inference configuration sent with every
// generation. It is not exposed to API callers.
type InferenceParams struct {
	Model             string
	Scheduler         string
	NumInferenceSteps int
	GuidanceScale     float64
	PromptStrength    float64
	NumOutputs        int
}

// DefaultInferenceParams returns the SDXL defaults: K_EULER, 50 steps,
// guidance 7.5, prompt strength 0.8 and a single output.
func DefaultInferenceParams() InferenceParams {
	return InferenceParams{
		Model:             DefaultReplicateModel,
		Scheduler:         "K_EULER",
		NumInferenceSteps: 50,
		GuidanceScale:     7.5,
		PromptStrength:    0.8,
		NumOutputs:        1,
	}
}

// ImageProvider is a synchronous text-to-image backend. GenerateImages returns
// the hosted output references in provider order.
type ImageProvider interface {
	Name() string
	// Configured reports whether the provider credential is present.
	Configured() bool
	GenerateImages(ctx context.Context, request entity.GenerationRequest) ([]string, error)
}

func providerLogger(ctx context.Context, provider, model string) *logrus.Entry {
	fields := logrus.Fields{
		"provider": provider,
	}
	if trimmedModel := strings.TrimSpace(model); trimmedModel != "" {
		fields["model"] = trimmedModel
	}

	entry := logrus.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

func logSnippet(value string) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= logSnippetLimit {
		return value
	}
	return string(runes[:logSnippetLimit]) + "..."
}
