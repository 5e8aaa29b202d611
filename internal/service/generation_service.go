package service

import (
	"context"
	"errors"
	"imagestudio/internal/entity"
	"imagestudio/internal/llm"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// GenerationService 图像生成服务，桥接客户端请求与推理服务商
type GenerationService struct {
	provider llm.ImageProvider
	now      func() time.Time
}

// NewGenerationService 创建生成服务实例
func NewGenerationService(provider llm.ImageProvider) *GenerationService {
	return &GenerationService{
		provider: provider,
		now:      time.Now,
	}
}

// Generate runs a single provider call for request. Checks happen in order:
// credential (ConfigurationError), request bounds (ValidationError), provider
// call (GenerationError). Nothing is retried.
func (s *GenerationService) Generate(ctx context.Context, request entity.GenerationRequest) (*entity.GenerationResult, error) {
	if s == nil || s.provider == nil {
		return nil, &entity.ConfigurationError{Setting: "provider", Reason: "is not configured"}
	}
	if !s.provider.Configured() {
		return nil, &entity.ConfigurationError{Setting: s.provider.Name() + " credential", Reason: "is not set"}
	}

	request.Normalize()
	if err := request.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"provider": s.provider.Name(),
		"width":    request.Width,
		"height":   request.Height,
	})

	start := s.now()
	outputs, err := s.provider.GenerateImages(ctx, request)
	duration := s.now().Sub(start)
	if err != nil {
		logger.WithError(err).WithField("duration", duration.String()).Error("failed to generate image")
		return nil, &entity.GenerationError{Cause: err}
	}

	imageURL, err := firstOutput(outputs)
	if err != nil {
		logger.WithError(err).WithField("duration", duration.String()).Error("provider returned unusable output")
		return nil, &entity.GenerationError{Cause: err}
	}

	logger.WithFields(logrus.Fields{
		"duration":     duration.String(),
		"output_count": len(outputs),
	}).Info("generated image")

	return &entity.GenerationResult{ImageURL: imageURL}, nil
}

// firstOutput returns element 0 of the provider outputs.
func firstOutput(outputs []string) (string, error) {
	if len(outputs) == 0 {
		return "", errors.New("provider returned no outputs")
	}
	first := strings.TrimSpace(outputs[0])
	if first == "" {
		return "", errors.New("provider returned an empty first output")
	}
	return first, nil
}
