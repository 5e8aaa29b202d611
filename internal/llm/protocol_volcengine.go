package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

//文档:https://www.volcengine.com/docs/82379/1824121

// buildVolcengineImageRequest asks for a single URL-formatted image without
// watermark. Group generation is disabled.
func buildVolcengineImageRequest(model, prompt, size string) volcModel.GenerateImagesRequest {
	var sequential volcModel.SequentialImageGeneration = "disabled"
	req := volcModel.GenerateImagesRequest{
		Model:                     model,
		Prompt:                    prompt,
		ResponseFormat:            volcengine.String(volcModel.GenerateImagesResponseFormatURL),
		Watermark:                 volcengine.Bool(false),
		SequentialImageGeneration: &sequential,
	}
	if trimmed := strings.TrimSpace(size); trimmed != "" {
		req.Size = volcengine.String(trimmed)
	}
	return req
}

// generateImagesByVolcengineProtocol streams the Ark image generation and
// collects every successfully generated image URL.
func generateImagesByVolcengineProtocol(ctx context.Context, client *arkruntime.Client, req volcModel.GenerateImagesRequest) ([]string, error) {
	stream, err := client.GenerateImagesStreaming(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("volcengine generate images: %w", err)
	}
	defer stream.Close()

	logger := providerLogger(ctx, "volcengine", req.Model)

	var (
		urls      []string
		lastError string
	)
	for {
		recv, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return urls, fmt.Errorf("volcengine stream: %w", err)
		}
		switch recv.Type {
		case "image_generation.partial_failed":
			if recv.Error != nil {
				lastError = recv.Error.Message
				logger.WithFields(logrus.Fields{
					"code":    recv.Error.Code,
					"message": recv.Error.Message,
				}).Warn("volcengine_partial_failed")
				if strings.EqualFold(recv.Error.Code, "InternalServiceError") {
					return urls, fmt.Errorf("volcengine internal error: %s", recv.Error.Message)
				}
			}
		case "image_generation.partial_succeeded":
			if recv.Error == nil && recv.Url != nil {
				if url := strings.TrimSpace(*recv.Url); url != "" {
					urls = append(urls, url)
				}
			}
		case "image_generation.completed":
			logger.WithField("image_count", len(urls)).Info("volcengine_generate_images_completed")
		}
	}

	if len(urls) == 0 && lastError != "" {
		return nil, fmt.Errorf("volcengine generation failed: %s", lastError)
	}
	return urls, nil
}
