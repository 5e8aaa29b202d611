package entity

import (
	"fmt"
	"strings"
)

const (
	DefaultImageDimension = 512
	MinImageDimension     = 256
	MaxImageDimension     = 1024

	FieldPrompt = "prompt"
	FieldWidth  = "width"
	FieldHeight = "height"
)

// GenerationRequest is a text-to-image request as submitted by a client.
type GenerationRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// Normalize trims the text fields and applies the default dimensions to
// unset width and height.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	if r.Width == 0 {
		r.Width = DefaultImageDimension
	}
	if r.Height == 0 {
		r.Height = DefaultImageDimension
	}
}

// Validate checks the request without modifying it.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: FieldPrompt, Reason: "is required"}
	}
	if err := validateDimension(FieldWidth, r.Width); err != nil {
		return err
	}
	return validateDimension(FieldHeight, r.Height)
}

func validateDimension(field string, value int) error {
	if value < MinImageDimension || value > MaxImageDimension {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinImageDimension, MaxImageDimension, value),
		}
	}
	return nil
}

// GenerationResult carries the hosted image reference returned by the provider.
type GenerationResult struct {
	ImageURL    string `json:"imageUrl"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}
