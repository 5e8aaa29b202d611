package llm

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
	replicateDefaultBaseURL  = "https://api.replicate.com/v1"
	replicateProviderName    = "replicate"
	replicateDefaultInterval = time.Second
	replicateDefaultTimeout  = 5 * time.Minute

	replicateStatusSucceeded = "succeeded"
	replicateStatusFailed    = "failed"
	replicateStatusCanceled  = "canceled"
)

// ReplicateOptions configures a Replicate provider.
type ReplicateOptions struct {
	APIToken     string
	BaseURL      string
	Params       InferenceParams
	HTTPClient   *http.Client
	PollInterval time.Duration
	// Timeout bounds a whole generation, polling included.
	Timeout      time.Duration
}

// Replicate runs predictions against the Replicate HTTP API. A prediction is
// created with "Prefer: wait" and polled until it reaches a terminal status.
type Replicate struct {
	apiToken     string
	baseURL      string
	params       InferenceParams
	httpClient   *http.Client
	pollInterval time.Duration
	timeout      time.Duration
}

func NewReplicate(opts ReplicateOptions) *Replicate {
	params := opts.Params
	if strings.TrimSpace(params.Model) == "" {
		params.Model = DefaultReplicateModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = replicateDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = replicateDefaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = replicateDefaultTimeout
	}
	return &Replicate{
		apiToken:     strings.TrimSpace(opts.APIToken),
		baseURL:      baseURL,
		params:       params,
		httpClient:   client,
		pollInterval: interval,
		timeout:      timeout,
	}
}

func (r *Replicate) Name() string {
	return replicateProviderName
}

func (r *Replicate) Configured() bool {
	return r != nil && r.apiToken != ""
}

// Params returns the inference parameters sent with each prediction.
func (r *Replicate) Params() InferenceParams {
	return r.params
}

func (r *Replicate) GenerateImages(ctx context.Context, request entity.GenerationRequest) ([]string, error) {
	if !r.Configured() {
		return nil, errors.New("replicate api token is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger := providerLogger(ctx, r.Name(), r.params.Model)
	logger.WithFields(logrus.Fields{
		"prompt_preview": logSnippet(request.Prompt),
		"width":          request.Width,
		"height":         request.Height,
	}).Info("replicate_generate_images_start")

	endpoint, payload := r.buildPredictionPayload(request)
	prediction, err := r.createPrediction(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"prediction_id": prediction.ID,
		"status":        prediction.Status,
	}).Info("replicate_prediction_created")

	if !prediction.terminal() {
		prediction, err = r.pollPrediction(ctx, prediction)
		if err != nil {
			return nil, err
		}
	}

	switch prediction.Status {
	case replicateStatusSucceeded:
	case replicateStatusFailed, replicateStatusCanceled:
		return nil, fmt.Errorf("replicate prediction %s %s: %s", prediction.ID, prediction.Status, prediction.errorMessage())
	default:
		return nil, fmt.Errorf("replicate prediction %s ended with status %q", prediction.ID, prediction.Status)
	}

	outputs, err := prediction.outputURLs()
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("replicate prediction %s returned no output", prediction.ID)
	}
	logger.WithFields(logrus.Fields{
		"prediction_id": prediction.ID,
		"output_count":  len(outputs),
	}).Info("replicate_generate_images_done")
	return outputs, nil
}

// buildPredictionPayload picks the versioned or the model endpoint depending on
// whether the model identifier pins a version ("owner/name:version").
func (r *Replicate) buildPredictionPayload(request entity.GenerationRequest) (string, map[string]any) {
	input := map[string]any{
		"prompt":              request.Prompt,
		"negative_prompt":     request.NegativePrompt,
		"width":               request.Width,
		"height":              request.Height,
		"num_outputs":         r.params.NumOutputs,
		"scheduler":           r.params.Scheduler,
		"num_inference_steps": r.params.NumInferenceSteps,
		"guidance_scale":      r.params.GuidanceScale,
		"prompt_strength":     r.params.PromptStrength,
	}

	model := strings.TrimSpace(r.params.Model)
	if _, version, ok := strings.Cut(model, ":"); ok && version != "" {
		return r.baseURL + "/predictions", map[string]any{"version": version, "input": input}
	}
	return r.baseURL + "/models/" + model + "/predictions", map[string]any{"input": input}
}

func (r *Replicate) createPrediction(ctx context.Context, endpoint string, payload map[string]any) (*replicatePrediction, error) {
	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("replicate create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	return r.do(req)
}

func (r *Replicate) pollPrediction(ctx context.Context, prediction *replicatePrediction) (*replicatePrediction, error) {
	getURL := strings.TrimSpace(prediction.URLs.Get)
	if getURL == "" {
		getURL = r.baseURL + "/predictions/" + prediction.ID
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("replicate poll cancelled: %w", ctx.Err())
		case <-ticker.C:
			attempts++
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
			if err != nil {
				return nil, fmt.Errorf("replicate create poll request: %w", err)
			}
			current, err := r.do(req)
			if err != nil {
				return nil, err
			}
			if current.terminal() {
				return current, nil
			}
			providerLogger(ctx, r.Name(), r.params.Model).WithFields(logrus.Fields{
				"prediction_id": current.ID,
				"status":        current.Status,
				"attempt":       attempts,
			}).Debug("replicate_poll_pending")
		}
	}
}

func (r *Replicate) do(req *http.Request) (*replicatePrediction, error) {
	req.Header.Set("Authorization", "Bearer "+r.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("replicate http %d: %s", resp.StatusCode, logSnippet(string(body)))
	}

	var prediction replicatePrediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("replicate decode prediction: %w", err)
	}
	return &prediction, nil
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

func (p *replicatePrediction) terminal() bool {
	switch p.Status {
	case replicateStatusSucceeded, replicateStatusFailed, replicateStatusCanceled:
		return true
	}
	return false
}

func (p *replicatePrediction) errorMessage() string {
	if len(p.Error) == 0 || string(p.Error) == "null" {
		return "no error detail"
	}
	var msg string
	if err := json.Unmarshal(p.Error, &msg); err == nil {
		return msg
	}
	return logSnippet(string(p.Error))
}

// outputURLs accepts both list outputs and single-string outputs.
func (p *replicatePrediction) outputURLs() ([]string, error) {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("replicate prediction %s: unexpected output %s", p.ID, logSnippet(string(p.Output)))
}
