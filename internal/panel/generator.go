package panel

import (
	"context"
	"errors"
	"imagestudio/internal/entity"
	"imagestudio/internal/model"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the Generator lifecycle. Success and Failed both accept a new
// submission.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrGenerationInProgress is returned when Submit is called while a request is
// outstanding.
var ErrGenerationInProgress = errors.New("a generation is already in progress")

// ImageGenerator produces one image for a request.
type ImageGenerator interface {
	Generate(ctx context.Context, request entity.GenerationRequest) (*entity.GenerationResult, error)
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warn(message string)
}

// GeneratorSnapshot is a copy of the panel state for rendering.
type GeneratorSnapshot struct {
	State       State
	ImageURL    string
	DownloadURL string
	Prompt      string
	Progress    int
	Err         error
}

// Generator drives one generation at a time and records successes in the
// history store.
type Generator struct {
	generator ImageGenerator
	history   model.HistoryStore
	notifier  Notifier
	now       func() time.Time

	mu       sync.Mutex
	snapshot GeneratorSnapshot
}

type GeneratorOption func(*Generator)

// WithClock overrides the clock used for history timestamps.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(generator ImageGenerator, history model.HistoryStore, notifier Notifier, opts ...GeneratorOption) *Generator {
	g := &Generator{
		generator: generator,
		history:   history,
		notifier:  notifier,
		now:       time.Now,
	}
	if g.notifier == nil {
		g.notifier = nopNotifier{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns the current panel state.
func (g *Generator) Snapshot() GeneratorSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot
}

// Submit validates the request locally, then waits for the single outstanding
// generation. On failure the previously displayed image is kept.
func (g *Generator) Submit(ctx context.Context, request entity.GenerationRequest) error {
	request.Normalize()
	if err := request.Validate(); err != nil {
		g.notifier.Error(err.Error())
		return err
	}

	g.mu.Lock()
	if g.snapshot.State == StateGenerating {
		g.mu.Unlock()
		return ErrGenerationInProgress
	}
	g.snapshot.State = StateGenerating
	g.snapshot.Progress = 0
	g.snapshot.Err = nil
	g.mu.Unlock()

	result, err := g.generator.Generate(ctx, request)
	if err == nil && (result == nil || result.ImageURL == "") {
		err = &entity.GenerationError{Cause: errors.New("empty image reference")}
	}
	if err != nil {
		g.mu.Lock()
		g.snapshot.State = StateFailed
		g.snapshot.Progress = 0
		g.snapshot.Err = err
		g.mu.Unlock()

		logrus.WithError(err).Debug("panel_generation_failed")
		g.notifier.Error(err.Error())
		return err
	}

	g.mu.Lock()
	g.snapshot = GeneratorSnapshot{
		State:       StateSuccess,
		ImageURL:    result.ImageURL,
		DownloadURL: result.DownloadURL,
		Prompt:      request.Prompt,
		Progress:    100,
	}
	g.mu.Unlock()

	record := entity.NewHistoryRecord(request.Prompt, result.ImageURL, g.now())
	if g.history != nil {
		if err := g.history.Append(ctx, record); err != nil {
			logrus.WithError(err).Warn("panel_history_append_failed")
			g.notifier.Warn("image generated but could not be saved to history: " + err.Error())
		}
	}
	g.notifier.Success("image generated")
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) Warn(string)    {}
