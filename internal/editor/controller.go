// Package editor holds the per-session interaction state: the selected
// source image, its preview handle, the prompt, the last generated image and
// the in-flight generation.
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"visualizer/internal/domain"
	"visualizer/internal/infra"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseNoImage       Phase = "no_image"
	PhaseImageSelected Phase = "image_selected"
)

// ErrClosed is returned by controllers whose session was evicted.
var ErrClosed = errors.New("editor: session closed")

// Generator edits an image according to a prompt. Implemented by the Gemini client.
type Generator interface {
	EditImage(ctx context.Context, imageBase64, mediaType, prompt string) (string, error)
}

// PreviewStore hands out displayable references for uploaded images.
type PreviewStore interface {
	Acquire(ctx context.Context, data []byte, mediaType string) (string, error)
	Release(key string) error
}

// Options configures a Controller.
type Options struct {
	Generator     Generator
	Previews      PreviewStore
	DefaultPrompt string
	// Timeout bounds one generation call. Zero means no extra bound.
	Timeout time.Duration
	Logger  *infra.Logger
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Phase        Phase  `json:"phase"`
	FileName     string `json:"file_name,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	Preview      string `json:"preview,omitempty"`
	Prompt       string `json:"prompt"`
	Result       string `json:"result,omitempty"`
	IsGenerating bool   `json:"is_generating"`
	Generation   uint64 `json:"generation"`
	Err          error  `json:"-"`
}

// ResultDataURI returns the result rendered as a PNG data URI, or "".
func (s Snapshot) ResultDataURI() string {
	return domain.DataURI(s.Result)
}

// Controller owns the state of one editing session. All methods are safe for
// concurrent use; the generation call runs on its own goroutine.
type Controller struct {
	gen      Generator
	previews PreviewStore
	timeout  time.Duration
	logger   *infra.Logger

	mu         sync.Mutex
	file       *domain.ImageAsset
	preview    string
	prompt     string
	result     string
	err        error
	generating bool
	// latest is the id of the only generation whose completion may still be applied.
	latest uint64
	cancel context.CancelFunc
	done   chan struct{}
	// changed is closed and replaced on every state change.
	changed chan struct{}
	closed  bool
}

// NewController builds a controller in the NoImage phase.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Controller{
		gen:      opts.Generator,
		previews: opts.Previews,
		timeout:  opts.Timeout,
		logger:   logger,
		prompt:   opts.DefaultPrompt,
		changed:  make(chan struct{}),
	}
}

// SelectFile stores a new source image. Non-image files set the validation
// error and abandon a running generation; selection and result stay.
func (c *Controller) SelectFile(ctx context.Context, file domain.ImageAsset) error {
	if !file.IsImage() {
		c.mu.Lock()
		c.failLocked(domain.ErrInvalidImageFile)
		c.mu.Unlock()
		return domain.ErrInvalidImageFile
	}

	var key string
	if c.previews != nil {
		var err error
		key, err = c.previews.Acquire(ctx, file.Data, file.MediaType)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", file.Name).Msg("editor: acquire preview")
			c.mu.Lock()
			c.failLocked(err)
			c.mu.Unlock()
			return err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.release(key)
		return ErrClosed
	}
	stale := c.preview
	c.abortLocked()
	c.file = &file
	c.preview = key
	c.result = ""
	c.err = nil
	c.notifyLocked()
	c.mu.Unlock()

	c.release(stale)
	c.logger.Debug().
		Str("file", file.Name).
		Str("media_type", file.MediaType).
		Int("bytes", len(file.Data)).
		Msg("editor: file selected")
	return nil
}

// RejectFile records an upload that was refused before it could be read,
// such as one over the size limit. The selection and the last result stay.
func (c *Controller) RejectFile(err error) {
	c.mu.Lock()
	c.failLocked(err)
	c.mu.Unlock()
}

// SetPrompt replaces the prompt text. Emptiness is only checked when a
// generation starts.
func (c *Controller) SetPrompt(text string) {
	c.mu.Lock()
	c.prompt = text
	c.notifyLocked()
	c.mu.Unlock()
}

// StartGeneration validates the inputs and launches one generation. The
// previous result stays visible until the new attempt settles. It returns the
// id of the started generation.
func (c *Controller) StartGeneration() (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if c.file == nil || strings.TrimSpace(c.prompt) == "" {
		c.failLocked(domain.ErrMissingInput)
		c.mu.Unlock()
		return 0, domain.ErrMissingInput
	}

	c.abortLocked()
	id := c.latest

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.generating = true
	c.err = nil
	c.notifyLocked()

	payload := c.file.Base64()
	mediaType := c.file.MediaType
	prompt := c.prompt
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("generation", id).
		Str("media_type", mediaType).
		Int("prompt_len", len(prompt)).
		Msg("editor: generation started")

	go c.run(ctx, id, done, payload, mediaType, prompt)
	return id, nil
}

func (c *Controller) run(ctx context.Context, id uint64, done chan struct{}, payload, mediaType, prompt string) {
	defer close(done)
	result, err := c.gen.EditImage(ctx, payload, mediaType, prompt)
	c.complete(id, result, err)
}

func (c *Controller) complete(id uint64, result string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.latest {
		c.logger.Debug().
			Uint64("generation", id).
			Uint64("latest", c.latest).
			Msg("editor: dropping stale generation result")
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generating = false
	defer c.notifyLocked()
	if err != nil {
		c.err = err
		c.logger.Info().Err(err).Uint64("generation", id).Msg("editor: generation failed")
		return
	}
	c.result = result
	c.err = nil
	c.logger.Debug().Uint64("generation", id).Msg("editor: generation finished")
}

// Reset discards the file, preview, result and error and forgets any
// in-flight generation.
func (c *Controller) Reset() {
	c.mu.Lock()
	stale := c.preview
	c.abortLocked()
	c.file = nil
	c.preview = ""
	c.result = ""
	c.err = nil
	c.notifyLocked()
	c.mu.Unlock()

	c.release(stale)
}

// Close resets the controller and makes later selections fail with
// ErrClosed, releasing any preview acquired meanwhile.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Reset()
}

// failLocked stores a validation error. A running generation is abandoned
// first so an error never shows next to the busy state.
func (c *Controller) failLocked(err error) {
	if c.generating {
		c.abortLocked()
	}
	c.err = err
	c.notifyLocked()
}

func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// abortLocked invalidates the in-flight generation, if any. Callers hold c.mu.
func (c *Controller) abortLocked() {
	c.latest++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generating = false
}

func (c *Controller) release(key string) {
	if key == "" || c.previews == nil {
		return
	}
	if err := c.previews.Release(key); err != nil {
		c.logger.Warn().Err(err).Str("preview", key).Msg("editor: release preview")
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Phase:        PhaseNoImage,
		Preview:      c.preview,
		Prompt:       c.prompt,
		Result:       c.result,
		IsGenerating: c.generating,
		Generation:   c.latest,
		Err:          c.err,
	}
	if c.file != nil {
		s.Phase = PhaseImageSelected
		s.FileName = c.file.Name
		s.MediaType = c.file.MediaType
	}
	return s
}

// Changed returns a channel that is closed on the next state change.
func (c *Controller) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Source returns the selected source image.
func (c *Controller) Source() (domain.ImageAsset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return domain.ImageAsset{}, false
	}
	return *c.file, true
}

// Wait blocks until the generation running at call time settles or ctx is
// done, then returns the resulting snapshot.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	done := c.done
	generating := c.generating
	c.mu.Unlock()

	if generating && done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}
