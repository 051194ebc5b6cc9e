// Package saving persists edited documents with a single-flight guarantee.
package saving

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/types"
)

// Status is the lifecycle of the most recent save attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSaving:
		return "saving"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSaveInFlight is returned when Save is called while another save is
// outstanding. No request is sent.
var ErrSaveInFlight = errors.New("a save is already in progress")

// Saver is the subset of the API client the controller uses.
type Saver interface {
	SaveResume(ctx context.Context, token string, payload types.SavePayload) (*types.SaveResponse, error)
}

// Authorizer runs authenticated calls and ends the session on 401.
type Authorizer interface {
	Authorized(ctx context.Context, fn func(token string) error) error
}

// Result is a successful save.
type Result struct {
	// Document is the saved snapshot, marked persisted and carrying the server ID.
	Document *types.ResumeDocument
	Response *types.SaveResponse
}

// Controller saves one editor's document. It is safe for concurrent use.
type Controller struct {
	api    Saver
	auth   Authorizer
	logger zerolog.Logger
	sem    *semaphore.Weighted

	mu       sync.Mutex
	status   Status
	lastErr  error
	observer func(Status)
}

// NewController returns an idle controller.
func NewController(api Saver, auth Authorizer, logger zerolog.Logger) *Controller {
	return &Controller{
		api:    api,
		auth:   auth,
		logger: logger,
		sem:    semaphore.NewWeighted(1),
	}
}

// OnStatus registers fn to receive every status transition.
func (c *Controller) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last failed save, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Save sends the full snapshot of doc. doc itself is never modified.
// A controller that finished an earlier save reports Idle before Saving.
//
// A 401 fails with *apiclient.AuthError and ends the session; other
// rejections fail with *apiclient.ServerError and transport failures with
// *apiclient.NetworkError.
func (c *Controller) Save(ctx context.Context, doc *types.ResumeDocument) (*Result, error) {
	if !c.sem.TryAcquire(1) {
		c.logger.Debug().Msg("save skipped, another save is in flight")
		return nil, ErrSaveInFlight
	}
	defer c.sem.Release(1)

	if c.Status() != StatusIdle {
		c.transition(StatusIdle, nil)
	}
	c.transition(StatusSaving, nil)

	payload := document.Payload(doc)
	var resp *types.SaveResponse
	err := c.auth.Authorized(ctx, func(token string) error {
		var err error
		resp, err = c.api.SaveResume(ctx, token, payload)
		return err
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("title", doc.Title).Msg("save failed")
		c.transition(StatusFailed, err)
		return nil, err
	}

	id := doc.ID
	if resp.Resume != nil {
		id = &resp.Resume.ID
	}
	saved := document.Persisted(doc, id)

	c.logger.Info().Str("title", doc.Title).Msg("resume saved")
	c.transition(StatusSucceeded, nil)
	return &Result{Document: saved, Response: resp}, nil
}

func (c *Controller) transition(status Status, err error) {
	c.mu.Lock()
	c.status = status
	c.lastErr = err
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(status)
	}
}
