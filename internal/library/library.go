// Package library keeps the signed-in user's list of saved resumes.
package library

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/apiclient"
	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/types"
)

// API is the subset of the API client the library uses.
type API interface {
	ListResumes(ctx context.Context, token string) ([]types.ResumeSummary, error)
	GetResume(ctx context.Context, token string, id int64) (map[string]any, error)
	DeleteResume(ctx context.Context, token string, id int64) error
}

// Authorizer runs authenticated calls and ends the session on 401.
type Authorizer interface {
	Authorized(ctx context.Context, fn func(token string) error) error
}

// Library caches the last successfully loaded list. It is safe for
// concurrent use.
type Library struct {
	api    API
	auth   Authorizer
	logger zerolog.Logger

	mu      sync.RWMutex
	resumes []types.ResumeSummary
}

// New returns an empty library.
func New(api API, auth Authorizer, logger zerolog.Logger) *Library {
	return &Library{api: api, auth: auth, logger: logger}
}

// Refresh replaces the cached list with the server's. On failure the
// cached list is left as it was.
func (l *Library) Refresh(ctx context.Context) ([]types.ResumeSummary, error) {
	var (
		list []types.ResumeSummary
		sent bool
	)
	err := l.auth.Authorized(ctx, func(token string) error {
		sent = true
		var err error
		list, err = l.api.ListResumes(ctx, token)
		return err
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to load resumes")
		return nil, classify("list", err, sent, MsgLoadFailed, MsgLoadUnreachable)
	}

	if list == nil {
		list = []types.ResumeSummary{}
	}
	l.mu.Lock()
	l.resumes = list
	l.mu.Unlock()

	l.logger.Debug().Int("count", len(list)).Msg("resumes loaded")
	return l.Resumes(), nil
}

// Open loads resume id for editing. The returned document is persisted and
// carries the server ID, so saving it updates the same resume.
func (l *Library) Open(ctx context.Context, id int64) (*types.ResumeDocument, error) {
	var (
		raw  map[string]any
		sent bool
	)
	err := l.auth.Authorized(ctx, func(token string) error {
		sent = true
		var err error
		raw, err = l.api.GetResume(ctx, token, id)
		return err
	})
	if err != nil {
		l.logger.Warn().Err(err).Int64("id", id).Msg("failed to load resume")
		return nil, classify("open", err, sent, MsgOpenFailed, MsgLoadUnreachable)
	}

	doc := document.FromPersisted(raw)
	if doc.ID == nil {
		doc = document.Persisted(doc, &id)
	}
	l.logger.Debug().Int64("id", id).Str("title", doc.Title).Msg("resume loaded")
	return doc, nil
}

// Delete removes resume id on the server and then from the cached list,
// keeping the order of the rest. On failure the cached list is unchanged.
func (l *Library) Delete(ctx context.Context, id int64) error {
	sent := false
	err := l.auth.Authorized(ctx, func(token string) error {
		sent = true
		return l.api.DeleteResume(ctx, token, id)
	})
	if err != nil {
		l.logger.Warn().Err(err).Int64("id", id).Msg("failed to delete resume")
		return classify("delete", err, sent, MsgDeleteFailed, MsgDeleteUnreachable)
	}

	l.mu.Lock()
	kept := make([]types.ResumeSummary, 0, len(l.resumes))
	for _, r := range l.resumes {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	l.resumes = kept
	l.mu.Unlock()

	l.logger.Info().Int64("id", id).Msg("resume deleted")
	return nil
}

// Resumes returns a copy of the cached list.
func (l *Library) Resumes() []types.ResumeSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]types.ResumeSummary(nil), l.resumes...)
}

// Filter returns the cached resumes whose title contains term, ignoring
// case. An empty term matches everything.
func (l *Library) Filter(term string) []types.ResumeSummary {
	return FilterByTitle(l.Resumes(), term)
}

// FilterByTitle is the title match used by Filter.
func FilterByTitle(list []types.ResumeSummary, term string) []types.ResumeSummary {
	needle := strings.ToLower(term)
	out := make([]types.ResumeSummary, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Title), needle) {
			out = append(out, r)
		}
	}
	return out
}

// classify maps an operation failure onto its display message. sent is
// false when no request was made because there was no session.
func classify(op string, err error, sent bool, failed, unreachable string) *Error {
	e := &Error{Op: op, Cause: err, Retryable: apiclient.IsRetryable(err)}

	var networkErr *apiclient.NetworkError
	switch {
	case apiclient.IsAuth(err) && !sent:
		e.Message = MsgLoggedOut
	case apiclient.IsAuth(err) && op != "delete":
		e.Message = MsgSessionExpired
	case errors.As(err, &networkErr):
		e.Message = unreachable
	default:
		e.Message = failed
	}
	return e
}
