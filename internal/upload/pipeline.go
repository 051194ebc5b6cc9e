// Package upload turns a local file into an editable resume.
//
// A run goes through five stages in order: validate the file, derive a
// title, parse it on the backend while reporting synthetic progress, save
// the parsed result provisionally, and hand the result to the editor.
package upload

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/apiclient"
	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/types"
)

// AllowedExtensions are the file types the parser accepts.
var AllowedExtensions = []string{"pdf", "docx", "doc", "txt"}

// API is the subset of the API client the pipeline uses.
type API interface {
	ParseResume(ctx context.Context, token string, up apiclient.Upload) (*types.ParseResponse, error)
	SaveResume(ctx context.Context, token string, payload types.SavePayload) (*types.SaveResponse, error)
}

// Authorizer runs authenticated calls and ends the session on 401.
type Authorizer interface {
	Authorized(ctx context.Context, fn func(token string) error) error
}

// File is the selected upload.
type File struct {
	Name    string
	Content io.Reader
}

// Request starts a run. An empty Title is derived from the file name.
type Request struct {
	File  *File
	Title string
}

// AutosaveResult is the outcome of the provisional save.
// Exactly one of Response and Failure is set.
type AutosaveResult struct {
	Response *types.SaveResponse
	Failure  *PartialFailure
}

// SavedID returns the server ID of the provisional save, if any.
func (r AutosaveResult) SavedID() *int64 {
	if r.Response == nil || r.Response.Resume == nil {
		return nil
	}
	id := r.Response.Resume.ID
	return &id
}

// Handoff is what the editor receives after an upload.
type Handoff struct {
	ParsedData       map[string]any
	OriginalFilename string
	SuggestedTitle   string
	Message          string
	IsNewUpload      bool
	// AutosavedID is the server ID of the provisional save, nil when it failed.
	AutosavedID *int64
}

// Document builds the ephemeral document the editor starts from.
func (h Handoff) Document() *types.ResumeDocument {
	return document.FromParsed(h.ParsedData, h.SuggestedTitle, h.OriginalFilename)
}

// Result collects the typed output of every stage.
type Result struct {
	Title    string
	Parse    *types.ParseResponse
	Autosave AutosaveResult
	Handoff  Handoff
}

// Options configures a Pipeline.
type Options struct {
	ProgressInterval time.Duration
	ProgressStep     int
	OnProgress       ProgressFunc
	OnHandoff        func(Handoff)
	Logger           zerolog.Logger
}

// Pipeline runs uploads. One Pipeline may serve many sequential runs.
type Pipeline struct {
	api  API
	auth Authorizer
	opts Options
}

// New returns a pipeline. Zero option values use defaults.
func New(api API, auth Authorizer, opts Options) *Pipeline {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.ProgressStep <= 0 {
		opts.ProgressStep = DefaultProgressStep
	}
	if opts.OnProgress == nil {
		opts.OnProgress = func(Progress) {}
	}
	return &Pipeline{api: api, auth: auth, opts: opts}
}

// Validate checks that a file is present and has an accepted extension.
// It never touches the network.
func Validate(file *File) error {
	if file == nil || file.Name == "" || file.Content == nil {
		return &apiclient.ValidationError{Field: "file", Message: "please select a file"}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), ".")
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &apiclient.ValidationError{
		Field:   "file",
		Message: "invalid file type, please upload PDF, DOCX, DOC, or TXT files",
	}
}

// DeriveTitle strips the final extension from a file name:
// "My_Resume.pdf" becomes "My_Resume", "report" stays "report".
func DeriveTitle(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Run executes every stage. Only validation and parse failures are
// returned; an autosave failure is reported in Result.Autosave.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req.File); err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = DeriveTitle(req.File.Name)
	}

	parsed, err := p.Parse(ctx, req.File, title)
	if err != nil {
		return nil, err
	}

	autosave := p.Autosave(ctx, parsed, title)
	handoff := NewHandoff(parsed, title, autosave)
	if p.opts.OnHandoff != nil {
		p.opts.OnHandoff(handoff)
	}

	return &Result{
		Title:    title,
		Parse:    parsed,
		Autosave: autosave,
		Handoff:  handoff,
	}, nil
}

// Parse uploads the file and reports progress until the backend answers.
// The progress ticker is stopped before Parse returns; 100 is reported
// only on success.
func (p *Pipeline) Parse(ctx context.Context, file *File, title string) (*types.ParseResponse, error) {
	var parsed *types.ParseResponse
	err := p.auth.Authorized(ctx, func(token string) error {
		t := startTicker(p.opts.ProgressInterval, p.opts.ProgressStep, p.opts.OnProgress)
		defer t.stop()

		resp, err := p.api.ParseResume(ctx, token, apiclient.Upload{
			Filename: file.Name,
			Content:  file.Content,
			Title:    title,
		})
		if err != nil {
			return err
		}
		parsed = resp
		return nil
	})
	if err != nil {
		p.opts.Logger.Warn().Err(err).Str("file", file.Name).Msg("parse failed")
		return nil, err
	}

	p.opts.OnProgress(Progress{Percent: 100, Phase: PhaseFinalizing})
	return parsed, nil
}

// Autosave saves the parsed result under the suggested title, falling back
// to proposedTitle. Failures are logged and returned as a PartialFailure.
func (p *Pipeline) Autosave(ctx context.Context, parsed *types.ParseResponse, proposedTitle string) AutosaveResult {
	title := parsed.SuggestedTitle
	if title == "" {
		title = proposedTitle
	}
	payload := document.Payload(document.FromParsed(parsed.ParsedData, title, parsed.OriginalFilename))

	var resp *types.SaveResponse
	err := p.auth.Authorized(ctx, func(token string) error {
		var err error
		resp, err = p.api.SaveResume(ctx, token, payload)
		return err
	})
	if err != nil {
		p.opts.Logger.Warn().Err(err).Str("title", title).Msg("provisional save failed")
		return AutosaveResult{Failure: &PartialFailure{Stage: "autosave", Cause: err}}
	}

	p.opts.Logger.Debug().Str("title", title).Msg("provisional save succeeded")
	return AutosaveResult{Response: resp}
}

// NewHandoff builds the editor handoff from the parse output.
func NewHandoff(parsed *types.ParseResponse, proposedTitle string, autosave AutosaveResult) Handoff {
	title := parsed.SuggestedTitle
	if title == "" {
		title = proposedTitle
	}
	return Handoff{
		ParsedData:       parsed.ParsedData,
		OriginalFilename: parsed.OriginalFilename,
		SuggestedTitle:   title,
		Message:          parsed.Message,
		IsNewUpload:      true,
		AutosavedID:      autosave.SavedID(),
	}
}
