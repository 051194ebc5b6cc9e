package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/types"
)

// Upload is a file to send to the parser.
type Upload struct {
	Filename string
	Content  io.Reader
	Title    string
}

// ListResumes returns the caller's resumes. The backend may answer with a
// bare array or with the array under "resumes" or "data"; any other shape
// is a *FormatError.
func (c *Client) ListResumes(ctx context.Context, token string) ([]types.ResumeSummary, error) {
	body, err := c.do(ctx, request{
		op:            "list resumes",
		method:        http.MethodGet,
		path:          "/api/resumes/",
		token:         token,
		authenticated: true,
	})
	if err != nil {
		return nil, err
	}
	return DecodeResumeList(body)
}

// DecodeResumeList decodes the three accepted list shapes.
func DecodeResumeList(body []byte) ([]types.ResumeSummary, error) {
	const op = "list resumes"

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &FormatError{Op: op, Message: "empty body"}
	}

	var raw json.RawMessage
	switch trimmed[0] {
	case '[':
		raw = trimmed
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, &FormatError{Op: op, Message: "invalid JSON body", Cause: err}
		}
		var ok bool
		if raw, ok = envelope["resumes"]; !ok {
			if raw, ok = envelope["data"]; !ok {
				return nil, &FormatError{Op: op, Message: `object has neither "resumes" nor "data"`}
			}
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, &FormatError{Op: op, Message: "resume list is not an array"}
		}
	default:
		return nil, &FormatError{Op: op, Message: "body is neither an array nor an object"}
	}

	resumes := []types.ResumeSummary{}
	if err := json.Unmarshal(raw, &resumes); err != nil {
		return nil, &FormatError{Op: op, Message: "invalid resume entry", Cause: err}
	}
	return resumes, nil
}

// GetResume loads one saved resume with all of its sections. The backend
// nests the resume row (id, title, original_filename, ...) under "resume"
// beside the sections; the object is returned undecoded for
// document.FromPersisted.
func (c *Client) GetResume(ctx context.Context, token string, id int64) (map[string]any, error) {
	const op = "get resume"

	var doc map[string]any
	if err := c.doJSON(ctx, request{
		op:            op,
		method:        http.MethodGet,
		path:          fmt.Sprintf("/api/resumes/%d", id),
		token:         token,
		authenticated: true,
	}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &FormatError{Op: op, Message: "body is not an object"}
	}
	return doc, nil
}

// DeleteResume deletes one resume by server ID.
func (c *Client) DeleteResume(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, request{
		op:            "delete resume",
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/api/resumes/%d", id),
		token:         token,
		authenticated: true,
	})
	return err
}

// ParseResume uploads a file as multipart form data (fields "file" and
// "title") and returns the parser's structured output.
func (c *Client) ParseResume(ctx context.Context, token string, up Upload) (*types.ParseResponse, error) {
	if up.Content == nil || up.Filename == "" {
		return nil, &ValidationError{Field: "file", Message: "no file selected"}
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, &ValidationError{Field: "file", Message: "failed to read file", Cause: err}
	}
	if err := form.WriteField("title", up.Title); err != nil {
		return nil, &ValidationError{Field: "title", Message: "failed to build upload", Cause: err}
	}
	if err := form.Close(); err != nil {
		return nil, &ValidationError{Field: "file", Message: "failed to build upload", Cause: err}
	}

	var resp types.ParseResponse
	if err := c.doJSON(ctx, request{
		op:            "parse resume",
		method:        http.MethodPost,
		path:          "/api/resumes/parse-and-save",
		token:         token,
		body:          &buf,
		contentType:   form.FormDataContentType(),
		authenticated: true,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.ParsedData == nil {
		resp.ParsedData = map[string]any{}
	}
	return &resp, nil
}

// SaveResume sends a full document snapshot. The payload is checked against
// the save schema first; a payload that fails it is never sent.
func (c *Client) SaveResume(ctx context.Context, token string, payload types.SavePayload) (*types.SaveResponse, error) {
	if err := schemas.ValidateSavePayload(payload); err != nil {
		return nil, &ValidationError{Field: "payload", Message: "save payload does not match schema", Cause: err}
	}

	body, err := jsonBody(payload)
	if err != nil {
		return nil, &ValidationError{Field: "payload", Message: err.Error(), Cause: err}
	}

	var resp types.SaveResponse
	if err := c.doJSON(ctx, request{
		op:            "save resume",
		method:        http.MethodPost,
		path:          "/api/resumes/save",
		token:         token,
		body:          body,
		contentType:   "application/json",
		authenticated: true,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
