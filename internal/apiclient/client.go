// Package apiclient is the HTTP/JSON client for the resume backend.
//
// Every call returns one of the typed errors in errors.go. Authenticated
// calls take the bearer token explicitly; the session package decides
// where it comes from and what to do when the backend rejects it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "resume-studio/1.0"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// maxDetailLen bounds the HTML error text kept in ServerError.Detail.
const maxDetailLen = 300

// Options configures the client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// DefaultOptions returns sensible defaults for talking to the backend.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Logger:    zerolog.Nop(),
	}
}

// Client talks to one backend.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    zerolog.Logger
}

// New returns a client for the backend at baseURL (scheme and host required).
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &ValidationError{Field: "api_url", Message: fmt.Sprintf("invalid base URL %q", baseURL), Cause: err}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
		logger:    opts.Logger,
	}, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
	// authenticated requests turn a 401 into *AuthError
	authenticated bool
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if r.authenticated && r.token == "" {
		return nil, &AuthError{Message: "not logged in"}
	}

	target := c.baseURL + r.path
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, &NetworkError{Op: r.op, URL: target, Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", r.op).Str("url", target).Msg("request failed")
		return nil, &NetworkError{Op: r.op, URL: target, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: r.op, URL: target, Cause: err}
	}

	c.logger.Debug().
		Str("op", r.op).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	message := errorMessage(body, resp.StatusCode)
	if resp.StatusCode == http.StatusUnauthorized && r.authenticated {
		return nil, &AuthError{Message: message}
	}
	return nil, &ServerError{
		Status:  resp.StatusCode,
		Message: message,
		Detail:  htmlDetail(resp.Header.Get("Content-Type"), body),
	}
}

// doJSON sends the request and decodes a 2xx body into out.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FormatError{Op: r.op, Message: "invalid JSON body", Cause: err}
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// errorMessage returns the "error" field of a JSON error body, or a generic
// message naming the status.
func errorMessage(body []byte, status int) string {
	var eb types.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed: %s", strings.ToLower(text))
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// htmlDetail extracts the visible text of an HTML error page, such as the
// ones proxies and development servers return.
func htmlDetail(contentType string, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "text/html" && !bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, head").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	if len(text) > maxDetailLen {
		text = text[:maxDetailLen] + "..."
	}
	return text
}
