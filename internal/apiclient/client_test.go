package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/resume-studio/internal/apitest"
	"github.com/jonathan/resume-studio/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *apitest.Backend) {
	t.Helper()
	backend := apitest.New(t)
	client, err := New(backend.URL, &Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client, backend
}

func emptyPayload(title string) types.SavePayload {
	return types.SavePayload{
		Title:          title,
		WorkExperience: []types.Experience{},
		Education:      []types.Education{},
		Skills:         []types.Skill{},
		Certifications: []types.Record{},
		Projects:       []types.Record{},
		Languages:      []types.Record{},
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "://bad"} {
		_, err := New(raw, nil)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, raw)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:5000/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestLogin(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	resp, err := client.Login(context.Background(), types.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "ada", resp.User.Username)
}

func TestLogin_RejectedCredentialsAreServerErrors(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	_, err := client.Login(context.Background(), types.LoginRequest{Email: "ada@example.com", Password: "wrong"})

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusUnauthorized, serverErr.Status)
	assert.Equal(t, "Invalid credentials", serverErr.Message)
	assert.False(t, IsAuth(err))
}

func TestLogin_InvalidInputSendsNothing(t *testing.T) {
	client, backend := newTestClient(t)

	_, err := client.Login(context.Background(), types.LoginRequest{Email: "nope"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, backend.TotalRequests())
}

func TestRegister(t *testing.T) {
	client, backend := newTestClient(t)

	resp, err := client.Register(context.Background(), types.RegisterRequest{
		Username: "grace", Email: "grace@example.com", Password: "secret1", FirstName: "Grace",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Grace", resp.User.FirstName)

	_, err = client.Register(context.Background(), types.RegisterRequest{
		Username: "grace", Email: "grace@example.com", Password: "secret1",
	})
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusConflict, serverErr.Status)
	assert.Equal(t, 2, backend.Count(http.MethodPost, "/api/auth/register"))
}

func TestLogin_MissingTokenIsFormatError(t *testing.T) {
	client, backend := newTestClient(t)
	backend.Respond(http.MethodPost, "/api/auth/login", apitest.Override{Status: 200, Body: `{"user":{"id":1}}`})

	_, err := client.Login(context.Background(), types.LoginRequest{Email: "a@example.com", Password: "x"})

	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestProfile(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	user, err := client.Profile(context.Background(), backend.TokenFor("ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestAuthenticatedCall_401IsAuthError(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	token := backend.TokenFor("ada@example.com")
	backend.Revoke(token)

	_, err := client.ListResumes(context.Background(), token)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, IsAuth(err))
	assert.False(t, IsRetryable(err))
}

func TestAuthenticatedCall_NoTokenFailsFast(t *testing.T) {
	client, backend := newTestClient(t)

	_, err := client.ListResumes(context.Background(), "")

	assert.True(t, IsAuth(err))
	assert.Equal(t, 0, backend.TotalRequests())
}

func TestListResumes_AcceptedShapes(t *testing.T) {
	shapes := []struct {
		name  string
		shape apitest.ListShape
	}{
		{"bare array", apitest.ListArray},
		{"resumes key", apitest.ListResumesKey},
		{"data key", apitest.ListDataKey},
	}

	for _, tt := range shapes {
		t.Run(tt.name, func(t *testing.T) {
			client, backend := newTestClient(t)
			backend.AddUser("ada", "ada@example.com", "secret1")
			backend.SeedResume("ada@example.com", "First")
			backend.SeedResume("ada@example.com", "Second")
			backend.SetListShape(tt.shape)

			list, err := client.ListResumes(context.Background(), backend.TokenFor("ada@example.com"))
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "First", list[0].Title)
			assert.Equal(t, "Second", list[1].Title)
		})
	}
}

func TestDecodeResumeList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"empty array", `[]`, 0, false},
		{"array", `[{"id":1,"title":"a"}]`, 1, false},
		{"resumes", `{"resumes":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}`, 2, false},
		{"data", ` {"data":[]} `, 0, false},
		{"resumes wins over data", `{"resumes":[{"id":1}],"data":[]}`, 1, false},
		{"empty body", ``, 0, true},
		{"string", `"hello"`, 0, true},
		{"number", `42`, 0, true},
		{"other object", `{"items":[]}`, 0, true},
		{"resumes not array", `{"resumes":{"id":1}}`, 0, true},
		{"resumes null", `{"resumes":null}`, 0, true},
		{"bad entry", `[{"id":"x"}]`, 0, true},
		{"truncated", `[{"id":1}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResumeList([]byte(tt.body))
			if tt.wantErr {
				var formatErr *FormatError
				require.ErrorAs(t, err, &formatErr)
				assert.True(t, IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestDeleteResume(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	id := backend.SeedResume("ada@example.com", "Old")
	token := backend.TokenFor("ada@example.com")

	require.NoError(t, client.DeleteResume(context.Background(), token, id))
	assert.Empty(t, backend.Resumes("ada@example.com"))

	err := client.DeleteResume(context.Background(), token, id)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusNotFound, serverErr.Status)
	assert.Equal(t, "Resume not found", serverErr.Message)
}

func TestGetResume(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	id := backend.StoreResume("ada@example.com", map[string]any{
		"title":             "Backend",
		"original_filename": "ada.pdf",
		"education":         []any{map[string]any{"institution_name": "MIT", "gpa": 3.8}},
	})
	token := backend.TokenFor("ada@example.com")

	doc, err := client.GetResume(context.Background(), token, id)
	require.NoError(t, err)

	resume, ok := doc["resume"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(id), resume["id"])
	assert.Equal(t, "Backend", resume["title"])
	assert.Equal(t, []any{map[string]any{"institution_name": "MIT", "gpa": 3.8}}, doc["education"])
	assert.NotContains(t, doc, "skills")
}

func TestGetResume_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *apitest.Backend)
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown resume",
			setup: func(*apitest.Backend) {},
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, http.StatusNotFound, serverErr.Status)
			},
		},
		{
			name: "array body",
			setup: func(b *apitest.Backend) {
				b.Respond(http.MethodGet, "/api/resumes/3", apitest.Override{Status: http.StatusOK, Body: `[]`})
			},
			check: func(t *testing.T, err error) {
				var formatErr *FormatError
				require.ErrorAs(t, err, &formatErr)
			},
		},
		{
			name: "null body",
			setup: func(b *apitest.Backend) {
				b.Respond(http.MethodGet, "/api/resumes/3", apitest.Override{Status: http.StatusOK, Body: `null`})
			},
			check: func(t *testing.T, err error) {
				var formatErr *FormatError
				require.ErrorAs(t, err, &formatErr)
			},
		},
		{
			name: "rejected token",
			setup: func(b *apitest.Backend) {
				b.Fail(http.MethodGet, "/api/resumes/3", http.StatusUnauthorized, "Invalid token")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuth(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, backend := newTestClient(t)
			backend.AddUser("ada", "ada@example.com", "secret1")
			tt.setup(backend)

			doc, err := client.GetResume(context.Background(), backend.TokenFor("ada@example.com"), 3)

			assert.Nil(t, doc)
			tt.check(t, err)
		})
	}
}

func TestParseResume(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	resp, err := client.ParseResume(context.Background(), backend.TokenFor("ada@example.com"), Upload{
		Filename: "My_Resume.pdf",
		Content:  strings.NewReader("%PDF-1.4"),
		Title:    "My_Resume",
	})
	require.NoError(t, err)
	assert.Equal(t, "My_Resume.pdf", resp.OriginalFilename)
	assert.Equal(t, "My_Resume", resp.SuggestedTitle)
	assert.Contains(t, resp.ParsedData, "work_experience")
}

func TestParseResume_NoFile(t *testing.T) {
	client, backend := newTestClient(t)

	_, err := client.ParseResume(context.Background(), "token", Upload{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, backend.TotalRequests())
}

func TestSaveResume(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	resp, err := client.SaveResume(context.Background(), backend.TokenFor("ada@example.com"), emptyPayload("Mine"))
	require.NoError(t, err)
	require.NotNil(t, resp.Resume)
	assert.Equal(t, "Mine", resp.Resume.Title)
	assert.NotZero(t, resp.Resume.ID)

	saves := backend.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, []any{}, saves[0]["skills"])
}

func TestSaveResume_SchemaViolationSendsNothing(t *testing.T) {
	client, backend := newTestClient(t)

	payload := emptyPayload("Mine")
	payload.Skills = nil

	_, err := client.SaveResume(context.Background(), "token", payload)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "payload", validationErr.Field)
	assert.Equal(t, 0, backend.TotalRequests())
}

func TestServerError_GenericMessage(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	backend.Respond(http.MethodPost, "/api/resumes/save", apitest.Override{Status: 500, Body: `{}`})

	_, err := client.SaveResume(context.Background(), backend.TokenFor("ada@example.com"), emptyPayload("Mine"))

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 500, serverErr.Status)
	assert.Equal(t, "request failed: internal server error", serverErr.Message)
	assert.True(t, IsRetryable(err))
}

func TestServerError_HTMLDetail(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	backend.Respond(http.MethodGet, "/api/resumes/", apitest.Override{
		Status:      502,
		ContentType: "text/html; charset=utf-8",
		Body:        `<html><head><title>x</title><style>p{}</style></head><body><h1>Bad Gateway</h1> <p>upstream   timed out</p></body></html>`,
	})

	_, err := client.ListResumes(context.Background(), backend.TokenFor("ada@example.com"))

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Bad Gateway upstream timed out", serverErr.Detail)
}

func TestNetworkError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	client, err := New("http://"+addr, &Options{Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.ListResumes(context.Background(), "token")

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.True(t, IsRetryable(err))
}

func TestNetworkError_ContextCanceled(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Profile(ctx, backend.TokenFor("ada@example.com"))

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(&ValidationError{Message: "x"}))
	assert.False(t, IsRetryable(&AuthError{}))
}
