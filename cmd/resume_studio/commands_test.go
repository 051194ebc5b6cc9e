package main

import (
	"bytes"
	"net/http"
	"os"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/apitest"
	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/types"
	"github.com/jonathan/resume-studio/internal/upload"
)

type cli struct {
	t       *testing.T
	backend *apitest.Backend
	dir     string
	draft   string
}

type output struct {
	stdout string
	stderr string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(config.EnvLogFile, "")
	t.Setenv(config.EnvTimeout, "")

	backend := apitest.New(t)
	backend.AddUser("ada", "ada@example.com", "secret1")
	dir := t.TempDir()
	return &cli{t: t, backend: backend, dir: dir, draft: filepath.Join(dir, "draft.json")}
}

// run executes one process-like invocation with fresh state.
func (c *cli) run(stdin string, args ...string) (output, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer

	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{
		"--api-url", c.backend.URL,
		"--token-db", filepath.Join(c.dir, "session.db"),
		"--draft", c.draft,
	}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	a.close()
	return output{stdout: stdout.String(), stderr: stderr.String()}, err
}

func (c *cli) must(args ...string) output {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, "stderr: %s", out.stderr)
	return out
}

func (c *cli) login() {
	c.t.Helper()
	c.must("login", "--email", "ada@example.com", "--password", "secret1")
}

func (c *cli) writeFile(name, content string) string {
	c.t.Helper()
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLogin_SessionSurvivesAcrossRuns(t *testing.T) {
	c := newCLI(t)

	out := c.must("login", "--email", "ada@example.com", "--password", "secret1")
	assert.Contains(t, out.stdout, "Logged in as ada")

	out = c.must("whoami")
	assert.Contains(t, out.stdout, "SIGNED IN")
	assert.Contains(t, out.stdout, "ada@example.com")
	assert.Contains(t, out.stdout, "0 saved resumes")
}

func TestLogin_PromptsForMissingValues(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("ada@example.com\nsecret1\n", "login")
	require.NoError(t, err)

	assert.Contains(t, out.stderr, "Email: ")
	assert.Contains(t, out.stderr, "Password: ")
	assert.Contains(t, out.stdout, "Logged in")
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "login", "--email", "ada@example.com", "--password", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Contains(t, c.must("whoami").stdout, "Not logged in")
}

func TestRegister(t *testing.T) {
	c := newCLI(t)

	out := c.must("register", "--username", "grace", "--email", "grace@example.com",
		"--first-name", "Grace", "--last-name", "Hopper", "--password", "cobol59")
	assert.Contains(t, out.stdout, "Welcome, Grace Hopper")

	_, err := c.run("", "register", "--username", "grace", "--email", "grace@example.com", "--password", "cobol59")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User already exists")
}

func TestLogout(t *testing.T) {
	c := newCLI(t)
	c.login()

	assert.Contains(t, c.must("logout").stdout, "Logged out")

	_, err := c.run("", "list")
	require.Error(t, err)
	assert.Equal(t, "Please log in to view your resumes", err.Error())
}

func TestList_Search(t *testing.T) {
	c := newCLI(t)
	c.backend.SeedResume("ada@example.com", "Backend Engineer")
	c.backend.SeedResume("ada@example.com", "Data Scientist")
	c.login()

	out := c.must("list")
	assert.Contains(t, out.stdout, "YOUR RESUMES (2)")

	out = c.must("list", "--search", "backend")
	assert.Contains(t, out.stdout, "YOUR RESUMES (1)")
	assert.Contains(t, out.stdout, "Backend Engineer")
	assert.NotContains(t, out.stdout, "Data Scientist")
}

func TestList_ServerFailureMessage(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.backend.Fail(http.MethodGet, "/api/resumes/", http.StatusInternalServerError, "boom")

	_, err := c.run("", "list")

	require.Error(t, err)
	assert.Equal(t, "Failed to load resumes. Please try again.", err.Error())
}

func TestDelete(t *testing.T) {
	c := newCLI(t)
	c.backend.SeedResumeAt("ada@example.com", 7, "First")
	c.backend.SeedResumeAt("ada@example.com", 42, "Target")
	c.backend.SeedResumeAt("ada@example.com", 99, "Last")
	c.login()

	out := c.must("delete", "42")
	assert.Contains(t, out.stdout, "Deleted resume #42")
	ids := func() []int64 {
		var out []int64
		for _, r := range c.backend.Resumes("ada@example.com") {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []int64{7, 99}, ids())

	out = c.must("delete", "7", "99")
	assert.Contains(t, out.stdout, "Deleted 2 resumes")
	assert.Empty(t, ids())
}

func TestDelete_Errors(t *testing.T) {
	c := newCLI(t)
	c.login()

	_, err := c.run("", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resume id")

	_, err = c.run("", "delete", "5")
	require.Error(t, err)
	assert.Equal(t, "Failed to delete resume. Please try again.", err.Error())
}

func TestUpload_WritesDraft(t *testing.T) {
	c := newCLI(t)
	c.login()
	file := c.writeFile("My_Resume.pdf", "%PDF-1.4 fake")

	out := c.must("upload", file)

	assert.Contains(t, out.stdout, "Resume parsed successfully")
	assert.Contains(t, out.stdout, "Parsed 2 jobs, 1 education entries, 3 skills")
	assert.Contains(t, out.stdout, "Provisional copy saved as #1")
	assert.Contains(t, out.stderr, "[  0%] Uploading file...")
	assert.Contains(t, out.stderr, "[100%]")

	doc, err := document.ReadDraft(c.draft)
	require.NoError(t, err)
	assert.True(t, doc.IsEphemeral())
	assert.Equal(t, "My_Resume", doc.Title)
	assert.Equal(t, "My_Resume.pdf", doc.OriginalFilename)
}

func TestUpload_RejectsUnsupportedFile(t *testing.T) {
	c := newCLI(t)
	c.login()
	file := c.writeFile("photo.png", "png")

	_, err := c.run("", "upload", file)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file type")
	assert.Equal(t, 0, c.backend.Count(http.MethodPost, "/api/resumes/parse-and-save"))
	assert.NoFileExists(t, c.draft)
}

func TestUpload_RequiresLogin(t *testing.T) {
	c := newCLI(t)
	file := c.writeFile("cv.pdf", "pdf")

	_, err := c.run("", "upload", file)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestEditAndSave(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.must("upload", c.writeFile("cv.pdf", "pdf"))

	c.must("set", "title", "Edited")
	c.must("set", "contact_info.phone", "555-0100")
	id := strings.TrimSpace(c.must("add", "skills").stdout)
	c.must("update", "skills", id, "skill_name", "Rust")
	c.must("update", "work_experience", "1", "is_current", "true")
	c.must("remove", "education", "0")

	_, err := c.run("", "update", "skills", "0", "colour", "blue")
	require.Error(t, err)

	out := c.must("show")
	assert.Contains(t, out.stdout, "Edited")
	assert.Contains(t, out.stdout, "Rust")
	assert.NotContains(t, out.stdout, "Education:")

	out = c.must("show", "--ids", "skills")
	assert.Contains(t, out.stdout, "skills[3] "+id)

	out = c.must("save")
	assert.Contains(t, out.stdout, "Saved as #2")

	saves := c.backend.Saves()
	last := saves[len(saves)-1]
	assert.Equal(t, "Edited", last["title"])
	assert.Equal(t, "555-0100", last["contact_info"].(map[string]any)["phone"])
	assert.Empty(t, last["education"])
	assert.Len(t, last["skills"], 4)
	assert.NotContains(t, last, "id")

	c.must("set", "title", "Edited Again")
	out = c.must("save")
	assert.Contains(t, out.stdout, "Saved as #2")
	assert.Len(t, c.backend.Resumes("ada@example.com"), 2)
}

func TestOpen_EditAndSaveUpdatesSameResume(t *testing.T) {
	c := newCLI(t)
	c.login()
	id := c.backend.StoreResume("ada@example.com", map[string]any{
		"title":             "Backend",
		"original_filename": "ada.pdf",
		"raw_text":          "Ada Lovelace",
		"personal_info":     map[string]any{"name": "Ada Lovelace"},
		"contact_info":      map[string]any{"email": "ada@example.com"},
		"work_experience":   []any{map[string]any{"company_name": "Acme", "job_title": "Engineer", "is_current": 1.0}},
		"education":         []any{map[string]any{"institution_name": "MIT", "gpa": 3.8}},
		"skills":            []any{map[string]any{"skill_name": "Go"}},
		"certifications":    []any{},
		"projects":          []any{},
		"languages":         []any{},
	})
	ref := strconv.FormatInt(id, 10)

	out := c.must("open", ref)
	assert.Contains(t, out.stdout, `Opened resume #`+ref+` "Backend"`)

	doc, err := document.ReadDraft(c.draft)
	require.NoError(t, err)
	assert.False(t, doc.IsEphemeral())
	assert.Equal(t, "3.8", doc.Education.Values()[0].GPA)

	c.must("set", "personal_info.name", "Ada King")
	out = c.must("save")
	assert.Contains(t, out.stdout, "Saved as #"+ref)
	assert.Len(t, c.backend.Resumes("ada@example.com"), 1)

	saved := c.backend.Payload(id)
	assert.Equal(t, "Ada King", saved["personal_info"].(map[string]any)["name"])
	assert.Equal(t, 3.8, saved["education"].([]any)[0].(map[string]any)["gpa"])
	assert.Equal(t, 1.0, saved["work_experience"].([]any)[0].(map[string]any)["is_current"])
	assert.Equal(t, "Ada Lovelace", saved["raw_text"])
}

func TestOpen_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "open", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	c.login()
	_, err = c.run("", "open", "zero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resume id")

	_, err = c.run("", "open", "5")
	require.Error(t, err)
	assert.Equal(t, "Failed to load resume. Please try again.", err.Error())
	assert.NoFileExists(t, c.draft)
}

func TestAutosaveLine(t *testing.T) {
	id := int64(4)
	tests := []struct {
		name   string
		result upload.AutosaveResult
		want   string
	}{
		{
			name:   "saved with id",
			result: upload.AutosaveResult{Response: &types.SaveResponse{Resume: &types.ResumeSummary{ID: id}}},
			want:   "Provisional copy saved as #4",
		},
		{
			name:   "saved without resume",
			result: upload.AutosaveResult{Response: &types.SaveResponse{Message: "ok"}},
			want:   "Provisional copy saved",
		},
		{
			name:   "failed",
			result: upload.AutosaveResult{Failure: &upload.PartialFailure{Stage: "autosave", Cause: errors.New("boom")}},
			want:   "Provisional save failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, autosaveLine(tt.result))
		})
	}
}

func TestEdit_WithoutDraft(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no draft")
}

func TestUpdate_JSONValue(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.must("upload", c.writeFile("cv.txt", "plain"))
	c.must("add", "projects")

	c.must("update", "--json", "projects", "0", "tags", `["go","cli"]`)

	doc, err := document.ReadDraft(c.draft)
	require.NoError(t, err)
	item, err := doc.Projects.At(0)
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "cli"}, item.Value()["tags"])
}

func TestConfigFile(t *testing.T) {
	c := newCLI(t)
	cfgPath := c.writeFile("config.json", `{"log_level": "loud"}`)

	_, err := c.run("", "--config", cfgPath, "whoami")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
