// Package apitest provides an in-process fake of the resume backend for tests.
//
// Backend implements every endpoint the client uses, signs bearer tokens with
// HS256 and exposes hooks to count requests, force failures and hold requests
// in flight.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-studio/internal/types"
)

// ListShape selects how the list endpoint wraps its array.
type ListShape int

const (
	ListArray ListShape = iota
	ListResumesKey
	ListDataKey
)

// Override is a canned response that replaces a route's handler.
type Override struct {
	Status      int
	Body        string
	ContentType string
}

type account struct {
	user         types.User
	passwordHash string
}

type storedResume struct {
	owner   int64
	payload map[string]any
	summary types.ResumeSummary
}

// Backend is a running fake backend. The zero value is not usable; call New.
type Backend struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu           sync.Mutex
	accounts     map[string]*account
	resumes      map[int64]*storedResume
	nextUserID   int64
	nextResumeID int64
	counts       map[string]int
	overrides    map[string]Override
	revoked      map[string]bool
	listShape    ListShape
	parseDelay   time.Duration
	parsedData   map[string]any
	saveGate     chan struct{}
	saveStarted  chan struct{}
	saves        []map[string]any
}

// New starts a backend and closes it when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		secret:       []byte("apitest-secret"),
		tokenTTL:     time.Hour,
		accounts:     make(map[string]*account),
		resumes:      make(map[int64]*storedResume),
		nextUserID:   1,
		nextResumeID: 1,
		counts:       make(map[string]int),
		overrides:    make(map[string]Override),
		revoked:      make(map[string]bool),
		parsedData:   DefaultParsedData(),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("POST /api/auth/register", b.handleRegister)
	mux.Handle("GET /api/auth/profile", b.requireAuth(b.handleProfile))
	mux.Handle("GET /api/resumes/{$}", b.requireAuth(b.handleList))
	mux.Handle("GET /api/resumes/{id}", b.requireAuth(b.handleGet))
	mux.Handle("DELETE /api/resumes/{id}", b.requireAuth(b.handleDelete))
	mux.Handle("POST /api/resumes/parse-and-save", b.requireAuth(b.handleParse))
	mux.Handle("POST /api/resumes/save", b.requireAuth(b.handleSave))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.counts[key]++
		override, ok := b.overrides[key]
		b.mu.Unlock()

		if ok {
			contentType := override.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(override.Status)
			_, _ = w.Write([]byte(override.Body))
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// AddUser registers an account directly and returns it.
func (b *Backend) AddUser(username, email, password string) types.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(types.RegisterRequest{Username: username, Email: email, Password: password})
}

func (b *Backend) addUserLocked(req types.RegisterRequest) types.User {
	u := types.User{
		ID:        b.nextUserID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	b.nextUserID++
	b.accounts[req.Email] = &account{user: u, passwordHash: hashPassword(req.Password)}
	return u
}

// SeedResume stores a resume for the account with the given email and
// returns its ID.
func (b *Backend) SeedResume(email, title string) int64 {
	return b.StoreResume(email, map[string]any{"title": title, "original_filename": title + ".pdf"})
}

// StoreResume stores a full save payload for the account with the given
// email, as if it had been saved, and returns its ID.
func (b *Backend) StoreResume(email string, payload map[string]any) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[email]
	if !ok {
		panic(fmt.Sprintf("apitest: unknown account %s", email))
	}
	return b.storeLocked(acct.user.ID, payload)
}

// SeedResumeAt stores a resume under a fixed ID, replacing any resume
// already stored there.
func (b *Backend) SeedResumeAt(email string, id int64, title string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[email]
	if !ok {
		panic(fmt.Sprintf("apitest: unknown account %s", email))
	}
	next := b.nextResumeID
	b.nextResumeID = id
	b.storeLocked(acct.user.ID, map[string]any{"title": title, "original_filename": title + ".pdf"})
	if next > b.nextResumeID {
		b.nextResumeID = next
	}
}

func (b *Backend) storeLocked(owner int64, payload map[string]any) int64 {
	now := time.Now().UTC().Format(time.RFC3339)

	if raw, ok := payload["id"].(float64); ok {
		if existing, found := b.resumes[int64(raw)]; found && existing.owner == owner {
			existing.payload = payload
			existing.summary.Title, _ = payload["title"].(string)
			existing.summary.UpdatedAt = now
			return existing.summary.ID
		}
	}

	id := b.nextResumeID
	b.nextResumeID++
	title, _ := payload["title"].(string)
	filename, _ := payload["original_filename"].(string)
	b.resumes[id] = &storedResume{
		owner:   owner,
		payload: payload,
		summary: types.ResumeSummary{
			ID:               id,
			Title:            title,
			OriginalFilename: filename,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
	return id
}

// Payload returns the last payload stored under id, or nil.
func (b *Backend) Payload(id int64) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.resumes[id]; ok {
		return r.payload
	}
	return nil
}

// Resumes returns the summaries stored for an account, ordered by ID.
func (b *Backend) Resumes(email string) []types.ResumeSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[email]
	if !ok {
		return nil
	}
	return b.summariesLocked(acct.user.ID)
}

func (b *Backend) summariesLocked(owner int64) []types.ResumeSummary {
	out := []types.ResumeSummary{}
	for _, r := range b.resumes {
		if r.owner == owner {
			out = append(out, r.summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns how many requests reached method and path.
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[method+" "+path]
}

// TotalRequests returns the number of requests received on any route.
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.counts {
		total += n
	}
	return total
}

// Respond makes every request to method and path answer with the given
// status and body until Clear is called.
func (b *Backend) Respond(method, path string, o Override) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = o
}

// Fail is Respond with a JSON {"error": message} body.
func (b *Backend) Fail(method, path string, status int, message string) {
	body, _ := json.Marshal(types.ErrorBody{Error: message})
	b.Respond(method, path, Override{Status: status, Body: string(body)})
}

// Clear removes the override for method and path.
func (b *Backend) Clear(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overrides, method+" "+path)
}

// Revoke makes the backend reject token with 401.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

// SetListShape selects the list response envelope.
func (b *Backend) SetListShape(shape ListShape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listShape = shape
}

// SetParseDelay makes the parse endpoint wait before answering.
func (b *Backend) SetParseDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parseDelay = d
}

// SetParsedData replaces the structured output the parse endpoint returns.
func (b *Backend) SetParsedData(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parsedData = data
}

// HoldSaves makes save requests block until release is called. started
// receives one value per save request that reached the handler.
func (b *Backend) HoldSaves() (started <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	gate := make(chan struct{})
	notify := make(chan struct{}, 16)
	b.saveGate = gate
	b.saveStarted = notify

	var once sync.Once
	return notify, func() { once.Do(func() { close(gate) }) }
}

// Saves returns the bodies of every accepted save request in arrival order.
func (b *Backend) Saves() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, len(b.saves))
	copy(out, b.saves)
	return out
}

// DefaultParsedData is the parser output returned unless SetParsedData is used.
func DefaultParsedData() map[string]any {
	return map[string]any{
		"personal_info": map[string]any{"name": "Ada Lovelace", "title": "Engineer", "summary": ""},
		"contact_info":  map[string]any{"email": "ada@example.com", "phone": "", "location": "London"},
		"work_experience": []any{
			map[string]any{"company_name": "Acme", "job_title": "Engineer", "location": "", "start_date": "2020", "end_date": "", "is_current": true, "description": ""},
			map[string]any{"company_name": "Initech", "job_title": "Intern", "location": "", "start_date": "2018", "end_date": "2019", "is_current": false, "description": ""},
		},
		"education": []any{
			map[string]any{"institution_name": "MIT", "degree_type": "BS", "field_of_study": "CS", "start_date": "", "end_date": "2019", "gpa": "", "description": ""},
		},
		"skills": []any{
			map[string]any{"skill_name": "Go", "skill_category": "Languages", "proficiency_level": "expert"},
			map[string]any{"skill_name": "SQL", "skill_category": "Databases", "proficiency_level": ""},
			map[string]any{"skill_name": "Docker", "skill_category": "Tools", "proficiency_level": ""},
		},
		"certifications": []any{},
		"projects":       []any{},
		"languages":      []any{},
		"raw_text":       "Ada Lovelace\nEngineer",
	}
}
