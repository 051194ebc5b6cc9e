package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-studio/internal/types"
)

var allowedExtensions = map[string]bool{"pdf": true, "docx": true, "doc": true, "txt": true}

// sectionKeys are returned beside the resume row by the get endpoint.
var sectionKeys = []string{
	"personal_info", "contact_info", "work_experience", "education",
	"skills", "certifications", "projects", "languages",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.ErrorBody{Error: message})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	b.mu.Lock()
	acct, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok || !verifyPassword(req.Password, acct.passwordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user := acct.user
	user.LastLogin = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, types.AuthResponse{
		Message:     "Login successful",
		AccessToken: b.MintToken(user.ID, b.tokenTTL),
		User:        &user,
	})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email, and password are required")
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[req.Email]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	user := b.addUserLocked(req)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, types.AuthResponse{
		Message:     "User registered successfully",
		AccessToken: b.MintToken(user.ID, b.tokenTTL),
		User:        &user,
	})
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.user.ID == id {
			user := acct.user
			writeJSON(w, http.StatusOK, types.ProfileResponse{User: &user})
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	list := b.summariesLocked(userID(r))
	shape := b.listShape
	b.mu.Unlock()

	switch shape {
	case ListResumesKey:
		writeJSON(w, http.StatusOK, map[string]any{"resumes": list})
	case ListDataKey:
		writeJSON(w, http.StatusOK, map[string]any{"data": list})
	default:
		writeJSON(w, http.StatusOK, list)
	}
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume id")
		return
	}

	b.mu.Lock()
	stored, ok := b.resumes[id]
	if !ok || stored.owner != userID(r) {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Resume not found")
		return
	}
	rawText, _ := stored.payload["raw_text"].(string)
	resp := map[string]any{
		"resume": map[string]any{
			"id":                stored.summary.ID,
			"title":             stored.summary.Title,
			"original_filename": stored.summary.OriginalFilename,
			"raw_text":          rawText,
			"created_at":        stored.summary.CreatedAt,
			"updated_at":        stored.summary.UpdatedAt,
		},
	}
	for _, key := range sectionKeys {
		if v, ok := stored.payload[key]; ok {
			resp[key] = v
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	stored, ok := b.resumes[id]
	if !ok || stored.owner != userID(r) {
		writeError(w, http.StatusNotFound, "Resume not found")
		return
	}
	delete(b.resumes, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Resume deleted successfully"})
}

func (b *Backend) handleParse(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "File type not allowed")
		return
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	b.mu.Lock()
	delay := b.parseDelay
	parsed := b.parsedData
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	title := r.FormValue("title")
	if title == "" {
		if info, ok := parsed["personal_info"].(map[string]any); ok {
			title, _ = info["name"].(string)
		}
	}
	if title == "" {
		title = types.DefaultTitle
	}

	writeJSON(w, http.StatusOK, types.ParseResponse{
		Message:          "Resume parsed successfully",
		ParsedData:       parsed,
		OriginalFilename: header.Filename,
		SuggestedTitle:   title,
	})
}

func (b *Backend) handleSave(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	gate := b.saveGate
	started := b.saveStarted
	b.mu.Unlock()

	if gate != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	title, _ := payload["title"].(string)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	b.mu.Lock()
	id := b.storeLocked(userID(r), payload)
	b.saves = append(b.saves, payload)
	summary := b.resumes[id].summary
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, types.SaveResponse{
		Message: "Resume saved successfully",
		Resume:  &summary,
	})
}
