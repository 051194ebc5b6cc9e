package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		"title":         "Resume",
		"personal_info": map[string]any{"name": "Ada"},
		"contact_info":  map[string]any{"email": "ada@example.com"},
		"work_experience": []any{
			map[string]any{"company_name": "Acme", "job_title": "Engineer", "is_current": false, "id": 4},
		},
		"education":         []any{},
		"skills":            []any{map[string]any{"skill_name": "Go"}},
		"certifications":    []any{map[string]any{"name": "CKA"}},
		"projects":          []any{},
		"languages":         []any{},
		"original_filename": "ada.pdf",
		"raw_text":          "",
	}
}

func TestValidateSavePayload_Valid(t *testing.T) {
	assert.NoError(t, ValidateSavePayload(validPayload()))
}

func TestValidateSavePayload_StoredScalarsAccepted(t *testing.T) {
	p := validPayload()
	p["education"] = []any{map[string]any{"institution_name": "MIT", "gpa": 3.8, "description": nil}}
	p["work_experience"] = []any{map[string]any{"company_name": "Acme", "job_title": "Engineer", "is_current": 1}}

	assert.NoError(t, ValidateSavePayload(p))
}

func TestValidateSavePayload_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]any)
		field  string
	}{
		{
			name:   "missing section",
			mutate: func(p map[string]any) { delete(p, "skills") },
			field:  "(root)",
		},
		{
			name:   "null section",
			mutate: func(p map[string]any) { p["education"] = nil },
			field:  "education",
		},
		{
			name:   "title not a string",
			mutate: func(p map[string]any) { p["title"] = 5 },
			field:  "title",
		},
		{
			name:   "record not an object",
			mutate: func(p map[string]any) { p["languages"] = []any{"French"} },
			field:  "languages.0",
		},
		{
			name:   "gpa as object",
			mutate: func(p map[string]any) { p["education"] = []any{map[string]any{"institution_name": "MIT", "gpa": map[string]any{}}} },
			field:  "education.0.gpa",
		},
		{
			name:   "bad id",
			mutate: func(p map[string]any) { p["id"] = "abc" },
			field:  "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			err := ValidateSavePayload(p)
			require.Error(t, err)

			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type")
			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Contains(t, validationErr.Error(), "validation failed")
		})
	}
}

func TestValidateSavePayload_Unencodable(t *testing.T) {
	err := ValidateSavePayload(map[string]any{"title": make(chan int)})
	assert.Error(t, err)
}
