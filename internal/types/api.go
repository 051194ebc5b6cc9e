//nolint:revive // types is a standard Go package name pattern
package types

// ParseResponse is returned by the parse-and-save endpoint.
type ParseResponse struct {
	Message          string         `json:"message,omitempty"`
	ParsedData       map[string]any `json:"parsed_data"`
	OriginalFilename string         `json:"original_filename"`
	SuggestedTitle   string         `json:"suggested_title,omitempty"`
}

// ResumeSummary is one row of the resume list and the resource echoed back by a save.
type ResumeSummary struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	OriginalFilename string `json:"original_filename,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// SaveResponse is returned by the save endpoint.
type SaveResponse struct {
	Message string         `json:"message,omitempty"`
	Resume  *ResumeSummary `json:"resume,omitempty"`
}

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}
