//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/jonathan/resume-studio/internal/sections"
)

// Provenance records how a ResumeDocument came to exist on the client.
// It drives which affordances the editor shows and is never sent to the backend.
type Provenance string

const (
	// ProvenanceEphemeralParsed marks a document built from a fresh parse that
	// the user has not saved yet.
	ProvenanceEphemeralParsed Provenance = "ephemeral_parsed"
	// ProvenancePersisted marks a document loaded from, or confirmed by, the backend.
	ProvenancePersisted Provenance = "persisted"
)

// DefaultTitle is used when neither the parser nor the user supplied a title.
const DefaultTitle = "New Resume"

// PersonalInfo holds the candidate's identity block.
type PersonalInfo struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ContactInfo holds the candidate's contact block.
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

// ResumeDocument is the canonical in-memory resume.
// Snapshots are treated as immutable; see package document for the edit operations.
type ResumeDocument struct {
	ID               *int64
	Title            string
	PersonalInfo     PersonalInfo
	ContactInfo      ContactInfo
	WorkExperience   sections.Section[Experience]
	Education        sections.Section[Education]
	Skills           sections.Section[Skill]
	Certifications   sections.Section[Record]
	Projects         sections.Section[Record]
	Languages        sections.Section[Record]
	OriginalFilename string
	RawText          string
	Provenance       Provenance
}

// IsEphemeral reports whether the document has not been saved yet.
func (d *ResumeDocument) IsEphemeral() bool {
	return d.Provenance == ProvenanceEphemeralParsed
}

// SavePayload is the wire form of a full ResumeDocument snapshot.
type SavePayload struct {
	ID               *int64       `json:"id,omitempty"`
	Title            string       `json:"title"`
	PersonalInfo     PersonalInfo `json:"personal_info"`
	ContactInfo      ContactInfo  `json:"contact_info"`
	WorkExperience   []Experience `json:"work_experience"`
	Education        []Education  `json:"education"`
	Skills           []Skill      `json:"skills"`
	Certifications   []Record     `json:"certifications"`
	Projects         []Record     `json:"projects"`
	Languages        []Record     `json:"languages"`
	OriginalFilename string       `json:"original_filename"`
	RawText          string       `json:"raw_text"`
}
