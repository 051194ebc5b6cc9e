package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-studio/internal/sections"
	"github.com/jonathan/resume-studio/internal/types"
)

// draft is the on-disk editing snapshot. Unlike the save payload it keeps
// local entry IDs and provenance so editing can resume across runs.
type draft struct {
	ID               *int64                              `json:"id,omitempty"`
	Title            string                              `json:"title"`
	PersonalInfo     types.PersonalInfo                  `json:"personal_info"`
	ContactInfo      types.ContactInfo                   `json:"contact_info"`
	WorkExperience   []sections.Stored[types.Experience] `json:"work_experience"`
	Education        []sections.Stored[types.Education]  `json:"education"`
	Skills           []sections.Stored[types.Skill]      `json:"skills"`
	Certifications   []sections.Stored[types.Record]     `json:"certifications"`
	Projects         []sections.Stored[types.Record]     `json:"projects"`
	Languages        []sections.Stored[types.Record]     `json:"languages"`
	OriginalFilename string                              `json:"original_filename"`
	RawText          string                              `json:"raw_text"`
	Provenance       types.Provenance                    `json:"provenance"`
}

// WriteDraft stores doc at path as indented JSON.
func WriteDraft(path string, doc *types.ResumeDocument) error {
	d := draft{
		ID:               doc.ID,
		Title:            doc.Title,
		PersonalInfo:     doc.PersonalInfo,
		ContactInfo:      doc.ContactInfo,
		WorkExperience:   doc.WorkExperience.Export(),
		Education:        doc.Education.Export(),
		Skills:           doc.Skills.Export(),
		Certifications:   doc.Certifications.Export(),
		Projects:         doc.Projects.Export(),
		Languages:        doc.Languages.Export(),
		OriginalFilename: doc.OriginalFilename,
		RawText:          doc.RawText,
		Provenance:       doc.Provenance,
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create draft directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", path, err)
	}
	return nil
}

// ReadDraft loads a snapshot written by WriteDraft.
func ReadDraft(path string) (*types.ResumeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", path, err)
	}

	var d draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}

	provenance := d.Provenance
	if provenance == "" {
		provenance = types.ProvenanceEphemeralParsed
		if d.ID != nil {
			provenance = types.ProvenancePersisted
		}
	}

	return &types.ResumeDocument{
		ID:               d.ID,
		Title:            d.Title,
		PersonalInfo:     d.PersonalInfo,
		ContactInfo:      d.ContactInfo,
		WorkExperience:   sections.Import(d.WorkExperience),
		Education:        sections.Import(d.Education),
		Skills:           sections.Import(d.Skills),
		Certifications:   sections.Import(d.Certifications),
		Projects:         sections.Import(d.Projects),
		Languages:        sections.Import(d.Languages),
		OriginalFilename: d.OriginalFilename,
		RawText:          d.RawText,
		Provenance:       provenance,
	}, nil
}
