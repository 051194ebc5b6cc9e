// Package document builds and edits ResumeDocument snapshots.
//
// Every operation is copy-on-write: it returns a new *types.ResumeDocument
// and leaves its input untouched. Sections are immutable, so a new snapshot
// shares every section it did not change with the previous one.
package document

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/jonathan/resume-studio/internal/sections"
	"github.com/jonathan/resume-studio/internal/types"
)

// FromParsed builds an ephemeral document from the parser's structured output.
// It never fails: missing or malformed parts become empty values.
func FromParsed(parsed map[string]any, suggestedTitle, originalFilename string) *types.ResumeDocument {
	doc := fromMap(parsed)
	doc.Title = suggestedTitle
	if doc.Title == "" {
		doc.Title = types.DefaultTitle
	}
	doc.OriginalFilename = originalFilename
	doc.Provenance = types.ProvenanceEphemeralParsed
	return doc
}

// FromPersisted builds a document from a resume loaded from the backend.
// The title is kept verbatim. Title, id, original_filename and raw_text
// nested under "resume" are used when the top level has none.
func FromPersisted(serverDoc map[string]any) *types.ResumeDocument {
	doc := fromMap(serverDoc)
	nested, _ := serverDoc["resume"].(map[string]any)

	doc.Title = str(serverDoc["title"])
	if doc.Title == "" && nested != nil {
		doc.Title = str(nested["title"])
	}

	doc.ID = numericID(serverDoc["id"])
	if doc.ID == nil && nested != nil {
		doc.ID = numericID(nested["id"])
	}

	doc.OriginalFilename = str(serverDoc["original_filename"])
	if nested != nil {
		if doc.OriginalFilename == "" {
			doc.OriginalFilename = str(nested["original_filename"])
		}
		if doc.RawText == "" {
			doc.RawText = str(nested["raw_text"])
		}
	}
	doc.Provenance = types.ProvenancePersisted
	return doc
}

// Persisted returns a copy of doc marked as saved under id.
func Persisted(doc *types.ResumeDocument, id *int64) *types.ResumeDocument {
	cp := *doc
	if id != nil {
		v := *id
		cp.ID = &v
	}
	cp.Provenance = types.ProvenancePersisted
	return &cp
}

// Payload returns the full save snapshot of doc. Local entry IDs and
// provenance are not part of it.
func Payload(doc *types.ResumeDocument) types.SavePayload {
	var id *int64
	if doc.ID != nil {
		v := *doc.ID
		id = &v
	}
	return types.SavePayload{
		ID:               id,
		Title:            doc.Title,
		PersonalInfo:     doc.PersonalInfo,
		ContactInfo:      doc.ContactInfo,
		WorkExperience:   doc.WorkExperience.Values(),
		Education:        doc.Education.Values(),
		Skills:           doc.Skills.Values(),
		Certifications:   doc.Certifications.Values(),
		Projects:         doc.Projects.Values(),
		Languages:        doc.Languages.Values(),
		OriginalFilename: doc.OriginalFilename,
		RawText:          doc.RawText,
	}
}

// PayloadMap returns Payload(doc) decoded into a generic JSON object.
func PayloadMap(doc *types.ResumeDocument) (map[string]any, error) {
	data, err := json.Marshal(Payload(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return m, nil
}

// Counts holds the current number of entries per section.
type Counts struct {
	WorkExperience int
	Education      int
	Skills         int
	Certifications int
	Projects       int
	Languages      int
}

// CountsOf computes the section sizes of doc.
func CountsOf(doc *types.ResumeDocument) Counts {
	return Counts{
		WorkExperience: doc.WorkExperience.Len(),
		Education:      doc.Education.Len(),
		Skills:         doc.Skills.Len(),
		Certifications: doc.Certifications.Len(),
		Projects:       doc.Projects.Len(),
		Languages:      doc.Languages.Len(),
	}
}

// Summary returns the status line shown after a parse.
func Summary(doc *types.ResumeDocument) string {
	c := CountsOf(doc)
	return fmt.Sprintf("Parsed %d jobs, %d education entries, %d skills", c.WorkExperience, c.Education, c.Skills)
}

func fromMap(m map[string]any) *types.ResumeDocument {
	personal, _ := m["personal_info"].(map[string]any)
	contact, _ := m["contact_info"].(map[string]any)

	return &types.ResumeDocument{
		PersonalInfo: types.PersonalInfo{
			Name:      str(personal["name"]),
			Title:     str(personal["title"]),
			Summary:   str(personal["summary"]),
			FirstName: str(personal["first_name"]),
			LastName:  str(personal["last_name"]),
		},
		ContactInfo: types.ContactInfo{
			Email:    str(contact["email"]),
			Phone:    str(contact["phone"]),
			Location: str(contact["location"]),
			LinkedIn: str(contact["linkedin"]),
			GitHub:   str(contact["github"]),
			Website:  str(contact["website"]),
		},
		WorkExperience: objects(m["work_experience"], types.ExperienceFromMap),
		Education:      objects(m["education"], types.EducationFromMap),
		Skills:         objects(m["skills"], types.SkillFromMap),
		Certifications: records(m["certifications"]),
		Projects:       records(m["projects"]),
		Languages:      records(m["languages"]),
		RawText:        str(m["raw_text"]),
	}
}

// objects converts a JSON array of objects. Elements that are not objects
// are skipped; anything other than an array yields an empty section.
func objects[T any](v any, conv func(map[string]any) T) sections.Section[T] {
	var values []T
	switch list := v.(type) {
	case []any:
		for _, el := range list {
			if m, ok := el.(map[string]any); ok {
				values = append(values, conv(m))
			}
		}
	case []map[string]any:
		for _, m := range list {
			values = append(values, conv(m))
		}
	}
	return sections.Of(values...)
}

func records(v any) sections.Section[types.Record] {
	var values []types.Record
	switch list := v.(type) {
	case []any:
		for _, el := range list {
			values = append(values, types.RecordFrom(el))
		}
	case []map[string]any:
		for _, m := range list {
			values = append(values, types.RecordFrom(m))
		}
	}
	return sections.Of(values...)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func numericID(v any) *int64 {
	var id int64
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return nil
		}
		id = int64(n)
	case int64:
		id = n
	case int:
		id = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return nil
		}
		id = parsed
	default:
		return nil
	}
	return &id
}
