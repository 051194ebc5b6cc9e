package document

import (
	"github.com/jonathan/resume-studio/internal/sections"
	"github.com/jonathan/resume-studio/internal/types"
)

// SectionName identifies one repeated section of a resume.
type SectionName string

const (
	SectionWorkExperience SectionName = "work_experience"
	SectionEducation      SectionName = "education"
	SectionSkills         SectionName = "skills"
	SectionCertifications SectionName = "certifications"
	SectionProjects       SectionName = "projects"
	SectionLanguages      SectionName = "languages"
)

// SectionNames lists every section in display order.
var SectionNames = []SectionName{
	SectionWorkExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionProjects,
	SectionLanguages,
}

var (
	experienceEditor = sections.NewEditor(types.NewExperience)
	educationEditor  = sections.NewEditor(types.NewEducation)
	skillEditor      = sections.NewEditor(types.NewSkill)
	recordEditor     = sections.NewEditor(types.NewRecord)
)

// ParseSectionName resolves user input such as "workExperience" or "skills".
func ParseSectionName(s string) (SectionName, error) {
	key := normalizeKey(s)
	for _, name := range SectionNames {
		if normalizeKey(string(name)) == key {
			return name, nil
		}
	}
	return "", &SectionError{Name: s}
}

type opKind int

const (
	opAppend opKind = iota
	opUpdate
	opUpdateAt
	opRemove
	opRemoveAt
)

type op struct {
	kind  opKind
	id    string
	index int
	field string
	value any

	// set by opAppend
	newID string
}

// AppendEntry adds a default entry to the named section and returns the new
// snapshot together with the local ID of the added entry.
func AppendEntry(doc *types.ResumeDocument, name SectionName) (*types.ResumeDocument, string, error) {
	o := &op{kind: opAppend}
	updated, err := apply(doc, name, o)
	return updated, o.newID, err
}

// UpdateEntry sets one field of the entry with the given local ID.
func UpdateEntry(doc *types.ResumeDocument, name SectionName, id, field string, value any) (*types.ResumeDocument, error) {
	return apply(doc, name, &op{kind: opUpdate, id: id, field: field, value: value})
}

// UpdateEntryAt sets one field of the entry at the given display position.
func UpdateEntryAt(doc *types.ResumeDocument, name SectionName, index int, field string, value any) (*types.ResumeDocument, error) {
	return apply(doc, name, &op{kind: opUpdateAt, index: index, field: field, value: value})
}

// RemoveEntry deletes the entry with the given local ID.
func RemoveEntry(doc *types.ResumeDocument, name SectionName, id string) (*types.ResumeDocument, error) {
	return apply(doc, name, &op{kind: opRemove, id: id})
}

// RemoveEntryAt deletes the entry at the given display position.
func RemoveEntryAt(doc *types.ResumeDocument, name SectionName, index int) (*types.ResumeDocument, error) {
	return apply(doc, name, &op{kind: opRemoveAt, index: index})
}

// EntryIDs returns the local IDs of the named section in display order.
func EntryIDs(doc *types.ResumeDocument, name SectionName) ([]string, error) {
	switch name {
	case SectionWorkExperience:
		return ids(doc.WorkExperience), nil
	case SectionEducation:
		return ids(doc.Education), nil
	case SectionSkills:
		return ids(doc.Skills), nil
	case SectionCertifications:
		return ids(doc.Certifications), nil
	case SectionProjects:
		return ids(doc.Projects), nil
	case SectionLanguages:
		return ids(doc.Languages), nil
	}
	return nil, &SectionError{Name: string(name)}
}

func apply(doc *types.ResumeDocument, name SectionName, o *op) (*types.ResumeDocument, error) {
	cp := *doc
	var err error
	switch name {
	case SectionWorkExperience:
		err = run(&cp.WorkExperience, experienceEditor, o)
	case SectionEducation:
		err = run(&cp.Education, educationEditor, o)
	case SectionSkills:
		err = run(&cp.Skills, skillEditor, o)
	case SectionCertifications:
		err = run(&cp.Certifications, recordEditor, o)
	case SectionProjects:
		err = run(&cp.Projects, recordEditor, o)
	case SectionLanguages:
		err = run(&cp.Languages, recordEditor, o)
	default:
		err = &SectionError{Name: string(name)}
	}
	if err != nil {
		return doc, err
	}
	return &cp, nil
}

func run[T sections.Entry[T]](s *sections.Section[T], ed *sections.Editor[T], o *op) error {
	var (
		updated sections.Section[T]
		err     error
	)
	switch o.kind {
	case opAppend:
		var item *sections.Item[T]
		updated, item = ed.Append(*s)
		o.newID = item.ID()
	case opUpdate:
		updated, err = ed.UpdateField(*s, o.id, o.field, o.value)
	case opUpdateAt:
		updated, err = ed.UpdateFieldAt(*s, o.index, o.field, o.value)
	case opRemove:
		updated, err = ed.Remove(*s, o.id)
	case opRemoveAt:
		updated, err = ed.RemoveAt(*s, o.index)
	}
	if err != nil {
		return err
	}
	*s = updated
	return nil
}

func ids[T any](s sections.Section[T]) []string {
	items := s.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}
