//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/jonathan/resume-studio/internal/sections"
)

// Experience is one work history entry.
// Extra keeps fields the backend sent that the client does not model
// (ids, display order, ...) so they survive a load/save round trip.
// Original keeps the wire value of a modeled field whose typed form would
// encode differently (a numeric gpa, an is_current of 0 or 1, a null); it is
// written back until that field is edited.
type Experience struct {
	CompanyName string
	JobTitle    string
	Location    string
	StartDate   string
	EndDate     string
	IsCurrent   bool
	Description string
	Extra       map[string]any
	Original    map[string]any
}

// Education is one education entry.
type Education struct {
	InstitutionName string
	DegreeType      string
	FieldOfStudy    string
	StartDate       string
	EndDate         string
	GPA             string
	Description     string
	Extra           map[string]any
	Original        map[string]any
}

// Skill is one skill entry.
type Skill struct {
	SkillName        string
	SkillCategory    string
	ProficiencyLevel string
	Extra            map[string]any
	Original         map[string]any
}

// Record is a loosely-typed entry whose schema belongs to the parser
// (certifications, projects, languages). It is passed through unchanged.
type Record map[string]any

var (
	experienceFields = []string{"company_name", "job_title", "location", "start_date", "end_date", "is_current", "description"}
	educationFields  = []string{"institution_name", "degree_type", "field_of_study", "start_date", "end_date", "gpa", "description"}
	skillFields      = []string{"skill_name", "skill_category", "proficiency_level"}
)

// NewExperience returns the default work history entry.
func NewExperience() Experience { return Experience{} }

// NewEducation returns the default education entry.
func NewEducation() Education { return Education{} }

// NewSkill returns the default skill entry.
func NewSkill() Skill { return Skill{} }

// NewRecord returns the default loose entry.
func NewRecord() Record { return Record{} }

// ExperienceFromMap normalizes a decoded JSON object. Numbers read as their
// decimal string; missing or mistyped fields become zero values.
func ExperienceFromMap(m map[string]any) Experience {
	e := Experience{
		CompanyName: stringOf(m["company_name"]),
		JobTitle:    stringOf(m["job_title"]),
		Location:    stringOf(m["location"]),
		StartDate:   stringOf(m["start_date"]),
		EndDate:     stringOf(m["end_date"]),
		IsCurrent:   boolOf(m["is_current"]),
		Description: stringOf(m["description"]),
		Extra:       extraOf(m, experienceFields),
	}
	e.Original = originalOf(m, e.fields())
	return e
}

// EducationFromMap normalizes a decoded JSON object.
func EducationFromMap(m map[string]any) Education {
	e := Education{
		InstitutionName: stringOf(m["institution_name"]),
		DegreeType:      stringOf(m["degree_type"]),
		FieldOfStudy:    stringOf(m["field_of_study"]),
		StartDate:       stringOf(m["start_date"]),
		EndDate:         stringOf(m["end_date"]),
		GPA:             stringOf(m["gpa"]),
		Description:     stringOf(m["description"]),
		Extra:           extraOf(m, educationFields),
	}
	e.Original = originalOf(m, e.fields())
	return e
}

// SkillFromMap normalizes a decoded JSON object.
func SkillFromMap(m map[string]any) Skill {
	s := Skill{
		SkillName:        stringOf(m["skill_name"]),
		SkillCategory:    stringOf(m["skill_category"]),
		ProficiencyLevel: stringOf(m["proficiency_level"]),
		Extra:            extraOf(m, skillFields),
	}
	s.Original = originalOf(m, s.fields())
	return s
}

// RecordFrom normalizes one element of a loose section. Objects are copied;
// any other value is kept under the "value" key.
func RecordFrom(v any) Record {
	if m, ok := v.(map[string]any); ok {
		r := make(Record, len(m))
		for k, val := range m {
			r[k] = val
		}
		return r
	}
	return Record{"value": v}
}

// WithField implements sections.Entry.
func (e Experience) WithField(field string, value any) (Experience, error) {
	if field == "is_current" {
		b, err := toBool(field, value)
		if err != nil {
			return e, err
		}
		e.IsCurrent = b
		e.Original = without(e.Original, field)
		return e, nil
	}

	var target *string
	switch field {
	case "company_name":
		target = &e.CompanyName
	case "job_title":
		target = &e.JobTitle
	case "location":
		target = &e.Location
	case "start_date":
		target = &e.StartDate
	case "end_date":
		target = &e.EndDate
	case "description":
		target = &e.Description
	default:
		return e, unknownField(field)
	}
	s, err := toString(field, value)
	if err != nil {
		return e, err
	}
	*target = s
	e.Original = without(e.Original, field)
	return e, nil
}

// WithField implements sections.Entry.
func (e Education) WithField(field string, value any) (Education, error) {
	var target *string
	switch field {
	case "institution_name":
		target = &e.InstitutionName
	case "degree_type":
		target = &e.DegreeType
	case "field_of_study":
		target = &e.FieldOfStudy
	case "start_date":
		target = &e.StartDate
	case "end_date":
		target = &e.EndDate
	case "gpa":
		target = &e.GPA
	case "description":
		target = &e.Description
	default:
		return e, unknownField(field)
	}
	s, err := toString(field, value)
	if err != nil {
		return e, err
	}
	*target = s
	e.Original = without(e.Original, field)
	return e, nil
}

// WithField implements sections.Entry.
func (s Skill) WithField(field string, value any) (Skill, error) {
	var target *string
	switch field {
	case "skill_name":
		target = &s.SkillName
	case "skill_category":
		target = &s.SkillCategory
	case "proficiency_level":
		target = &s.ProficiencyLevel
	default:
		return s, unknownField(field)
	}
	str, err := toString(field, value)
	if err != nil {
		return s, err
	}
	*target = str
	s.Original = without(s.Original, field)
	return s, nil
}

// WithField implements sections.Entry. Any field name is accepted.
func (r Record) WithField(field string, value any) (Record, error) {
	if field == "" {
		return r, unknownField(field)
	}
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[field] = value
	return out, nil
}

func (e Experience) fields() map[string]any {
	return map[string]any{
		"company_name": e.CompanyName,
		"job_title":    e.JobTitle,
		"location":     e.Location,
		"start_date":   e.StartDate,
		"end_date":     e.EndDate,
		"is_current":   e.IsCurrent,
		"description":  e.Description,
	}
}

// MarshalJSON writes the snake_case wire form, including Extra and Original.
func (e Experience) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOf(e.fields(), e.Extra, e.Original))
}

// UnmarshalJSON reads the wire form leniently.
func (e *Experience) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*e = ExperienceFromMap(m)
	return nil
}

func (e Education) fields() map[string]any {
	return map[string]any{
		"institution_name": e.InstitutionName,
		"degree_type":      e.DegreeType,
		"field_of_study":   e.FieldOfStudy,
		"start_date":       e.StartDate,
		"end_date":         e.EndDate,
		"gpa":              e.GPA,
		"description":      e.Description,
	}
}

// MarshalJSON writes the snake_case wire form, including Extra and Original.
func (e Education) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOf(e.fields(), e.Extra, e.Original))
}

// UnmarshalJSON reads the wire form leniently.
func (e *Education) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*e = EducationFromMap(m)
	return nil
}

func (s Skill) fields() map[string]any {
	return map[string]any{
		"skill_name":        s.SkillName,
		"skill_category":    s.SkillCategory,
		"proficiency_level": s.ProficiencyLevel,
	}
}

// MarshalJSON writes the snake_case wire form, including Extra and Original.
func (s Skill) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOf(s.fields(), s.Extra, s.Original))
}

// UnmarshalJSON reads the wire form leniently.
func (s *Skill) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*s = SkillFromMap(m)
	return nil
}

func decodeObject(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// wireOf merges the typed fields with Extra, then lets Original override
// the typed form of fields that were not edited.
func wireOf(fields, extra, original map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range original {
		out[k] = v
	}
	return out
}

// originalOf returns the values of m for modeled fields whose typed form
// in written differs from what was received.
func originalOf(m, written map[string]any) map[string]any {
	var original map[string]any
	for k, typed := range written {
		raw, ok := m[k]
		if !ok || reflect.DeepEqual(raw, typed) {
			continue
		}
		if original == nil {
			original = make(map[string]any)
		}
		original[k] = raw
	}
	return original
}

// without returns a copy of m lacking key, or m itself when key is absent.
func without(m map[string]any, key string) map[string]any {
	if _, ok := m[key]; !ok {
		return m
	}
	if len(m) == 1 {
		return nil
	}
	out := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func extraOf(m map[string]any, known []string) map[string]any {
	var extra map[string]any
	for k, v := range m {
		if contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// stringOf returns v when it is a string, the decimal form of a number,
// and "" otherwise.
func stringOf(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case json.Number:
		return n.String()
	default:
		return ""
	}
}

// boolOf accepts JSON booleans and the 0/1 integers some backends store.
func boolOf(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	default:
		return false
	}
}

func toString(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", &sections.FieldError{Field: field, Message: fmt.Sprintf("expected string, got %T", value)}
	}
	return s, nil
}

func toBool(field string, value any) (bool, error) {
	switch b := value.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, &sections.FieldError{Field: field, Message: "expected boolean", Cause: err}
		}
		return parsed, nil
	default:
		return false, &sections.FieldError{Field: field, Message: fmt.Sprintf("expected boolean, got %T", value)}
	}
}

func unknownField(field string) error {
	return &sections.FieldError{Field: field, Message: "unknown field"}
}
