package document

import (
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

// SetScalar returns a copy of doc with the scalar at path set to value.
// Path segments match snake_case and camelCase names alike
// ("personal_info"/"personalInfo"). The previous snapshot is not modified.
func SetScalar(doc *types.ResumeDocument, path []string, value string) (*types.ResumeDocument, error) {
	cp := *doc
	target := scalarField(&cp, path)
	if target == nil {
		return doc, &PathError{Path: path}
	}
	*target = value
	return &cp, nil
}

// SetTitle is SetScalar for the document title.
func SetTitle(doc *types.ResumeDocument, value string) *types.ResumeDocument {
	updated, _ := SetScalar(doc, []string{"title"}, value)
	return updated
}

func scalarField(doc *types.ResumeDocument, path []string) *string {
	switch len(path) {
	case 1:
		switch normalizeKey(path[0]) {
		case "title":
			return &doc.Title
		case "originalfilename":
			return &doc.OriginalFilename
		case "rawtext":
			return &doc.RawText
		}
	case 2:
		switch normalizeKey(path[0]) {
		case "personalinfo":
			return personalField(&doc.PersonalInfo, normalizeKey(path[1]))
		case "contactinfo":
			return contactField(&doc.ContactInfo, normalizeKey(path[1]))
		}
	}
	return nil
}

func personalField(p *types.PersonalInfo, key string) *string {
	switch key {
	case "name":
		return &p.Name
	case "title":
		return &p.Title
	case "summary":
		return &p.Summary
	case "firstname":
		return &p.FirstName
	case "lastname":
		return &p.LastName
	}
	return nil
}

func contactField(c *types.ContactInfo, key string) *string {
	switch key {
	case "email":
		return &c.Email
	case "phone":
		return &c.Phone
	case "location":
		return &c.Location
	case "linkedin":
		return &c.LinkedIn
	case "github":
		return &c.GitHub
	case "website":
		return &c.Website
	}
	return nil
}

// normalizeKey folds case and drops separators so that "first_name",
// "firstName" and "first-name" compare equal.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// ParsePath splits a dotted path such as "contact_info.email".
func ParsePath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}
