package document

import (
	"fmt"
	"strings"
)

// PathError is returned by SetScalar for a path that names no scalar field.
type PathError struct {
	Path []string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unknown field path %q", strings.Join(e.Path, "."))
}

// SectionError is returned when a section name does not exist.
type SectionError struct {
	Name string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("unknown section %q", e.Name)
}
