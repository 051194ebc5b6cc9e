// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/sections"
	"github.com/jonathan/resume-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of entries shown per section
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintDocument outputs the document header and a short listing of every
// non-empty section. Entries are numbered by their position.
func (p *Printer) PrintDocument(doc *types.ResumeDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Title))
	if doc.ID != nil {
		sb.WriteString(fmt.Sprintf("ID:       %d\n", *doc.ID))
	} else {
		sb.WriteString("ID:       (not saved)\n")
	}
	if doc.OriginalFilename != "" {
		sb.WriteString(fmt.Sprintf("File:     %s\n", doc.OriginalFilename))
	}
	if doc.PersonalInfo.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:     %s\n", doc.PersonalInfo.Name))
	}
	if doc.ContactInfo.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", doc.ContactInfo.Email))
	}
	sb.WriteString(fmt.Sprintf("\n%s\n", document.Summary(doc)))

	writeSection(&sb, "Work Experience", labels(doc.WorkExperience, experienceLabel))
	writeSection(&sb, "Education", labels(doc.Education, educationLabel))
	writeSection(&sb, "Skills", labels(doc.Skills, skillLabel))
	writeSection(&sb, "Certifications", labels(doc.Certifications, recordLabel))
	writeSection(&sb, "Projects", labels(doc.Projects, recordLabel))
	writeSection(&sb, "Languages", labels(doc.Languages, recordLabel))

	title := "RESUME"
	if doc.IsEphemeral() {
		title = "RESUME (unsaved)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

func writeSection(sb *strings.Builder, name string, entries []string) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", name))
	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i, entries[i]))
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(entries)-maxItemsToShow))
	}
}

func labels[T any](s sections.Section[T], label func(T) string) []string {
	out := make([]string, 0, s.Len())
	for _, v := range s.Values() {
		out = append(out, label(v))
	}
	return out
}

func experienceLabel(e types.Experience) string {
	label := joinNonEmpty(" @ ", e.JobTitle, e.CompanyName)
	if e.IsCurrent {
		label += " (current)"
	}
	return orEmpty(label)
}

func educationLabel(e types.Education) string {
	return orEmpty(joinNonEmpty(", ", e.DegreeType, e.InstitutionName))
}

func skillLabel(s types.Skill) string {
	if s.ProficiencyLevel != "" && s.SkillName != "" {
		return fmt.Sprintf("%s (%s)", s.SkillName, s.ProficiencyLevel)
	}
	return orEmpty(s.SkillName)
}

// recordLabel prefers a name-like key, then falls back to compact JSON.
func recordLabel(r types.Record) string {
	for _, key := range []string{"name", "title", "language", "value"} {
		if s, ok := r[key].(string); ok && s != "" {
			return s
		}
	}
	if len(r) == 0 {
		return orEmpty("")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "(unprintable)"
	}
	return string(data)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

// PrintEntryIDs outputs the local entry IDs of one section, one per line,
// in a form the edit commands accept.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEntryIDs(doc *types.ResumeDocument, name document.SectionName) error {
	ids, err := document.EntryIDs(doc, name)
	if err != nil {
		return err
	}
	for i, id := range ids {
		fmt.Fprintf(p.out, "%s[%d] %s\n", name, i, id)
	}
	return nil
}

// PrintResumeList outputs saved resumes, newest update first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResumeList(list []types.ResumeSummary) {
	if len(list) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "No resumes found")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	sorted := append([]types.ResumeSummary(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt > sorted[j].UpdatedAt
	})

	var sb strings.Builder
	for i, r := range sorted {
		sb.WriteString(fmt.Sprintf("#%-5d %s\n", r.ID, orEmpty(r.Title)))
		if r.OriginalFilename != "" {
			sb.WriteString(fmt.Sprintf("       from %s\n", r.OriginalFilename))
		}
		if r.UpdatedAt != "" {
			sb.WriteString(fmt.Sprintf("       updated %s\n", r.UpdatedAt))
		}
		if i < len(sorted)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("YOUR RESUMES (%d)", len(list)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUser outputs the signed-in account.
func (p *Printer) PrintUser(user *types.User) {
	if user == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User:     %s\n", user.DisplayName()))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", user.Email))
	if user.LastLogin != "" {
		sb.WriteString(fmt.Sprintf("Last login: %s\n", user.LastLogin))
	}

	p.printBox("SIGNED IN", strings.TrimSuffix(sb.String(), "\n"))
}
