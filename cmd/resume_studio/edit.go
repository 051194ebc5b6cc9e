package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/types"
)

func (a *app) loadDraft() (*types.ResumeDocument, error) {
	doc, err := document.ReadDraft(a.draftPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no draft at %s, run 'resume_studio upload' first", a.draftPath)
	}
	return doc, err
}

func newShowCmd(a *app) *cobra.Command {
	var idsOf string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the local draft",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			if idsOf == "" {
				a.printer.PrintDocument(doc)
				return nil
			}
			name, err := document.ParseSectionName(idsOf)
			if err != nil {
				return err
			}
			return a.printer.PrintEntryIDs(doc, name)
		},
	}

	cmd.Flags().StringVar(&idsOf, "ids", "", "Print the entry IDs of one section instead")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a scalar field such as title or personal_info.name",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			doc, err = document.SetScalar(doc, document.ParsePath(args[0]), args[1])
			if err != nil {
				return err
			}
			return document.WriteDraft(a.draftPath, doc)
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <section>",
		Short: "Append an empty entry to a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name, err := document.ParseSectionName(args[0])
			if err != nil {
				return err
			}
			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			doc, id, err := document.AppendEntry(doc, name)
			if err != nil {
				return err
			}
			if err := document.WriteDraft(a.draftPath, doc); err != nil {
				return err
			}
			a.printf("%s\n", id)
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "update <section> <entry> <field> <value>",
		Short: "Change one field of one entry",
		Long: `Change one field of one entry. <entry> is a position (0, 1, ...) or an entry ID
as printed by 'show --ids'. With --json the value is decoded as JSON first.`,
		Args: cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			name, err := document.ParseSectionName(args[0])
			if err != nil {
				return err
			}

			var value any = args[3]
			if asJSON {
				if err := json.Unmarshal([]byte(args[3]), &value); err != nil {
					return fmt.Errorf("invalid JSON value: %w", err)
				}
			}

			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			if index, ok := position(args[1]); ok {
				doc, err = document.UpdateEntryAt(doc, name, index, args[2], value)
			} else {
				doc, err = document.UpdateEntry(doc, name, args[1], args[2], value)
			}
			if err != nil {
				return err
			}
			return document.WriteDraft(a.draftPath, doc)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Decode the value as JSON")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <section> <entry>",
		Short: "Remove one entry from a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			name, err := document.ParseSectionName(args[0])
			if err != nil {
				return err
			}
			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			if index, ok := position(args[1]); ok {
				doc, err = document.RemoveEntryAt(doc, name, index)
			} else {
				doc, err = document.RemoveEntry(doc, name, args[1])
			}
			if err != nil {
				return err
			}
			return document.WriteDraft(a.draftPath, doc)
		},
	}
}

// position reports whether ref is an entry position rather than an ID.
func position(ref string) (int, bool) {
	i, err := strconv.Atoi(ref)
	return i, err == nil
}
