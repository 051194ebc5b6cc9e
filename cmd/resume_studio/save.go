package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/saving"
)

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the local draft to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			doc, err := a.loadDraft()
			if err != nil {
				return err
			}
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}

			controller := saving.NewController(a.client, a.gate, a.logger.Logger)
			controller.OnStatus(func(s saving.Status) {
				a.logger.Debug().Stringer("status", s).Msg("save status")
			})

			result, err := controller.Save(ctx, doc)
			if err != nil {
				return fmt.Errorf("save failed: %w", err)
			}
			if err := document.WriteDraft(a.draftPath, result.Document); err != nil {
				return err
			}

			if result.Document.ID != nil {
				a.printf("Saved as #%d\n", *result.Document.ID)
			} else {
				a.printf("Saved\n")
			}
			return nil
		},
	}
}
