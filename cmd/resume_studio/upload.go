package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/upload"
)

func newUploadCmd(a *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Parse a resume file and start a draft from it",
		Long: `Upload a PDF, DOCX, DOC or TXT resume for parsing. The parsed result is saved
provisionally on the server and written to the local draft for editing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			if _, err := a.requireSession(ctx); err != nil {
				return err
			}

			var mu sync.Mutex
			last := -1
			pipeline := upload.New(a.client, a.gate, upload.Options{
				ProgressInterval: a.cfg.ProgressInterval(),
				OnProgress: func(p upload.Progress) {
					mu.Lock()
					defer mu.Unlock()
					if p.Percent == last {
						return
					}
					last = p.Percent
					_, _ = fmt.Fprintf(a.errOut, "[%3d%%] %s\n", p.Percent, p.Phase.Label())
				},
				Logger: a.logger.Logger,
			})

			result, err := pipeline.Run(ctx, upload.Request{
				File:  &upload.File{Name: filepath.Base(path), Content: f},
				Title: title,
			})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			doc := result.Handoff.Document()
			if err := document.WriteDraft(a.draftPath, doc); err != nil {
				return err
			}

			if result.Handoff.Message != "" {
				a.printf("%s\n", result.Handoff.Message)
			}
			a.printf("%s\n", document.Summary(doc))
			a.printf("%s\n", autosaveLine(result.Autosave))
			a.printf("Draft written to %s\n", a.draftPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Resume title (defaults to the file name without extension)")
	return cmd
}

func autosaveLine(r upload.AutosaveResult) string {
	if r.Failure != nil {
		return fmt.Sprintf("Provisional save failed: %v", r.Failure.Cause)
	}
	if id := r.SavedID(); id != nil {
		return fmt.Sprintf("Provisional copy saved as #%d", *id)
	}
	return "Provisional copy saved"
}
