package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-studio/internal/document"
	"github.com/jonathan/resume-studio/internal/library"
)

// maxParallelDeletes bounds concurrent delete requests.
const maxParallelDeletes = 4

func newListCmd(a *app) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved resumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := a.restore(ctx); err != nil {
				return err
			}

			lib := library.New(a.client, a.gate, a.logger.Logger)
			if _, err := lib.Refresh(ctx); err != nil {
				return a.explain(err)
			}
			a.printer.PrintResumeList(lib.Filter(search))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show resumes whose title contains this text")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Load a saved resume into the local draft for editing",
		Long: `Fetch a saved resume with all of its sections and replace the local draft
with it. A later save updates that resume instead of creating a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseResumeID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}
			lib := library.New(a.client, a.gate, a.logger.Logger)

			doc, err := lib.Open(ctx, id)
			if err != nil {
				return a.explain(err)
			}
			if err := document.WriteDraft(a.draftPath, doc); err != nil {
				return err
			}

			a.printf("Opened resume #%d %q\n", *doc.ID, doc.Title)
			a.printf("Draft written to %s\n", a.draftPath)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved resumes by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseResumeID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			ctx := cmd.Context()
			if _, err := a.requireSession(ctx); err != nil {
				return err
			}
			lib := library.New(a.client, a.gate, a.logger.Logger)

			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(maxParallelDeletes)
			for _, id := range ids {
				g.Go(func() error {
					if err := lib.Delete(gCtx, id); err != nil {
						return err
					}
					a.logger.Debug().Int64("id", id).Msg("deleted")
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return a.explain(err)
			}

			if len(ids) == 1 {
				a.printf("Deleted resume #%d\n", ids[0])
			} else {
				a.printf("Deleted %d resumes\n", len(ids))
			}
			return nil
		},
	}
}

// explain replaces a library failure with its display message. The full
// cause is logged at debug level.
func (a *app) explain(err error) error {
	var libErr *library.Error
	if !errors.As(err, &libErr) {
		return err
	}
	a.logger.Debug().Err(libErr.Cause).Str("op", libErr.Op).Msg("request failed")
	return errors.New(libErr.Message)
}

func parseResumeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid resume id %q", arg)
	}
	return id, nil
}
