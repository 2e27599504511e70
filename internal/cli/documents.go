// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
)

// errSignedOut is returned by read commands when nobody is signed in.
var errSignedOut = errors.New("not signed in: run meetroomctl login")

func (d *Dependencies) requireSession(ctx context.Context) (model.AuthState, error) {
	state := d.session(ctx)
	if !state.IsAuthenticated {
		return state, errSignedOut
	}
	return state, nil
}

// openFile starts ingesting path. The returned close func must run after
// the pending result has been consumed.
func openFile(ctx context.Context, path string) (<-chan filedata.Result, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return filedata.IngestAsync(ctx, filepath.Base(path), "", f), func() { _ = f.Close() }, nil
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents in presentation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireSession(ctx); err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Documents(deps.App.Documents.List(ctx))
			return nil
		},
	}
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one document with its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireSession(ctx); err != nil {
				return err
			}
			doc, err := deps.App.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Document(doc)
			return nil
		},
	}
}

type draftFlags struct {
	order     int
	content   string
	presenter string
	summary   string
	file      string
	summarize bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.order, "order", 0, "presentation order")
	cmd.Flags().StringVar(&f.content, "content", "", "agenda item description")
	cmd.Flags().StringVar(&f.presenter, "presenter", "", "presenter name")
	cmd.Flags().StringVar(&f.summary, "summary", "", "summary text (markdown)")
	cmd.Flags().StringVar(&f.file, "file", "", "path of the file to attach")
	cmd.Flags().BoolVar(&f.summarize, "summarize", false, "generate a summary when none is set")
}

// save builds a draft from base, overridden by the flags the user set, and
// commits it.
func (f *draftFlags) save(cmd *cobra.Command, deps *Dependencies, targetID string, base model.Draft) error {
	ctx := cmd.Context()
	state, err := deps.requireSession(ctx)
	if err != nil {
		return err
	}

	draft := base
	flags := cmd.Flags()
	if flags.Changed("order") {
		draft.Order = f.order
	}
	if flags.Changed("content") {
		draft.Content = f.content
	}
	if flags.Changed("presenter") {
		draft.Presenter = f.presenter
	}
	if flags.Changed("summary") {
		draft.AISummary = f.summary
	}
	draft.Summarize = f.summarize

	if f.file != "" {
		pending, closeFile, err := openFile(ctx, f.file)
		if err != nil {
			return fmt.Errorf("opening file: %w", err)
		}
		defer closeFile()
		draft.File = pending
	}

	doc, err := deps.App.Documents.Save(ctx, state.Actor(), targetID, draft)
	if err != nil {
		return err
	}

	out := NewFormatter(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("Saved document %s", doc.ID))
	if draft.Summarize && draft.AISummary == "" && doc.AISummary != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", doc.AISummary)
	}
	return nil
}

func NewAddCmd(deps *Dependencies) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a document (administrator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.save(cmd, deps, "", model.Draft{})
		},
	}
	f.register(cmd)

	return cmd
}

func NewEditCmd(deps *Dependencies) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a document (administrator)",
		Long:  "Edit a document. Fields without a flag keep their current value; the file is replaced only when --file is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.requireSession(cmd.Context()); err != nil {
				return err
			}
			existing, err := deps.App.Documents.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.save(cmd, deps, existing.ID, model.Draft{
				Order:     existing.Order,
				Content:   existing.Content,
				Presenter: existing.Presenter,
				AISummary: existing.AISummary,
			})
		},
	}
	f.register(cmd)

	return cmd
}

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.requireSession(ctx)
			if err != nil {
				return err
			}
			if err := deps.App.Documents.Delete(ctx, state.Actor(), args[0]); err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Success(fmt.Sprintf("Deleted document %s", args[0]))
			return nil
		},
	}
}

func NewDownloadCmd(deps *Dependencies) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a document's file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireSession(ctx); err != nil {
				return err
			}
			doc, err := deps.App.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !doc.HasFile() {
				return fmt.Errorf("document %s has no file", doc.ID)
			}
			return writeFile(cmd, doc.FileName, doc.FileData, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "destination path (defaults to the stored file name)")

	return cmd
}

func writeFile(cmd *cobra.Command, name, data, outPath string) error {
	_, raw, err := filedata.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	if outPath == "" {
		outPath = filepath.Base(name)
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	NewFormatter(cmd.OutOrStdout()).Success(fmt.Sprintf("Saved %s (%d bytes)", outPath, len(raw)))
	return nil
}

func NewSummarizeCmd(deps *Dependencies) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "summarize <id>",
		Short: "Generate a summary of a document's content (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.requireSession(ctx)
			if err != nil {
				return err
			}
			doc, err := deps.App.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			summary, err := deps.App.Documents.Summarize(ctx, state.Actor(), doc.Content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)

			if !save {
				return nil
			}
			_, err = deps.App.Documents.Save(ctx, state.Actor(), doc.ID, model.Draft{
				Order:     doc.Order,
				Content:   doc.Content,
				Presenter: doc.Presenter,
				AISummary: summary,
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the summary on the document")

	return cmd
}
