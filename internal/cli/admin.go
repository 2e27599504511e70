// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/service"
	"github.com/olegiv/meetroom-go/internal/transfer"
)

func (d *Dependencies) requireAdmin(ctx context.Context) (model.AuthState, error) {
	state, err := d.requireSession(ctx)
	if err != nil {
		return state, err
	}
	if !state.CanEdit() {
		return state, service.ErrForbidden
	}
	return state, nil
}

func NewEventsCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent audit events, newest first (administrator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireAdmin(ctx); err != nil {
				return err
			}
			events, err := deps.App.Events.List(ctx, limit)
			if err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Events(events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events")

	return cmd
}

func NewExportCmd(deps *Dependencies) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export documents and attachments as JSON (administrator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireAdmin(ctx); err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				return deps.App.Exporter.ExportToWriter(ctx, cmd.OutOrStdout())
			}
			if err := deps.App.Exporter.ExportToFile(ctx, outPath); err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Success(fmt.Sprintf("Exported to %s", outPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "destination file (stdout when empty)")

	return cmd
}

func NewImportCmd(deps *Dependencies) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace documents and attachments from an export (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.requireAdmin(ctx)
			if err != nil {
				return err
			}

			out := NewFormatter(cmd.OutOrStdout())
			result, err := deps.App.Importer.ImportFromFile(ctx, args[0], transfer.ImportOptions{DryRun: dryRun})
			if result != nil {
				for _, e := range result.Errors {
					out.Error(e.Error())
				}
			}
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("import file %s does not exist", args[0])
				}
				return err
			}

			msg := fmt.Sprintf("%d documents, %d attachments", result.Documents, result.Attachments)
			if result.DryRun {
				out.Info("Dry run: would import " + msg)
				return nil
			}
			_ = deps.App.Events.LogWarning(ctx, model.EventCategoryStorage, "Records replaced by import",
				state.User.Username, map[string]string{"client": "meetroomctl", "file": args[0]})
			out.Success("Imported " + msg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")

	return cmd
}
