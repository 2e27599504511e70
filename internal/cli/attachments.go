// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewAttachmentsCmd(deps *Dependencies) *cobra.Command {
	var download, outPath string

	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "List shared attachments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := deps.requireSession(ctx); err != nil {
				return err
			}
			if download != "" {
				att, err := deps.App.Attachments.Get(ctx, download)
				if err != nil {
					return err
				}
				return writeFile(cmd, att.FileName, att.FileData, outPath)
			}
			NewFormatter(cmd.OutOrStdout()).Attachments(deps.App.Attachments.List(ctx))
			return nil
		},
	}
	cmd.Flags().StringVar(&download, "download", "", "save the attachment with this id instead of listing")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "destination path for --download")

	return cmd
}

func NewAttachCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <file>",
		Short: "Upload a shared attachment (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.requireSession(ctx)
			if err != nil {
				return err
			}
			pending, closeFile, err := openFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer closeFile()

			att, err := deps.App.Attachments.Add(ctx, state.Actor(), pending)
			if err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Success(fmt.Sprintf("Attached %s as %s", att.FileName, att.ID))
			return nil
		},
	}
}

func NewDetachCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <id>",
		Short: "Remove a shared attachment (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.requireSession(ctx)
			if err != nil {
				return err
			}
			if err := deps.App.Attachments.Delete(ctx, state.Actor(), args[0]); err != nil {
				return err
			}
			NewFormatter(cmd.OutOrStdout()).Success(fmt.Sprintf("Removed attachment %s", args[0]))
			return nil
		},
	}
}
