// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cli implements meetroomctl, a single-session client that works
// directly on the storage substrate. The signed-in state is kept in the
// substrate under the same key the browser board uses.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olegiv/meetroom-go/internal/app"
	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/version"
)

// Dependencies are shared by every command.
type Dependencies struct {
	App     *app.App
	Version version.Info
}

func (d *Dependencies) gate() *auth.Gate {
	return d.App.Gate(auth.NewKVSessions(d.App.Backend.KV))
}

// session returns the persisted auth state. A session that cannot be read
// counts as signed out.
func (d *Dependencies) session(ctx context.Context) model.AuthState {
	state, err := d.gate().Current(ctx)
	if err != nil {
		return model.AuthState{}
	}
	return state
}

// NewRootCmd builds the command tree.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetroomctl",
		Short:         "Manage the meeting-room document board",
		Long:          "meetroomctl lists, edits and summarizes the documents presented in a meeting, using the same storage as the meetroom server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = deps.Version.Version
	rootCmd.SetVersionTemplate(deps.Version.String() + "\n")

	rootCmd.AddCommand(NewLoginCmd(deps))
	rootCmd.AddCommand(NewLogoutCmd(deps))
	rootCmd.AddCommand(NewWhoamiCmd(deps))

	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewAddCmd(deps))
	rootCmd.AddCommand(NewEditCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewDownloadCmd(deps))
	rootCmd.AddCommand(NewSummarizeCmd(deps))

	rootCmd.AddCommand(NewAttachmentsCmd(deps))
	rootCmd.AddCommand(NewAttachCmd(deps))
	rootCmd.AddCommand(NewDetachCmd(deps))

	rootCmd.AddCommand(NewEventsCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewImportCmd(deps))

	return rootCmd
}
