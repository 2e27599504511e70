// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegiv/meetroom-go/internal/model"
)

func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as administrator or guest",
		Long:  "Sign in. The administrator credentials grant editing; any other input signs in as the read-only guest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := deps.gate().Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("saving session: %w", err)
			}

			msg := "Signed in as guest"
			if state.CanEdit() {
				msg = "Signed in as administrator"
			}
			_ = deps.App.Events.LogAuthEvent(ctx, model.EventLevelInfo, msg, state.User.Username,
				map[string]string{"client": "meetroomctl"})

			NewFormatter(cmd.OutOrStdout()).Session(state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")

	return cmd
}

func NewLogoutCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor := deps.session(ctx).Actor()
			if err := deps.gate().Logout(ctx); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			if actor != nil {
				_ = deps.App.Events.LogAuthEvent(ctx, model.EventLevelInfo, "Signed out", actor.Username, nil)
			}
			NewFormatter(cmd.OutOrStdout()).Success("Signed out")
			return nil
		},
	}
}

func NewWhoamiCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			NewFormatter(cmd.OutOrStdout()).Session(deps.session(cmd.Context()))
			return nil
		},
	}
}
