// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
)

// Formatter writes human-readable command output.
type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Session(state model.AuthState) {
	if !state.IsAuthenticated || state.User == nil {
		f.Info("Not signed in")
		return
	}
	role := "guest (read only)"
	if state.CanEdit() {
		role = "administrator"
	}
	fmt.Fprintf(f.w, "👤 %s (%s), %s\n", state.User.DisplayName, state.User.Username, role)
}

func (f *Formatter) Documents(docs []model.MeetingDocument) {
	if len(docs) == 0 {
		f.Info("No documents")
		return
	}
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tPRESENTER\tCONTENT\tFILE\tSUMMARY")
	for _, d := range docs {
		summary := ""
		if d.AISummary != "" {
			summary = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.Order, d.ID, d.Presenter, truncate(d.Content, 40), d.FileName, summary)
	}
	_ = tw.Flush()
}

func (f *Formatter) Document(d model.MeetingDocument) {
	fmt.Fprintf(f.w, "ID:        %s\n", d.ID)
	fmt.Fprintf(f.w, "Order:     %d\n", d.Order)
	fmt.Fprintf(f.w, "Presenter: %s\n", d.Presenter)
	fmt.Fprintf(f.w, "Content:   %s\n", d.Content)
	if d.HasFile() {
		fmt.Fprintf(f.w, "File:      %s (%s, %s)\n", d.FileName, filedata.MIMEOf(d.FileData), filedata.KindOf(d.FileData))
	}
	fmt.Fprintf(f.w, "Created:   %s\n", d.CreatedAt.Local().Format(time.DateTime))
	if d.AISummary != "" {
		fmt.Fprintf(f.w, "\n%s\n", d.AISummary)
	}
}

func (f *Formatter) Attachments(atts []model.Attachment) {
	if len(atts) == 0 {
		f.Info("No attachments")
		return
	}
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tKIND\tUPLOADED")
	for _, a := range atts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			a.ID, a.FileName, filedata.KindOf(a.FileData), a.UploadedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

func (f *Formatter) Events(events []model.Event) {
	if len(events) == 0 {
		f.Info("No events")
		return
	}
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tCATEGORY\tACTOR\tMESSAGE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Level, e.Category, e.Actor, e.Message)
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
