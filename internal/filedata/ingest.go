// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package filedata

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Result is the outcome of ingesting one file.
type Result struct {
	FileName string
	Data     string
	Err      error
}

// Ingest reads r to the end and encodes it. The MIME type is the declared
// type when present, otherwise derived from the file extension, otherwise
// sniffed from the content.
func Ingest(ctx context.Context, name, declaredType string, r io.Reader) (Result, error) {
	data, err := io.ReadAll(ctxReader{ctx: ctx, r: r})
	if err != nil {
		return Result{}, fmt.Errorf("reading %q: %w", name, err)
	}
	return Result{
		FileName: name,
		Data:     Encode(detectMIME(name, declaredType, data), data),
	}, nil
}

// IngestAsync starts ingestion in its own goroutine. The returned channel
// yields exactly one Result and is then closed.
func IngestAsync(ctx context.Context, name, declaredType string, r io.Reader) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		res, err := Ingest(ctx, name, declaredType, r)
		if err != nil {
			res = Result{FileName: name, Err: err}
		}
		ch <- res
	}()
	return ch
}

// Ready wraps an already-encoded value as a completed future.
func Ready(name, data string) <-chan Result {
	ch := make(chan Result, 1)
	ch <- Result{FileName: name, Data: data}
	close(ch)
	return ch
}

// Await blocks until the ingestion future completes or ctx is done.
func Await(ctx context.Context, ch <-chan Result) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return Result{}, fmt.Errorf("ingestion finished without a result")
		}
		if res.Err != nil {
			return res, res.Err
		}
		return res, nil
	}
}

func detectMIME(name, declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if mt, _, err := mime.ParseMediaType(byExt); err == nil {
				return mt
			}
		}
	}
	if len(data) == 0 {
		return DefaultMIME
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if mt == "" {
		return DefaultMIME
	}
	return mt
}

// ctxReader stops a long read once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
