// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NewHandler creates a slog handler which writes to w, dropping the
// records which are less severe than the level string (one of debug,
// info, warn, or error). The format may be "text" or "json".
// Records keep their source file and line since the helpers of this
// package preserve the PC of their callers. Records which are logged
// within a sampled span carry its trace_id and span_id.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{AddSource: true, Level: lvl}
	switch format {
	case "text", "":
		return spanHandler{slog.NewTextHandler(w, opts)}, nil
	case "json":
		return spanHandler{slog.NewJSONHandler(w, opts)}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

type spanHandler struct {
	slog.Handler
}

func (h spanHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsSampled() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanHandler{h.Handler.WithAttrs(attrs)}
}

func (h spanHandler) WithGroup(name string) slog.Handler {
	return spanHandler{h.Handler.WithGroup(name)}
}
