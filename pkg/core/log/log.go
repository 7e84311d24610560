// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package log wraps the log/slog package with context-first helpers.
// Debug, Info, Warn, and Error take a context, a message, and typed
// slog.Attr values, so logging a record allocates no interface values
// for simple attributes. Attributes which describe a whole request,
// like the served booking or the remote address of a push stream, may
// be attached to a context once by With and are then added to every
// record which is logged with that context.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

type attrsKey struct{}

// With returns a copy of ctx which carries attrs in addition to the
// attributes which were attached to ctx before.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	all := make([]slog.Attr, 0, len(prev)+len(attrs))
	all = append(all, prev...)
	all = append(all, attrs...)
	return context.WithValue(ctx, attrsKey{}, all)
}

// Debug logs msg and attrs with the given context at the debug level.
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelDebug, msg, attrs)
}

// Info logs msg and attrs with the given context at the info level.
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, msg, attrs)
}

// Warn logs msg and attrs with the given context at the warning level.
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, msg, attrs)
}

// Error logs msg and attrs with the given context at the error level.
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, msg, attrs)
}

// emit must only be called by the exported level functions, so the
// caller of that function is found two frames above emit.
func emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	h := slog.Default().Handler()
	if !h.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, emit, level function
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	if ctxAttrs, ok := ctx.Value(attrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(ctxAttrs...)
	}
	r.AddAttrs(attrs...)
	_ = h.Handle(ctx, r)
}
