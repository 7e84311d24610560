// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package eventsrs realizes the server-sent events gateway. Each
// connected client receives the booking-confirmed and partner-gps
// events which are published while it stays connected.
package eventsrs

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/authmw"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
)

type resource struct {
	events *eventuc.UseCase
}

// Register instantiates a resource adapting the events use case with
// the GET /api/rdweb/v1/events push stream. The r group must
// authenticate its callers.
func Register(r *gin.RouterGroup, e *eventuc.UseCase) {
	rs := &resource{events: e}
	r.GET("events", rs.Stream)
}

func (rs *resource) Stream(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	ctx := log.With(
		c.Request.Context(),
		slog.String("remote", c.ClientIP()),
		slog.String("sub", authmw.Identity(c).Subject),
	)
	s := &sink{w: c.Writer}
	err := rs.events.Stream(ctx, s)
	switch {
	case err == nil:
		log.Debug(ctx, "event stream is closed by client")
	case !s.started:
		serdser.SerErr(c, cerr.Unavailable(err))
	default:
		log.Info(ctx, "event stream is closed", log.Err("reason", err))
	}
}

// sink writes frames in the text/event-stream format and flushes
// each one of them, so clients observe them immediately.
type sink struct {
	w       gin.ResponseWriter
	started bool
}

func (s *sink) Retry(d time.Duration) error {
	s.begin()
	if _, err := fmt.Fprintf(s.w, "retry: %d\n\n", d.Milliseconds()); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sink) Event(env model.Envelope) error {
	s.begin()
	err := sse.Encode(s.w, sse.Event{
		Event: env.Name,
		Data:  string(env.Data),
	})
	if err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sink) begin() {
	if !s.started {
		s.started = true
		s.w.WriteHeader(http.StatusOK)
	}
}
