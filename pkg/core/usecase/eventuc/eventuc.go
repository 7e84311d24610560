// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package eventuc contains the events UseCase. It publishes the domain
// events on the pub/sub bus and relays them to push stream clients.
//
// Delivery is best-effort and at-most-once. A failed publication is
// logged and never fails the operation which produced the event, and
// a client which is disconnected misses the events which are published
// in the meantime.
package eventuc

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// Sink receives the frames of a push stream.
type Sink interface {
	// Retry asks the client to wait for d before reconnecting.
	// It is also sent periodically in order to keep idle
	// connections alive.
	Retry(d time.Duration) error

	// Event writes env as a named event.
	Event(env model.Envelope) error
}

// UseCase represents an events use case.
type UseCase struct {
	bus repo.Bus

	retryHint time.Duration
	keepalive time.Duration
}

// New instantiates an events use case. The retry hint defaults to
// 3 seconds and the keepalive interval defaults to 15 seconds.
func New(b repo.Bus, opts ...Option) (*UseCase, error) {
	uc := &UseCase{bus: b}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.retryHint == 0 {
		uc.retryHint = 3 * time.Second
	}
	if uc.keepalive == 0 {
		uc.keepalive = 15 * time.Second
	}
	return uc, nil
}

// Publish serializes e as JSON and publishes it on its channel.
// Failures are logged and otherwise ignored.
func (uc *UseCase) Publish(ctx context.Context, e model.Event) {
	ch := e.Channel()
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error(ctx, "failed to serialize event",
			slog.String("channel", ch), log.Err("error", err))
		return
	}
	if err = uc.bus.Publish(ctx, ch, payload); err != nil {
		log.Warn(ctx, "failed to publish event",
			slog.String("channel", ch), log.Err("error", err))
		return
	}
	log.Debug(ctx, "published event", slog.String("channel", ch))
}

// Stream subscribes to all event channels and relays their messages
// to sink until ctx is done or sink fails. The subscription belongs to
// this stream and is closed before Stream returns.
//
// The first frame is a retry hint which is written after the
// subscription is confirmed, so its receipt shows that all events
// published afterwards will be relayed. Malformed messages are dropped
// without terminating the stream.
func (uc *UseCase) Stream(ctx context.Context, sink Sink) error {
	sub, err := uc.bus.Subscribe(ctx, model.EventChannels...)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.Warn(ctx, "failed to close subscription", log.Err("error", err))
		}
	}()
	if err = sink.Retry(uc.retryHint); err != nil {
		return err
	}
	ticker := time.NewTicker(uc.keepalive)
	defer ticker.Stop()
	msgs := sub.Messages()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err = sink.Retry(uc.retryHint); err != nil {
				return err
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			env, ok := Frame(ctx, msg)
			if !ok {
				continue
			}
			if err = sink.Event(env); err != nil {
				return err
			}
		}
	}
}

// Frame converts a bus message to an Envelope which can be written on
// a push stream. Messages of unknown channels or with payloads which
// are not valid JSON documents are logged and rejected.
func Frame(ctx context.Context, msg model.Message) (model.Envelope, bool) {
	if !slices.Contains(model.EventChannels, msg.Channel) {
		log.Warn(ctx, "dropping message of unknown channel",
			slog.String("channel", msg.Channel))
		return model.Envelope{}, false
	}
	if !json.Valid(msg.Payload) {
		log.Warn(ctx, "dropping malformed event payload",
			slog.String("channel", msg.Channel),
			slog.Int("size", len(msg.Payload)))
		return model.Envelope{}, false
	}
	return model.Envelope{Name: msg.Channel, Data: msg.Payload}, true
}
