// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package amqp implements the repo.Bus interface over a RabbitMQ topic
// exchange. It is an alternative to the Redis pub/sub bus for the
// deployments which already operate a broker.
//
// Each subscription declares its own exclusive and auto-deleted queue
// which is bound to the requested channels (as routing keys), so every
// subscriber receives its own copy of each message and nothing is kept
// for the disconnected subscribers. Messages are published as transient
// ones, matching the at-most-once delivery of the events.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Bus publishes messages to an exchange and consumes them by temporary
// queues.
type Bus struct {
	conn     *amqp.Connection
	exchange string

	mu  sync.Mutex // guards pub, since channels are not thread-safe
	pub *amqp.Channel
}

var _ repo.Bus = (*Bus)(nil)

// Dial connects to the url broker and declares the exchange topic
// exchange (if it does not exist).
func Dial(url, exchange string) (*Bus, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dialing amqp broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declaring %q exchange: %w", exchange, err)
	}
	return &Bus{conn: conn, exchange: exchange, pub: ch}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.pub.PublishWithContext(
		ctx, b.exchange, channel, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing to %q: %w", channel, err)
	}
	return nil
}

// Subscribe declares a server-named queue, binds it to channels, and
// starts consuming it on a dedicated AMQP channel. The bindings are
// confirmed by the broker before Subscribe returns.
func (b *Bus) Subscribe(ctx context.Context, channels ...string) (repo.Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declaring queue: %w", err)
	}
	for _, c := range channels {
		if err = ch.QueueBind(q.Name, c, b.exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("binding %q: %w", c, err)
		}
	}
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	deliveries, err := ch.ConsumeWithContext(
		cctx, q.Name, "", true, true, false, false, nil,
	)
	if err != nil {
		cancel()
		_ = ch.Close()
		return nil, fmt.Errorf("consuming %q: %w", q.Name, err)
	}
	s := &subscription{
		ch:     ch,
		cancel: cancel,
		msgs:   make(chan model.Message),
		done:   make(chan struct{}),
	}
	go s.forward(deliveries)
	return s, nil
}

// Close closes the publishing channel and the connection. Open
// subscriptions are terminated too.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.pub.Close()
	return b.conn.Close()
}

type subscription struct {
	ch     *amqp.Channel
	cancel context.CancelFunc
	msgs   chan model.Message
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) forward(in <-chan amqp.Delivery) {
	defer close(s.msgs)
	for {
		select {
		case <-s.done:
			return
		case d, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.msgs <- model.Message{Channel: d.RoutingKey, Payload: d.Body}:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) Messages() <-chan model.Message {
	return s.msgs
}

// Close cancels the consumer and closes its channel, so the exclusive
// queue is deleted by the broker.
func (s *subscription) Close() (err error) {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
		err = s.ch.Close()
	})
	return err
}
