package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/redis/go-redis/v9"
)

// Bus implements repo.Bus with PUBLISH and SUBSCRIBE.
type Bus struct {
	rdb redis.UniversalClient
}

// NewBus creates a Bus over the rdb pub/sub channels.
func NewBus(rdb redis.UniversalClient) *Bus {
	return &Bus{rdb: rdb}
}

// Publish sends payload to the current subscribers of channel.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("PUBLISH %q: %w", channel, err)
	}
	return nil
}

// Subscribe opens a dedicated pub/sub connection and waits for the
// server to confirm the subscription.
func (b *Bus) Subscribe(ctx context.Context, channels ...string) (repo.Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("SUBSCRIBE %v: %w", channels, err)
	}
	s := &subscription{
		ps:   ps,
		msgs: make(chan model.Message),
		done: make(chan struct{}),
	}
	go s.forward(ps.Channel())
	return s, nil
}

type subscription struct {
	ps   *redis.PubSub
	msgs chan model.Message
	done chan struct{}
	once sync.Once
}

func (s *subscription) forward(in <-chan *redis.Message) {
	defer close(s.msgs)
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.msgs <- model.Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) Messages() <-chan model.Message {
	return s.msgs
}

func (s *subscription) Close() (err error) {
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
