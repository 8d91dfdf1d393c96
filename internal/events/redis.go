package events

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// DefaultChannel es el canal Pub/Sub usado por servidor y CLI.
const DefaultChannel = "socialconnect:auth"

// RedisBus reparte mensajes entre procesos vía Redis Pub/Sub.
// Internamente mantiene un Hub local alimentado por una única suscripción Redis.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *Hub

	startOnce sync.Once
	ready     chan struct{}
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		local:   NewHub(),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	payload, err := m.Encode()
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe arranca la suscripción Redis la primera vez y espera a que esté confirmada,
// así un Publish posterior no se pierde.
func (b *RedisBus) Subscribe(h Handler) func() {
	b.startOnce.Do(b.start)
	<-b.ready
	return b.local.Subscribe(h)
}

func (b *RedisBus) start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.pubsub = b.client.Subscribe(ctx, b.channel)

	log := logger.L().With(logger.Component("events.redis"), logger.String("channel", b.channel))
	if _, err := b.pubsub.Receive(ctx); err != nil {
		log.Error("redis subscribe failed", logger.Err(err))
	}
	close(b.ready)

	go func() {
		defer close(b.done)
		for msg := range b.pubsub.Channel() {
			m, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Warn("discarding malformed auth message", logger.Err(err))
				continue
			}
			_ = b.local.Publish(ctx, m)
		}
	}()
}

// Close cierra la suscripción Redis.
func (b *RedisBus) Close() error {
	var err error
	b.startOnce.Do(func() { close(b.ready); close(b.done) })
	if b.pubsub != nil {
		err = b.pubsub.Close()
		b.cancel()
		<-b.done
	}
	return err
}
