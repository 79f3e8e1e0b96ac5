package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/obrador-api/internal/application/replenishment"
)

var _ replenishment.EventPublisher = (*RedisPublisher)(nil)

// NewRedisClient abre el cliente desde una URL redis:// y verifica la conexión.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: URL inválida: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// RedisPublisher publica eventos JSON en un canal pub/sub (p. ej. pantallas de tienda y reparto).
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher construye el publicador sobre un cliente ya abierto.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// PublishStateChanged publica el evento en el canal configurado.
func (p *RedisPublisher) PublishStateChanged(ctx context.Context, evt replenishment.StateChangedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis: marshal evento: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", p.channel, err)
	}
	return nil
}
