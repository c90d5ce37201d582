package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal de broadcast e repassa cada snapshot ao Hub.
// A inscrição é confirmada antes de retornar, então nenhuma mensagem publicada depois se perde.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) error {
	sub := r.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var upd WagerUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil || upd.WagerID == "" {
					log.Warn("ws subscriber dropped message", zap.String("channel", channel), zap.Error(err))
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
	return nil
}
