package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

// RedisCache guarda o snapshot atual de cada aposta e faz broadcast das mudanças
// Client: cliente Redis
// TTL: expiração dos snapshots
// Channel: canal Pub/Sub lido pelo hub WebSocket
type RedisCache struct {
	Client  *redis.Client
	TTL     time.Duration
	Channel string
}

// Update é o payload publicado no canal a cada escrita confirmada
type Update struct {
	WagerID   string          `json:"wagerId"`
	Version   int64           `json:"version"`
	Status    domain.Status   `json:"status"`
	Completed bool            `json:"completed"`
	Payload   domain.Document `json:"payload"`
}

func NewRedisCache(c *redis.Client, ttl time.Duration, channel string) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl, Channel: channel}
}

// key gera a chave do snapshot atual de uma aposta
func key(wagerID string) string { return "wager:current:" + wagerID }

// versionKey guarda a maior versão já gravada; sobrevive ao Invalidate
func versionKey(wagerID string) string { return "wager:version:" + wagerID }

// setIfNewer grava snapshot e versão só quando a versão recebida não é menor que a atual.
// KEYS[1]=snapshot KEYS[2]=versão ARGV[1]=documento ARGV[2]=versão ARGV[3]=ttl em ms
var setIfNewer = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[2]) or '0')
local v = tonumber(ARGV[2])
if v < cur then
  return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// SetCurrent grava o documento da aposta com TTL.
// Escritas atrasadas com versão menor que a do cache são descartadas.
func (r *RedisCache) SetCurrent(ctx context.Context, w *domain.Wager) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	keys := []string{key(w.ID()), versionKey(w.ID())}
	return setIfNewer.Run(ctx, r.Client, keys, b, w.Version(), r.TTL.Milliseconds()).Err()
}

// GetCurrent devolve (nil, false, nil) quando não há snapshot em cache.
// O documento é refeito pelo fold; snapshot adulterado volta como erro.
func (r *RedisCache) GetCurrent(ctx context.Context, wagerID string) (*domain.Wager, bool, error) {
	b, err := r.Client.Get(ctx, key(wagerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var w domain.Wager
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, false, fmt.Errorf("cached %s: %w", wagerID, err)
	}
	return &w, true, nil
}

// Invalidate remove o snapshot; usado quando a escrita perde a corrida.
// A versão fica, para que um leitor atrasado não regrave um estado antigo.
func (r *RedisCache) Invalidate(ctx context.Context, wagerID string) error {
	return r.Client.Del(ctx, key(wagerID)).Err()
}

// Publish envia o snapshot para o canal de broadcast
func (r *RedisCache) Publish(ctx context.Context, w *domain.Wager) error {
	b, err := json.Marshal(Update{
		WagerID:   w.ID(),
		Version:   w.Version(),
		Status:    w.Status(),
		Completed: w.IsCompleted(),
		Payload:   w.Document(),
	})
	if err != nil {
		return err
	}
	return r.Client.Publish(ctx, r.Channel, b).Err()
}
