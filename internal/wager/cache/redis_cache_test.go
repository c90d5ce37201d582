package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return NewRedisCache(c, time.Minute, "wager_updates_broadcast"), mr
}

func sampleWager(t *testing.T) *domain.Wager {
	t.Helper()
	w, err := domain.New("W-1", "G-1", "S-1", "U-1")
	require.NoError(t, err)
	require.NoError(t, w.RecordCreation("tx-1", t0))
	require.NoError(t, w.Bet("tx-2", t0.Add(5*time.Second), decimal.RequireFromString("20.00")))
	return w
}

func TestSetAndGetCurrent(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	w := sampleWager(t)

	require.NoError(t, c.SetCurrent(ctx, w))
	require.True(t, mr.Exists("wager:current:W-1"))
	require.Equal(t, time.Minute, mr.TTL("wager:current:W-1"))

	got, ok, err := c.GetCurrent(ctx, "W-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, w.State().Equal(got.State()))
	require.Equal(t, "U-1", got.UserID())
}

func TestSetCurrent_StaleVersionDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	older := sampleWager(t)
	newer := sampleWager(t)
	require.NoError(t, newer.Confirm("tx-3", t0.Add(time.Minute)))
	require.EqualValues(t, 3, newer.Version())

	require.NoError(t, c.SetCurrent(ctx, newer))
	require.NoError(t, c.SetCurrent(ctx, older))

	got, ok, err := c.GetCurrent(ctx, "W-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 3, got.Version())
	require.Equal(t, domain.StatusCompleted, got.Status())
	require.True(t, got.IsCompleted())

	v, err := mr.Get("wager:version:W-1")
	require.NoError(t, err)
	require.Equal(t, "3", v)
}

func TestSetCurrent_NewerVersionOverwrites(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	w := sampleWager(t)
	require.NoError(t, c.SetCurrent(ctx, w))
	require.NoError(t, w.Win("tx-3", t0.Add(10*time.Second), decimal.RequireFromString("5")))
	require.NoError(t, c.SetCurrent(ctx, w))

	got, ok, err := c.GetCurrent(ctx, "W-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 3, got.Version())
	require.Equal(t, "5", got.TotalWin().String())
}

func TestSetCurrent_StaleAfterInvalidateIsIgnored(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	older := sampleWager(t)
	newer := sampleWager(t)
	require.NoError(t, newer.Cancel("tx-3", t0.Add(time.Minute)))

	require.NoError(t, c.SetCurrent(ctx, newer))
	require.NoError(t, c.Invalidate(ctx, "W-1"))
	require.NoError(t, c.SetCurrent(ctx, older))
	require.False(t, mr.Exists("wager:current:W-1"))
}

func TestGetCurrent_Miss(t *testing.T) {
	c, _ := newCache(t)
	got, ok, err := c.GetCurrent(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestGetCurrent_Expired(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	require.NoError(t, c.SetCurrent(ctx, sampleWager(t)))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.GetCurrent(ctx, "W-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetCurrent_TamperedSnapshot(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	require.NoError(t, c.SetCurrent(ctx, sampleWager(t)))

	raw, err := mr.Get("wager:current:W-1")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	m["total_bet"] = "999"
	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, mr.Set("wager:current:W-1", string(b)))

	_, _, err = c.GetCurrent(ctx, "W-1")
	require.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	require.NoError(t, c.SetCurrent(ctx, sampleWager(t)))
	require.NoError(t, c.Invalidate(ctx, "W-1"))
	require.False(t, mr.Exists("wager:current:W-1"))
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	sub := c.Client.Subscribe(ctx, c.Channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, sampleWager(t)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var upd Update
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &upd))
	require.Equal(t, "W-1", upd.WagerID)
	require.EqualValues(t, 2, upd.Version)
	require.Equal(t, domain.StatusOpen, upd.Status)
	require.False(t, upd.Completed)
	require.Equal(t, "20", upd.Payload.TotalBet.String())
}
