package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/radieske/wager-ledger/internal/wager/domain"
	"github.com/radieske/wager-ledger/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func wagerWithBet(t *testing.T) *domain.Wager {
	t.Helper()
	w, err := domain.New("W-1", "G-1", "S-1", "U-1")
	require.NoError(t, err)
	require.NoError(t, w.RecordCreation("tx-1", t0))
	require.NoError(t, w.Bet("tx-2", t0.Add(5*time.Second), decimal.RequireFromString("10.25")))
	return w
}

func TestPublishEvents_OneMessagePerEvent(t *testing.T) {
	w := wagerWithBet(t)
	wr := &fakeWriter{}
	p := NewKafkaPublisher(wr, nil, "wager_events")

	require.NoError(t, p.PublishEvents(context.Background(), w, 0, w.Events()))
	require.Len(t, wr.msgs, 2)

	var created, bet events.WagerEvent
	require.NoError(t, json.Unmarshal(wr.msgs[0].Value, &created))
	require.NoError(t, json.Unmarshal(wr.msgs[1].Value, &bet))

	require.Equal(t, "W-1", string(wr.msgs[0].Key))
	require.EqualValues(t, 1, created.Version)
	require.Equal(t, "Created", created.Type)
	require.Nil(t, created.Amount)

	require.EqualValues(t, 2, bet.Version)
	require.Equal(t, "Bet", bet.Type)
	require.NotNil(t, bet.Amount)
	require.Equal(t, "10.25", *bet.Amount)
	require.Equal(t, "U-1", bet.UserID)
	require.False(t, bet.Completed)
}

func TestPublishEvents_VersionOffset(t *testing.T) {
	w := wagerWithBet(t)
	require.NoError(t, w.Confirm("tx-3", t0.Add(time.Minute)))
	wr := &fakeWriter{}
	p := NewKafkaPublisher(wr, nil, "wager_events")

	require.NoError(t, p.PublishEvents(context.Background(), w, 2, w.EventsSince(2)))
	require.Len(t, wr.msgs, 1)

	var confirmed events.WagerEvent
	require.NoError(t, json.Unmarshal(wr.msgs[0].Value, &confirmed))
	require.EqualValues(t, 3, confirmed.Version)
	require.True(t, confirmed.Completed)
}

func TestPublishEvents_FailureGoesToDLQ(t *testing.T) {
	w := wagerWithBet(t)
	main := &fakeWriter{err: errors.New("broker down")}
	dlq := &fakeWriter{}
	p := NewKafkaPublisher(main, dlq, "wager_events")

	err := p.PublishEvents(context.Background(), w, 0, w.Events())
	require.ErrorContains(t, err, "broker down")
	require.Len(t, dlq.msgs, 2)
}

func TestPublishEvents_Empty(t *testing.T) {
	wr := &fakeWriter{}
	p := NewKafkaPublisher(wr, nil, "wager_events")
	require.NoError(t, p.PublishEvents(context.Background(), wagerWithBet(t), 2, nil))
	require.Empty(t, wr.msgs)
}
