package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestNewWriter(t *testing.T) {
	w := NewWriter("a:9092,b:9092", "wager_events")
	defer w.Close()

	require.Equal(t, "wager_events", w.Topic)
	require.IsType(t, &kafka.Hash{}, w.Balancer)
	require.True(t, w.AllowAutoTopicCreation)
	require.Contains(t, w.Addr.String(), "a:9092")
}
