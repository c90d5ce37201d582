package kafka

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

// NewWriter aceita brokers separados por vírgula ("a:9092,b:9092")
func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma chave (wager id) -> mesma partição, preserva a ordem
		AllowAutoTopicCreation: true,
	}
}
