package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/wager-ledger/internal/wager/domain"
	"github.com/radieske/wager-ledger/pkg/contracts/events"
)

// MessageWriter é o subconjunto do *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica no tópico wager_events cada evento anexado a uma aposta.
// DLQ é opcional: recebe o lote que falhou no tópico principal.
type KafkaPublisher struct {
	Writer MessageWriter
	DLQ    MessageWriter
	Topic  string
}

func NewKafkaPublisher(w MessageWriter, dlq MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, DLQ: dlq, Topic: topic}
}

// Messages monta uma mensagem por evento, com a versão de cada um no log.
// from é a versão da aposta antes dos eventos.
func Messages(w *domain.Wager, from int64, evts []domain.Event) ([]kafka.Message, error) {
	now := time.Now()
	msgs := make([]kafka.Message, 0, len(evts))
	for i, evt := range evts {
		version := from + int64(i) + 1
		payload := events.WagerEvent{
			WagerID:       w.ID(),
			GameID:        w.GameID(),
			SessionID:     w.SessionID(),
			UserID:        w.UserID(),
			Version:       version,
			Type:          string(evt.Kind()),
			TransactionID: evt.TransactionID(),
			OccurredAt:    evt.OccurredAt(),
			Completed:     evt.Kind().Terminal(),
			TsUnixMs:      now.UnixMilli(),
		}
		if evt.HasAmount() {
			amt := evt.Amount().String()
			payload.Amount = &amt
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal wager event %s v%d: %w", w.ID(), version, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(w.ID()),
			Value: b,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(evt.Kind())},
			},
		})
	}
	return msgs, nil
}

// PublishEvents escreve o lote; se falhar e houver DLQ, tenta a DLQ e devolve o erro original
func (p *KafkaPublisher) PublishEvents(ctx context.Context, w *domain.Wager, from int64, evts []domain.Event) error {
	if len(evts) == 0 {
		return nil
	}
	msgs, err := Messages(w, from, evts)
	if err != nil {
		return err
	}

	err = p.Writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return nil
	}
	err = fmt.Errorf("publish %s to %s: %w", w.ID(), p.Topic, err)
	if p.DLQ != nil {
		if dlqErr := p.DLQ.WriteMessages(ctx, msgs...); dlqErr != nil {
			return errors.Join(err, fmt.Errorf("dlq: %w", dlqErr))
		}
	}
	return err
}
