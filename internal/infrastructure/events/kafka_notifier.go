package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// EventTypeReorderSignal valor de la cabecera event-type.
const EventTypeReorderSignal = "inventory.reorder_signal"

// breakerFailureThreshold fallos consecutivos que abren el circuito.
const breakerFailureThreshold = 3

// KafkaNotifier publica señales de reorden en un tópico, con clave variantId para conservar
// el orden por variante. Un circuit breaker corta los envíos mientras el broker falla.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	cb       *gobreaker.CircuitBreaker
	log      *logger.Logger
}

// NewKafkaNotifier crea el productor síncrono con acks de todas las réplicas.
func NewKafkaNotifier(cfg config.KafkaConfig, log *logger.Logger) (*KafkaNotifier, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	return NewKafkaNotifierWithProducer(p, cfg.ReorderTopic, log), nil
}

// NewKafkaNotifierWithProducer usa un productor existente (tests con sarama/mocks).
func NewKafkaNotifierWithProducer(p sarama.SyncProducer, topic string, log *logger.Logger) *KafkaNotifier {
	if log == nil {
		log = logger.Nop()
	}
	l := log.Component("reorder-kafka")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-reorder",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker cambió de estado")
		},
	})
	return &KafkaNotifier{producer: p, topic: topic, cb: cb, log: l}
}

func (n *KafkaNotifier) NotifyReorder(ctx context.Context, s inventory.ReorderSignal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializar señal: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(s.VariantID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(EventTypeReorderSignal)},
		},
		Timestamp: s.OccurredAt,
	}

	res, err := n.cb.Execute(func() (interface{}, error) {
		partition, offset, err := n.producer.SendMessage(msg)
		if err != nil {
			return nil, err
		}
		return [2]int64{int64(partition), offset}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("kafka no disponible: %w", err)
		}
		return fmt.Errorf("publicar señal de reorden: %w", err)
	}
	pos := res.([2]int64)
	n.log.Debug().Str("topic", n.topic).Int64("partition", pos[0]).Int64("offset", pos[1]).
		Str("variant_id", s.VariantID).Msg("señal de reorden publicada")
	return nil
}

// Close cierra el productor.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
