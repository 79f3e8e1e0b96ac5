package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/obrador-api/internal/application/replenishment"
)

var _ replenishment.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter lo que el publicador necesita de un writer de Kafka (instrumentado o no).
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// NewKafkaWriter crea un writer hacia topic con trazas: el contexto de la traza viaja en los headers.
func NewKafkaWriter(brokers []string, topic, clientID string, tp trace.TracerProvider) (*otelkafka.Writer, error) {
	base := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: writer instrumentado: %w", err)
	}
	return w, nil
}

// KafkaPublisher publica eventos JSON con clave = id del pedido (orden por pedido dentro de la partición).
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher construye el publicador.
func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishStateChanged escribe un mensaje por evento.
func (p *KafkaPublisher) PublishStateChanged(ctx context.Context, evt replenishment.StateChangedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafka: marshal evento: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.RequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventTypeStateChanged)},
			{Key: "store-id", Value: []byte(evt.StoreID)},
		},
		Time: evt.OccurredAt,
	}
	if err := p.writer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write: %w", err)
	}
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
