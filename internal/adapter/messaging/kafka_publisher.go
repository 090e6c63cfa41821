package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

const (
	EventLowStock = "stock.low"

	headerEventType    = "x-event-type"
	headerEventVersion = "x-event-version"
)

var (
	ErrQueueFull       = errors.New("publisher queue full")
	ErrPublisherClosed = errors.New("publisher closed")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events in memory and writes them from a single
// goroutine, so publishing never waits on the broker.
type KafkaPublisher struct {
	w      messageWriter
	inbox  chan kafka.Message
	done   chan struct{}
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, buf int, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
	}
	return newPublisher(w, buf, logger)
}

func newPublisher(w messageWriter, buf int, logger *zap.Logger) *KafkaPublisher {
	if buf <= 0 {
		buf = 1
	}
	p := &KafkaPublisher{
		w:      w,
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) PublishLowStock(ctx context.Context, ev domain.LowStockEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode low stock event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SKU),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(EventLowStock)},
			{Key: headerEventVersion, Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)

	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			p.logger.Warn("kafka write failed", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
	if err := p.w.Close(); err != nil {
		p.logger.Warn("kafka writer close failed", zap.Error(err))
	}
}
