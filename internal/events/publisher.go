package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EntityChange is published after every successful admin write so
// downstream consumers can react to catalog and account edits.
type EntityChange struct {
	EventID    string    `json:"event_id"`
	AdminCode  string    `json:"admin_code"`
	ObjectID   string    `json:"object_id"`
	Action     string    `json:"action"`
	ActorID    uint      `json:"actor_id,omitempty"`
	ActorEmail string    `json:"actor_email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	// PublishEntityChange enqueues one change event. It never blocks the
	// calling request; events are dropped with a log line when the buffer
	// is full or the broker is down.
	PublishEntityChange(ctx context.Context, change EntityChange)

	Close() error
}

type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishEntityChange(context.Context, EntityChange) {}
func (p *NoopPublisher) Close() error                                      { return nil }

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes entity-change events to one topic, keyed by
// admin code and object id so per-object ordering survives partitioning.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
	queue  chan EntityChange
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}, logger)
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &KafkaPublisher{
		writer: writer,
		logger: logger,
		queue:  make(chan EntityChange, 1024),
		ctx:    ctx,
		cancel: cancel,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *KafkaPublisher) PublishEntityChange(_ context.Context, change EntityChange) {
	if change.EventID == "" {
		change.EventID = uuid.NewString()
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now().UTC()
	}
	select {
	case p.queue <- change:
	default:
		p.logger.Warn("entity change event dropped, queue full",
			"admin", change.AdminCode, "object_id", change.ObjectID, "action", change.Action)
	}
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			return
		case change := <-p.queue:
			p.write(change)
		}
	}
}

// drain flushes whatever is still buffered at shutdown.
func (p *KafkaPublisher) drain() {
	for {
		select {
		case change := <-p.queue:
			p.write(change)
		default:
			return
		}
	}
}

func (p *KafkaPublisher) write(change EntityChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		p.logger.Error("encode entity change event", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.AdminCode + ":" + change.ObjectID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("publish entity change event",
			"admin", change.AdminCode, "object_id", change.ObjectID, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	p.cancel()
	p.wg.Wait()
	return p.writer.Close()
}
