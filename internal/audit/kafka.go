package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each entry as JSON, keyed by user id so one
// student's requests stay ordered within a partition.
type KafkaPublisher struct {
	writer Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("audit: kafka brokers and topic are required")
	}
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}), nil
}

func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

type event struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	UserID     *string   `json:"user_id,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	Error      *string   `json:"error_message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publish omits the request body; it stays in the database only.
func (p *KafkaPublisher) Publish(ctx context.Context, entry *models.APILog) error {
	ev := event{
		ID:         entry.ID.String(),
		Method:     entry.Method,
		Path:       entry.Path,
		StatusCode: entry.StatusCode,
		DurationMs: entry.DurationMs,
		IPAddress:  entry.IPAddress,
		Error:      entry.ErrorMessage,
		CreatedAt:  entry.CreatedAt,
	}
	var key []byte
	if entry.UserID != nil {
		id := entry.UserID.String()
		ev.UserID = &id
		key = []byte(id)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		return fmt.Errorf("audit: kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
