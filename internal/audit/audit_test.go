package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
)

type memLogs struct {
	mu      sync.Mutex
	entries []*models.APILog
	err     error
}

func (m *memLogs) Create(_ context.Context, e *models.APILog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLogs) List(context.Context, repositories.APILogFilter) ([]models.APILog, int64, error) {
	return nil, 0, nil
}

func (m *memLogs) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestRecorder_PersistsAndPublishes(t *testing.T) {
	logs := &memLogs{}
	w := &fakeWriter{}
	rec := NewRecorder(logs, Options{Publisher: NewKafkaPublisherWithWriter(w)})

	userID := uuid.New()
	rec.Record(&models.APILog{Method: "POST", Path: "/api/jobs", StatusCode: 201, UserID: &userID})
	rec.Record(&models.APILog{Method: "GET", Path: "/health", StatusCode: 200})

	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(logs.entries) != 2 {
		t.Fatalf("persisted %d entries, want 2", len(logs.entries))
	}
	if len(w.msgs) != 2 || !w.closed {
		t.Fatalf("published %d messages, closed=%v", len(w.msgs), w.closed)
	}

	var keyed *kafka.Message
	for i := range w.msgs {
		if len(w.msgs[i].Key) > 0 {
			keyed = &w.msgs[i]
		}
	}
	if keyed == nil || string(keyed.Key) != userID.String() {
		t.Fatal("expected a message keyed by user id")
	}
	var ev map[string]any
	if err := json.Unmarshal(keyed.Value, &ev); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if ev["path"] != "/api/jobs" || ev["status_code"] != float64(201) {
		t.Fatalf("unexpected payload %v", ev)
	}
	if _, ok := ev["request_body"]; ok {
		t.Fatal("request body must not be published")
	}
}

func TestRecorder_FailuresAreSwallowed(t *testing.T) {
	logs := &memLogs{err: errors.New("db down")}
	w := &fakeWriter{err: errors.New("broker down")}
	rec := NewRecorder(logs, Options{Publisher: NewKafkaPublisherWithWriter(w), Timeout: time.Second})

	rec.Record(&models.APILog{Method: "GET", Path: "/api/skills", StatusCode: 200})
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(logs.entries) != 0 || len(w.msgs) != 0 {
		t.Fatal("nothing should have been stored")
	}
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(&models.APILog{})
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewKafkaPublisher_RequiresConfig(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "topic"); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatal("expected error without topic")
	}
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "portal.api-logs")
	if err != nil || p == nil {
		t.Fatalf("NewKafkaPublisher: %v", err)
	}
	_ = p.Close()
}
