package observer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event SessionEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                        { return "panicking" }

func TestMetricsObserver(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewSyncEventPublisher()
	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(metrics)

	ctx := context.Background()
	events := []SessionEvent{
		{EventType: SessionStarted, SessionID: "a"},
		{EventType: FrameRejected, SessionID: "a", Reason: "low_visibility"},
		{EventType: FrameRejected, SessionID: "a", Reason: "low_visibility"},
		{EventType: FrameRejected, SessionID: "a", Reason: "landmarks_missing"},
		{EventType: MeasurementLocked, SessionID: "a", Signal: "stillness", SizeLabel: "L"},
		{EventType: SessionReset, SessionID: "a"},
		{EventType: SessionEnded, SessionID: "a"},
	}
	for _, e := range events {
		publisher.NotifyObservers(ctx, e)
	}

	got := metrics.GetMetrics()
	if got["sessions_started"] != int64(1) {
		t.Errorf("Expected 1 session started, got %v", got["sessions_started"])
	}
	if got["total_rejections"] != int64(3) {
		t.Errorf("Expected 3 rejections, got %v", got["total_rejections"])
	}
	rejections := got["rejections"].(map[string]int64)
	if rejections["low_visibility"] != 2 {
		t.Errorf("Expected 2 low_visibility rejections, got %d", rejections["low_visibility"])
	}
	if got["total_locks"] != int64(1) {
		t.Errorf("Expected 1 lock, got %v", got["total_locks"])
	}
	if got["locks_by_size"].(map[string]int64)["L"] != 1 {
		t.Errorf("Expected 1 lock at size L, got %v", got["locks_by_size"])
	}
	if got["resets"] != int64(1) || got["sessions_ended"] != int64(1) {
		t.Errorf("Unexpected reset/end counts: %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewSyncEventPublisher()
	publisher.Subscribe(metrics)
	publisher.Unsubscribe(metrics)

	publisher.NotifyObservers(context.Background(), SessionEvent{EventType: SessionStarted})
	if got := metrics.GetMetrics()["sessions_started"]; got != int64(0) {
		t.Errorf("Expected no events after unsubscribe, got %v", got)
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(logger)
	obs.OnEvent(context.Background(), SessionEvent{
		EventType: MeasurementLocked,
		SessionID: "abc",
		Signal:    "repeat_label",
		SizeLabel: "M",
	})

	out := buf.String()
	for _, want := range []string{`"session_id":"abc"`, `"size_label":"M"`, "Measurement locked"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}
