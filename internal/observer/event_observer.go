package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionEvent represents a measurement session event
type SessionEvent struct {
	EventType EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Reason    string                 `json:"reason,omitempty"`
	Signal    string                 `json:"signal,omitempty"`
	SizeLabel string                 `json:"size_label,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of session event
type EventType string

const (
	// SessionStarted when a session is created
	SessionStarted EventType = "session_started"
	// FrameRejected when a frame cannot be measured
	FrameRejected EventType = "frame_rejected"
	// MeasurementLocked when a session commits its final measurement
	MeasurementLocked EventType = "measurement_locked"
	// SessionReset when a session is returned to searching
	SessionReset EventType = "session_reset"
	// SessionEnded when a client ends a session
	SessionEnded EventType = "session_ended"
	// SessionExpired when an idle session is evicted
	SessionExpired EventType = "session_expired"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event SessionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event SessionEvent)
}

// LoggingObserver logs session events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles session events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event SessionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}
	if event.Signal != "" {
		fields["signal"] = event.Signal
	}
	if event.SizeLabel != "" {
		fields["size_label"] = event.SizeLabel
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case SessionStarted:
		entry.Info("Measurement session started")
	case FrameRejected:
		entry.Debug("Frame rejected")
	case MeasurementLocked:
		entry.Info("Measurement locked")
	case SessionReset:
		entry.Info("Measurement session reset")
	case SessionEnded:
		entry.Info("Measurement session ended")
	case SessionExpired:
		entry.Warn("Measurement session expired")
	default:
		entry.Info("Session event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts session events
type MetricsObserver struct {
	mu              sync.RWMutex
	sessionsStarted int64
	sessionsEnded   int64
	sessionsExpired int64
	resets          int64
	rejections      map[string]int64
	locksBySignal   map[string]int64
	locksByLabel    map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		rejections:    make(map[string]int64),
		locksBySignal: make(map[string]int64),
		locksByLabel:  make(map[string]int64),
	}
}

// OnEvent handles session events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event SessionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SessionStarted:
		o.sessionsStarted++
	case SessionEnded:
		o.sessionsEnded++
	case SessionExpired:
		o.sessionsExpired++
	case SessionReset:
		o.resets++
	case FrameRejected:
		o.rejections[event.Reason]++
	case MeasurementLocked:
		o.locksBySignal[event.Signal]++
		o.locksByLabel[event.SizeLabel]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var totalLocks, totalRejections int64
	for _, n := range o.locksBySignal {
		totalLocks += n
	}
	for _, n := range o.rejections {
		totalRejections += n
	}

	return map[string]interface{}{
		"sessions_started": o.sessionsStarted,
		"sessions_ended":   o.sessionsEnded,
		"sessions_expired": o.sessionsExpired,
		"resets":           o.resets,
		"total_locks":      totalLocks,
		"total_rejections": totalRejections,
		"rejections":       copyCounts(o.rejections),
		"locks_by_signal":  copyCounts(o.locksBySignal),
		"locks_by_size":    copyCounts(o.locksByLabel),
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	async     bool
}

// NewEventPublisher creates a publisher that notifies observers on their
// own goroutines
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
		async:     true,
	}
}

// NewSyncEventPublisher creates a publisher that notifies observers before
// NotifyObservers returns
func NewSyncEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event SessionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if p.async {
			go notify(ctx, observer, event)
		} else {
			notify(ctx, observer, event)
		}
	}
}

func notify(ctx context.Context, obs Observer, event SessionEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
