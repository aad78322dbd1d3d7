package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/body-measure-go/internal/analyzer"
	"github.com/anime-shed/body-measure-go/internal/convergence"
	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
	"github.com/anime-shed/body-measure-go/internal/logger"
	"github.com/anime-shed/body-measure-go/internal/observer"
	"github.com/anime-shed/body-measure-go/internal/repository"
	"github.com/anime-shed/body-measure-go/pkg/models"
	"github.com/anime-shed/body-measure-go/pkg/services"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
	"github.com/anime-shed/body-measure-go/pkg/validation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session ended")
)

// MeasurementService runs measurement sessions over streams of landmark
// frames
type MeasurementService interface {
	// Session lifecycle
	StartSession(ctx context.Context) (*models.SessionInfo, error)
	ProcessFrame(ctx context.Context, sessionID string, req models.FrameRequest) (*models.FrameResult, error)
	ResetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
	EndSession(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
	SessionReport(ctx context.Context, sessionID string) (*models.MeasurementReport, error)

	// Offline evaluation of a recorded session
	Replay(ctx context.Context, frames []models.TimedFrame) (*models.ReplayResponse, error)

	// Stateless sizing
	Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error)
	PredictManual(ctx context.Context, req models.ManualPredictRequest) (*models.ManualPredictResponse, error)
	Chart() *sizing.Chart

	// Locked results
	GetResult(ctx context.Context, id string) (*models.StoredResult, error)
	ListResults(ctx context.Context, limit int) ([]*models.StoredResult, error)

	// Run evicts idle sessions until ctx is done.
	Run(ctx context.Context)
}

// Dependencies are the collaborators of a measurement service.
type Dependencies struct {
	Extractor analyzer.Extractor
	Machine   *convergence.Machine
	Chart     *sizing.Chart
	Validator *validation.FrameValidator
	Reports   *services.ReportService
	Results   repository.ResultRepository
	Events    observer.Subject

	// ToleranceCm is the default band expansion for Classify and reports.
	ToleranceCm float64
	IdleTimeout time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type session struct {
	mu           sync.Mutex
	id           string
	state        convergence.SessionState
	lastActivity time.Time
	processed    int
	rejected     int
	ended        bool
}

type measurementService struct {
	deps Dependencies
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewMeasurementService creates a new measurement service
func NewMeasurementService(deps Dependencies) (MeasurementService, error) {
	if deps.Extractor == nil || deps.Machine == nil || deps.Chart == nil {
		return nil, fmt.Errorf("extractor, machine and chart are required")
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewFrameValidator()
	}
	if deps.Reports == nil {
		deps.Reports = services.NewReportService(deps.Chart)
	}
	if deps.Results == nil {
		deps.Results = repository.NewMemoryResultRepository()
	}
	if deps.Events == nil {
		deps.Events = observer.NewSyncEventPublisher()
	}
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = 10 * time.Minute
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &measurementService{
		deps:     deps,
		now:      now,
		sessions: make(map[string]*session),
	}, nil
}

// StartSession creates a session in the searching phase
func (s *measurementService) StartSession(ctx context.Context) (*models.SessionInfo, error) {
	now := s.now()
	sess := &session{
		id:           uuid.NewString(),
		state:        s.deps.Machine.Start(now),
		lastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.publish(ctx, observer.SessionEvent{EventType: observer.SessionStarted, SessionID: sess.id, Timestamp: now})

	return &models.SessionInfo{
		ID:        sess.id,
		Phase:     sess.state.Phase.String(),
		StartedAt: sess.state.StartedAt,
	}, nil
}

// ProcessFrame measures one frame and advances the session. Frames for the
// same session are processed one at a time.
func (s *measurementService) ProcessFrame(ctx context.Context, sessionID string, req models.FrameRequest) (*models.FrameResult, error) {
	if err := s.deps.Validator.ValidateFrame(req); err != nil {
		return nil, err
	}

	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	now := s.now()
	sess.lastActivity = now

	if sess.state.Locked() {
		return s.frameResult(sess.state, nil, now), nil
	}

	ext := s.deps.Extractor.Extract(req.Frame(), req.Width, req.Height)
	sess.processed++

	var out convergence.Outcome
	if !ext.Accepted() {
		sess.rejected++
		sess.state, out = s.deps.Machine.Reject(sess.state, now)
		s.publish(ctx, observer.SessionEvent{
			EventType: observer.FrameRejected,
			SessionID: sess.id,
			Timestamp: now,
			Reason:    string(ext.Rejection.Reason),
		})
		return s.frameResult(sess.state, ext.Rejection, now), nil
	}

	sess.state, out = s.deps.Machine.Step(sess.state, *ext.Measurement, now)
	if out.Locked {
		s.onLocked(ctx, sess, out)
	}
	return s.frameResult(sess.state, nil, now), nil
}

func (s *measurementService) onLocked(ctx context.Context, sess *session, out convergence.Outcome) {
	final := sess.state.Final
	log := logger.ForSession(sess.id).WithFields(logrus.Fields{
		"signal":     out.Signal,
		"size_label": final.SizeLabel,
	})

	result := models.NewStoredResult(uuid.NewString(), sess.id, *final)
	if err := s.deps.Results.SaveResult(ctx, result); err != nil {
		log.WithError(err).Error("Failed to persist locked measurement")
	} else {
		log.WithField("result_id", result.ID).Debug("Locked measurement saved")
	}

	s.publish(ctx, observer.SessionEvent{
		EventType: observer.MeasurementLocked,
		SessionID: sess.id,
		Timestamp: final.LockedAt,
		Signal:    string(out.Signal),
		SizeLabel: final.SizeLabel,
		Metadata: map[string]interface{}{
			"result_id":         result.ID,
			"shoulder_width_cm": final.ShoulderWidthCm,
			"torso_height_cm":   final.TorsoHeightCm,
		},
	})
}

// ResetSession discards all convergence progress. Resetting a locked
// session starts a new measurement.
func (s *measurementService) ResetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	now := s.now()
	sess.state = s.deps.Machine.Reset(now)
	sess.lastActivity = now
	sess.processed, sess.rejected = 0, 0

	s.publish(ctx, observer.SessionEvent{EventType: observer.SessionReset, SessionID: sess.id, Timestamp: now})
	return s.snapshot(sess, now), nil
}

// EndSession destroys the session
func (s *measurementService) EndSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return notFound(sessionID, ErrSessionNotFound)
	}

	sess.mu.Lock()
	sess.ended = true
	sess.mu.Unlock()

	s.publish(ctx, observer.SessionEvent{EventType: observer.SessionEnded, SessionID: sessionID})
	return nil
}

// GetSession returns the current session snapshot
func (s *measurementService) GetSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	return s.snapshot(sess, s.now()), nil
}

// SessionReport explains the classification of the final measurement, or
// of the last provisional one while the session is still converging.
func (s *measurementService) SessionReport(ctx context.Context, sessionID string) (*models.MeasurementReport, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.state
	sess.mu.Unlock()

	switch {
	case state.Final != nil:
		return s.deps.Reports.BuildReport(state.Final.Measurement, s.deps.ToleranceCm, true), nil
	case state.LastProvisional != nil:
		return s.deps.Reports.BuildReport(*state.LastProvisional, s.deps.ToleranceCm, false), nil
	}
	return nil, apperrors.NewConflictError("Session has no measurement yet", nil)
}

// Replay evaluates a recorded session offline. Frames are extracted in
// parallel and then fed to a fresh session in offset order. Nothing is
// persisted or published.
func (s *measurementService) Replay(ctx context.Context, frames []models.TimedFrame) (*models.ReplayResponse, error) {
	if len(frames) == 0 {
		return nil, apperrors.NewValidationError("No frames to replay", nil)
	}

	// Errors name the frame by its position in the caller's input.
	for i, tf := range frames {
		if tf.OffsetMs < 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Negative offset %dms at frame %d", tf.OffsetMs, i), nil)
		}
		if err := s.deps.Validator.ValidateFrame(tf.Frame); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Malformed landmark frame %d at offset %dms", i, tf.OffsetMs), err)
		}
	}

	ordered := make([]models.TimedFrame, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OffsetMs < ordered[j].OffsetMs
	})

	reqs := make([]models.FrameRequest, len(ordered))
	for i, tf := range ordered {
		reqs[i] = tf.Frame
	}

	extractions, err := s.deps.Extractor.ExtractBatch(ctx, reqs)
	if err != nil {
		return nil, apperrors.NewTimeoutError("Replay cancelled", err)
	}

	start := s.now()
	state := s.deps.Machine.Start(start)
	resp := &models.ReplayResponse{Results: make([]models.FrameResult, 0, len(ordered))}
	for i, ext := range extractions {
		now := start.Add(time.Duration(ordered[i].OffsetMs) * time.Millisecond)
		if ext.Accepted() {
			state, _ = s.deps.Machine.Step(state, *ext.Measurement, now)
		} else {
			state, _ = s.deps.Machine.Reject(state, now)
		}
		var rejection *models.Rejection
		if !state.Locked() {
			rejection = ext.Rejection
		}
		resp.Results = append(resp.Results, *s.frameResult(state, rejection, now))
	}
	resp.Final = state.Final
	return resp, nil
}

// Classify labels a known measurement
func (s *measurementService) Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error) {
	tolerance := s.deps.ToleranceCm
	if req.ToleranceCm != nil {
		if *req.ToleranceCm < 0 {
			return nil, apperrors.NewValidationError("Tolerance must be >= 0", nil)
		}
		tolerance = *req.ToleranceCm
	}

	resp := &models.ClassifyResponse{
		SizeLabel: s.deps.Chart.Classify(req.ShoulderWidthCm, req.TorsoHeightCm, tolerance),
	}
	if req.Detailed {
		resp.Report = s.deps.Reports.BuildReport(models.Measurement{
			ShoulderWidthCm: req.ShoulderWidthCm,
			TorsoHeightCm:   req.TorsoHeightCm,
			SizeLabel:       resp.SizeLabel,
		}, tolerance, false)
	}
	return resp, nil
}

// PredictManual estimates a size from self-reported measurements
func (s *measurementService) PredictManual(ctx context.Context, req models.ManualPredictRequest) (*models.ManualPredictResponse, error) {
	label, err := sizing.PredictManual(sizing.ManualInput{
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		ChestCm:  req.ChestCm,
		BodyType: sizing.BodyType(req.BodyType),
	})
	if err != nil {
		return nil, apperrors.NewValidationError("Cannot predict size", err)
	}
	return &models.ManualPredictResponse{SizeLabel: label}, nil
}

// Chart returns the size chart in use
func (s *measurementService) Chart() *sizing.Chart {
	return s.deps.Chart
}

// GetResult returns a persisted locked measurement
func (s *measurementService) GetResult(ctx context.Context, id string) (*models.StoredResult, error) {
	result, err := s.deps.Results.GetResult(ctx, id)
	switch {
	case errors.Is(err, repository.ErrResultNotFound):
		return nil, apperrors.NewNotFoundError("Result not found", err)
	case err != nil:
		return nil, repositoryError(err)
	}
	return result, nil
}

// ListResults returns persisted locked measurements, newest first
func (s *measurementService) ListResults(ctx context.Context, limit int) ([]*models.StoredResult, error) {
	if limit <= 0 || limit > repository.DefaultListLimit {
		limit = repository.DefaultListLimit
	}
	results, err := s.deps.Results.ListResults(ctx, limit)
	if err != nil {
		return nil, repositoryError(err)
	}
	return results, nil
}

// Run evicts idle sessions every half idle timeout until ctx is done
func (s *measurementService) Run(ctx context.Context) {
	ticker := time.NewTicker(max(s.deps.IdleTimeout/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(ctx, s.now()); n > 0 {
				logger.WithField("evicted", n).Info("Evicted idle measurement sessions")
			}
		}
	}
}

func (s *measurementService) evictIdle(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.deps.IdleTimeout)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if sess.lastActivity.Before(cutoff) {
			sess.ended = true
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.publish(ctx, observer.SessionEvent{
			EventType: observer.SessionExpired,
			SessionID: sess.id,
			Timestamp: now,
			Metadata:  map[string]interface{}{"frames_processed": sess.processed},
		})
	}
	return len(expired)
}

// acquire returns the session with its mutex held
func (s *measurementService) acquire(sessionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(sessionID, ErrSessionNotFound)
	}

	sess.mu.Lock()
	if sess.ended {
		sess.mu.Unlock()
		return nil, notFound(sessionID, ErrSessionEnded)
	}
	return sess, nil
}

func (s *measurementService) frameResult(state convergence.SessionState, rejection *models.Rejection, now time.Time) *models.FrameResult {
	progress := s.deps.Machine.Progress(state, now)
	result := &models.FrameResult{
		Phase:    state.Phase.String(),
		Locked:   state.Locked(),
		Progress: &progress,
	}
	switch {
	case state.Locked():
		result.Status = models.StatusLocked
		result.Final = state.Final
	case rejection != nil:
		result.Status = models.StatusRejected
		result.Rejection = rejection
	default:
		result.Status = models.StatusProvisional
		result.Provisional = state.LastProvisional
	}
	return result
}

func (s *measurementService) snapshot(sess *session, now time.Time) *models.SessionSnapshot {
	return &models.SessionSnapshot{
		ID:              sess.id,
		Phase:           sess.state.Phase.String(),
		StartedAt:       sess.state.StartedAt,
		LastActivity:    sess.lastActivity,
		FramesProcessed: sess.processed,
		FramesRejected:  sess.rejected,
		Progress:        s.deps.Machine.Progress(sess.state, now),
		LastProvisional: sess.state.LastProvisional,
		Final:           sess.state.Final,
	}
}

func (s *measurementService) publish(ctx context.Context, event observer.SessionEvent) {
	s.deps.Events.NotifyObservers(ctx, event)
}

func notFound(sessionID string, cause error) error {
	return apperrors.NewNotFoundError("Session not found", fmt.Errorf("%s: %w", sessionID, cause))
}

func repositoryError(err error) error {
	if errors.Is(err, repository.ErrRepositoryUnavailable) {
		return apperrors.NewUnavailableError("Result store unavailable", err)
	}
	return apperrors.NewInternalError("Result store failed", err)
}
