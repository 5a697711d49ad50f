// ABOUTME: Run session state machine
// ABOUTME: Accumulates route, distance, and elapsed time between start and save

package tracker

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/runtrack/internal/geo"
	"github.com/harper/runtrack/internal/models"
)

// DefaultMinSampleDistance is the minimum spacing in meters between route samples.
const DefaultMinSampleDistance = 1.0

// ValidateMinSampleDistance rejects thresholds that are negative, NaN, or infinite.
func ValidateMinSampleDistance(meters float64) error {
	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters < 0 {
		return fmt.Errorf("min sample distance must be a finite non-negative number, got %v", meters)
	}
	return nil
}

// State is the lifecycle phase of a session.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RecordWriter persists completed runs. storage.RunStore satisfies it.
type RecordWriter interface {
	Put(key string, rec *models.RunRecord) error
}

// Session tracks one run from Start to Save.
//
// A Session is not safe for concurrent use. Ticks and fixes must be delivered
// from a single goroutine; Runner does this for callers that have both a timer
// and a location source.
type Session struct {
	id             uuid.UUID
	state          State
	saved          bool
	route          []models.GeoPoint
	distanceMeters float64
	elapsedSeconds int64
	lastFix        models.GeoPoint
	hasFix         bool

	minSampleDistance float64
	now               func() time.Time
	logger            *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithMinSampleDistance sets the route simplification threshold in meters.
func WithMinSampleDistance(meters float64) Option {
	return func(s *Session) {
		if ValidateMinSampleDistance(meters) == nil {
			s.minSampleDistance = meters
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to date saved records.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession creates an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		id:                uuid.New(),
		state:             Idle,
		minSampleDistance: DefaultMinSampleDistance,
		now:               time.Now,
		logger:            log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String()[:8])
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// DistanceMeters returns the accumulated distance, unrounded.
func (s *Session) DistanceMeters() float64 { return s.distanceMeters }

// ElapsedSeconds returns the number of ticks received while running.
func (s *Session) ElapsedSeconds() int64 { return s.elapsedSeconds }

// MinSampleDistance returns the route simplification threshold in meters.
func (s *Session) MinSampleDistance() float64 { return s.minSampleDistance }

// LastFix returns the reference point for the next distance delta.
// ok is false until the first fix after Start.
func (s *Session) LastFix() (p models.GeoPoint, ok bool) {
	return s.lastFix, s.hasFix
}

// Route returns a copy of the recorded route.
func (s *Session) Route() []models.GeoPoint {
	route := make([]models.GeoPoint, len(s.route))
	copy(route, s.route)
	return route
}

// Start begins recording. Only valid from Idle.
func (s *Session) Start() error {
	if s.state != Idle || s.saved {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	s.state = Running
	s.route = nil
	s.distanceMeters = 0
	s.elapsedSeconds = 0
	s.hasFix = false
	s.logger.Debug("run started", "min_sample_m", s.minSampleDistance)
	return nil
}

// Tick advances elapsed time by one second. Ignored unless running.
func (s *Session) Tick() {
	if s.state != Running {
		return
	}
	s.elapsedSeconds++
}

// IngestFix feeds one location fix into the session. Fixes outside the
// running state are ignored. Distance accumulates from every fix; the route
// only keeps fixes at least the sample distance away from its last sample.
func (s *Session) IngestFix(p models.GeoPoint) error {
	if s.state != Running {
		return nil
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFix, err)
	}

	if !s.hasFix {
		s.lastFix = p
		s.hasFix = true
		s.route = append(s.route, p)
		return nil
	}

	s.distanceMeters += geo.Distance(s.lastFix, p)
	s.lastFix = p

	if geo.Distance(s.route[len(s.route)-1], p) >= s.minSampleDistance {
		s.route = append(s.route, p)
	}
	return nil
}

// Stop freezes distance, time and route. Stopping a stopped session is a no-op.
func (s *Session) Stop() error {
	switch s.state {
	case Stopped:
		return nil
	case Running:
		s.state = Stopped
		s.logger.Debug("run stopped",
			"distance_m", models.Round2(s.distanceMeters),
			"elapsed_s", s.elapsedSeconds,
			"samples", len(s.route))
		return nil
	default:
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.state)
	}
}

// Record builds the record Save would persist, without persisting it.
func (s *Session) Record() (*models.RunRecord, error) {
	if s.state != Stopped || s.saved {
		return nil, fmt.Errorf("%w: save from %s", ErrInvalidTransition, s.describe())
	}
	return models.NewRunRecord(s.now(), s.distanceMeters, s.elapsedSeconds, s.route), nil
}

// Save builds a record from a stopped session and writes it. If the write
// fails the session keeps its data and Save may be called again. After a
// successful save the session cannot be reused.
func (s *Session) Save(w RecordWriter) (*models.RunRecord, error) {
	rec, err := s.Record()
	if err != nil {
		return nil, err
	}
	if err := w.Put(rec.Key(), rec); err != nil {
		s.logger.Warn("save failed", "err", err)
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.saved = true
	s.logger.Debug("run saved", "key", rec.Key())
	return rec, nil
}

// Saved reports whether the session has been persisted.
func (s *Session) Saved() bool { return s.saved }

func (s *Session) describe() string {
	if s.saved {
		return "saved"
	}
	return s.state.String()
}

// Snapshot is a read-only view of a session for display.
type Snapshot struct {
	State          State
	DistanceMeters float64
	ElapsedSeconds int64
	Samples        int
	LastFix        *models.GeoPoint
}

// Snapshot captures the session's current values.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:          s.state,
		DistanceMeters: s.distanceMeters,
		ElapsedSeconds: s.elapsedSeconds,
		Samples:        len(s.route),
	}
	if s.hasFix {
		p := s.lastFix
		snap.LastFix = &p
	}
	return snap
}
