// ABOUTME: Location source abstraction and in-memory implementation
// ABOUTME: Any backend that can deliver the next fix plugs into a run

package location

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/harper/runtrack/internal/models"
)

// ErrLocationUnavailable is returned when a source can no longer produce fixes,
// for example after a permission denial or hardware failure.
var ErrLocationUnavailable = errors.New("location unavailable")

// Source delivers location fixes one at a time.
// Next returns io.EOF when the source is exhausted.
type Source interface {
	Next(ctx context.Context) (models.Fix, error)
}

// SliceSource replays a fixed list of fixes.
type SliceSource struct {
	fixes []models.Fix
	pos   int
	err   error
}

// NewSliceSource creates a source that yields fixes in order, then io.EOF.
func NewSliceSource(fixes []models.Fix) *SliceSource {
	return &SliceSource{fixes: fixes}
}

// FailAfter makes the source return err instead of io.EOF once its fixes run out.
func (s *SliceSource) FailAfter(err error) *SliceSource {
	s.err = err
	return s
}

// Next returns the next fix.
func (s *SliceSource) Next(ctx context.Context) (models.Fix, error) {
	if err := ctx.Err(); err != nil {
		return models.Fix{}, err
	}
	if s.pos >= len(s.fixes) {
		if s.err != nil {
			return models.Fix{}, s.err
		}
		return models.Fix{}, io.EOF
	}
	fix := s.fixes[s.pos]
	s.pos++
	return fix, nil
}

// Len returns the total number of fixes.
func (s *SliceSource) Len() int {
	return len(s.fixes)
}

// Simulate builds fixes along a straight line from start, stepping
// stepMeters east every interval. Useful for demos and tests.
func Simulate(start models.GeoPoint, steps int, stepMeters float64, begin time.Time, interval time.Duration) []models.Fix {
	// One degree of longitude at latitude φ is about 111320*cos(φ) meters.
	metersPerDegree := 111320.0 * cosDeg(start.Latitude)
	fixes := make([]models.Fix, 0, steps)
	for i := 0; i < steps; i++ {
		lng := start.Longitude
		if metersPerDegree > 0 {
			lng += float64(i) * stepMeters / metersPerDegree
		}
		fixes = append(fixes, models.NewFix(start.Latitude, lng, begin.Add(time.Duration(i)*interval)))
	}
	return fixes
}

// Paced wraps a source so fixes are released in real time, spaced by the
// difference between their timestamps.
type Paced struct {
	src   Source
	prev  time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPaced creates a real-time replay of src.
func NewPaced(src Source) *Paced {
	return &Paced{src: src, sleep: sleepCtx}
}

// Next waits until the fix is due, then returns it.
func (p *Paced) Next(ctx context.Context) (models.Fix, error) {
	fix, err := p.src.Next(ctx)
	if err != nil {
		return fix, err
	}
	if !p.prev.IsZero() && !fix.Time.IsZero() {
		if gap := fix.Time.Sub(p.prev); gap > 0 {
			if err := p.sleep(ctx, gap); err != nil {
				return models.Fix{}, err
			}
		}
	}
	if !fix.Time.IsZero() {
		p.prev = fix.Time
	}
	return fix, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cosDeg(deg float64) float64 {
	return math.Cos(deg * math.Pi / 180)
}
