// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for runs, live sessions, and totals

package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/runtrack/internal/models"
	"github.com/harper/runtrack/internal/storage"
	"github.com/harper/runtrack/internal/tracker"
)

// FormatDistance renders meters as "812.40 m" or "5.21 km".
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.2f m", models.Round2(meters))
	}
	return fmt.Sprintf("%.2f km", models.Round2(meters/1000))
}

// FormatDuration renders seconds as mm:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int64) string {
	return models.FormatClock(seconds)
}

// FormatSpeed renders meters per second.
func FormatSpeed(mps float64) string {
	return fmt.Sprintf("%.2f m/s", models.Round2(mps))
}

// FormatPace renders minutes per kilometer, or "--" when not moving.
func FormatPace(mps float64) string {
	if mps <= 0 || math.IsNaN(mps) || math.IsInf(mps, 0) {
		return "--"
	}
	secsPerKm := int64(math.Round(1000 / mps))
	return fmt.Sprintf("%s /km", FormatDuration(secsPerKm))
}

// FormatRun formats a stored run as one history line.
func FormatRun(index int, rec *models.RunRecord) string {
	if rec == nil {
		return color.New(color.Faint).Sprint("(invalid run)")
	}
	return fmt.Sprintf("%s %s  %s  %s  %s - %s",
		color.New(color.Faint).Sprintf("%3d.", index),
		color.CyanString(rec.Date.Local().Format("Jan 2 2006, 3:04 PM")),
		color.GreenString(FormatDistance(rec.DistanceMeters)),
		FormatDuration(rec.DurationSeconds),
		FormatPace(rec.AverageSpeed),
		color.New(color.Faint).Sprint(FormatRelativeTime(rec.Date)))
}

// FormatRunDetail formats a stored run with its route for the show command.
func FormatRunDetail(key string, rec *models.RunRecord) string {
	var sb strings.Builder
	faint := color.New(color.Faint)

	sb.WriteString(color.CyanString("Run %s\n", rec.Date.Local().Format("Monday, Jan 2 2006 at 3:04 PM")))
	sb.WriteString(faint.Sprintf("  key:      %s\n", key))
	sb.WriteString(fmt.Sprintf("  distance: %s\n", color.GreenString(FormatDistance(rec.DistanceMeters))))
	sb.WriteString(fmt.Sprintf("  duration: %s\n", FormatDuration(rec.DurationSeconds)))
	sb.WriteString(fmt.Sprintf("  speed:    %s (%s)\n", FormatSpeed(rec.AverageSpeed), FormatPace(rec.AverageSpeed)))
	sb.WriteString(fmt.Sprintf("  samples:  %d\n", len(rec.Route)))

	if len(rec.Route) > 0 {
		sb.WriteString(fmt.Sprintf("  start:    %s\n", rec.Route[0]))
		sb.WriteString(fmt.Sprintf("  finish:   %s\n", rec.Route[len(rec.Route)-1]))
	}
	return sb.String()
}

// FormatSnapshot formats a live session update on one line.
func FormatSnapshot(s tracker.Snapshot) string {
	pos := color.New(color.Faint).Sprint("waiting for fix")
	if s.LastFix != nil {
		pos = s.LastFix.String()
	}
	return fmt.Sprintf("%s  %s  %s  %d samples  %s",
		color.YellowString(s.State.String()),
		FormatDuration(s.ElapsedSeconds),
		color.GreenString(FormatDistance(s.DistanceMeters)),
		s.Samples,
		pos)
}

// FormatSummary formats history totals for the stats command.
func FormatSummary(s storage.Summary) string {
	if s.Runs == 0 {
		return color.New(color.Faint).Sprint("No runs recorded yet.")
	}
	var sb strings.Builder
	runs := "runs"
	if s.Runs == 1 {
		runs = "run"
	}
	sb.WriteString(color.CyanString("%d %s\n", s.Runs, runs))
	sb.WriteString(fmt.Sprintf("  total distance: %s\n", color.GreenString(FormatDistance(s.DistanceMeters))))
	sb.WriteString(fmt.Sprintf("  total time:     %s\n", FormatDuration(s.DurationSeconds)))
	sb.WriteString(fmt.Sprintf("  average pace:   %s\n", FormatPace(s.AverageSpeed())))
	sb.WriteString(fmt.Sprintf("  longest run:    %s\n", FormatDistance(s.LongestMeters)))
	sb.WriteString(fmt.Sprintf("  fastest run:    %s (%s)\n", FormatSpeed(s.FastestSpeed), FormatPace(s.FastestSpeed)))
	return sb.String()
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
