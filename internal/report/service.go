// Package report computes dashboard aggregates over the finalized log stores.
// Everything is derived per request; nothing is precomputed or cached.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	imudomain "robogo/backend/internal/imu/domain"
	imurepo "robogo/backend/internal/imu/repository"
	"robogo/backend/internal/localdate"
	sessiondomain "robogo/backend/internal/session/domain"
	ultradomain "robogo/backend/internal/ultrasonic/domain"
	ultrarepo "robogo/backend/internal/ultrasonic/repository"
)

// UltrasonicSummary aggregates one date (or one session) of ultrasonic logs.
// An empty range yields zeroed counts and a null closest distance, never an
// error.
type UltrasonicSummary struct {
	TotalData       int      `json:"totalData"`
	TotalImages     int      `json:"totalImages"`
	TotalObstacles  int      `json:"totalObstacles"`
	AverageDistance float64  `json:"averageDistance"`
	ClosestDistance *float64 `json:"closestDistance"`
}

// IMUSummary aggregates one date (or one session) of IMU logs.
type IMUSummary struct {
	TotalData               int        `json:"total_data"`
	AverageHeading          float64    `json:"average_heading"`
	HeadingRange            [2]float64 `json:"heading_range"`
	TotalOrientationChanges int        `json:"total_orientation_changes"`
	MaxTurnAngle            float64    `json:"max_turn_angle"`
}

// SessionEntry is one session within a date index, labeled for the dashboard.
type SessionEntry struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// DateEntry is one date the scope has logs on, with the label the dashboard's
// date picker shows.
type DateEntry struct {
	Date     string         `json:"date"`
	Label    string         `json:"label"`
	Sessions []SessionEntry `json:"sessions,omitempty"`
}

// Service computes report aggregates from the two log repositories.
type Service struct {
	ultra ultrarepo.Repository
	imu   imurepo.Repository
}

// NewService creates a report service over the log repositories.
func NewService(ultra ultrarepo.Repository, imu imurepo.Repository) *Service {
	return &Service{ultra: ultra, imu: imu}
}

// Ultrasonic summarizes the scope's ultrasonic logs for the date, optionally
// restricted to one session (sessionID > 0). An empty date summarizes the
// scope's full history.
func (s *Service) Ultrasonic(ctx context.Context, scope sessiondomain.Scope, date string, sessionID int) (*UltrasonicSummary, error) {
	var logs []*ultradomain.Log
	var err error
	if date == "" {
		logs, err = s.ultra.ListByScope(ctx, scope)
	} else {
		logs, err = s.ultra.ListByDate(ctx, scope, date, sessionID)
	}
	if err != nil {
		return nil, err
	}

	sum := &UltrasonicSummary{TotalData: len(logs)}
	if len(logs) == 0 {
		return sum, nil
	}

	var total float64
	closest := math.Inf(1)
	for _, l := range logs {
		if l.ImageID != nil {
			sum.TotalImages++
		}
		if l.Alert.Obstacle() {
			sum.TotalObstacles++
		}
		total += l.Distance
		if l.Distance < closest {
			closest = l.Distance
		}
	}
	sum.AverageDistance = round2(total / float64(len(logs)))
	sum.ClosestDistance = &closest
	return sum, nil
}

// IMU summarizes the scope's IMU logs for the date, optionally restricted to
// one session; an empty date covers the full history. Logs arrive
// chronological, so turn angles and orientation changes are taken between
// consecutive samples.
func (s *Service) IMU(ctx context.Context, scope sessiondomain.Scope, date string, sessionID int) (*IMUSummary, error) {
	var logs []*imudomain.Log
	var err error
	if date == "" {
		logs, err = s.imu.ListByScope(ctx, scope)
	} else {
		logs, err = s.imu.ListByDate(ctx, scope, date, sessionID)
	}
	if err != nil {
		return nil, err
	}

	sum := &IMUSummary{TotalData: len(logs)}
	if len(logs) == 0 {
		return sum, nil
	}

	var total float64
	min, max := logs[0].Heading, logs[0].Heading
	for i, l := range logs {
		total += l.Heading
		if l.Heading < min {
			min = l.Heading
		}
		if l.Heading > max {
			max = l.Heading
		}
		if i == 0 {
			continue
		}
		prev := logs[i-1]
		if l.Direction != prev.Direction {
			sum.TotalOrientationChanges++
		}
		// Turn angle is the raw heading delta, not the shortest arc: a swing
		// from 350 to 10 reads as 340, matching what the dashboard charts.
		if turn := math.Abs(l.Heading - prev.Heading); turn > sum.MaxTurnAngle {
			sum.MaxTurnAngle = turn
		}
	}
	sum.AverageHeading = round2(total / float64(len(logs)))
	sum.HeadingRange = [2]float64{min, max}
	return sum, nil
}

// Dates returns every date the scope has finalized logs on, across both log
// tables, ascending, with dashboard labels. withSessions also fills the
// distinct session ids per date.
func (s *Service) Dates(ctx context.Context, scope sessiondomain.Scope, withSessions bool) ([]DateEntry, error) {
	ultraDates, err := s.ultra.ListDateSessions(ctx, scope)
	if err != nil {
		return nil, err
	}
	imuDates, err := s.imu.ListDateSessions(ctx, scope)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]map[int]struct{})
	for _, d := range ultraDates {
		addDateSessions(merged, d.Date, d.Sessions)
	}
	for _, d := range imuDates {
		addDateSessions(merged, d.Date, d.Sessions)
	}

	dates := make([]string, 0, len(merged))
	for d := range merged {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DateEntry, 0, len(dates))
	for _, d := range dates {
		entry := DateEntry{Date: d, Label: dateLabel(d)}
		if withSessions {
			ids := make([]int, 0, len(merged[d]))
			for id := range merged[d] {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			sessions := make([]SessionEntry, 0, len(ids))
			for _, id := range ids {
				sessions = append(sessions, SessionEntry{ID: id, Label: fmt.Sprintf("Session %d", id)})
			}
			entry.Sessions = sessions
		}
		out = append(out, entry)
	}
	return out, nil
}

func addDateSessions(merged map[string]map[int]struct{}, date string, sessions []int) {
	set, ok := merged[date]
	if !ok {
		set = make(map[int]struct{})
		merged[date] = set
	}
	for _, id := range sessions {
		set[id] = struct{}{}
	}
}

// dateLabel renders the picker label for a stored YYYY-MM-DD date. Stored
// dates are trusted; a malformed one falls back to the raw string.
func dateLabel(date string) string {
	t, err := localdate.Parse(date)
	if err != nil {
		return date
	}
	return localdate.Label(t)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
