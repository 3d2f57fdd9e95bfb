// Package achievements maintains the wellness streak and the fixed achievement catalog.
package achievements

import (
	"math"
	"sync"
	"time"

	"wellsync/internal/clock"
	"wellsync/internal/types"
)

const (
	DefaultStreakThreshold = 60.0
	WeeklyGoal             = 7

	lowUsageLimitMinutes = 240
	productiveDayPercent = 80.0
	recentWindow         = 7
)

const (
	IDFirstDay     = "first_day"
	IDWeekStreak   = "week_streak"
	IDLowUsage     = "low_usage"
	IDProductivity = "productivity"
	IDNightOwl     = "night_owl"
)

// Catalog returns a fresh copy of the achievement catalog with no progress
func Catalog() []types.Achievement {
	return []types.Achievement{
		{ID: IDFirstDay, Title: "First Steps", Description: "Track your first day of usage", Icon: "footprints", Color: "#4CAF50", MaxProgress: 1},
		{ID: IDWeekStreak, Title: "Week Warrior", Description: "Keep a healthy streak for 7 days", Icon: "flame", Color: "#FF9800", MaxProgress: 7},
		{ID: IDLowUsage, Title: "Mindful User", Description: "Stay under 4 hours of screen time for 7 days", Icon: "leaf", Color: "#8BC34A", MaxProgress: 7},
		{ID: IDProductivity, Title: "Productivity Pro", Description: "Spend 80% of your time in productive apps for 5 days", Icon: "rocket", Color: "#2196F3", MaxProgress: 5},
		{ID: IDNightOwl, Title: "Night Owl Reformed", Description: "Avoid late night screen time", Icon: "moon", Color: "#673AB7", MaxProgress: 1},
	}
}

// State is the persisted part of the engine
type State = types.WellnessState

type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	threshold  float64
	bestStreak int
	catalog    []types.Achievement
	index      map[string]int
}

// NewEngine builds an engine with an empty catalog. threshold <= 0 selects DefaultStreakThreshold.
func NewEngine(c clock.Clock, threshold float64) *Engine {
	if c == nil {
		c = clock.New()
	}
	if threshold <= 0 {
		threshold = DefaultStreakThreshold
	}
	catalog := Catalog()
	index := make(map[string]int, len(catalog))
	for i, a := range catalog {
		index[a.ID] = i
	}
	return &Engine{
		clock:     c,
		threshold: threshold,
		catalog:   catalog,
		index:     index,
	}
}

// UpdateStats recomputes streaks and advances achievement progress from series
func (e *Engine) UpdateStats(series []types.UsageRecord) types.WellnessStats {
	days := types.SummarizeByDay(series)
	today := types.StartOfDay(e.clock.Now())

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.walkStreak(days)
	e.bestStreak = max(e.bestStreak, current)

	e.advance(IDFirstDay, len(days))
	e.advance(IDWeekStreak, current)
	e.advance(IDLowUsage, countRecent(days, func(d types.DaySummary) bool {
		return d.TotalMinutes <= lowUsageLimitMinutes
	}))
	e.advance(IDProductivity, countAll(days, func(d types.DaySummary) bool {
		return d.TotalMinutes > 0 && d.ProductivePercent() >= productiveDayPercent
	}))
	// night_owl has no driving computation; its progress only changes through Restore

	unlocked := 0
	for _, a := range e.catalog {
		if a.Unlocked {
			unlocked++
		}
	}

	return types.WellnessStats{
		CurrentStreak:        current,
		BestStreak:           e.bestStreak,
		TodayProgress:        todayProgress(days, today),
		TotalAchievements:    len(e.catalog),
		UnlockedAchievements: unlocked,
		WeeklyGoal:           WeeklyGoal,
		WeeklyProgress: countRecent(days, func(d types.DaySummary) bool {
			return e.qualifies(d)
		}),
	}
}

// Achievements returns a copy of the catalog
func (e *Engine) Achievements() []types.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAchievements(e.catalog)
}

func (e *Engine) BestStreak() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestStreak
}

// Snapshot captures the state for persistence
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		SavedAt:      e.clock.Now(),
		BestStreak:   e.bestStreak,
		Achievements: cloneAchievements(e.catalog),
	}
}

// Restore loads previously saved state. Unknown IDs are ignored.
func (e *Engine) Restore(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bestStreak = max(e.bestStreak, s.BestStreak)
	for _, saved := range s.Achievements {
		i, ok := e.index[saved.ID]
		if !ok {
			continue
		}
		a := &e.catalog[i]
		a.Progress = max(a.Progress, min(saved.Progress, a.MaxProgress))
		if saved.Unlocked && !a.Unlocked {
			a.Unlocked = true
			if saved.UnlockedDate != nil {
				d := *saved.UnlockedDate
				a.UnlockedDate = &d
			} else {
				now := e.clock.Now()
				a.UnlockedDate = &now
			}
		}
	}
}

// walkStreak counts consecutive qualifying days from the most recent date backwards.
// Days without usage are skipped and neither extend nor break the streak.
func (e *Engine) walkStreak(days []types.DaySummary) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if d.TotalMinutes <= 0 {
			continue
		}
		if d.HealthyPercent() < e.threshold {
			break
		}
		streak++
	}
	return streak
}

func (e *Engine) qualifies(d types.DaySummary) bool {
	return d.TotalMinutes > 0 && d.HealthyPercent() >= e.threshold
}

// advance raises progress toward the target; progress never decreases and unlock happens once
func (e *Engine) advance(id string, value int) {
	i, ok := e.index[id]
	if !ok {
		return
	}
	a := &e.catalog[i]
	if value > a.Progress {
		a.Progress = min(value, a.MaxProgress)
	}
	if !a.Unlocked && a.Progress >= a.MaxProgress {
		a.Unlocked = true
		now := e.clock.Now()
		a.UnlockedDate = &now
	}
}

func todayProgress(days []types.DaySummary, today time.Time) int {
	for _, d := range days {
		if d.Date.Equal(today) {
			return int(math.Round(d.HealthyPercent()))
		}
	}
	return 0
}

func countRecent(days []types.DaySummary, pred func(types.DaySummary) bool) int {
	start := max(0, len(days)-recentWindow)
	return countAll(days[start:], pred)
}

func countAll(days []types.DaySummary, pred func(types.DaySummary) bool) int {
	n := 0
	for _, d := range days {
		if pred(d) {
			n++
		}
	}
	return n
}

func cloneAchievements(in []types.Achievement) []types.Achievement {
	out := make([]types.Achievement, len(in))
	for i, a := range in {
		out[i] = a
		if a.UnlockedDate != nil {
			d := *a.UnlockedDate
			out[i].UnlockedDate = &d
		}
	}
	return out
}
