// Package insights derives sleep, focus, wellbeing, time-management and trend analytics
// from a normalized usage series.
package insights

import (
	"math"
	"sort"

	"wellsync/internal/clock"
	"wellsync/internal/types"
)

const (
	trendThreshold = 0.10
	maxBlueLight   = 120
	maxNightEvents = 5
	maxPreBed      = 60
	focusBlock     = 30
	topN           = 3
)

type Engine struct {
	clock clock.Clock
}

// NewEngine creates an insight engine stamping results with the clock's time
func NewEngine(c clock.Clock) *Engine {
	if c == nil {
		c = clock.New()
	}
	return &Engine{clock: c}
}

// categoryMinutes sums minutes per category
type categoryMinutes map[types.Category]int

func sumByCategory(records []types.UsageRecord) (categoryMinutes, int) {
	sums := make(categoryMinutes, len(types.AllCategories()))
	total := 0
	for _, r := range records {
		sums[r.Category] += r.UsageMinutes
		total += r.UsageMinutes
	}
	return sums, total
}

func (m categoryMinutes) distracting() int {
	return m[types.CategorySocial] + m[types.CategoryEntertainment]
}

// Compute builds the full insight set. weekly feeds time management and trends; today feeds the rest.
func (e *Engine) Compute(weekly, today []types.UsageRecord) types.HealthInsights {
	sums, total := sumByCategory(today)
	return types.HealthInsights{
		Sleep:          SleepHealth(today, sums),
		Focus:          FocusHealth(sums, total),
		Wellbeing:      DigitalWellbeing(sums, total),
		TimeManagement: TimeManagement(weekly),
		Trends:         WeeklyTrends(weekly),
		GeneratedAt:    e.clock.Now(),
	}
}

func isNightHour(hour int) bool {
	return hour >= 22 || hour <= 6
}

// SleepHealth scores today's distracting and late-night use
func SleepHealth(today []types.UsageRecord, sums categoryMinutes) types.SleepHealth {
	blueLight := min(sums.distracting(), maxBlueLight)

	night := 0
	for _, r := range today {
		if isNightHour(r.StartTime.Hour()) {
			night++
		}
	}
	night = min(night, maxNightEvents)

	preBed := math.Min(float64(sums[types.CategorySocial])*0.4, maxPreBed)
	score := 100 - 0.5*float64(blueLight) - 10*float64(night) - 0.3*preBed

	var recs []string
	if blueLight > 60 {
		recs = append(recs, "Reduce blue light exposure by limiting video and social apps in the evening")
	}
	if night > 2 {
		recs = append(recs, "Avoid picking up your phone between 10 PM and 6 AM")
	}
	if preBed > 30 {
		recs = append(recs, "Put social media away at least an hour before bed")
	}
	if len(recs) == 0 {
		recs = append(recs, "Great sleep hygiene, keep your evening screen time low")
	}

	return types.SleepHealth{
		BlueLightExposure: blueLight,
		NightDisturbances: night,
		PreBedScreenTime:  int(math.Round(preBed)),
		SleepQualityScore: clampScore(score),
		Recommendations:   recs,
	}
}

// FocusHealth derives productivity share, distraction time and focus sessions
func FocusHealth(sums categoryMinutes, total int) types.FocusHealth {
	productive := sums[types.CategoryProductivity]
	score := 0
	if total > 0 {
		score = int(math.Round(float64(productive) / float64(total) * 100))
	}
	distraction := sums.distracting()
	sessions := max(1, productive/focusBlock)

	var recs []string
	if total > 0 && score < 40 {
		recs = append(recs, "Less than 40% of your screen time was productive, try blocking distracting apps during work hours")
	}
	if distraction > 120 {
		recs = append(recs, "Over two hours went to social and entertainment apps, set a daily limit")
	}
	if sessions < 3 && total > 0 {
		recs = append(recs, "Schedule focused 30 minute work blocks to build deep work time")
	}
	if len(recs) == 0 {
		recs = append(recs, "Nice focus today, keep protecting your deep work time")
	}

	return types.FocusHealth{
		ProductivityScore: score,
		DistractionTime:   distraction,
		FocusSessions:     sessions,
		DeepWorkTime:      int(math.Round(float64(productive) * 0.7)),
		Recommendations:   recs,
	}
}

// DigitalWellbeing scores today's balance between total, social and health use
func DigitalWellbeing(sums categoryMinutes, total int) types.DigitalWellbeing {
	social := sums[types.CategorySocial]
	health := sums[types.CategoryHealth]
	score := 100

	var recs []string
	switch {
	case total > 480:
		score -= 30
		recs = append(recs, "Screen time is above 8 hours, plan some offline breaks")
	case total > 360:
		score -= 15
		recs = append(recs, "Screen time is above 6 hours, consider a screen-free hour")
	}
	if total > 0 && float64(social)/float64(total) > 0.5 {
		score -= 25
		recs = append(recs, "Social media is more than half of your screen time")
	}
	if health < 10 {
		score -= 10
		recs = append(recs, "Spend at least 10 minutes in a health or mindfulness app")
	}
	if len(recs) == 0 {
		recs = append(recs, "Your digital balance looks healthy")
	}

	return types.DigitalWellbeing{
		TotalScreenTime:     total,
		SocialMediaMinutes:  social,
		HealthAppMinutes:    health,
		DigitalBalanceScore: max(score, 0),
		Recommendations:     recs,
	}
}

// TimeManagement ranks the week's hours by productive share and lists the most distracting apps
func TimeManagement(weekly []types.UsageRecord) types.TimeManagement {
	byHour := make(map[int]*types.HourlyProductivity)
	byApp := make(map[string]int)
	totalProductive, totalDistracting := 0, 0

	for _, r := range weekly {
		hour := r.StartTime.Hour()
		h, ok := byHour[hour]
		if !ok {
			h = &types.HourlyProductivity{Hour: hour}
			byHour[hour] = h
		}
		switch {
		case r.Category == types.CategoryProductivity:
			h.ProductiveMinutes += r.UsageMinutes
			totalProductive += r.UsageMinutes
		case r.Category.IsDistracting():
			h.DistractingMinutes += r.UsageMinutes
			totalDistracting += r.UsageMinutes
			byApp[r.AppName] += r.UsageMinutes
		}
	}

	hours := make([]types.HourlyProductivity, 0, len(byHour))
	for _, h := range byHour {
		if denom := h.ProductiveMinutes + h.DistractingMinutes; denom > 0 {
			h.ProductivityRatio = float64(h.ProductiveMinutes) / float64(denom)
		}
		hours = append(hours, *h)
	}

	most := make([]types.HourlyProductivity, len(hours))
	copy(most, hours)
	sort.Slice(most, func(i, j int) bool {
		if most[i].ProductivityRatio != most[j].ProductivityRatio {
			return most[i].ProductivityRatio > most[j].ProductivityRatio
		}
		return most[i].Hour < most[j].Hour
	})

	least := make([]types.HourlyProductivity, len(hours))
	copy(least, hours)
	sort.Slice(least, func(i, j int) bool {
		if least[i].ProductivityRatio != least[j].ProductivityRatio {
			return least[i].ProductivityRatio < least[j].ProductivityRatio
		}
		return least[i].Hour < least[j].Hour
	})

	wasters := make([]types.AppTime, 0, len(byApp))
	for name, minutes := range byApp {
		if minutes > 0 {
			wasters = append(wasters, types.AppTime{AppName: name, Minutes: minutes})
		}
	}
	sort.Slice(wasters, func(i, j int) bool {
		if wasters[i].Minutes != wasters[j].Minutes {
			return wasters[i].Minutes > wasters[j].Minutes
		}
		return wasters[i].AppName < wasters[j].AppName
	})

	efficiency := 0
	if denom := totalProductive + totalDistracting; denom > 0 {
		efficiency = int(math.Round(float64(totalProductive) / float64(denom) * 100))
	}

	return types.TimeManagement{
		MostProductiveHours:  head(most, topN),
		LeastProductiveHours: head(least, topN),
		TimeWasters:          head(wasters, topN),
		EfficiencyScore:      efficiency,
	}
}

// WeeklyTrends compares the newer half of the week against the older half
func WeeklyTrends(weekly []types.UsageRecord) types.WeeklyTrends {
	days := types.SummarizeByDay(weekly)
	screen := make([]int, len(days))
	screenF := make([]float64, len(days))
	productivity := make([]float64, len(days))
	for i, d := range days {
		screen[i] = d.TotalMinutes
		screenF[i] = float64(d.TotalMinutes)
		productivity[i] = d.ProductivePercent()
	}

	screenTrend := classify(screenF, types.TrendIncreasing, types.TrendDecreasing)
	// sleep impact only follows screen time; it is not measured independently
	sleepTrend := types.TrendDeclining
	if screenTrend == types.TrendDecreasing {
		sleepTrend = types.TrendImproving
	}

	return types.WeeklyTrends{
		ScreenTimeTrend:   screenTrend,
		ProductivityTrend: classify(productivity, types.TrendImproving, types.TrendDeclining),
		SleepImpactTrend:  sleepTrend,
		DailyScreenTime:   screen,
		DailyProductivity: productivity,
	}
}

// classify compares the average of the second half of series against the first half
func classify(series []float64, up, down types.Trend) types.Trend {
	if len(series) < 2 {
		return types.TrendStable
	}
	half := len(series) / 2
	first, second := average(series[:half]), average(series[half:])

	if first == 0 {
		if second > 0 {
			return up
		}
		return types.TrendStable
	}

	change := (second - first) / first
	switch {
	case change > trendThreshold:
		return up
	case change < -trendThreshold:
		return down
	default:
		return types.TrendStable
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
