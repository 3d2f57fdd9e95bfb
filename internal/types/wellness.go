package types

import "time"

// Achievement is a catalog entry plus its mutable progress
type Achievement struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon"`
	Color        string     `json:"color"`
	Progress     int        `json:"progress"`
	MaxProgress  int        `json:"maxProgress"`
	Unlocked     bool       `json:"unlocked"`
	UnlockedDate *time.Time `json:"unlockedDate,omitempty"`
}

// WellnessStats is recomputed on every stats update
type WellnessStats struct {
	CurrentStreak        int `json:"currentStreak"`
	BestStreak           int `json:"bestStreak"`
	TodayProgress        int `json:"todayProgress"`
	TotalAchievements    int `json:"totalAchievements"`
	UnlockedAchievements int `json:"unlockedAchievements"`
	WeeklyGoal           int `json:"weeklyGoal"`
	WeeklyProgress       int `json:"weeklyProgress"`
}

// Trend is a direction label for a weekly series
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendImproving  Trend = "improving"
	TrendDeclining  Trend = "declining"
)

type SleepHealth struct {
	BlueLightExposure int      `json:"blueLightExposure"`
	NightDisturbances int      `json:"nightDisturbances"`
	PreBedScreenTime  int      `json:"preBedScreenTime"`
	SleepQualityScore int      `json:"sleepQualityScore"`
	Recommendations   []string `json:"recommendations"`
}

type FocusHealth struct {
	ProductivityScore int      `json:"productivityScore"`
	DistractionTime   int      `json:"distractionTime"`
	FocusSessions     int      `json:"focusSessions"`
	DeepWorkTime      int      `json:"deepWorkTime"`
	Recommendations   []string `json:"recommendations"`
}

type DigitalWellbeing struct {
	TotalScreenTime     int      `json:"totalScreenTime"`
	SocialMediaMinutes  int      `json:"socialMediaMinutes"`
	HealthAppMinutes    int      `json:"healthAppMinutes"`
	DigitalBalanceScore int      `json:"digitalBalanceScore"`
	Recommendations     []string `json:"recommendations"`
}

// HourlyProductivity is the productive share of one hour-of-day bucket
type HourlyProductivity struct {
	Hour               int     `json:"hour"`
	ProductiveMinutes  int     `json:"productiveMinutes"`
	DistractingMinutes int     `json:"distractingMinutes"`
	ProductivityRatio  float64 `json:"productivityRatio"`
}

// AppTime is a named app with summed minutes
type AppTime struct {
	AppName string `json:"appName"`
	Minutes int    `json:"minutes"`
}

type TimeManagement struct {
	MostProductiveHours  []HourlyProductivity `json:"mostProductiveHours"`
	LeastProductiveHours []HourlyProductivity `json:"leastProductiveHours"`
	TimeWasters          []AppTime            `json:"timeWasters"`
	EfficiencyScore      int                  `json:"efficiencyScore"`
}

type WeeklyTrends struct {
	ScreenTimeTrend   Trend     `json:"screenTimeTrend"`
	ProductivityTrend Trend     `json:"productivityTrend"`
	SleepImpactTrend  Trend     `json:"sleepImpactTrend"`
	DailyScreenTime   []int     `json:"dailyScreenTime"`
	DailyProductivity []float64 `json:"dailyProductivity"`
}

// HealthInsights bundles every derived analytic for the presentation layer
type HealthInsights struct {
	Sleep          SleepHealth      `json:"sleep"`
	Focus          FocusHealth      `json:"focus"`
	Wellbeing      DigitalWellbeing `json:"wellbeing"`
	TimeManagement TimeManagement   `json:"timeManagement"`
	Trends         WeeklyTrends     `json:"trends"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// WellnessState is the persisted part of the achievement engine
type WellnessState struct {
	RunID        string        `json:"runId,omitempty"`
	SavedAt      time.Time     `json:"savedAt"`
	BestStreak   int           `json:"bestStreak"`
	Achievements []Achievement `json:"achievements"`
}
